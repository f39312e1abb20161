package slug

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "Family Law", "family-law"},
		{"ampersand", "Smith & Jones LLP", "smith-and-jones-llp"},
		{"accents", "Peña Muñoz Associés", "pena-munoz-associes"},
		{"apostrophe", "O'Brien Law", "obrien-law"},
		{"punctuation runs", "  Baker,  McKenzie -- LLC!! ", "baker-mckenzie-llc"},
		{"digits", "Route 66 Legal", "route-66-legal"},
		{"empty", "", ""},
		{"only symbols", "***", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Make(tt.input))
		})
	}
}

func TestMake_TruncatesAtWordBoundary(t *testing.T) {
	long := strings.Repeat("word ", 60)
	s := Make(long)
	assert.LessOrEqual(t, len(s), MaxLength)
	assert.False(t, strings.HasSuffix(s, "-"))
	assert.True(t, strings.HasSuffix(s, "word"))
}

func TestUnique(t *testing.T) {
	taken := map[string]bool{"acme": true, "acme-2": true}
	s, err := Unique("acme", func(c string) (bool, error) { return taken[c], nil })
	require.NoError(t, err)
	assert.Equal(t, "acme-3", s)

	s, err = Unique("fresh", func(c string) (bool, error) { return taken[c], nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", s)

	_, err = Unique("x", func(string) (bool, error) { return false, errors.New("db down") })
	assert.Error(t, err)
}
