package seed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	ref, err := Load()
	require.NoError(t, err)
	assert.Len(t, ref.States, 51)
	assert.NotEmpty(t, ref.PracticeAreas)

	codes := make(map[string]bool)
	for _, s := range ref.States {
		assert.Len(t, s.Code, 2, s.Name)
		assert.False(t, codes[s.Code], "duplicate code %s", s.Code)
		codes[s.Code] = true
	}
}

func TestLookupState(t *testing.T) {
	tests := []struct {
		input string
		code  string
		ok    bool
	}{
		{"NY", "NY", true},
		{"ny", "NY", true},
		{" New  York ", "NY", true},
		{"district of columbia", "DC", true},
		{"Calif.", "", false},
		{"", "", false},
		{"Ontario", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s, ok := LookupState(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.code, s.Code)
		})
	}
}
