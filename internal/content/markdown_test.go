package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name     string
		source   string
		contains []string
		excludes []string
	}{
		{
			name:     "heading and emphasis",
			source:   "# Choosing a lawyer\n\nAsk about **fees** first.",
			contains: []string{"<h1 id=\"choosing-a-lawyer\">Choosing a lawyer</h1>", "<strong>fees</strong>"},
		},
		{
			name:     "gfm table",
			source:   "| State | Firms |\n|---|---|\n| NY | 3 |",
			contains: []string{"<table>", "<td>NY</td>"},
		},
		{
			name:     "script stripped",
			source:   "Hello <script>alert(1)</script> world",
			contains: []string{"Hello", "world"},
			excludes: []string{"<script", "alert(1)"},
		},
		{
			name:     "event handler stripped",
			source:   `<a href="https://example.com" onclick="steal()">site</a>`,
			contains: []string{`href="https://example.com"`, `rel="nofollow`},
			excludes: []string{"onclick"},
		},
		{
			name:     "javascript url stripped",
			source:   "[click](javascript:alert(1))",
			excludes: []string{"javascript:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(tt.source)
			require.NoError(t, err)
			for _, c := range tt.contains {
				assert.Contains(t, out, c)
			}
			for _, e := range tt.excludes {
				assert.NotContains(t, out, e)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	r := NewRenderer()
	text, err := r.PlainText("## Title\n\nSome *important*   text here.", 0)
	require.NoError(t, err)
	assert.Equal(t, "Title Some important text here.", text)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, "anything", Truncate("anything", 0))

	got := Truncate("the quick brown fox jumps over the lazy dog", 20)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Equal(t, "the quick brown fox…", got)
}
