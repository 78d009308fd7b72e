package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"plain", "Browser", false},
		{"suffixed", "Browser__2", false},
		{"dotted", "agent.main-1", false},
		{"empty", "", true},
		{"slash", "a/b", true},
		{"space", "a b", true},
		{"too long", strings.Repeat("a", MaxIDLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateID(tt.id, "id")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "WestOS", "WestOS"},
		{"tags stripped", "<b>Dark</b> theme", "Dark theme"},
		{"script removed", "<script>alert(1)</script>ok", "ok"},
		{"query kept", "https://example.com/?a=1&b=2", "https://example.com/?a=1&b=2"},
		{"control chars", "a\x07b\nc", "abc"},
		{"trimmed", "  padded  ", "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeText(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeTextRejects(t *testing.T) {
	_, err := SanitizeText(strings.Repeat("x", MaxValueLength+1))
	assert.Error(t, err)

	_, err = SanitizeText("\xff\xfe")
	assert.Error(t, err)
}

func TestSanitizeArguments(t *testing.T) {
	args, err := SanitizeArguments(map[string]interface{}{
		"url":    "/Users/<i>guest</i>/notes.md",
		"count":  float64(3),
		"nested": map[string]interface{}{"title": "<b>x</b>"},
		"list":   []interface{}{"<em>a</em>", true},
	})
	require.NoError(t, err)

	assert.Equal(t, "/Users/guest/notes.md", args["url"])
	assert.Equal(t, float64(3), args["count"])
	assert.Equal(t, map[string]interface{}{"title": "x"}, args["nested"])
	assert.Equal(t, []interface{}{"a", true}, args["list"])
}

func TestSanitizeArgumentsRejects(t *testing.T) {
	_, err := SanitizeArguments(map[string]interface{}{"bad key": "x"})
	assert.Error(t, err)

	tooMany := make(map[string]interface{}, MaxArgumentKeys+1)
	for i := 0; i <= MaxArgumentKeys; i++ {
		tooMany[strings.Repeat("k", i+1)] = i
	}
	_, err = SanitizeArguments(tooMany)
	assert.Error(t, err)

	empty, err := SanitizeArguments(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
