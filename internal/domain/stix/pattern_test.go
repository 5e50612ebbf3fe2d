package stix

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewritePattern(t *testing.T) {
	upper := func(path, value string) string {
		return strings.ToUpper(value)
	}

	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{
			name:    "single comparison",
			pattern: "[ipv4-addr:value = '203.0.113.77']",
			want:    "[ipv4-addr:value = '203.0.113.77']",
		},
		{
			name:    "boolean connectives preserved",
			pattern: "[ipv4-addr:value = 'a' AND domain-name:value = 'b'] OR [url:value = 'c']",
			want:    "[ipv4-addr:value = 'A' AND domain-name:value = 'B'] OR [url:value = 'C']",
		},
		{
			name:    "nested object path",
			pattern: "[email-message:from_ref.value = 'x@y.com']",
			want:    "[email-message:from_ref.value = 'X@Y.COM']",
		},
		{
			name:    "escaped quote inside literal",
			pattern: `[file:name = 'it\'s.exe']`,
			want:    `[file:name = 'IT\'S.EXE']`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := RewritePattern(tt.pattern, upper)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestRewritePattern_PassesObjectPath(t *testing.T) {
	var paths []string
	_, err := RewritePattern(
		"[ipv4-addr:value = 'a' AND domain-name:value = 'b']",
		func(path, value string) string {
			paths = append(paths, path)
			return value
		})
	require.NoError(t, err)
	assert.Equal(t, []string{"ipv4-addr:value", "domain-name:value"}, paths)
}

func TestRewritePattern_Errors(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		reason  string
	}{
		{"empty", "", "empty pattern"},
		{"unbalanced open", "[ipv4-addr:value = 'a'", "unbalanced brackets"},
		{"unbalanced close", "ipv4-addr:value = 'a']", "unbalanced brackets"},
		{"unterminated literal", "[ipv4-addr:value = 'a]", "unterminated string literal"},
		{"no comparisons", "[]", "no comparisons found"},
		{"literal without path", "['orphan']", "string literal without object path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RewritePattern(tt.pattern, func(path, value string) string { return value })
			require.Error(t, err)

			var parseErr *PatternParseError
			require.ErrorAs(t, err, &parseErr)
			assert.Equal(t, tt.reason, parseErr.Reason)
		})
	}
}

func TestExtractComparisons(t *testing.T) {
	found, err := ExtractComparisons("[ipv4-addr:value = '203.0.113.77' AND url:value = 'https://x.test/']")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "ipv4-addr:value", found[0].Path)
	assert.Equal(t, "203.0.113.77", found[0].Value)
	assert.Equal(t, "url:value", found[1].Path)
}

func TestRewritePattern_EscapesReplacement(t *testing.T) {
	out, err := RewritePattern("[file:name = 'x']", func(path, value string) string {
		return "it's"
	})
	require.NoError(t, err)
	assert.Equal(t, `[file:name = 'it\'s']`, out)
}
