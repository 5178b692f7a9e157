package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeEmptyAllowsEverything(t *testing.T) {
	s, err := NewScope(nil)
	require.NoError(t, err)

	assert.True(t, s.Allows("https://example.com/anything"))
	assert.True(t, (*Scope)(nil).Allows("https://example.com"))
}

func TestScopeMatchesHostPatterns(t *testing.T) {
	s, err := NewScope([]string{"*.example.com", "example.com"})
	require.NoError(t, err)

	assert.True(t, s.Allows("https://www.example.com/search?q=1"))
	assert.True(t, s.Allows("https://example.com"))
	assert.False(t, s.Allows("https://evil.com"))
	assert.False(t, s.Allows("https://example.com.evil.com"))
}

func TestScopeMatchesHostPathPatterns(t *testing.T) {
	s, err := NewScope([]string{"docs.example.com/guides/*"})
	require.NoError(t, err)

	assert.True(t, s.Allows("https://docs.example.com/guides/intro"))
	assert.False(t, s.Allows("https://docs.example.com/api/tokens"))
}

func TestScopeRejectsUnparsableURL(t *testing.T) {
	s, err := NewScope([]string{"example.com"})
	require.NoError(t, err)

	assert.False(t, s.Allows("://not a url"))
}

func TestScopeSkipsBlankPatterns(t *testing.T) {
	s, err := NewScope([]string{"", "  ", "example.com"})
	require.NoError(t, err)

	assert.True(t, s.Allows("https://example.com"))
}
