package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	assert.Equal(t, "0.1.0", Version())
}

func TestGetFullVersionString(t *testing.T) {
	defer func(c, d string) { GitCommit, BuildDate = c, d }(GitCommit, BuildDate)

	GitCommit, BuildDate = "", ""
	s := GetFullVersionString()
	assert.True(t, strings.HasPrefix(s, "DMA SDK v0.1.0"))
	assert.Contains(t, s, runtime.Version())
	assert.NotContains(t, s, "commit")

	GitCommit, BuildDate = "0123456789abcdef", "2026-01-01"
	s = GetFullVersionString()
	assert.Contains(t, s, "(commit: 0123456)")
	assert.Contains(t, s, "(built: 2026-01-01)")
}

func TestIsCompatible(t *testing.T) {
	assert.True(t, IsCompatible(Major, Minor))
	assert.True(t, IsCompatible(Major, 0))
	assert.False(t, IsCompatible(Major+1, Minor))
	assert.False(t, IsCompatible(Major, Minor+1))
}
