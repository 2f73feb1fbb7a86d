package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromGOOS(t *testing.T) {
	tests := map[string]Platform{
		"linux":   Linux,
		"android": Linux,
		"darwin":  Darwin,
		"windows": Windows,
		"freebsd": Other,
		"openbsd": Other,
	}
	for goos, want := range tests {
		assert.Equal(t, want, FromGOOS(goos), goos)
	}
	assert.Equal(t, "windows", Windows.String())
	assert.Equal(t, "other", Other.String())
}
