package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetFillsDefaults(t *testing.T) {
	info := Get()
	assert.NotEmpty(t, info.CommitHash)
	assert.NotEmpty(t, info.BuildTime)
	assert.True(t, strings.HasPrefix(info.GoVersion, "go"))
	assert.Contains(t, info.Platform, "/")
}

func TestInfoString(t *testing.T) {
	i := Info{Version: "1.2.0", CommitHash: "0123456789abcdef", BuildTime: "2026-01-01", GoVersion: "go1.24", Platform: "linux/amd64", Modified: true}
	assert.Equal(t, "0123456", i.Short())
	assert.Equal(t, "kgbridge 1.2.0 (commit 0123456+dirty, built 2026-01-01, go1.24 linux/amd64)", i.String())
}
