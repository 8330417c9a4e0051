package version

import (
	"runtime/debug"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func withVars(t *testing.T, v, commit, built string) {
	t.Helper()
	oldV, oldC, oldB := Version, GitCommit, BuildTime
	Version, GitCommit, BuildTime = v, commit, built
	t.Cleanup(func() { Version, GitCommit, BuildTime = oldV, oldC, oldB })
}

func TestResolveFromVCSStamp(t *testing.T) {
	withVars(t, "dev", "", "")
	info := resolve(&debug.BuildInfo{
		GoVersion: "go1.25.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.modified", Value: "true"},
			{Key: "vcs.time", Value: "2026-09-30T12:00:00Z"},
		},
	})

	assert.Equal(t, "0123456", info.GitCommit)
	assert.True(t, info.Dirty)
	assert.Equal(t, time.Date(2026, 9, 30, 12, 0, 0, 0, time.UTC), info.BuildDate)
	assert.False(t, info.IsRelease())
	assert.Equal(t, "dev-0123456-dirty", info.Short())
	assert.Equal(t, "dev-0123456-dirty (built 2026-09-30T12:00:00Z) go1.25.0", info.String())
}

func TestLinkerValuesWin(t *testing.T) {
	withVars(t, "v1.4.0", "feedbee", "2026-10-01T08:00:00Z")
	info := resolve(&debug.BuildInfo{
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-09-30T12:00:00Z"},
		},
	})

	assert.Equal(t, "feedbee", info.GitCommit)
	assert.Equal(t, 1, info.BuildDate.Day())
	assert.True(t, info.IsRelease())
	assert.Equal(t, "v1.4.0-feedbee", info.Short())
}

func TestResolveWithoutBuildInfo(t *testing.T) {
	withVars(t, "dev", "", "not-a-time")
	info := resolve(nil)
	assert.Equal(t, "dev", info.Short())
	assert.True(t, info.BuildDate.IsZero())
	assert.Equal(t, "dev", info.String())
}

func TestGet(t *testing.T) {
	assert.NotEmpty(t, Get().Version)
}
