package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuild(t *testing.T, build, commit string, bi *debug.BuildInfo) {
	t.Helper()
	oldBuild, oldCommit, oldRead := BuildNumber, GitCommit, readBuildInfo
	t.Cleanup(func() { BuildNumber, GitCommit, readBuildInfo = oldBuild, oldCommit, oldRead })
	BuildNumber, GitCommit = build, commit
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, bi != nil }
}

func TestString(t *testing.T) {
	withBuild(t, "7", "unknown", nil)
	assert.Equal(t, "build 7", String())

	GitCommit = ""
	assert.Equal(t, "build 7", String())

	GitCommit = "abc123"
	assert.Equal(t, "build 7 (abc123)", String())
}

func TestCommit_FallsBackToVCSStamp(t *testing.T) {
	withBuild(t, "3", "unknown", &debug.BuildInfo{
		GoVersion: "go1.25.0",
		Settings: []debug.BuildSetting{
			{Key: "vcs", Value: "git"},
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		},
	})
	assert.Equal(t, "0123456789ab", Commit())
	assert.Equal(t, "build 3 (0123456789ab)", String())
	assert.Equal(t, map[string]string{"build": "3", "commit": "0123456789ab", "go": "go1.25.0"}, Info())

	// an ldflags commit wins over the stamp
	GitCommit = "feed"
	assert.Equal(t, "feed", Commit())
}

func TestInfo_NoBuildInfo(t *testing.T) {
	withBuild(t, "0", "unknown", nil)
	assert.Equal(t, map[string]string{"build": "0"}, Info())
}
