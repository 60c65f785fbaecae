// Package version reports the build of the yuvtool binary.
//
// BuildNumber and GitCommit are set with -ldflags:
//
//	go build -ldflags "-X yuvtool/internal/version.BuildNumber=42 -X yuvtool/internal/version.GitCommit=$(git rev-parse --short HEAD)" ./cmd/yuvtool
package version

import "runtime/debug"

var (
	// BuildNumber is a monotonically increasing string set by the build script.
	BuildNumber = "0"
	// GitCommit is the short commit hash; "unknown" falls back to the
	// revision the toolchain stamped into the binary, if any.
	GitCommit = "unknown"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Commit returns the commit the binary was built from, or "".
func Commit() string {
	if GitCommit != "" && GitCommit != "unknown" {
		return GitCommit
	}
	bi, ok := readBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			return s.Value[:min(len(s.Value), 12)]
		}
	}
	return ""
}

// String is "build N" or "build N (commit)".
func String() string {
	if c := Commit(); c != "" {
		return "build " + BuildNumber + " (" + c + ")"
	}
	return "build " + BuildNumber
}

// Info is the build description served by /health.
func Info() map[string]string {
	out := map[string]string{"build": BuildNumber}
	if c := Commit(); c != "" {
		out["commit"] = c
	}
	if bi, ok := readBuildInfo(); ok {
		out["go"] = bi.GoVersion
	}
	return out
}
