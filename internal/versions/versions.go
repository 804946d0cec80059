// Package versions provides build version information.
package versions

import (
	"fmt"
	"runtime"
)

// Overridden at build time via -ldflags.
var (
	// Version is the release version
	Version = "dev"
	// Commit is the git commit hash the binary was built from
	Commit = "unknown"
	// BuildDate is the date the binary was built
	BuildDate = "unknown"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns the version information of the running binary.
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}
