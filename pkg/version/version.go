package version

import (
	"fmt"
	"runtime"
)

// Version information - using semantic versioning
const (
	Major      = 0
	Minor      = 1
	Patch      = 0
	PreRelease = "" // e.g., "alpha", "beta", "rc1"
)

// Set at build time with -ldflags "-X github.com/summerfi/dma-sdk/pkg/version.GitCommit=..."
var (
	GitCommit = ""
	BuildDate = ""
)

// SDKName is reported by the CLI version command
const SDKName = "DMA SDK"

// Version returns the semantic version string
func Version() string {
	version := fmt.Sprintf("%d.%d.%d", Major, Minor, Patch)
	if PreRelease != "" {
		version += "-" + PreRelease
	}
	return version
}

// BuildInfo contains comprehensive build information
type BuildInfo struct {
	Version    string `json:"version"`
	PreRelease string `json:"pre_release,omitempty"`
	GitCommit  string `json:"git_commit,omitempty"`
	BuildDate  string `json:"build_date,omitempty"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
	SDKName    string `json:"sdk_name"`
}

// GetBuildInfo returns complete build information
func GetBuildInfo() *BuildInfo {
	return &BuildInfo{
		Version:    Version(),
		PreRelease: PreRelease,
		GitCommit:  GitCommit,
		BuildDate:  BuildDate,
		GoVersion:  runtime.Version(),
		Platform:   fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
		SDKName:    SDKName,
	}
}

// GetFullVersionString returns a complete version string with build info
func GetFullVersionString() string {
	info := GetBuildInfo()
	result := fmt.Sprintf("%s v%s", info.SDKName, info.Version)

	if len(info.GitCommit) >= 7 {
		result += fmt.Sprintf(" (commit: %s)", info.GitCommit[:7])
	}
	if info.BuildDate != "" {
		result += fmt.Sprintf(" (built: %s)", info.BuildDate)
	}

	result += fmt.Sprintf(" (go: %s, platform: %s)", info.GoVersion, info.Platform)
	return result
}

// IsCompatible reports whether operations built by a library at
// otherMajor.otherMinor can be read by this version
func IsCompatible(otherMajor, otherMinor int) bool {
	if Major != otherMajor {
		return false
	}
	return Minor >= otherMinor
}
