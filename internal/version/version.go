package version

import (
	"runtime"
	"runtime/debug"
)

var version = "dev"

// Version returns the current version string
func Version() string {
	pv := ProtocolVersion()
	if pv != "" {
		return version + " (lsp " + pv + ")"
	}
	return version
}

// RawVersion returns the version without decoration.
func RawVersion() string {
	return version
}

// ProtocolVersion returns the linked go.lsp.dev/protocol version from build info.
func ProtocolVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, dep := range info.Deps {
		if dep.Path == "go.lsp.dev/protocol" {
			return dep.Version
		}
	}
	return ""
}

// Info carries version details for machine-readable output.
type Info struct {
	Version   string `json:"version"`
	Protocol  string `json:"protocol,omitempty"`
	GoVersion string `json:"goVersion"`
}

// GetInfo returns the full version information.
func GetInfo() Info {
	return Info{
		Version:   version,
		Protocol:  ProtocolVersion(),
		GoVersion: runtime.Version(),
	}
}
