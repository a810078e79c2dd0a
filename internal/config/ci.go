package config

import "github.com/gkampitakis/ciinfo"

// SlowTestsEnabled returns whether long-running tests should run based on
// the mode. "on" → true, "off" → false, "auto" → enabled when not in CI.
func SlowTestsEnabled(mode string) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default: // "auto"
		return !ciinfo.IsCI
	}
}

// CIName returns the detected CI provider name, or empty string if not in CI.
func CIName() string {
	if !ciinfo.IsCI {
		return ""
	}
	return ciinfo.Name
}
