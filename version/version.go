package version

import (
	"fmt"
	"runtime/debug"
)

// Set via -ldflags at release build time; development builds fall back
// to Go's embedded build info below.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// GetVersion returns the version string. A compile-time Version wins;
// otherwise the module version from build info is used when it carries
// a real tag.
func GetVersion() string {
	if Version != "dev" && Version != "" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}
	return "development"
}

func buildSetting(key string) string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == key {
				return setting.Value
			}
		}
	}
	return ""
}

// GetCommit returns the git commit hash, from ldflags or vcs build info.
func GetCommit() string {
	if Commit != "unknown" && Commit != "" {
		return Commit
	}
	if rev := buildSetting("vcs.revision"); rev != "" {
		return rev
	}
	return "unknown"
}

// GetBuildDate returns the build timestamp, from ldflags or vcs build info.
func GetBuildDate() string {
	if Date != "unknown" && Date != "" {
		return Date
	}
	if ts := buildSetting("vcs.time"); ts != "" {
		return ts
	}
	return "unknown"
}

// GetFullVersion returns the version annotated with the short commit and
// build date when they are known.
func GetFullVersion() string {
	version := GetVersion()
	commit := GetCommit()
	if commit == "unknown" || len(commit) <= 7 {
		return version
	}
	if date := GetBuildDate(); date != "unknown" {
		return fmt.Sprintf("%s (%s, built %s)", version, commit[:7], date)
	}
	return fmt.Sprintf("%s (%s)", version, commit[:7])
}
