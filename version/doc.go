// Package version reports the chronofs build version.
//
// Version information comes from two sources, in order of preference:
//   - Compile-time variables (Version, Commit, Date) set via -ldflags
//   - Runtime build info from debug.ReadBuildInfo()
//
// with fallback defaults for development builds. GetVersion returns the
// bare version string and GetFullVersion a formatted one with commit and
// build date, used by the CLI's --version output and startup banner.
package version
