// Package version holds build metadata set via -ldflags.
package version

// Version is the release version, overridden at build time.
var Version = "dev"
