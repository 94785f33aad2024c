// Package build holds build-time information.
package build

// Version, Commit and Date describe the binary. They default to
// development values and are overwritten by linker flags.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)
