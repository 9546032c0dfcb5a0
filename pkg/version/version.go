// Package version exposes build version metadata.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is set via ldflags on release builds. Development builds fall
// back to VCS metadata.
var Version string

// GetVersion returns the release version, or the VCS revision when no
// release version was stamped.
func GetVersion() string {
	if Version != "" {
		return Version
	}

	return Revision()
}

// Revision returns the abbreviated VCS revision, with a "-dirty" suffix
// when the working tree was modified at build time.
func Revision() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	rev := "unknown"
	modified := false

	for _, s := range buildInfo.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
			if len(rev) > 7 {
				rev = rev[:7]
			}

		case "vcs.modified":
			modified = s.Value == "true"
		}
	}

	if modified {
		return rev + "-dirty"
	}

	return rev
}

// UserAgent returns an identifier suitable for diagnostics output.
func UserAgent() string {
	return fmt.Sprintf("mdc/%s (%s/%s; %s)", GetVersion(), runtime.GOOS, runtime.GOARCH, runtime.Version())
}
