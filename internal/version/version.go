// Package version carries the build identity stamped into the binary.
package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Release builds inject both values through ldflags:
//
//	go build -ldflags="-X github.com/soundwerk/mw4ctl/internal/version.Version=v1.2.3 \
//	                   -X github.com/soundwerk/mw4ctl/internal/version.Commit=abc123"
//
// Anything built straight from a checkout falls back to the VCS metadata Go
// embeds, and failing that to a dev timestamp.
var (
	// Version is the release tag, empty unless stamped.
	Version = ""
	// Commit is the short git revision.
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		fromBuildInfo()
	}
	if Version == "" {
		Version = "dev-" + time.Now().Format("20060102-150405")
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// fromBuildInfo fills whatever ldflags left empty from the embedded VCS
// settings. Build info has no notion of tags, so Version can only get a
// dated dev string here.
func fromBuildInfo() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	settings := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		settings[s.Key] = s.Value
	}

	if rev := settings["vcs.revision"]; Commit == "" && rev != "" {
		if len(rev) > 7 {
			rev = rev[:7]
		}
		if settings["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		Commit = rev
	}

	if Version == "" {
		if t, err := time.Parse(time.RFC3339, settings["vcs.time"]); err == nil {
			Version = "dev-" + t.Format("20060102")
		}
	}
}

// Full returns the version and commit in one display string.
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}
