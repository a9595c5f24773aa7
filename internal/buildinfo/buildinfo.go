// Package buildinfo carries release metadata stamped in at link time, e.g.
//
//	go build -ldflags "-X github.com/aidanlsb/vpub/internal/buildinfo.Version=v0.3.0"
package buildinfo

// They default to empty for local/dev builds.
var (
	Version = ""
	Commit  = ""
	Date    = ""
)
