// Package version reports build metadata for the agent and the CLIs
package version

// BuildInfo holds version information about a binary
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information for the named binary
// Set via -ldflags "-X 'codefill/internal/core/version.version=v0.1.0'
// -X 'codefill/internal/core/version.commit=abcd' -X 'codefill/internal/core/version.date=2026-10-01'"
func Info(service string) BuildInfo {
	if service == "" {
		service = "codefill"
	}
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// String renders "service version (commit, date)" for --version flags
func (b BuildInfo) String() string {
	return b.Service + " " + b.Version + " (" + b.Commit + ", " + b.Date + ")"
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
