package vectorhub

// Version represents the current version of VectorHub
const Version = "v0.3.0"

// VersionInfo provides detailed version information
type VersionInfo struct {
	Version   string
	GoVersion string
	GitCommit string
	BuildTime string
}

// GitCommit and BuildTime are set with -ldflags at build time.
var (
	GitCommit = ""
	BuildTime = ""
)

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GoVersion: "go1.24+",
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}
}
