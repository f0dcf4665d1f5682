package build

// Values are injected at build time via -ldflags and recorded in every
// run's metadata so results stay attributable to the harness version that
// produced them.
var (
	ReleaseVersion = "UNKNOWN"
	GitCommit      = "UNKNOWN"
	BuildTime      = "UNKNOWN"
	GoVersion      = "UNKNOWN"
)
