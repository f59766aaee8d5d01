// Package misc holds build information set by the linker.
package misc

// Set with -ldflags "-X svgdx/misc.version=... -X svgdx/misc.gitHash=...".
var (
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return "svgdx"
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
