// Package version holds build metadata, set through -ldflags.
package version

import "runtime"

var (
	AppName        = "CyborgianStates"
	AppDescription = "A NationStates companion for Discord."
	Version        = "dev"
	BuildDate      = ""
	GoVersion      = runtime.Version()
	Repository     = "https://github.com/Free-Nations-Region/CyborgianStates"
)
