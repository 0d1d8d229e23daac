// Package version provides the current server version.
package version

import "fmt"

// Version is the current released version.
var Version = "0.3.1"

// DevVersion is the latest development version.
var DevVersion = "0.3.2"

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}

func GetVersionWithMode(mode string) string {
	return fmt.Sprintf("%s-%s", GetCurrentVersion(mode), mode)
}
