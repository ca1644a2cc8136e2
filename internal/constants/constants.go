// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// AppName is used in page titles and log messages
const AppName = "TrailRunners"

// Version holds the application version information
const Version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH
