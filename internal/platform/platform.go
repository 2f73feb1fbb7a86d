// Package platform picks the discovery and kill strategies for the host OS.
package platform

import "runtime"

type Platform int

const (
	Other Platform = iota
	Linux
	Darwin
	Windows
)

func (p Platform) String() string {
	switch p {
	case Linux:
		return "linux"
	case Darwin:
		return "darwin"
	case Windows:
		return "windows"
	}
	return "other"
}

// FromGOOS maps a GOOS value onto a Platform.
func FromGOOS(goos string) Platform {
	switch goos {
	case "linux", "android":
		return Linux
	case "darwin":
		return Darwin
	case "windows":
		return Windows
	}
	return Other
}

// Detect returns the Platform of the running process.
func Detect() Platform {
	return FromGOOS(runtime.GOOS)
}
