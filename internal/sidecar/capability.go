package sidecar

import "runtime"

// Supported reports whether this platform can run a sidecar. Hosts check it
// once at startup and skip the supervisor entirely when it is false.
func Supported() bool {
	return supported(runtime.GOOS)
}

func supported(goos string) bool {
	switch goos {
	case "android", "ios", "js", "wasip1":
		return false
	}
	return true
}
