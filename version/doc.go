// Package version reports the worker build.
//
// Values are set with -ldflags and fall back to the module build info:
//
//	go build -ldflags "-X github.com/nezhar/voicevault/version.Version=1.2.0" ./cmd/voicevault-worker
package version
