package remotedev

import (
	_ "embed"
	"fmt"
	"runtime"
	"strings"
)

// Version is the library version, embedded from the VERSION file.
//
//go:embed VERSION
var Version string

// DefaultUserAgent is sent in reports when Config.UserAgent is empty.
func DefaultUserAgent() string {
	return fmt.Sprintf("remotedev-go/%s (%s; %s)", strings.TrimSpace(Version), runtime.GOOS, runtime.GOARCH)
}
