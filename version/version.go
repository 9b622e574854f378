package version

import (
	"fmt"
	"strings"
	"sync"
)

// buildCharacters are the characters allowed in appBuild
const buildCharacters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-."

const (
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0
)

// appBuild is semver build metadata, set at link time with
// -ldflags "-X github.com/zecpow/zecpowd/version.appBuild=foo".
var appBuild string

var (
	version     string
	versionOnce sync.Once
)

// Version returns the semantic version of zecpowd, followed by the build
// metadata when it was set and is valid.
func Version() string {
	versionOnce.Do(func() {
		version = formatVersion(appMajor, appMinor, appPatch, appBuild)
	})
	return version
}

func formatVersion(major, minor, patch uint, build string) string {
	formatted := fmt.Sprintf("%d.%d.%d", major, minor, patch)
	if validBuild(build) {
		formatted += "+" + build
	}
	return formatted
}

// validBuild reports whether build is non empty semver build metadata:
// dot separated identifiers made of buildCharacters.
func validBuild(build string) bool {
	if build == "" {
		return false
	}
	for _, identifier := range strings.Split(build, ".") {
		if identifier == "" {
			return false
		}
		for _, r := range identifier {
			if !strings.ContainsRune(buildCharacters, r) {
				return false
			}
		}
	}
	return true
}
