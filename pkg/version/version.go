// Package version provides firmware version parsing and comparison.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the firmware version reported through the version attribute
// and the advertisement. Release builds override it with
// -ldflags "-X github.com/asset-tag/tag-go/pkg/version.Current=x.y.z".
var Current = "0.3.0"

// Firmware represents a parsed "major.minor.patch" firmware version.
type Firmware struct {
	Major uint16
	Minor uint16
	Patch uint16
}

// Parse parses a "major.minor.patch" version string. A leading "v" is
// accepted.
func Parse(s string) (Firmware, error) {
	parts := strings.Split(strings.TrimPrefix(s, "v"), ".")
	if len(parts) != 3 {
		return Firmware{}, fmt.Errorf("invalid version %q: expected major.minor.patch", s)
	}

	var out [3]uint16
	for i, name := range []string{"major", "minor", "patch"} {
		n, err := strconv.ParseUint(parts[i], 10, 16)
		if err != nil || parts[i] == "" {
			return Firmware{}, fmt.Errorf("invalid version %q: bad %s component", s, name)
		}
		out[i] = uint16(n)
	}
	return Firmware{Major: out[0], Minor: out[1], Patch: out[2]}, nil
}

// String returns the version as "major.minor.patch".
func (v Firmware) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compatible returns true if the other version has the same major version.
func (v Firmware) Compatible(other Firmware) bool {
	return v.Major == other.Major
}

// Compare returns -1, 0 or +1 as v is older than, equal to or newer than
// other.
func (v Firmware) Compare(other Firmware) int {
	a := [3]uint16{v.Major, v.Minor, v.Patch}
	b := [3]uint16{other.Major, other.Minor, other.Patch}
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// MustCurrent returns the parsed Current version. It panics if Current was
// overridden with a malformed value.
func MustCurrent() Firmware {
	v, err := Parse(Current)
	if err != nil {
		panic(err)
	}
	return v
}
