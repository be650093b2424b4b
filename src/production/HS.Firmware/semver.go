package firmware

import (
	"regexp"
	"strconv"
	"strings"
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9]+)?$`)

// IsValidVersion reports whether a version string is acceptable for upload:
// three numeric parts with an optional pre-release suffix, e.g. 2.1.0 or
// 2.1.0-beta1.
func IsValidVersion(version string) bool {
	return versionPattern.MatchString(version)
}

// CompareVersions orders two version strings numerically part by part.
// Missing parts count as zero and pre-release suffixes are ignored, so
// 2.1 == 2.1.0 and 2.1.0-beta1 == 2.1.0. Returns -1, 0 or 1.
func CompareVersions(v1, v2 string) int {
	p1 := versionParts(v1)
	p2 := versionParts(v2)

	n := len(p1)
	if len(p2) > n {
		n = len(p2)
	}

	for i := 0; i < n; i++ {
		a, b := 0, 0
		if i < len(p1) {
			a = p1[i]
		}
		if i < len(p2) {
			b = p2[i]
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	}
	return 0
}

func versionParts(version string) []int {
	if idx := strings.IndexByte(version, '-'); idx >= 0 {
		version = version[:idx]
	}

	raw := strings.Split(version, ".")
	parts := make([]int, len(raw))
	for i, s := range raw {
		n, err := strconv.Atoi(s)
		if err != nil {
			n = 0
		}
		parts[i] = n
	}
	return parts
}
