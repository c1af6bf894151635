// Package artifact stores versioned model artifacts and the aliases pointing at them.
package artifact

import (
	"fmt"
	"regexp"
	"strconv"
)

const keyPrefix = "toxmod:artifact:"

var versionRe = regexp.MustCompile(`^v([1-9][0-9]*)$`)

func seqKey(name string) string { return keyPrefix + name + ":seq" }

func payloadKey(name, version string) string {
	return keyPrefix + name + ":" + version + ":payload"
}

func metaKey(name, version string) string {
	return keyPrefix + name + ":" + version + ":meta"
}

func aliasKey(name, alias string) string {
	return keyPrefix + name + ":alias:" + alias
}

func formatVersion(n int64) string { return "v" + strconv.FormatInt(n, 10) }

// parseVersion reports the number of an explicit "vN" reference.
func parseVersion(ref string) (int64, bool) {
	m := versionRe.FindStringSubmatch(ref)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("artifact name is required")
	}
	for _, r := range name {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' || r == '.') {
			return fmt.Errorf("invalid artifact name %q", name)
		}
	}
	if name == "." || name == ".." {
		return fmt.Errorf("invalid artifact name %q", name)
	}
	return nil
}
