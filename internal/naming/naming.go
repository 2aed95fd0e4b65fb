// Package naming provides short deterministic hashes and name validation used
// across rendered resource names and labels. Keeping the logic here allows
// changing length/algorithm without touching call sites.
package naming

import (
	"crypto/sha1"
	"fmt"
)

// defaultLength defines the hex length of short hashes.
const defaultLength = 6

// ShortHash returns the hex SHA1 prefix of length n (clamped to digest size).
func ShortHash(s string, n int) string {
	sum := sha1.Sum([]byte(s))
	h := fmt.Sprintf("%x", sum)
	if n > len(h) {
		n = len(h)
	}
	return h[:n]
}

// ReleaseHash returns the short hash used to scope a release instance in
// labels and generated names.
func ReleaseHash(release string) string {
	return ShortHash(release, defaultLength)
}
