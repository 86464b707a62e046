// Package deduplication recognizes the same story under cosmetic URL and
// title differences.
package deduplication

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Fingerprint returns sha256(normalizedURL + "|" + normalizedTitle) as hex.
func Fingerprint(rawURL, title string) string {
	h := sha256.Sum256([]byte(NormalizeURL(rawURL) + "|" + NormalizeTitle(title)))
	return hex.EncodeToString(h[:])
}

// NormalizeTitle trims, lowercases and collapses whitespace.
func NormalizeTitle(t string) string {
	return strings.Join(strings.Fields(strings.ToLower(t)), " ")
}

// NormalizeURL lowercases scheme and host, drops the fragment, strips
// utm_*, fbclid and gclid, and trims a trailing slash.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return strings.ToLower(raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") || lk == "fbclid" || lk == "gclid" {
			q.Del(k)
		}
	}
	u.RawQuery = q.Encode()

	return strings.TrimRight(u.String(), "/")
}

// Set tracks fingerprints already seen. The zero value is not usable; call NewSet.
type Set struct {
	seen map[string]struct{}
}

func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Add records the pair and reports whether it was new.
func (s *Set) Add(rawURL, title string) bool {
	fp := Fingerprint(rawURL, title)
	if _, dup := s.seen[fp]; dup {
		return false
	}
	s.seen[fp] = struct{}{}
	return true
}
