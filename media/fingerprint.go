package media

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Fingerprint returns the stable dedup key for a media URL: the sha256 hex
// digest of its normalized form. Two URLs that differ only in scheme/host
// casing, default port, fragment, or a trailing slash map to the same key.
func Fingerprint(raw string) string {
	return hash(Normalize(raw))
}

// Normalize canonicalizes a URL for fingerprinting. Unparseable input is
// returned trimmed, so the fingerprint is still deterministic.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Host[:strings.LastIndexByte(u.Host, ':')]
	}

	u.Path = strings.TrimSuffix(u.Path, "/")

	return u.String()
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
