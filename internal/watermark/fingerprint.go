// Package watermark computes the daily content fingerprint and rewrites the
// watermark fields embedded in the site's HTML, sitemap and feed documents.
//
// Every function here is a pure text transform. Reading and writing the
// documents is left to the caller.
package watermark

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// FingerprintLen is the number of hex characters kept from the digest.
const FingerprintLen = 10

// ISODate is the layout used for every machine-readable date in the site.
const ISODate = "2006-01-02"

// Fingerprint returns the first FingerprintLen hex characters of
// sha256(content + date + domain).
func Fingerprint(content, date, domain string) string {
	sum := sha256.Sum256([]byte(content + date + domain))
	return hex.EncodeToString(sum[:])[:FingerprintLen]
}

// DisplayDate renders t as "Month DD, YYYY" with a zero-padded day.
func DisplayDate(t time.Time) string {
	return t.Format("January 02, 2006")
}

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(ISODate, s)
}
