package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	mentionPattern = regexp.MustCompile(`@\w+`)
	stripPattern   = regexp.MustCompile(`[^a-z\s]`)
)

// Fingerprint reduces free text to its first 12 normalized tokens. URLs,
// mentions, digits, and punctuation are stripped and the text lower-cased, so
// near-duplicate comments bucket to the same key. This deliberately trades
// precision for cache hit rate: exact-text keys would almost never repeat in
// natural language.
func Fingerprint(text string) string {
	t := strings.ToLower(text)
	t = urlPattern.ReplaceAllString(t, " ")
	t = mentionPattern.ReplaceAllString(t, " ")
	t = stripPattern.ReplaceAllString(t, " ")

	tokens := strings.Fields(t)
	if len(tokens) > 12 {
		tokens = tokens[:12]
	}
	return strings.Join(tokens, " ")
}

// cacheKey hashes the given parts into a fixed-length hex key.
func cacheKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
