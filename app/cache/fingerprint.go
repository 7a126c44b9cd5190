package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mapcomb/mapcomb/app/search"
)

// Fingerprint derives the cache key for one source query. Case and
// surrounding whitespace of the query are ignored; every option that
// changes the upstream response participates in the hash.
func Fingerprint(source, query string, opts search.SourceOptions) string {
	h := sha256.New()

	fmt.Fprintf(h, "%s\x00%s\x00%d\x00%s",
		strings.ToLower(source),
		strings.ToLower(strings.TrimSpace(query)),
		opts.Limit,
		strings.ToLower(opts.GameVersion),
	)

	return hex.EncodeToString(h.Sum(nil))
}
