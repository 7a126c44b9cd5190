package search

import (
	"math"
	"strings"
)

// sparsePoolSize is the pool size at or below which the coverage filter is
// skipped: an already-sparse result is never filtered further.
const sparsePoolSize = 5

// FilterByCoverage drops records that match too few of the query's tokens.
// A record must cover at least half the significant tokens, rounded up,
// counting matches against title plus description. Tokens of one or two
// characters count half, three to four characters must match at a word
// boundary, five or more may match as a substring. Queries with fewer than
// two significant tokens, and pools of five records or fewer, pass through
// untouched.
func FilterByCoverage(records []Record, query string) []Record {
	tokens := strings.Fields(strings.ToLower(query))

	significant := 0
	for _, tok := range tokens {
		if len(tok) > 2 {
			significant++
		}
	}

	if significant < 2 || len(records) <= sparsePoolSize {
		return records
	}

	required := math.Ceil(float64(significant) * 0.5)

	out := records[:0]
	for _, rec := range records {
		if tokenCoverage(rec, tokens) >= required {
			out = append(out, rec)
		}
	}

	return out
}

func tokenCoverage(rec Record, tokens []string) float64 {
	text := strings.ToLower(rec.Title + " " + rec.Description)

	var covered float64
	for _, tok := range tokens {
		switch {
		case len(tok) <= 2:
			if strings.Contains(text, tok) {
				covered += 0.5
			}
		case len(tok) <= 4:
			if hasWord(text, tok) {
				covered++
			}
		default:
			if strings.Contains(text, tok) {
				covered++
			}
		}
	}

	return covered
}
