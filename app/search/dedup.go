package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Completeness weights used to pick the survivor when two sources return
// the same map.
const (
	completenessDownloadURL = 20
	completenessThumbnail   = 10
	completenessFileInfo    = 10
	completenessDownloads   = 5
	completenessDescription = 5
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Deduplicate collapses records describing the same map across sources,
// keyed by folded title and author. On collision the more complete record
// wins; ties keep the first seen, so output is deterministic for a given
// input order. Output order is otherwise unspecified.
func Deduplicate(records []Record) []Record {
	type slot struct {
		index int
		score int
	}

	out := make([]Record, 0, len(records))
	byKey := make(map[string]slot, len(records))

	for _, rec := range records {
		key := dedupKey(rec)

		score := completeness(rec)
		existing, ok := byKey[key]
		if !ok {
			byKey[key] = slot{index: len(out), score: score}
			out = append(out, rec)
			continue
		}

		if score > existing.score {
			out[existing.index] = rec
			byKey[key] = slot{index: existing.index, score: score}
		}
	}

	return out
}

func dedupKey(rec Record) string {
	author := rec.AuthorName
	if strings.TrimSpace(author) == "" {
		author = "unknown"
	}

	return foldKey(rec.Title) + "\x00" + foldKey(author)
}

// foldKey lowercases, trims and strips diacritics so "Château" and
// "chateau" collide.
func foldKey(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}

	return strings.ToLower(strings.TrimSpace(folded))
}

func completeness(rec Record) int {
	score := 0

	if rec.DownloadURL != "" {
		score += completenessDownloadURL
	}
	if rec.ThumbnailURL != "" && !isPlaceholderThumbnail(rec.ThumbnailURL) {
		score += completenessThumbnail
	}
	if rec.FileName != "" || rec.FileSize > 0 {
		score += completenessFileInfo
	}
	if rec.DownloadCount > 0 {
		score += completenessDownloads
	}
	if rec.Description != "" {
		score += completenessDescription
	}

	return score
}

func isPlaceholderThumbnail(url string) bool {
	lower := strings.ToLower(url)

	return strings.Contains(lower, "placeholder") || strings.Contains(lower, "default")
}
