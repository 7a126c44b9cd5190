package search

import (
	"math"
	"strings"
)

// Scoring weights. The relative ordering matters more than the absolute
// values: title beats description beats tags, and full-query matches beat
// token matches.
const (
	weightTitleEqual          = 200.0
	weightTitleWordMatch      = 150.0
	weightTitleSubstring      = 100.0
	weightTitleTokenWord      = 50.0
	weightTitleTokenSubstring = 30.0
	weightTitleExpandedWord   = 25.0
	weightTitleExpandedSub    = 12.0
	weightDescExpandedWord    = 8.0
	weightDescQueryWord       = 40.0
	weightDescTokenWord       = 15.0
	weightTagQueryWord        = 50.0
	weightTagTokenWord        = 25.0
	conflictPenalty           = 35.0
	popularityFactor          = 3.0

	// Records below these thresholds are dropped unless the title carried
	// the full query.
	minScore       = 30.0
	minMatchWeight = 0.5
)

// Relevance carries the outcome of scoring one record against one query.
type Relevance struct {
	Score       float64 `json:"score"`
	MatchWeight float64 `json:"match_weight"`
	Penalty     float64 `json:"penalty"`
	ExactTitle  bool    `json:"exact_title"`
}

// Keep reports whether the record is relevant enough to surface. An exact
// title match always survives; everything else must clear both the score
// and match-weight thresholds.
func (r Relevance) Keep() bool {
	if r.ExactTitle {
		return true
	}

	return r.Score >= minScore && r.MatchWeight >= minMatchWeight
}

// Score ranks a record against the expanded query. Pure and deterministic:
// the same record, query and expansion always produce the same Relevance.
func Score(rec Record, exp Expansion) Relevance {
	query := exp.Query

	title := strings.ToLower(rec.Title)
	desc := strings.ToLower(rec.Description)

	tags := make([]string, len(rec.Tags))
	for i, t := range rec.Tags {
		tags[i] = strings.ToLower(t)
	}
	allText := title + " " + desc + " " + strings.Join(tags, " ")

	var rel Relevance

	switch {
	case title == query:
		rel.Score += weightTitleEqual
		rel.MatchWeight += 2.5
		rel.ExactTitle = true
	case hasWord(title, query):
		rel.Score += weightTitleWordMatch
		rel.MatchWeight += 2
		rel.ExactTitle = true
	case strings.Contains(title, query):
		rel.Score += weightTitleSubstring
		rel.MatchWeight += 1.5
		rel.ExactTitle = true
	}

	for _, tok := range exp.Tokens {
		if hasWord(title, tok) {
			rel.Score += weightTitleTokenWord
			rel.MatchWeight += 0.75
		} else if strings.Contains(title, tok) {
			rel.Score += weightTitleTokenSubstring
			rel.MatchWeight += 0.5
		}
	}

	for _, term := range exp.ExpandedTerms {
		if term == query || len(term) <= 2 {
			continue
		}

		if hasWord(title, term) {
			rel.Score += weightTitleExpandedWord
			rel.MatchWeight += 0.4
		} else if strings.Contains(title, term) {
			rel.Score += weightTitleExpandedSub
			rel.MatchWeight += 0.2
		} else if hasWord(desc, term) {
			rel.Score += weightDescExpandedWord
			rel.MatchWeight += 0.15
		}
	}

	if hasWord(desc, query) {
		rel.Score += weightDescQueryWord
		rel.MatchWeight += 1
	}
	for _, tok := range exp.Tokens {
		if hasWord(desc, tok) {
			rel.Score += weightDescTokenWord
			rel.MatchWeight += 0.3
		}
	}

	for _, tag := range tags {
		if hasWord(tag, query) {
			rel.Score += weightTagQueryWord
			rel.MatchWeight += 0.8
		}
		for _, tok := range exp.Tokens {
			if hasWord(tag, tok) {
				rel.Score += weightTagTokenWord
				rel.MatchWeight += 0.4
			}
		}
	}

	for _, conflict := range ConflictTermsFor(query) {
		if hasWord(allText, conflict) {
			rel.Penalty += conflictPenalty
		}
	}

	rel.Score = math.Max(0, rel.Score-rel.Penalty)

	if rel.MatchWeight > 0 {
		rel.Score += math.Log10(float64(rec.DownloadCount)+1) * popularityFactor
	}

	return rel
}
