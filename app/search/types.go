package search

import (
	"strconv"
	"time"
)

// Millis is a duration that marshals as integer milliseconds.
type Millis time.Duration

func (m Millis) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(time.Duration(m).Milliseconds(), 10)), nil
}

func (m Millis) Duration() time.Duration { return time.Duration(m) }

// Record is the normalized representation of a single map listing,
// regardless of which upstream catalog it came from.
type Record struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	AuthorName    string    `json:"author_name,omitempty"`
	AuthorURL     string    `json:"author_url,omitempty"`
	ThumbnailURL  string    `json:"thumbnail_url,omitempty"`
	DownloadURL   string    `json:"download_url,omitempty"`
	DownloadKind  string    `json:"download_kind,omitempty"`
	DownloadCount int64     `json:"download_count"`
	GameVersions  []string  `json:"game_versions,omitempty"`
	Category      string    `json:"category,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Source        string    `json:"source"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
	ModifiedAt    time.Time `json:"modified_at,omitzero"`
	FileName      string    `json:"file_name,omitempty"`
	FileSize      int64     `json:"file_size,omitempty"`

	// Relevance holds the ranking computed for the current query. It is
	// recomputed on every search and never cached.
	Relevance Relevance `json:"relevance"`
}

// Download link kinds.
const (
	DownloadDirect = "direct"
	DownloadPage   = "page"
)

// SourceOptions narrows a single upstream request.
type SourceOptions struct {
	Limit       int
	GameVersion string
}

// HealthStatus is an adapter's own report of upstream reachability.
type HealthStatus struct {
	Accessible bool   `json:"accessible"`
	Error      string `json:"error,omitempty"`
}

// SourceReport describes one source's contribution to a search.
type SourceReport struct {
	Count     int    `json:"count"`
	Succeeded bool   `json:"succeeded"`
	FromCache bool   `json:"from_cache"`
	Error     string `json:"error,omitempty"`
	Elapsed   Millis `json:"elapsed_ms"`
}

// SourceFailure is a user-facing note that a source was unavailable.
type SourceFailure struct {
	Source  string `json:"source"`
	Message string `json:"message"`
}

// SearchOutcome is the complete result of one aggregated search. It is
// always well formed: when every source fails, Records is empty and
// Failures explains what happened.
type SearchOutcome struct {
	Query     string                  `json:"query"`
	Records   []Record                `json:"records"`
	Total     int                     `json:"total"`
	Sources   map[string]SourceReport `json:"sources"`
	Failures  []SourceFailure         `json:"failures,omitempty"`
	Truncated bool                    `json:"truncated"`
	Elapsed   Millis                  `json:"elapsed_ms"`
}

// SourceHealth pairs a source name with its probe result, breaker state
// and cache occupancy.
type SourceHealth struct {
	Source       string       `json:"source"`
	Status       HealthStatus `json:"status"`
	BreakerState string       `json:"breaker_state"`
	Cache        CacheStats   `json:"cache"`
	Optional     bool         `json:"optional"`
}

// CacheStats summarizes one cache tier.
type CacheStats struct {
	Entries int   `json:"entries"`
	Bytes   int64 `json:"bytes"`
}
