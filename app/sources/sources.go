package sources

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mapcomb/mapcomb/app/search"
)

// Options configures one adapter instance.
type Options struct {
	Name      string
	BaseURL   string
	APIKey    string
	FeedURL   string
	UserAgent string
	Client    *http.Client
}

// New builds the adapter for a configured source kind.
func New(kind string, opts Options) (search.Adapter, error) {
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 30 * time.Second}
	}

	switch kind {
	case "curseforge":
		return NewCurseForge(opts), nil
	case "modrinth":
		return NewModrinth(opts), nil
	case "showcase":
		return NewShowcase(opts), nil
	default:
		return nil, fmt.Errorf("unknown source kind: %s", kind)
	}
}

// Category labels, from most to least specific. A map usually mentions its
// genre in the title or the first sentence of its description.
var categoryKeywords = []struct {
	keyword  string
	category string
}{
	{"parkour", "Parkour"},
	{"puzzle", "Puzzle"},
	{"adventure", "Adventure"},
	{"survival", "Survival"},
	{"horror", "Horror"},
	{"pvp", "PvP"},
	{"minigame", "Minigame"},
	{"mini game", "Minigame"},
	{"city", "City"},
	{"castle", "Castle"},
	{"house", "House"},
	{"mansion", "House"},
	{"skyblock", "Skyblock"},
	{"dungeon", "Dungeon"},
	{"quest", "Quest"},
}

// Categories returns the distinct category labels DetectCategory can emit,
// in detection order, ending with the fallback.
func Categories() []string {
	labels := make([]string, 0, len(categoryKeywords)+1)
	seen := make(map[string]bool, len(categoryKeywords)+1)

	for _, entry := range categoryKeywords {
		if seen[entry.category] {
			continue
		}
		seen[entry.category] = true
		labels = append(labels, entry.category)
	}

	return append(labels, "World")
}

// DetectCategory infers a display category from free text.
func DetectCategory(title, description string) string {
	text := strings.ToLower(title + " " + description)

	for _, entry := range categoryKeywords {
		if strings.Contains(text, entry.keyword) {
			return entry.category
		}
	}

	return "World"
}
