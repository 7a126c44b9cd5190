package search

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// conceptSynonyms maps a query concept to the synonym set used to widen a
// search. Keys and synonyms are lowercase.
var conceptSynonyms = map[string][]string{
	"castle":     {"castle", "fortress", "citadel", "stronghold", "keep", "palace", "tower"},
	"city":       {"city", "town", "metropolis", "urban", "municipal"},
	"village":    {"village", "hamlet", "settlement"},
	"kingdom":    {"kingdom", "empire", "realm"},
	"adventure":  {"adventure", "quest", "story", "campaign", "journey", "exploration"},
	"survival":   {"survival", "survive", "hardcore", "stranded", "island"},
	"horror":     {"horror", "scary", "spooky", "haunted", "creepy", "terror"},
	"parkour":    {"parkour", "jump", "obstacle", "jumping", "speedrun"},
	"puzzle":     {"puzzle", "riddle", "logic", "maze", "labyrinth"},
	"pvp":        {"pvp", "arena", "battle", "combat", "duel"},
	"modern":     {"modern", "contemporary", "urban", "skyscraper"},
	"futuristic": {"futuristic", "future", "scifi", "sci-fi", "space", "advanced"},
	"cyberpunk":  {"cyberpunk", "neon", "dystopian", "hacker"},
	"tech":       {"tech", "technology", "computer", "machine"},
	"space":      {"space", "starship", "planet", "cosmic", "galaxy"},
	"medieval":   {"medieval", "middle ages", "knights", "feudal"},
	"fantasy":    {"fantasy", "magic", "wizard", "sorcery", "enchanted"},
	"ancient":    {"ancient", "old", "ruins", "historical"},
	"redstone":   {"redstone", "mechanism", "automatic", "circuit"},
	"house":      {"house", "home", "mansion", "residence", "villa", "cottage"},
	"mansion":    {"mansion", "estate", "manor", "luxury"},
	"skyblock":   {"skyblock", "sky", "void", "floating"},
	"dungeon":    {"dungeon", "cave", "underground", "catacomb"},
	"minigame":   {"minigame", "mini-game", "arcade", "party game"},
	"railway":    {"railway", "rail", "train", "subway", "metro", "track", "locomotive"},
	"highway":    {"highway", "road", "path", "freeway", "motorway"},
	"bridge":     {"bridge", "tunnel"},
	"island":     {"island", "isles", "atoll"},
	"underwater": {"underwater", "ocean", "sea", "submerged", "aquatic", "marine"},
	"atlantis":   {"atlantis", "sunken", "lost city"},
	"reef":       {"reef", "coral", "barrier reef"},
	"mountain":   {"mountain", "peak", "alpine", "cliff", "highlands"},
	"forest":     {"forest", "woods", "jungle", "woodland", "grove"},
	"desert":     {"desert", "sandy", "oasis", "pyramid"},
	"winter":     {"winter", "snow", "ice", "frozen", "arctic"},
	"jungle":     {"jungle", "rainforest", "tropical", "amazon"},
	"hell":       {"hell", "nether", "inferno", "demon", "demonic", "underworld", "hades"},
	"nether":     {"nether", "inferno", "lava", "fire", "flame"},
	"inferno":    {"inferno", "fire", "flame", "brimstone"},
	"dragon":     {"dragon", "wyvern", "drake", "wyrm"},
	"pixelart":   {"pixelart", "pixel art", "2d"},
	"replica":    {"replica", "landmark", "famous", "realistic"},
	"park":       {"park", "amusement", "theme park", "zoo", "garden"},
	"school":     {"school", "academy", "university", "college"},
	"hospital":   {"hospital", "medical", "clinic"},
	"end":        {"end", "ender", "void", "dragon"},
	"swamp":      {"swamp", "marsh", "bog", "wetland"},
	"temple":     {"temple", "shrine", "sanctuary", "monument"},
}

// conflictingTerms lists terms that indicate a record is about something
// else entirely when the query names the concept on the left. Used both to
// penalize records and to prune expansion terms sent upstream.
var conflictingTerms = map[string][]string{
	"futuristic": {"medieval", "ancient", "castle", "knight", "feudal"},
	"modern":     {"medieval", "ancient", "castle", "fantasy"},
	"medieval":   {"futuristic", "scifi", "space", "tech", "modern", "cyberpunk"},
	"underwater": {"castle", "city", "sky", "mountain", "air"},
	"reef":       {"castle", "city", "urban", "mountain", "desert"},
	"skyblock":   {"underwater", "cave", "dungeon", "ocean"},
	"horror":     {"cute", "cozy", "peaceful", "relaxing"},
	"hell":       {"heaven", "paradise", "angel", "sky"},
	"nether":     {"overworld", "end", "sky"},
}

// Expansion is the result of semantic query expansion.
type Expansion struct {
	Query           string
	Tokens          []string
	ExpandedTerms   []string
	MatchedConcepts []string
}

// Expand widens a query using the concept table. A concept matches when its
// key or any synonym appears in the query at a word boundary, or as a plain
// substring for terms of at least five characters. When no concept matches,
// the expanded terms fall back to the significant query tokens.
func Expand(query string) Expansion {
	queryLower := strings.ToLower(strings.TrimSpace(query))

	exp := Expansion{
		Query:  queryLower,
		Tokens: Tokens(queryLower),
	}

	seen := map[string]bool{}

	keys := make([]string, 0, len(conceptSynonyms))
	for key := range conceptSynonyms {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !conceptMatches(queryLower, key) {
			continue
		}

		exp.MatchedConcepts = append(exp.MatchedConcepts, key)
		for _, syn := range conceptSynonyms[key] {
			if !seen[syn] {
				seen[syn] = true
				exp.ExpandedTerms = append(exp.ExpandedTerms, syn)
			}
		}
	}

	if len(exp.MatchedConcepts) == 0 {
		exp.ExpandedTerms = append(exp.ExpandedTerms, exp.Tokens...)
	}

	return exp
}

// QueryTerms returns up to max terms suitable for issuing additional
// upstream queries. Synonyms that conflict with any concept named in the
// original query are excluded so a "medieval castle" search never fans out
// into "futuristic".
func (e Expansion) QueryTerms(max int) []string {
	if max <= 0 {
		return nil
	}

	blocked := map[string]bool{}
	for _, c := range ConflictTermsFor(e.Query) {
		blocked[c] = true
	}

	terms := make([]string, 0, max)
	for _, term := range e.ExpandedTerms {
		if blocked[term] || term == e.Query {
			continue
		}
		terms = append(terms, term)
		if len(terms) == max {
			break
		}
	}

	return terms
}

// ConflictTermsFor returns the deduplicated conflict terms for every
// concept present in the query at a word boundary, in sorted order.
func ConflictTermsFor(query string) []string {
	queryLower := strings.ToLower(query)

	seen := map[string]bool{}
	for key, conflicts := range conflictingTerms {
		if !hasWord(queryLower, key) {
			continue
		}
		for _, c := range conflicts {
			seen[c] = true
		}
	}

	terms := make([]string, 0, len(seen))
	for c := range seen {
		terms = append(terms, c)
	}
	sort.Strings(terms)

	return terms
}

// Tokens splits a query into its significant lowercase tokens, dropping
// words of two characters or fewer.
func Tokens(query string) []string {
	var tokens []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) > 2 {
			tokens = append(tokens, w)
		}
	}

	return tokens
}

func conceptMatches(queryLower, key string) bool {
	if termInText(queryLower, key) {
		return true
	}

	for _, syn := range conceptSynonyms[key] {
		if termInText(queryLower, syn) {
			return true
		}
	}

	return false
}

func termInText(text, term string) bool {
	if hasWord(text, term) {
		return true
	}

	return len(term) >= 5 && strings.Contains(text, term)
}

// hasWord reports whether word occurs in text with non-word characters (or
// string edges) on both sides. Comparison is case insensitive.
func hasWord(text, word string) bool {
	if text == "" || word == "" {
		return false
	}

	text = strings.ToLower(text)
	word = strings.ToLower(word)

	for start := 0; start+len(word) <= len(text); {
		idx := strings.Index(text[start:], word)
		if idx < 0 {
			return false
		}
		idx += start

		if boundaryBefore(text, idx) && boundaryAfter(text, idx+len(word)) {
			return true
		}
		start = idx + 1
	}

	return false
}

func boundaryBefore(text string, idx int) bool {
	if idx == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:idx])

	return !isWordRune(r)
}

func boundaryAfter(text string, idx int) bool {
	if idx >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[idx:])

	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
