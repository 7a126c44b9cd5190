package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/mapcomb/mapcomb/app/search"
)

const modrinthAPIBase = "https://api.modrinth.com/v2"

// Modrinth indexes mostly mods, so results are post-filtered: anything
// matching a mod-flavored exclusion pattern is dropped outright, the rest
// must look like a map or carry a map-adjacent category.
var (
	modrinthFacetCategories = []string{"adventure", "worldgen", "decoration"}

	modrinthStrongIndicators = []string{"map", "world", "adventure", "structure", "datapack", "castle", "city build"}

	modrinthMapCategories = []string{"worldgen", "world-generation", "adventure"}

	modrinthExclusions = []*regexp.Regexp{
		regexp.MustCompile(`weapon`),
		regexp.MustCompile(`gun`),
		regexp.MustCompile(`armor`),
		regexp.MustCompile(`sword`),
		regexp.MustCompile(`integration`),
		regexp.MustCompile(`mekanism`),
		regexp.MustCompile(`robot`),
		regexp.MustCompile(`vehicle`),
		regexp.MustCompile(`car`),
		regexp.MustCompile(`plane`),
		regexp.MustCompile(`magic spell`),
		regexp.MustCompile(`enchantment`),
		regexp.MustCompile(`\btool\b`),
		regexp.MustCompile(`axe`),
		regexp.MustCompile(`pickaxe`),
		regexp.MustCompile(`mod\b`),
		regexp.MustCompile(`plugin`),
	}
)

// Modrinth queries the public Modrinth search API. No credentials needed.
type Modrinth struct {
	name      string
	baseURL   string
	userAgent string
	client    *http.Client
}

func NewModrinth(opts Options) *Modrinth {
	name := opts.Name
	if name == "" {
		name = "modrinth"
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = modrinthAPIBase
	}

	return &Modrinth{
		name:      name,
		baseURL:   baseURL,
		userAgent: opts.UserAgent,
		client:    opts.Client,
	}
}

func (m *Modrinth) Name() string {
	return m.name
}

type modrinthHit struct {
	ProjectID    string    `json:"project_id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Author       string    `json:"author"`
	Categories   []string  `json:"categories"`
	ProjectType  string    `json:"project_type"`
	Downloads    int64     `json:"downloads"`
	IconURL      string    `json:"icon_url"`
	Versions     []string  `json:"versions"`
	DateCreated  time.Time `json:"date_created"`
	DateModified time.Time `json:"date_modified"`
}

type modrinthSearchResponse struct {
	Hits []modrinthHit `json:"hits"`
}

func (m *Modrinth) Search(ctx context.Context, query string, opts search.SourceOptions) ([]search.Record, error) {
	// Over-fetch so the map-likeness filter still fills the page.
	fetchLimit := min(opts.Limit*2, 40)
	if fetchLimit <= 0 {
		fetchLimit = 40
	}

	facets := make([][]string, 0, 2)
	categoryFacet := make([]string, 0, len(modrinthFacetCategories))
	for _, cat := range modrinthFacetCategories {
		categoryFacet = append(categoryFacet, "categories:"+cat)
	}
	facets = append(facets, categoryFacet)
	if opts.GameVersion != "" {
		facets = append(facets, []string{"versions:" + opts.GameVersion})
	}

	facetsJSON, err := json.Marshal(facets)
	if err != nil {
		return nil, search.NewSourceError(m.name, search.KindParse, err)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(fetchLimit))
	params.Set("offset", "0")
	params.Set("facets", string(facetsJSON))

	req, err := http.NewRequestWithContext(ctx, "GET", m.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, search.NewSourceError(m.name, search.KindNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, search.NewSourceError(m.name, search.KindOf(err), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, search.NewSourceError(m.name, search.KindRateLimited,
			fmt.Errorf("rate limit exceeded"))
	case resp.StatusCode != http.StatusOK:
		return nil, search.NewSourceError(m.name, search.KindNetwork,
			fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status))
	}

	var body modrinthSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, search.NewSourceError(m.name, search.KindParse, err)
	}

	records := make([]search.Record, 0, len(body.Hits))
	for _, hit := range body.Hits {
		if !looksLikeMap(hit) {
			continue
		}
		records = append(records, m.transform(hit))
		if opts.Limit > 0 && len(records) == opts.Limit {
			break
		}
	}

	return records, nil
}

func looksLikeMap(hit modrinthHit) bool {
	text := strings.ToLower(hit.Title + " " + hit.Description)

	for _, pattern := range modrinthExclusions {
		if pattern.MatchString(text) {
			return false
		}
	}

	for _, indicator := range modrinthStrongIndicators {
		if strings.Contains(text, indicator) {
			return true
		}
	}

	if hit.ProjectType == "datapack" {
		return true
	}

	for _, cat := range hit.Categories {
		if slices.Contains(modrinthMapCategories, cat) {
			return true
		}
	}

	return false
}

func (m *Modrinth) transform(hit modrinthHit) search.Record {
	id := hit.ProjectID
	if id == "" {
		id = hit.Slug
	}

	rec := search.Record{
		ID:            "modrinth-" + id,
		Title:         hit.Title,
		Description:   hit.Description,
		AuthorName:    hit.Author,
		DownloadCount: hit.Downloads,
		ThumbnailURL:  hit.IconURL,
		GameVersions:  hit.Versions,
		Tags:          hit.Categories,
		Category:      DetectCategory(hit.Title, hit.Description),
		Source:        m.name,
		CreatedAt:     hit.DateCreated,
		ModifiedAt:    hit.DateModified,
		DownloadURL:   fmt.Sprintf("https://modrinth.com/project/%s/versions", hit.Slug),
		DownloadKind:  search.DownloadPage,
	}

	if hit.Author != "" {
		rec.AuthorURL = "https://modrinth.com/user/" + hit.Author
	}

	return rec
}

func (m *Modrinth) CheckHealth(ctx context.Context) search.HealthStatus {
	req, err := http.NewRequestWithContext(ctx, "GET", m.baseURL+"/search?query=castle&limit=1", nil)
	if err != nil {
		return search.HealthStatus{Error: err.Error()}
	}
	req.Header.Set("User-Agent", m.userAgent)

	resp, err := m.client.Do(req)
	if err != nil {
		return search.HealthStatus{Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return search.HealthStatus{Error: fmt.Sprintf("HTTP error: %d", resp.StatusCode)}
	}

	return search.HealthStatus{Accessible: true}
}
