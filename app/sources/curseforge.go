package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mapcomb/mapcomb/app/search"
)

const (
	curseforgeAPIBase = "https://api.curseforge.com/v1"

	// CurseForge game and class identifiers: Minecraft, Worlds.
	curseforgeGameID  = 432
	curseforgeClassID = 17

	// Sort by popularity, most popular first.
	curseforgeSortField = 2
)

// CurseForge queries the official CurseForge API. Requires an API key;
// rejected credentials are reported as auth failures so the caller can
// stop retrying.
type CurseForge struct {
	name      string
	baseURL   string
	apiKey    string
	userAgent string
	client    *http.Client
}

func NewCurseForge(opts Options) *CurseForge {
	name := opts.Name
	if name == "" {
		name = "curseforge"
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = curseforgeAPIBase
	}

	return &CurseForge{
		name:      name,
		baseURL:   baseURL,
		apiKey:    opts.APIKey,
		userAgent: opts.UserAgent,
		client:    opts.Client,
	}
}

func (c *CurseForge) Name() string {
	return c.name
}

type cfFile struct {
	ID           int64    `json:"id"`
	FileName     string   `json:"fileName"`
	FileLength   int64    `json:"fileLength"`
	DownloadURL  string   `json:"downloadUrl"`
	GameVersions []string `json:"gameVersions"`
}

type cfMod struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	Summary       string `json:"summary"`
	DownloadCount int64  `json:"downloadCount"`
	Logo          struct {
		URL          string `json:"url"`
		ThumbnailURL string `json:"thumbnailUrl"`
	} `json:"logo"`
	Authors []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"authors"`
	Categories []struct {
		Name string `json:"name"`
	} `json:"categories"`
	ClassID      int       `json:"classId"`
	LatestFiles  []cfFile  `json:"latestFiles"`
	DateCreated  time.Time `json:"dateCreated"`
	DateModified time.Time `json:"dateModified"`
}

type cfSearchResponse struct {
	Data []cfMod `json:"data"`
}

func (c *CurseForge) Search(ctx context.Context, query string, opts search.SourceOptions) ([]search.Record, error) {
	if c.apiKey == "" {
		return nil, search.NewSourceError(c.name, search.KindAuth, fmt.Errorf("no API key configured"))
	}

	params := url.Values{}
	params.Set("gameId", strconv.Itoa(curseforgeGameID))
	params.Set("classId", strconv.Itoa(curseforgeClassID))
	params.Set("searchFilter", query)
	params.Set("pageSize", strconv.Itoa(opts.Limit))
	params.Set("index", "0")
	params.Set("sortField", strconv.Itoa(curseforgeSortField))
	params.Set("sortOrder", "desc")
	if opts.GameVersion != "" {
		params.Set("gameVersion", opts.GameVersion)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/mods/search?"+params.Encode(), nil)
	if err != nil {
		return nil, search.NewSourceError(c.name, search.KindNetwork, err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, search.NewSourceError(c.name, search.KindOf(err), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		return nil, search.NewSourceError(c.name, search.KindRateLimited,
			fmt.Errorf("rate limit exceeded, retry after %s", retryAfter))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, search.NewSourceError(c.name, search.KindAuth,
			fmt.Errorf("API key rejected with status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, search.NewSourceError(c.name, search.KindNetwork,
			fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status))
	}

	var body cfSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, search.NewSourceError(c.name, search.KindParse, err)
	}

	records := make([]search.Record, 0, len(body.Data))
	for _, mod := range body.Data {
		records = append(records, c.transform(mod))
	}

	return records, nil
}

func (c *CurseForge) transform(mod cfMod) search.Record {
	rec := search.Record{
		ID:            fmt.Sprintf("curseforge-%d", mod.ID),
		Title:         mod.Name,
		Description:   mod.Summary,
		DownloadCount: mod.DownloadCount,
		ThumbnailURL:  mod.Logo.URL,
		Category:      DetectCategory(mod.Name, mod.Summary),
		Source:        c.name,
		CreatedAt:     mod.DateCreated,
		ModifiedAt:    mod.DateModified,
	}
	if rec.ThumbnailURL == "" {
		rec.ThumbnailURL = mod.Logo.ThumbnailURL
	}

	if len(mod.Authors) > 0 {
		rec.AuthorName = mod.Authors[0].Name
		rec.AuthorURL = mod.Authors[0].URL
		if rec.AuthorURL == "" {
			rec.AuthorURL = "https://www.curseforge.com/members/" + mod.Authors[0].Name
		}
	}

	for _, cat := range mod.Categories {
		rec.Tags = append(rec.Tags, cat.Name)
	}

	if len(mod.LatestFiles) > 0 {
		latest := mod.LatestFiles[0]
		rec.FileName = latest.FileName
		rec.FileSize = latest.FileLength
		rec.GameVersions = latest.GameVersions

		if latest.DownloadURL != "" {
			rec.DownloadURL = latest.DownloadURL
			rec.DownloadKind = search.DownloadDirect
		}
	}
	if rec.DownloadURL == "" {
		rec.DownloadURL = fmt.Sprintf("https://www.curseforge.com/minecraft/worlds/%s/download", mod.Slug)
		rec.DownloadKind = search.DownloadPage
	}

	return rec
}

func (c *CurseForge) CheckHealth(ctx context.Context) search.HealthStatus {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/games/%d", c.baseURL, curseforgeGameID), nil)
	if err != nil {
		return search.HealthStatus{Error: err.Error()}
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return search.HealthStatus{Error: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return search.HealthStatus{Error: fmt.Sprintf("HTTP error: %d", resp.StatusCode)}
	}

	return search.HealthStatus{Accessible: true}
}
