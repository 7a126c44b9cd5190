package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/mapcomb/mapcomb/app/search"
)

// Showcase reads an RSS or Atom feed of community map announcements. Feeds
// have no server-side search, so the query is matched client-side against
// each entry. Typically configured as an optional source.
type Showcase struct {
	name      string
	feedURL   string
	userAgent string
	client    *http.Client
}

func NewShowcase(opts Options) *Showcase {
	name := opts.Name
	if name == "" {
		name = "showcase"
	}

	return &Showcase{
		name:      name,
		feedURL:   opts.FeedURL,
		userAgent: opts.UserAgent,
		client:    opts.Client,
	}
}

func (s *Showcase) Name() string {
	return s.name
}

func (s *Showcase) parser() *gofeed.Parser {
	p := gofeed.NewParser()
	p.UserAgent = s.userAgent
	p.Client = s.client

	return p
}

func (s *Showcase) Search(ctx context.Context, query string, opts search.SourceOptions) ([]search.Record, error) {
	if s.feedURL == "" {
		return nil, search.NewSourceError(s.name, search.KindNetwork, fmt.Errorf("no feed URL configured"))
	}

	feed, err := s.parser().ParseURLWithContext(s.feedURL, ctx)
	if err != nil {
		return nil, search.NewSourceError(s.name, classifyFeedError(err), err)
	}

	tokens := search.Tokens(query)

	records := make([]search.Record, 0, opts.Limit)
	for _, item := range feed.Items {
		if item == nil || !feedItemMatches(item, query, tokens) {
			continue
		}

		records = append(records, s.transform(item))
		if opts.Limit > 0 && len(records) == opts.Limit {
			break
		}
	}

	return records, nil
}

// feedItemMatches requires at least one significant query token in the
// entry's title or description. Queries with no significant tokens fall
// back to a whole-query substring match.
func feedItemMatches(item *gofeed.Item, query string, tokens []string) bool {
	text := strings.ToLower(item.Title + " " + item.Description)

	if len(tokens) == 0 {
		return strings.Contains(text, strings.ToLower(strings.TrimSpace(query)))
	}

	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			return true
		}
	}

	return false
}

func (s *Showcase) transform(item *gofeed.Item) search.Record {
	id := item.GUID
	if id == "" {
		id = item.Link
	}

	rec := search.Record{
		ID:           s.name + "-" + id,
		Title:        item.Title,
		Description:  item.Description,
		Tags:         item.Categories,
		Category:     DetectCategory(item.Title, item.Description),
		Source:       s.name,
		DownloadURL:  item.Link,
		DownloadKind: search.DownloadPage,
	}

	if len(item.Authors) > 0 && item.Authors[0] != nil {
		rec.AuthorName = item.Authors[0].Name
	}
	if item.Image != nil {
		rec.ThumbnailURL = item.Image.URL
	}
	if item.PublishedParsed != nil {
		rec.CreatedAt = *item.PublishedParsed
	}
	if item.UpdatedParsed != nil {
		rec.ModifiedAt = *item.UpdatedParsed
	}

	return rec
}

func (s *Showcase) CheckHealth(ctx context.Context) search.HealthStatus {
	if s.feedURL == "" {
		return search.HealthStatus{Error: "no feed URL configured"}
	}

	if _, err := s.parser().ParseURLWithContext(s.feedURL, ctx); err != nil {
		return search.HealthStatus{Error: err.Error()}
	}

	return search.HealthStatus{Accessible: true}
}

func classifyFeedError(err error) search.ErrorKind {
	var httpErr gofeed.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == http.StatusTooManyRequests:
			return search.KindRateLimited
		case httpErr.StatusCode == http.StatusUnauthorized || httpErr.StatusCode == http.StatusForbidden:
			return search.KindAuth
		default:
			return search.KindNetwork
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return search.KindTimeout
	}

	var urlErr interface{ Timeout() bool }
	if errors.As(err, &urlErr) {
		return search.KindNetwork
	}

	return search.KindParse
}
