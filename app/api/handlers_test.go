package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mapcomb/mapcomb/app/search"
)

type stubSearcher struct {
	lastQuery string
	lastOpts  search.Options
	outcome   search.SearchOutcome
	health    []search.SourceHealth
	cleared   int
}

func (s *stubSearcher) Run(ctx context.Context, query string, opts search.Options) search.SearchOutcome {
	s.lastQuery = query
	s.lastOpts = opts
	return s.outcome
}

func (s *stubSearcher) Health(ctx context.Context) []search.SourceHealth {
	return s.health
}

func (s *stubSearcher) CacheStats() map[string]search.CacheStats {
	return map[string]search.CacheStats{
		"curseforge": {Entries: 3, Bytes: 1200},
		"modrinth":   {Entries: 2, Bytes: 800},
	}
}

func (s *stubSearcher) ClearCaches() {
	s.cleared++
}

func newTestServer(searcher *stubSearcher, apiAccessKey string) http.Handler {
	return NewServer(NewHandler(searcher, "test"), apiAccessKey)
}

func TestSearch_PassesOptions(t *testing.T) {
	searcher := &stubSearcher{
		outcome: search.SearchOutcome{
			Query:   "castle",
			Records: []search.Record{{ID: "curseforge-1", Title: "Castle", Source: "curseforge"}},
			Total:   1,
		},
	}
	server := newTestServer(searcher, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET",
		"/api/search?q=castle&limit=5&sources=curseforge,%20modrinth&include_optional=true&game_version=1.20.1", nil)
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	if searcher.lastQuery != "castle" {
		t.Errorf("Expected query 'castle', got %q", searcher.lastQuery)
	}
	if searcher.lastOpts.Limit != 5 {
		t.Errorf("Expected limit 5, got %d", searcher.lastOpts.Limit)
	}
	if len(searcher.lastOpts.Sources) != 2 || searcher.lastOpts.Sources[1] != "modrinth" {
		t.Errorf("Expected trimmed source names, got %v", searcher.lastOpts.Sources)
	}
	if !searcher.lastOpts.IncludeOptional {
		t.Error("Expected IncludeOptional to be set")
	}
	if searcher.lastOpts.GameVersion != "1.20.1" {
		t.Errorf("Expected game version 1.20.1, got %q", searcher.lastOpts.GameVersion)
	}

	var body search.SearchOutcome
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if body.Total != 1 || len(body.Records) != 1 {
		t.Errorf("Unexpected outcome in response: %+v", body)
	}
}

func TestSearch_RequiresQuery(t *testing.T) {
	server := newTestServer(&stubSearcher{}, "")

	for _, target := range []string{"/api/search", "/api/search?q=%20%20"} {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, httptest.NewRequest("GET", target, nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", target, w.Code)
		}
	}
}

func TestSearch_RejectsBadParameters(t *testing.T) {
	server := newTestServer(&stubSearcher{}, "")

	for _, target := range []string{
		"/api/search?q=castle&limit=0",
		"/api/search?q=castle&limit=abc",
		"/api/search?q=castle&include_optional=maybe",
	} {
		w := httptest.NewRecorder()
		server.ServeHTTP(w, httptest.NewRequest("GET", target, nil))

		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", target, w.Code)
		}
	}
}

func TestGetHealth_DegradedWhenRequiredSourceDown(t *testing.T) {
	searcher := &stubSearcher{
		health: []search.SourceHealth{
			{Source: "curseforge", Status: search.HealthStatus{Accessible: false, Error: "timeout"}},
			{Source: "modrinth", Status: search.HealthStatus{Accessible: true}},
		},
	}
	server := newTestServer(searcher, "")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if body["status"] != "degraded" {
		t.Errorf("Expected degraded status, got %v", body["status"])
	}
}

func TestGetHealth_OptionalSourceDoesNotDegrade(t *testing.T) {
	searcher := &stubSearcher{
		health: []search.SourceHealth{
			{Source: "curseforge", Status: search.HealthStatus{Accessible: true}},
			{Source: "showcase", Status: search.HealthStatus{Accessible: false}, Optional: true},
		},
	}
	server := newTestServer(searcher, "")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected ok status, got %v", body["status"])
	}
}

func TestGetCategories(t *testing.T) {
	server := newTestServer(&stubSearcher{}, "")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/categories", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var body struct {
		Categories []string `json:"categories"`
		Total      int      `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if body.Total == 0 || body.Categories[len(body.Categories)-1] != "World" {
		t.Errorf("Expected category list ending in World, got %v", body.Categories)
	}
}

func TestCacheEndpoints_RequireAuth(t *testing.T) {
	searcher := &stubSearcher{}
	server := newTestServer(searcher, "secret-key")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/cache/stats", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 without key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/cache/stats", nil)
	req.Header.Set("X-API-Key", "wrong")
	server.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status 401 with wrong key, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/cache/stats", nil)
	req.Header.Set("X-API-Key", "secret-key")
	server.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200 with valid key, got %d", w.Code)
	}

	var body struct {
		TotalEntries int   `json:"total_entries"`
		TotalBytes   int64 `json:"total_bytes"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid response JSON: %v", err)
	}
	if body.TotalEntries != 5 || body.TotalBytes != 2000 {
		t.Errorf("Unexpected totals: %+v", body)
	}
}

func TestClearCache_BearerToken(t *testing.T) {
	searcher := &stubSearcher{}
	server := newTestServer(searcher, "secret-key")

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/cache/clear", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if searcher.cleared != 1 {
		t.Errorf("Expected one clear call, got %d", searcher.cleared)
	}
}

func TestCacheEndpoints_DisabledWithoutKey(t *testing.T) {
	server := newTestServer(&stubSearcher{}, "")

	w := httptest.NewRecorder()
	server.ServeHTTP(w, httptest.NewRequest("GET", "/api/cache/stats", nil))

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404 when admin endpoints are disabled, got %d", w.Code)
	}
}
