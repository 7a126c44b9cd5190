package search

import "testing"

func TestDeduplicate_KeepsMoreCompleteRecord(t *testing.T) {
	sparse := Record{ID: "a", Title: "Sky Castle", AuthorName: "Builder", Source: "listing"}
	full := Record{
		ID: "b", Title: "Sky Castle", AuthorName: "Builder", Source: "api",
		DownloadURL: "https://example.com/dl", Description: "A castle in the sky",
		DownloadCount: 500, FileName: "sky-castle.zip", FileSize: 1024,
	}

	out := Deduplicate([]Record{sparse, full})

	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0].ID != "b" {
		t.Errorf("expected the complete record to survive, got %q", out[0].ID)
	}
}

func TestDeduplicate_TieKeepsFirstSeen(t *testing.T) {
	first := Record{ID: "a", Title: "Sky Castle", AuthorName: "Builder"}
	second := Record{ID: "b", Title: "sky castle ", AuthorName: " Builder"}

	out := Deduplicate([]Record{first, second})

	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0].ID != "a" {
		t.Errorf("expected first-seen record on tie, got %q", out[0].ID)
	}
}

func TestDeduplicate_FoldsDiacritics(t *testing.T) {
	out := Deduplicate([]Record{
		{ID: "a", Title: "Château Royal", AuthorName: "René"},
		{ID: "b", Title: "Chateau Royal", AuthorName: "Rene"},
	})

	if len(out) != 1 {
		t.Errorf("expected diacritic variants to collide, got %d records", len(out))
	}
}

func TestDeduplicate_MissingAuthorGroupsAsUnknown(t *testing.T) {
	out := Deduplicate([]Record{
		{ID: "a", Title: "Sky Castle"},
		{ID: "b", Title: "Sky Castle", AuthorName: "   "},
		{ID: "c", Title: "Sky Castle", AuthorName: "Builder"},
	})

	if len(out) != 2 {
		t.Errorf("expected blank authors to share a key, got %d records", len(out))
	}
}

func TestDeduplicate_PlaceholderThumbnailNotCounted(t *testing.T) {
	withPlaceholder := Record{ID: "a", Title: "Maze", ThumbnailURL: "https://cdn.example.com/placeholder.png"}
	withReal := Record{ID: "b", Title: "Maze", ThumbnailURL: "https://cdn.example.com/maze.png"}

	out := Deduplicate([]Record{withPlaceholder, withReal})

	if len(out) != 1 || out[0].ID != "b" {
		t.Errorf("expected real thumbnail to win, got %+v", out)
	}
}

func TestDeduplicate_DistinctRecordsUntouched(t *testing.T) {
	records := []Record{
		{ID: "a", Title: "Sky Castle", AuthorName: "Builder"},
		{ID: "b", Title: "Sky Castle", AuthorName: "Other"},
		{ID: "c", Title: "Deep Mine", AuthorName: "Builder"},
	}

	if out := Deduplicate(records); len(out) != 3 {
		t.Errorf("expected all distinct records kept, got %d", len(out))
	}
}
