package search

import "testing"

func TestScore_TitleEqualityOutranksTokenMatch(t *testing.T) {
	exp := Expand("castle")

	exact := Score(Record{Title: "Castle"}, exp)
	token := Score(Record{Title: "Big Castle Build", DownloadCount: 1_000_000}, exp)

	if exact.Score < token.Score {
		t.Errorf("exact title %v should not rank under token match %v", exact.Score, token.Score)
	}
	if !exact.ExactTitle {
		t.Error("expected exact title flag")
	}
}

func TestScore_RelevantRecordKept(t *testing.T) {
	exp := Expand("reef")

	rel := Score(Record{
		Title:         "Coral Reef Paradise",
		Description:   "Beautiful underwater reef to explore",
		Tags:          []string{"ocean", "coral", "reef"},
		DownloadCount: 1000,
	}, exp)

	if !rel.Keep() {
		t.Errorf("expected relevant record kept, got %+v", rel)
	}
}

func TestScore_ConflictingRecordDropped(t *testing.T) {
	exp := Expand("reef")

	tests := []struct {
		name   string
		record Record
	}{
		{"unrelated", Record{Title: "Pokemon World", Description: "Catch them all in this pokemon map", Tags: []string{"pokemon"}, DownloadCount: 1000}},
		{"conflicting castle", Record{Title: "Castle Kingdom", Description: "Medieval castle with kingdom", Tags: []string{"castle", "medieval"}, DownloadCount: 1000}},
		{"conflicting city", Record{Title: "Urban Metropolis", Description: "Modern city skyline", Tags: []string{"city", "modern"}, DownloadCount: 1000}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rel := Score(tt.record, exp); rel.Keep() {
				t.Errorf("expected record dropped, got %+v", rel)
			}
		})
	}
}

func TestScore_MultiTokenQuery(t *testing.T) {
	exp := Expand("futuristic city")

	keep := Score(Record{
		Title:         "Neo Tokyo 2150",
		Description:   "Futuristic city with advanced tech",
		Tags:          []string{"city", "futuristic"},
		DownloadCount: 1000,
	}, exp)
	if !keep.Keep() {
		t.Errorf("expected futuristic city record kept, got %+v", keep)
	}

	drop := Score(Record{
		Title:         "Medieval Castle",
		Description:   "Old castle from middle ages",
		Tags:          []string{"castle", "medieval"},
		DownloadCount: 1000,
	}, exp)
	if drop.Keep() {
		t.Errorf("expected medieval record dropped for futuristic query, got %+v", drop)
	}
	if drop.Penalty == 0 {
		t.Error("expected conflict penalty for medieval record")
	}
}

func TestScore_PopularityRequiresContentMatch(t *testing.T) {
	exp := Expand("castle")

	rel := Score(Record{Title: "Pixel Art Gallery", DownloadCount: 50_000_000}, exp)

	if rel.Score != 0 {
		t.Errorf("popularity alone must not produce a score, got %v", rel.Score)
	}
	if rel.Keep() {
		t.Error("expected unmatched popular record dropped")
	}
}

func TestScore_NeverNegative(t *testing.T) {
	exp := Expand("underwater")

	// Matches nothing but trips several conflict terms.
	rel := Score(Record{
		Title:       "Sky Castle City",
		Description: "A castle city in the sky on a mountain",
	}, exp)

	if rel.Score < 0 {
		t.Errorf("score must floor at zero, got %v", rel.Score)
	}
	if rel.Penalty == 0 {
		t.Error("expected conflict penalties recorded")
	}
}

func TestScore_ExactMatchBypassesThresholds(t *testing.T) {
	rel := Relevance{Score: 10, MatchWeight: 0.1, ExactTitle: true}
	if !rel.Keep() {
		t.Error("exact title match must always be kept")
	}

	rel = Relevance{Score: 10, MatchWeight: 0.1}
	if rel.Keep() {
		t.Error("low score without exact match must be dropped")
	}
}
