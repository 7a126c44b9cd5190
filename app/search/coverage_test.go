package search

import "testing"

func coverageRecords(titles ...string) []Record {
	records := make([]Record, len(titles))
	for i, title := range titles {
		records[i] = Record{ID: title, Title: title}
	}
	return records
}

func TestFilterByCoverage_SingleTokenQueryPassesThrough(t *testing.T) {
	records := coverageRecords("a", "b", "c", "d", "e", "f", "g")

	if out := FilterByCoverage(records, "castle"); len(out) != len(records) {
		t.Errorf("single-token query must not filter, got %d of %d", len(out), len(records))
	}
}

func TestFilterByCoverage_SparsePoolPassesThrough(t *testing.T) {
	records := coverageRecords("one", "two", "three", "four", "five")

	if out := FilterByCoverage(records, "medieval castle town"); len(out) != len(records) {
		t.Errorf("pool of five or fewer must not be filtered, got %d", len(out))
	}
}

func TestFilterByCoverage_RequiresHalfTheTokens(t *testing.T) {
	// Three significant tokens, so records need coverage of at least two.
	records := []Record{
		{ID: "both", Title: "Medieval Castle", Description: "a town build"},
		{ID: "two", Title: "Castle Town"},
		{ID: "one", Title: "Castle"},
		{ID: "none", Title: "Racing Track"},
		{ID: "pad1", Title: "Medieval Town Keep"},
		{ID: "pad2", Title: "Town of Castles", Description: "medieval themed"},
	}

	out := FilterByCoverage(records, "medieval castle town")

	ids := map[string]bool{}
	for _, rec := range out {
		ids[rec.ID] = true
	}

	for _, want := range []string{"both", "two", "pad1", "pad2"} {
		if !ids[want] {
			t.Errorf("expected %q to survive coverage filter", want)
		}
	}
	for _, drop := range []string{"one", "none"} {
		if ids[drop] {
			t.Errorf("expected %q dropped by coverage filter", drop)
		}
	}
}

func TestFilterByCoverage_TokenLengthRules(t *testing.T) {
	// "ice" and "fort" need word boundaries, "fortress" may substring.
	records := []Record{
		{ID: "boundary", Title: "Ice Fort"},
		{ID: "substring", Title: "Nice Comfort"},
		{ID: "pad1", Title: "Ice Fortress"},
		{ID: "pad2", Title: "Fort on Ice"},
		{ID: "pad3", Title: "Icy Fortification"},
		{ID: "pad4", Title: "An Ice Fort Annex"},
	}

	out := FilterByCoverage(records, "ice fort")

	ids := map[string]bool{}
	for _, rec := range out {
		ids[rec.ID] = true
	}

	if !ids["boundary"] {
		t.Error("expected word-boundary matches to count")
	}
	if ids["substring"] {
		t.Error("short tokens must not match inside other words")
	}
}
