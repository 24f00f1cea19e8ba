package search

import (
	"testing"

	"kudos/api/internal/store"
)

func sampleContributions() []store.Contribution {
	return []store.Contribution{
		{ID: "c-1", ChapterID: "ch-1", Description: "Fixed the flaky deploy pipeline"},
		{ID: "c-2", ChapterID: "ch-1", Description: "Mentored the new hire"},
		{ID: "c-3", ChapterID: "ch-2", Description: "Deploy scripts for the other team"},
	}
}

func TestSearchScanFiltersByTextAndChapter(t *testing.T) {
	svc := NewService(nil)

	resp := svc.Search(Query{ChapterID: "ch-1", Text: "deploy"}, sampleContributions())
	if resp.Total != 1 || len(resp.Results) != 1 {
		t.Fatalf("expected 1 hit, got %d", resp.Total)
	}
	if resp.Results[0].ID != "c-1" {
		t.Errorf("expected c-1, got %s", resp.Results[0].ID)
	}
	if resp.Query != "deploy" {
		t.Errorf("expected query echoed back, got %q", resp.Query)
	}
}

func TestSearchScanEmptyQueryReturnsAll(t *testing.T) {
	svc := NewService(nil)

	resp := svc.Search(Query{ChapterID: "ch-1"}, sampleContributions())
	if resp.Total != 2 {
		t.Fatalf("expected both chapter contributions for an empty query, got %d", resp.Total)
	}
}

func TestSearchScanIsCaseInsensitive(t *testing.T) {
	svc := NewService(nil)

	resp := svc.Search(Query{ChapterID: "ch-1", Text: "MENTORED"}, sampleContributions())
	if resp.Total != 1 || resp.Results[0].ID != "c-2" {
		t.Fatalf("expected a case-insensitive hit on c-2, got %+v", resp.Results)
	}
}

func TestSearchScanHonorsLimit(t *testing.T) {
	svc := NewService(nil)

	resp := svc.Search(Query{ChapterID: "ch-1", Limit: 1}, sampleContributions())
	if resp.Total != 1 {
		t.Fatalf("expected limit applied, got %d results", resp.Total)
	}
}

func TestSearchScanNoResultsIsEmptyArray(t *testing.T) {
	svc := NewService(nil)

	resp := svc.Search(Query{ChapterID: "ch-1", Text: "nothing matches"}, sampleContributions())
	if resp.Results == nil {
		t.Error("results must serialize as an array, never null")
	}
	if resp.Total != 0 {
		t.Errorf("expected 0 hits, got %d", resp.Total)
	}
}

func TestIndexCallsAreNoOpsWithoutMeilisearch(t *testing.T) {
	svc := NewService(nil)

	// None of these may panic or block when the index is not configured.
	svc.IndexContribution(store.Contribution{ID: "c-1"})
	svc.DeleteContribution("c-1")
	svc.DeleteContributions([]string{"c-1", "c-2"})
	svc.Close()
}
