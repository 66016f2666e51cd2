package search

import (
	"errors"
	"testing"
)

type fakeSearcher struct {
	healthy bool
	results []Result
	total   int
	err     error
	calls   int
}

func (f *fakeSearcher) Search(q Query) ([]Result, int, error) {
	f.calls++
	return f.results, f.total, f.err
}

func (f *fakeSearcher) Healthy() bool {
	return f.healthy
}

func TestSearchPrefersPrimary(t *testing.T) {
	primary := &fakeSearcher{
		healthy: true,
		results: []Result{{Type: ResultTool, ID: "tool-1", Title: "Sales Email"}},
		total:   1,
	}
	fallback := &fakeSearcher{
		healthy: true,
		results: []Result{{Type: ResultTool, ID: "tool-2", Title: "Other"}},
		total:   1,
	}
	svc := &Service{primary: primary, fallback: fallback}

	resp := svc.Search(Query{Text: "sales"})
	if len(resp.Results) != 1 || resp.Results[0].ID != "tool-1" {
		t.Errorf("results = %+v, want the primary hit", resp.Results)
	}
	if fallback.calls != 0 {
		t.Errorf("fallback searched %d times, want 0", fallback.calls)
	}
	if resp.Query != "sales" {
		t.Errorf("resp.Query = %q", resp.Query)
	}
}

func TestSearchFallsBackWhenPrimaryUnhealthy(t *testing.T) {
	primary := &fakeSearcher{healthy: false}
	fallback := &fakeSearcher{
		healthy: true,
		results: []Result{{Type: ResultDocument, ID: "doc-1", Title: "Launch Plan"}},
		total:   1,
	}
	svc := &Service{primary: primary, fallback: fallback}

	resp := svc.Search(Query{Text: "launch", OwnerID: "user-1"})
	if primary.calls != 0 {
		t.Errorf("unhealthy primary searched %d times, want 0", primary.calls)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "doc-1" {
		t.Errorf("results = %+v, want the fallback hit", resp.Results)
	}
}

func TestSearchFallsBackOnPrimaryError(t *testing.T) {
	primary := &fakeSearcher{healthy: true, err: errors.New("index locked")}
	fallback := &fakeSearcher{
		healthy: true,
		results: []Result{{Type: ResultTool, ID: "tool-3"}},
		total:   1,
	}
	svc := &Service{primary: primary, fallback: fallback}

	resp := svc.Search(Query{Text: "hooks"})
	if primary.calls != 1 {
		t.Errorf("primary searched %d times, want 1", primary.calls)
	}
	if fallback.calls != 1 {
		t.Errorf("fallback searched %d times, want 1", fallback.calls)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != "tool-3" {
		t.Errorf("results = %+v, want the fallback hit", resp.Results)
	}
}

func TestSearchBothEnginesFailingYieldsEmptyResponse(t *testing.T) {
	primary := &fakeSearcher{healthy: true, err: errors.New("index locked")}
	fallback := &fakeSearcher{healthy: true, err: errors.New("db gone")}
	svc := &Service{primary: primary, fallback: fallback}

	resp := svc.Search(Query{Text: "anything"})
	if resp.Results == nil {
		t.Fatal("Results = nil, want empty slice")
	}
	if len(resp.Results) != 0 || resp.Total != 0 {
		t.Errorf("resp = %+v, want empty", resp)
	}
}

func TestSearchWithoutPrimaryUsesFallback(t *testing.T) {
	fallback := &fakeSearcher{
		healthy: true,
		results: []Result{{Type: ResultTool, ID: "tool-1"}},
		total:   1,
	}
	svc := &Service{fallback: fallback}

	resp := svc.Search(Query{Text: "email"})
	if len(resp.Results) != 1 {
		t.Errorf("results = %+v, want the fallback hit", resp.Results)
	}
}

func TestSearchNilResultsNormalizedToEmptySlice(t *testing.T) {
	primary := &fakeSearcher{healthy: true, results: nil, total: 0}
	svc := &Service{primary: primary, fallback: &fakeSearcher{healthy: true}}

	resp := svc.Search(Query{Text: "nothing matches"})
	if resp.Results == nil {
		t.Fatal("Results = nil, want empty slice for JSON encoding")
	}
}
