package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"auction-bargains/models"
)

type fakeCorpus struct {
	byCity map[string][]*models.ExtractedProperty
	err    error
	calls  int64
}

func (f *fakeCorpus) Market(_ context.Context, city string) ([]*models.ExtractedProperty, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return f.byCity[CityKey(city)], nil
}

func sofiaCorpus() *fakeCorpus {
	return &fakeCorpus{byCity: map[string][]*models.ExtractedProperty{
		"софия": {
			listing("m-1", "София", 80, 1400),
			listing("m-2", "София", 82, 1500),
			listing("m-3", "София", 78, 1600),
			listing("m-4", "София", 85, 1700),
			listing("m-5", "София", 75, 1800),
		},
	}}
}

func auction(id, city string, area, ppsqm float64) *models.ExtractedProperty {
	a := listing(id, city, area, ppsqm)
	a.Kind = models.KindAuction
	return a
}

func TestEvaluateRanksAndStampsRun(t *testing.T) {
	corpus := sofiaCorpus()
	e := NewEvaluator(corpus, testScoring(), 4, newTestLogger())

	partial := auction("bcpea-3", "София", 80, 500)
	partial.Ownership = models.OwnershipHalf

	auctions := []*models.ExtractedProperty{
		auction("bcpea-1", "гр. София", 80, 1200),
		auction("bcpea-2", "София", 80, 800),
		partial,
		auction("bcpea-4", "Видин", 80, 300),
		auction("bcpea-5", "София", 80, 900),
		nil,
	}

	run, err := e.Evaluate(context.Background(), auctions)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if run.RunID == "" {
		t.Error("RunID is empty")
	}
	if len(run.Results) != 5 {
		t.Fatalf("results = %d; want 5", len(run.Results))
	}

	got := auctionIDs(run.Results)
	want := []string{"bcpea-2", "bcpea-5", "bcpea-1", "bcpea-3", "bcpea-4"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v; want %v", got, want)
		}
	}
	for _, r := range run.Results {
		if r.RunID != run.RunID {
			t.Errorf("%s: RunID = %q; want %q", r.AuctionID, r.RunID, run.RunID)
		}
		if r.EvaluatedAt.IsZero() {
			t.Errorf("%s: EvaluatedAt not set", r.AuctionID)
		}
	}
	if run.Results[3].Reliability != models.ExcludedPartialOwnership {
		t.Errorf("bcpea-3 reliability = %q; want excluded_partial_ownership", run.Results[3].Reliability)
	}
	if run.Results[4].Reliability != models.InsufficientData {
		t.Errorf("bcpea-4 reliability = %q; want insufficient_data", run.Results[4].Reliability)
	}
	if corpus.calls != 2 {
		t.Errorf("Market called %d times; want once per city (2)", corpus.calls)
	}
}

func TestEvaluateCorpusError(t *testing.T) {
	e := NewEvaluator(&fakeCorpus{err: errors.New("db down")}, testScoring(), 2, newTestLogger())

	_, err := e.Evaluate(context.Background(), []*models.ExtractedProperty{auction("bcpea-1", "София", 80, 900)})
	if err == nil {
		t.Fatal("Evaluate should fail when the corpus cannot be loaded")
	}
}

func TestEvaluateCancelled(t *testing.T) {
	e := NewEvaluator(sofiaCorpus(), testScoring(), 2, newTestLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Evaluate(ctx, []*models.ExtractedProperty{auction("bcpea-1", "София", 80, 900)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Evaluate error = %v; want context.Canceled", err)
	}
}
