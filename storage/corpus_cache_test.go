package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"auction-bargains/models"
	"auction-bargains/utils"
)

type countingSource struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (c *countingSource) Market(_ context.Context, city string) ([]*models.ExtractedProperty, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[city]++
	if c.err != nil {
		return nil, c.err
	}
	return []*models.ExtractedProperty{property("imot-1", models.KindMarket, city, 80, 120000)}, nil
}

func (c *countingSource) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func TestCachedCorpus(t *testing.T) {
	src := &countingSource{}
	corpus := NewCachedCorpus(src, time.Minute, utils.NewLogger("error"))
	ctx := context.Background()

	for _, city := range []string{"София", "гр. София", "  софия "} {
		market, err := corpus.Market(ctx, city)
		if err != nil {
			t.Fatalf("Market(%q): %v", city, err)
		}
		if len(market) != 1 {
			t.Errorf("Market(%q) = %d listings; want 1", city, len(market))
		}
	}
	if got := src.total(); got != 1 {
		t.Errorf("source called %d times; want 1 for one city key", got)
	}

	if _, err := corpus.Market(ctx, "Варна"); err != nil {
		t.Fatal(err)
	}
	if got := src.total(); got != 2 {
		t.Errorf("source called %d times; want 2 after a second city", got)
	}

	corpus.Invalidate()
	if _, err := corpus.Market(ctx, "София"); err != nil {
		t.Fatal(err)
	}
	if got := src.total(); got != 3 {
		t.Errorf("source called %d times; want 3 after Invalidate", got)
	}
}

func TestCachedCorpusErrorsAreNotCached(t *testing.T) {
	src := &countingSource{err: errors.New("db down")}
	corpus := NewCachedCorpus(src, 0, utils.NewLogger("error"))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := corpus.Market(ctx, "София"); err == nil {
			t.Fatal("expected source error")
		}
	}
	if got := src.total(); got != 2 {
		t.Errorf("source called %d times; want 2", got)
	}
}
