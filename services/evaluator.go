package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"auction-bargains/config"
	"auction-bargains/models"
	"auction-bargains/utils"
)

// MarketCorpus supplies the normalized market listings of one city.
type MarketCorpus interface {
	Market(ctx context.Context, city string) ([]*models.ExtractedProperty, error)
}

// EvaluationRun is the ranked outcome of one batch evaluation.
type EvaluationRun struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []models.DealResult
}

// Evaluator scores a batch of auction properties against the market corpus.
type Evaluator struct {
	corpus         MarketCorpus
	selector       *Selector
	scorer         *Scorer
	ranker         *Ranker
	maxConcurrency int
	logger         *utils.Logger
	now            func() time.Time
}

// NewEvaluator wires a Selector, Scorer and Ranker configured from s.
func NewEvaluator(corpus MarketCorpus, s config.Scoring, maxConcurrency int, logger *utils.Logger) *Evaluator {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Evaluator{
		corpus:         corpus,
		selector:       NewSelector(s),
		scorer:         NewScorer(s),
		ranker:         NewRanker(),
		maxConcurrency: maxConcurrency,
		logger:         logger,
		now:            time.Now,
	}
}

// Evaluate loads each city's market corpus once, selects and scores every
// auction concurrently, and returns the ranked results under a new run ID.
// Cancelling ctx abandons the batch.
func (e *Evaluator) Evaluate(ctx context.Context, auctions []*models.ExtractedProperty) (*EvaluationRun, error) {
	run := &EvaluationRun{RunID: uuid.NewString(), StartedAt: e.now()}
	runLog := e.logger.With("run_id", run.RunID)

	corpora, err := e.loadCorpora(ctx, auctions)
	if err != nil {
		return nil, err
	}

	results := make([]models.DealResult, len(auctions))
	scored := make([]bool, len(auctions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)
	for i, a := range auctions {
		if a == nil {
			continue
		}
		i, a := i, a
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			set := e.selector.Select(a, corpora[CityKey(a.City)])
			res := e.scorer.Score(set)
			res.RunID = run.RunID
			res.EvaluatedAt = run.StartedAt
			results[i], scored[i] = res, true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("evaluator: %w", err)
	}

	kept := results[:0]
	for i, res := range results {
		if scored[i] {
			kept = append(kept, res)
		}
	}
	run.Results = e.ranker.Rank(kept)
	run.FinishedAt = e.now()

	counts := make(map[models.Reliability]int)
	for _, r := range run.Results {
		counts[r.Reliability]++
	}
	runLog.Info("[evaluator] Scored %d auctions in %d cities: reliable=%d insufficient=%d partial=%d non_residential=%d",
		len(run.Results), len(corpora), counts[models.Reliable], counts[models.InsufficientData],
		counts[models.ExcludedPartialOwnership], counts[models.ExcludedNonResidential])
	return run, nil
}

// loadCorpora fetches the market corpus of every distinct auction city.
func (e *Evaluator) loadCorpora(ctx context.Context, auctions []*models.ExtractedProperty) (map[string][]*models.ExtractedProperty, error) {
	cities := make(map[string]string)
	for _, a := range auctions {
		if a == nil {
			continue
		}
		if key := CityKey(a.City); key != "" {
			if _, ok := cities[key]; !ok {
				cities[key] = NormalizeCity(a.City)
			}
		}
	}

	var mu sync.Mutex
	corpora := make(map[string][]*models.ExtractedProperty, len(cities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)
	for key, city := range cities {
		key, city := key, city
		g.Go(func() error {
			market, err := e.corpus.Market(gctx, city)
			if err != nil {
				return fmt.Errorf("evaluator: load market for %q: %w", city, err)
			}
			mu.Lock()
			corpora[key] = market
			mu.Unlock()
			e.logger.Debug("[evaluator] Loaded %d market listings for %s", len(market), city)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return corpora, nil
}
