package services

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"auction-bargains/models"
	"auction-bargains/utils"
)

const topBargainCount = 5

type InsightService struct {
	logger       *utils.Logger
	thresholdPct float64
}

func NewInsightService(logger *utils.Logger, bargainThresholdPct float64) *InsightService {
	return &InsightService{logger: logger, thresholdPct: bargainThresholdPct}
}

func (s *InsightService) Generate(results []models.DealResult) *models.DealReport {
	report := &models.DealReport{
		ByReliability:       make(map[models.Reliability]int),
		ByCity:              make(map[string]int),
		BargainThresholdPct: s.thresholdPct,
	}

	if len(results) == 0 {
		return report
	}

	report.TotalDeals = len(results)

	var deviations []float64
	var bargains []*models.DealResult

	for i := range results {
		d := &results[i]
		report.ByReliability[d.Reliability]++
		if d.City != "" {
			report.ByCity[d.City]++
		}
		if d.Reliability != models.Reliable || d.DeviationPct == nil {
			continue
		}
		deviations = append(deviations, *d.DeviationPct)
		if *d.DeviationPct < 0 {
			report.Overpriced++
		}
		if d.IsBargain(s.thresholdPct) {
			bargains = append(bargains, d)
		}
	}
	report.Bargains = len(bargains)

	if len(deviations) > 0 {
		report.MedianDeviationPct = round2(median(deviations))
	}

	// Top bargains by deviation
	sort.SliceStable(bargains, func(i, j int) bool {
		return *bargains[i].DeviationPct > *bargains[j].DeviationPct
	})
	if len(bargains) > topBargainCount {
		report.TopBargains = bargains[:topBargainCount]
	} else {
		report.TopBargains = bargains
	}

	s.logger.Debug("[insights] %d deals, %d bargains, %d overpriced", report.TotalDeals, report.Bargains, report.Overpriced)
	return report
}

func (s *InsightService) Print(w io.Writer, r *models.DealReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🏷  AUCTION BARGAIN REPORT\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Auctions evaluated     : \033[1m%d\033[0m\n", r.TotalDeals)
	fmt.Fprintf(w, "  Reliable comparisons   : \033[1m%d\033[0m\n", r.ByReliability[models.Reliable])
	fmt.Fprintf(w, "  Insufficient data      : \033[1m%d\033[0m\n", r.ByReliability[models.InsufficientData])
	fmt.Fprintf(w, "  Partial ownership      : \033[1m%d\033[0m\n", r.ByReliability[models.ExcludedPartialOwnership])
	fmt.Fprintf(w, "  Non-residential        : \033[1m%d\033[0m\n", r.ByReliability[models.ExcludedNonResidential])
	fmt.Fprintln(w)

	// Deviation stats
	fmt.Fprintf(w, "\033[1;33m  Market Deviation (reliable only)\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if r.ByReliability[models.Reliable] > 0 {
		fmt.Fprintf(w, "  Median deviation      : \033[1;32m%+.1f%%\033[0m\n", r.MedianDeviationPct)
		fmt.Fprintf(w, "  Bargains (≥ %.0f%%)     : \033[1;32m%d\033[0m\n", r.BargainThresholdPct, r.Bargains)
		fmt.Fprintf(w, "  Above market          : \033[1;31m%d\033[0m\n", r.Overpriced)
	} else {
		fmt.Fprintf(w, "  No reliable comparisons\n")
	}
	fmt.Fprintln(w)

	// ── TOP BARGAINS ─────────────────────────────────────────────────────
	fmt.Fprintf(w, "\033[1;33m  Top %d Bargains\033[0m\n", topBargainCount)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.TopBargains) == 0 {
		fmt.Fprintf(w, "  No bargains found\n")
	} else {
		for i, d := range r.TopBargains {
			label := truncate(d.City+" "+d.Neighborhood, 28)
			fmt.Fprintf(w, "  \033[1m%d.\033[0m %-12s %-30s \033[1;32m-%.1f%% %s\033[0m (n=%d)\n",
				i+1, truncate(d.AuctionID, 12), label, *d.DeviationPct, strings.Repeat("★", d.Stars), d.ComparableCount)
		}
	}
	fmt.Fprintln(w)

	// Deals by city
	fmt.Fprintf(w, "\033[1;33m  Auctions by City\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ByCity) == 0 {
		fmt.Fprintf(w, "  No city data\n")
	} else {
		type cityCount struct {
			city  string
			count int
		}
		var cities []cityCount
		for city, cnt := range r.ByCity {
			cities = append(cities, cityCount{city, cnt})
		}
		sort.Slice(cities, func(i, j int) bool {
			if cities[i].count != cities[j].count {
				return cities[i].count > cities[j].count
			}
			return cities[i].city < cities[j].city
		})
		for _, cc := range cities {
			bar := strings.Repeat("█", min(cc.count, 40))
			fmt.Fprintf(w, "  %-30s %s (%d)\n", truncate(cc.city, 28), bar, cc.count)
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func round2(f float64) float64 {
	return roundTo(f, 2)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
