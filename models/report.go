package models

// DealReport holds the computed summary over one batch of deal results.
type DealReport struct {
	TotalDeals          int                 `json:"total_deals"`
	ByReliability       map[Reliability]int `json:"by_reliability"`
	ByCity              map[string]int      `json:"by_city"`
	Bargains            int                 `json:"bargains"`
	Overpriced          int                 `json:"overpriced"`
	MedianDeviationPct  float64             `json:"median_deviation_pct"`
	TopBargains         []*DealResult       `json:"top_bargains"`
	BargainThresholdPct float64             `json:"bargain_threshold_pct"`
}
