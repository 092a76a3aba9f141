package competitors

import (
	"context"
	"sort"

	"github.com/kareemelharony/samatcher/pkg/catalog"
	"github.com/kareemelharony/samatcher/pkg/storage"
)

// SummaryRow is one stored competitor record reshaped for presentation.
type SummaryRow struct {
	SeedASIN       string
	CompetitorASIN string
	Similarity     float64
	Price          *float64
	ReviewRating   *float64
	ReviewCount    *int
	BestSellerRank *int
	CapturedAt     string
}

// Summary returns the stored ranking for a seed as presentation rows.
func (s *Service) Summary(ctx context.Context, seedASIN string, limit int) ([]SummaryRow, error) {
	records, err := s.TopCompetitors(ctx, seedASIN, limit)
	if err != nil {
		return nil, err
	}
	rows := make([]SummaryRow, 0, len(records))
	for _, r := range records {
		rows = append(rows, SummaryRow{
			SeedASIN:       r.SeedASIN,
			CompetitorASIN: r.CompetitorASIN,
			Similarity:     r.SimilarityScore,
			Price:          r.Price,
			ReviewRating:   r.ReviewRating,
			ReviewCount:    r.ReviewCount,
			BestSellerRank: r.BestSellerRank,
			CapturedAt:     r.CapturedAt.Format(storage.TimeLayout),
		})
	}
	return rows, nil
}

// Benchmarks aggregates a record set into competitive reference points:
// metric ranges plus the three strongest competitors per metric (lowest
// price, best sales rank, most reviews, highest rating). Records missing a
// metric are ignored for that metric.
type Benchmarks struct {
	MinPrice, MaxPrice     *float64
	MinRating, MaxRating   *float64
	MinReviews, MaxReviews *int

	StrongestPrice   []string
	StrongestBSR     []string
	StrongestReviews []string
	StrongestRatings []string
}

func ComputeBenchmarks(records []catalog.CompetitorRecord) Benchmarks {
	var b Benchmarks
	for _, r := range records {
		if r.Price != nil {
			b.MinPrice = minFloat(b.MinPrice, *r.Price)
			b.MaxPrice = maxFloat(b.MaxPrice, *r.Price)
		}
		if r.ReviewRating != nil {
			b.MinRating = minFloat(b.MinRating, *r.ReviewRating)
			b.MaxRating = maxFloat(b.MaxRating, *r.ReviewRating)
		}
		if r.ReviewCount != nil {
			b.MinReviews = minInt(b.MinReviews, *r.ReviewCount)
			b.MaxReviews = maxInt(b.MaxReviews, *r.ReviewCount)
		}
	}

	b.StrongestPrice = topASINs(records, func(r catalog.CompetitorRecord) (float64, bool) {
		if r.Price == nil {
			return 0, false
		}
		return *r.Price, true
	}, true)
	b.StrongestBSR = topASINs(records, func(r catalog.CompetitorRecord) (float64, bool) {
		if r.BestSellerRank == nil {
			return 0, false
		}
		return float64(*r.BestSellerRank), true
	}, true)
	b.StrongestReviews = topASINs(records, func(r catalog.CompetitorRecord) (float64, bool) {
		if r.ReviewCount == nil {
			return 0, false
		}
		return float64(*r.ReviewCount), true
	}, false)
	b.StrongestRatings = topASINs(records, func(r catalog.CompetitorRecord) (float64, bool) {
		if r.ReviewRating == nil {
			return 0, false
		}
		return *r.ReviewRating, true
	}, false)
	return b
}

func topASINs(records []catalog.CompetitorRecord, metric func(catalog.CompetitorRecord) (float64, bool), ascending bool) []string {
	type scored struct {
		asin  string
		value float64
	}
	var subset []scored
	for _, r := range records {
		if v, ok := metric(r); ok {
			subset = append(subset, scored{asin: r.CompetitorASIN, value: v})
		}
	}
	sort.SliceStable(subset, func(i, j int) bool {
		if ascending {
			return subset[i].value < subset[j].value
		}
		return subset[i].value > subset[j].value
	})
	if len(subset) > 3 {
		subset = subset[:3]
	}
	out := make([]string, 0, len(subset))
	for _, s := range subset {
		out = append(out, s.asin)
	}
	return out
}

func minFloat(cur *float64, v float64) *float64 {
	if cur == nil || v < *cur {
		return &v
	}
	return cur
}

func maxFloat(cur *float64, v float64) *float64 {
	if cur == nil || v > *cur {
		return &v
	}
	return cur
}

func minInt(cur *int, v int) *int {
	if cur == nil || v < *cur {
		return &v
	}
	return cur
}

func maxInt(cur *int, v int) *int {
	if cur == nil || v > *cur {
		return &v
	}
	return cur
}
