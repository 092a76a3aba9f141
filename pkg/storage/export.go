package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/kareemelharony/samatcher/internal/utils"
)

var csvHeader = []string{
	"seed_asin", "competitor_asin", "similarity", "price",
	"review_rating", "review_count", "best_seller_rank", "captured_at",
}

// ExportCompetitorsToCSV writes the current scores for a seed, ordered by
// descending similarity, to destination. Parent directories are created.
// Absent numeric fields render as empty strings.
func (d *DB) ExportCompetitorsToCSV(ctx context.Context, seedASIN, destination string) error {
	records, err := d.CompetitorsForSeed(ctx, seedASIN, 0)
	if err != nil {
		return err
	}

	if err := utils.EnsureDir(destination); err != nil {
		return err
	}
	f, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.SeedASIN,
			r.CompetitorASIN,
			fmt.Sprintf("%.4f", r.SimilarityScore),
			formatFloat(r.Price),
			formatFloat(r.ReviewRating),
			formatInt(r.ReviewCount),
			formatInt(r.BestSellerRank),
			r.CapturedAt.Format(TimeLayout),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func formatFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'g', -1, 64)
}

func formatInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
