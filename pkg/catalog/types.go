package catalog

import (
	"strings"
	"time"
)

// ProductDetails is a snapshot of a marketplace listing at fetch time. The
// ASIN is the natural key everywhere and is uppercased on ingestion. Raw keeps
// the untouched PA-API item JSON so downstream extraction (related ASINs,
// browse nodes) does not depend on what the parser chose to lift out.
type ProductDetails struct {
	ASIN             string
	Title            string
	Description      string
	BulletPoints     []string
	BestSellerRank   *int
	Category         string
	Subcategory      string
	ReviewCount      *int
	ReviewRating     *float64
	LatestReviewText string
	Price            *float64
	Currency         string
	Raw              string
	FetchedAt        time.Time
}

// MergedText joins title, description and bullet points with newlines,
// skipping empty parts. This is the canonical similarity-scoring document.
func (p ProductDetails) MergedText() string {
	parts := []string{p.Title, p.Description, strings.Join(p.BulletPoints, " ")}
	nonEmpty := parts[:0]
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, "\n")
}

// CompetitorRecord is the outcome of one analysis run for one
// (seed, competitor) pair, with the competitor's metrics at capture time.
type CompetitorRecord struct {
	SeedASIN        string
	CompetitorASIN  string
	SimilarityScore float64
	Price           *float64
	ReviewRating    *float64
	ReviewCount     *int
	BestSellerRank  *int
	CapturedAt      time.Time
}

// CandidateCollection is the transient working set of one collection pass.
type CandidateCollection struct {
	Seed        ProductDetails
	Competitors []ProductDetails
}

// NormalizeASIN canonicalizes user- or API-supplied ASINs for identity.
func NormalizeASIN(asin string) string {
	return strings.ToUpper(strings.TrimSpace(asin))
}
