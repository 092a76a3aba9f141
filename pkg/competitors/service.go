// Package competitors discovers competitor listings for a seed product,
// scores them and persists the results.
package competitors

import (
	"context"
	"sort"
	"time"

	"github.com/kareemelharony/samatcher/internal/utils"
	"github.com/kareemelharony/samatcher/pkg/catalog"
	"github.com/kareemelharony/samatcher/pkg/paapi"
	"github.com/kareemelharony/samatcher/pkg/similarity"
	"github.com/kareemelharony/samatcher/pkg/storage"
)

// CatalogClient is the slice of the PA-API surface the collector needs.
type CatalogClient interface {
	GetItems(ctx context.Context, asins []string, resources []string) (string, error)
	SearchItems(ctx context.Context, q paapi.SearchQuery) (string, error)
}

const (
	DefaultCandidatePageLimit = 5
	DefaultMaxCandidates      = 70

	// PA-API caps GetItems at 10 IDs per call.
	resolveBatchSize = 10
	keywordMaxRunes  = 200
	categoryPageCap  = 3
)

// Service coordinates candidate collection, similarity scoring and
// persistence. It keeps no state between calls beyond its collaborators.
type Service struct {
	client CatalogClient
	store  *storage.DB
	engine *similarity.Engine

	CandidatePageLimit int
	MaxCandidates      int
}

func NewService(client CatalogClient, store *storage.DB, engine *similarity.Engine) *Service {
	if engine == nil {
		engine = similarity.NewEngine(nil)
	}
	return &Service{
		client:             client,
		store:              store,
		engine:             engine,
		CandidatePageLimit: DefaultCandidatePageLimit,
		MaxCandidates:      DefaultMaxCandidates,
	}
}

// CollectCandidates expands a seed into at most MaxCandidates resolved
// competitor records. Sources in precedence order: related ASINs embedded in
// the seed's raw payload, keyword-search pages on the seed title, then
// category-scoped pages per distinct browse node. A running seen-set (seeded
// with the seed's own ASIN) deduplicates across all three; every loop level
// exits early once the cap is reached. The surviving IDs are resolved in
// batches of 10 and cached; IDs missing from a bulk response are dropped.
func (s *Service) CollectCandidates(ctx context.Context, seed catalog.ProductDetails) (catalog.CandidateCollection, error) {
	seen := map[string]struct{}{seed.ASIN: {}}
	var candidates []string

	add := func(asin string) {
		if asin == "" || len(candidates) >= s.MaxCandidates {
			return
		}
		if _, ok := seen[asin]; ok {
			return
		}
		seen[asin] = struct{}{}
		candidates = append(candidates, asin)
	}
	full := func() bool { return len(candidates) >= s.MaxCandidates }

	for _, asin := range catalog.ExtractRelatedASINs(seed.Raw) {
		add(asin)
	}
	utils.Log.Debug("related ASINs collected: ", len(candidates))

	keywords := seed.Title
	if runes := []rune(keywords); len(runes) > keywordMaxRunes {
		keywords = string(runes[:keywordMaxRunes])
	}
	for page := 1; page <= s.CandidatePageLimit && !full(); page++ {
		body, err := s.client.SearchItems(ctx, paapi.SearchQuery{Keywords: keywords, ItemPage: page})
		if err != nil {
			return catalog.CandidateCollection{}, err
		}
		for _, item := range catalog.ParseItemsResponse(body) {
			add(item.ASIN)
			if full() {
				break
			}
		}
	}

	categoryPages := s.CandidatePageLimit
	if categoryPages > categoryPageCap {
		categoryPages = categoryPageCap
	}
	seenNodes := make(map[string]struct{})
	for _, node := range catalog.ExtractBrowseNodes(seed.Raw) {
		if full() {
			break
		}
		nodeID := node.SearchID()
		if nodeID == "" {
			continue
		}
		if _, ok := seenNodes[nodeID]; ok {
			continue
		}
		seenNodes[nodeID] = struct{}{}

		for page := 1; page <= categoryPages && !full(); page++ {
			body, err := s.client.SearchItems(ctx, paapi.SearchQuery{BrowseNodeID: nodeID, ItemPage: page})
			if err != nil {
				return catalog.CandidateCollection{}, err
			}
			for _, item := range catalog.ParseItemsResponse(body) {
				add(item.ASIN)
				if full() {
					break
				}
			}
		}
	}

	collection := catalog.CandidateCollection{Seed: seed}
	for _, batch := range utils.Chunked(candidates, resolveBatchSize) {
		body, err := s.client.GetItems(ctx, batch, nil)
		if err != nil {
			return catalog.CandidateCollection{}, err
		}
		for _, item := range catalog.ParseItemsResponse(body) {
			if err := s.store.CacheProduct(ctx, item); err != nil {
				return catalog.CandidateCollection{}, err
			}
			collection.Competitors = append(collection.Competitors, item)
		}
	}
	utils.Log.Debug("resolved candidates: ", len(collection.Competitors))
	return collection, nil
}

// Analyse scores the seed against its candidate pool and persists the
// results. Without refreshCandidates the pool is every cached product except
// the seed itself; an empty pool falls back to a fresh collection. All
// records of one call share a single capture timestamp. The returned list is
// sorted by similarity, descending, ties keeping candidate order.
func (s *Service) Analyse(ctx context.Context, seed catalog.ProductDetails, refreshCandidates bool) ([]catalog.CompetitorRecord, error) {
	var (
		collection catalog.CandidateCollection
		err        error
	)
	if refreshCandidates {
		collection, err = s.CollectCandidates(ctx, seed)
	} else {
		collection, err = s.cachedCandidates(ctx, seed)
		if err == nil && len(collection.Competitors) == 0 {
			collection, err = s.CollectCandidates(ctx, seed)
		}
	}
	if err != nil {
		return nil, err
	}

	scores, err := s.engine.Compute(collection.Seed, collection.Competitors)
	if err != nil {
		return nil, err
	}

	capturedAt := time.Now().UTC().Truncate(time.Second)
	records := make([]catalog.CompetitorRecord, 0, len(scores))
	for i, details := range collection.Competitors {
		records = append(records, catalog.CompetitorRecord{
			SeedASIN:        seed.ASIN,
			CompetitorASIN:  details.ASIN,
			SimilarityScore: scores[i],
			Price:           details.Price,
			ReviewRating:    details.ReviewRating,
			ReviewCount:     details.ReviewCount,
			BestSellerRank:  details.BestSellerRank,
			CapturedAt:      capturedAt,
		})
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].SimilarityScore > records[j].SimilarityScore
	})

	if err := s.store.StoreCompetitorScores(ctx, records); err != nil {
		return nil, err
	}
	if err := s.store.AppendSnapshot(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *Service) cachedCandidates(ctx context.Context, seed catalog.ProductDetails) (catalog.CandidateCollection, error) {
	collection := catalog.CandidateCollection{Seed: seed}
	asins, err := s.store.ListSeedASINs(ctx)
	if err != nil {
		return collection, err
	}
	for _, asin := range asins {
		if asin == seed.ASIN {
			continue
		}
		product, err := s.store.GetProduct(ctx, asin)
		if err != nil {
			return collection, err
		}
		if product != nil {
			collection.Competitors = append(collection.Competitors, *product)
		}
	}
	return collection, nil
}

// TopCompetitors returns the stored ranking for a seed.
func (s *Service) TopCompetitors(ctx context.Context, seedASIN string, limit int) ([]catalog.CompetitorRecord, error) {
	return s.store.CompetitorsForSeed(ctx, seedASIN, limit)
}

// ExportToCSV writes the stored ranking for a seed to destination.
func (s *Service) ExportToCSV(ctx context.Context, seedASIN, destination string) error {
	return s.store.ExportCompetitorsToCSV(ctx, seedASIN, destination)
}
