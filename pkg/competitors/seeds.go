package competitors

import (
	"context"

	"github.com/kareemelharony/samatcher/internal/utils"
	"github.com/kareemelharony/samatcher/pkg/catalog"
	"github.com/kareemelharony/samatcher/pkg/storage"
)

// SeedManager ingests and refreshes seed product data.
type SeedManager struct {
	client CatalogClient
	store  *storage.DB
}

func NewSeedManager(client CatalogClient, store *storage.DB) *SeedManager {
	return &SeedManager{client: client, store: store}
}

// Ingest fetches and caches the given ASINs, skipping ones already cached
// unless forceRefresh is set. Input is normalized (trimmed, uppercased) and
// deduplicated preserving order. Returns the newly fetched records; when
// everything is already cached no remote call is made.
func (m *SeedManager) Ingest(ctx context.Context, asins []string, forceRefresh bool) ([]catalog.ProductDetails, error) {
	seen := make(map[string]struct{}, len(asins))
	var toFetch []string
	for _, raw := range asins {
		asin := catalog.NormalizeASIN(raw)
		if asin == "" {
			continue
		}
		if _, ok := seen[asin]; ok {
			continue
		}
		seen[asin] = struct{}{}

		if !forceRefresh {
			existing, err := m.store.GetProduct(ctx, asin)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				continue
			}
		}
		toFetch = append(toFetch, asin)
	}

	var fetched []catalog.ProductDetails
	for _, batch := range utils.Chunked(toFetch, resolveBatchSize) {
		body, err := m.client.GetItems(ctx, batch, nil)
		if err != nil {
			return nil, err
		}
		for _, details := range catalog.ParseItemsResponse(body) {
			if err := m.store.CacheProduct(ctx, details); err != nil {
				return nil, err
			}
			fetched = append(fetched, details)
		}
	}
	return fetched, nil
}

// GetSeedDetails returns the cached record for asin, fetching it (and
// overwriting the cache) when absent or when refresh is requested. Returns
// nil when the catalog knows nothing about the ASIN either.
func (m *SeedManager) GetSeedDetails(ctx context.Context, asin string, refresh bool) (*catalog.ProductDetails, error) {
	asin = catalog.NormalizeASIN(asin)
	if !refresh {
		details, err := m.store.GetProduct(ctx, asin)
		if err != nil {
			return nil, err
		}
		if details != nil {
			return details, nil
		}
	}
	fetched, err := m.Ingest(ctx, []string{asin}, true)
	if err != nil {
		return nil, err
	}
	if len(fetched) == 0 {
		return nil, nil
	}
	return &fetched[0], nil
}
