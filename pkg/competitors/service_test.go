package competitors

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kareemelharony/samatcher/pkg/catalog"
	"github.com/kareemelharony/samatcher/pkg/paapi"
	"github.com/kareemelharony/samatcher/pkg/storage"
)

// fakeClient serves canned search pages and item lookups, recording every
// call so tests can assert on batching and call counts.
type fakeClient struct {
	items         map[string]string
	keywordPages  [][]string
	categoryPages map[string][][]string

	getItemsCalls [][]string
	searchCalls   []paapi.SearchQuery
}

func (f *fakeClient) GetItems(_ context.Context, asins []string, _ []string) (string, error) {
	f.getItemsCalls = append(f.getItemsCalls, asins)
	var items []string
	for _, asin := range asins {
		if raw, ok := f.items[asin]; ok {
			items = append(items, raw)
		}
	}
	return `{"ItemsResult":{"Items":[` + strings.Join(items, ",") + `]}}`, nil
}

func (f *fakeClient) SearchItems(_ context.Context, q paapi.SearchQuery) (string, error) {
	f.searchCalls = append(f.searchCalls, q)
	var pages [][]string
	if q.BrowseNodeID != "" {
		pages = f.categoryPages[q.BrowseNodeID]
	} else {
		pages = f.keywordPages
	}
	var items []string
	if q.ItemPage >= 1 && q.ItemPage <= len(pages) {
		for _, asin := range pages[q.ItemPage-1] {
			items = append(items, fmt.Sprintf(`{"ASIN":%q}`, asin))
		}
	}
	return `{"SearchResult":{"Items":[` + strings.Join(items, ",") + `]}}`, nil
}

func itemJSON(asin, title string) string {
	return fmt.Sprintf(`{"ASIN":%q,"ItemInfo":{"Title":{"DisplayValue":%q}}}`, asin, title)
}

func openTestStore(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seedProduct(raw string) catalog.ProductDetails {
	return catalog.ProductDetails{
		ASIN:  "B001",
		Title: "Wireless Mouse",
		Raw:   raw,
	}
}

func TestCollectCandidatesDedupCapAndBatching(t *testing.T) {
	seedRaw := `{"Relationships":{"RelatedProducts":[{"Identifiers":{"ASIN":"R1"}}]},` +
		`"BrowseNodeInfo":{"BrowseNodes":[{"Id":"77"}]}}`

	client := &fakeClient{
		items: map[string]string{"R1": itemJSON("R1", "Related")},
		keywordPages: [][]string{
			{"B001", "C1", "C2", "C3", "C4", "C5", "C6", "C7", "C8", "C9", "C10"},
			{"C10", "C11", "C12"},
		},
		categoryPages: map[string][][]string{"77": {{"D1"}}},
	}
	for i := 1; i <= 12; i++ {
		asin := fmt.Sprintf("C%d", i)
		client.items[asin] = itemJSON(asin, "Candidate "+asin)
	}

	svc := NewService(client, openTestStore(t), nil)
	svc.MaxCandidates = 12
	svc.CandidatePageLimit = 2

	got, err := svc.CollectCandidates(context.Background(), seedProduct(seedRaw))
	if err != nil {
		t.Fatal(err)
	}

	// Related R1, then C1..C10 from page 1 (seed skipped), then C11 hits the
	// cap mid page 2. The duplicate C10 must not count twice.
	if len(got.Competitors) != 12 {
		t.Fatalf("expected 12 candidates, got %d", len(got.Competitors))
	}
	seen := make(map[string]bool)
	for _, c := range got.Competitors {
		if c.ASIN == "B001" {
			t.Fatal("seed must never appear among its own candidates")
		}
		if seen[c.ASIN] {
			t.Fatalf("duplicate candidate %s", c.ASIN)
		}
		seen[c.ASIN] = true
	}
	if got.Competitors[0].ASIN != "R1" {
		t.Errorf("related ASINs take precedence, first = %s", got.Competitors[0].ASIN)
	}

	if len(client.getItemsCalls) != 2 {
		t.Fatalf("expected 2 resolution batches, got %d", len(client.getItemsCalls))
	}
	if len(client.getItemsCalls[0]) != 10 || len(client.getItemsCalls[1]) != 2 {
		t.Errorf("batch sizes = %d, %d", len(client.getItemsCalls[0]), len(client.getItemsCalls[1]))
	}

	// Cap was reached during keyword search, so no category page was fetched.
	for _, q := range client.searchCalls {
		if q.BrowseNodeID != "" {
			t.Errorf("unexpected category search for node %s", q.BrowseNodeID)
		}
	}
}

func TestCollectCandidatesCategoryFallbackAndSkips(t *testing.T) {
	// First node has only an ancestor ID, second has neither and is skipped.
	seedRaw := `{"BrowseNodeInfo":{"BrowseNodes":[{"Ancestor":{"Id":"900"}},{"DisplayName":"orphan"}]}}`
	client := &fakeClient{
		items:         map[string]string{"K1": itemJSON("K1", "From category")},
		categoryPages: map[string][][]string{"900": {{"K1"}}},
	}

	svc := NewService(client, openTestStore(t), nil)
	got, err := svc.CollectCandidates(context.Background(), seedProduct(seedRaw))
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Competitors) != 1 || got.Competitors[0].ASIN != "K1" {
		t.Fatalf("candidates = %+v", got.Competitors)
	}

	var categoryNodes []string
	for _, q := range client.searchCalls {
		if q.BrowseNodeID != "" {
			categoryNodes = append(categoryNodes, q.BrowseNodeID)
		}
	}
	for _, node := range categoryNodes {
		if node != "900" {
			t.Errorf("only the ancestor ID should be searched, got node %s", node)
		}
	}
}

func TestCollectCandidatesDropsUnresolvedIDs(t *testing.T) {
	client := &fakeClient{
		items:        map[string]string{"C1": itemJSON("C1", "Resolvable")},
		keywordPages: [][]string{{"C1", "C2"}},
	}
	svc := NewService(client, openTestStore(t), nil)

	got, err := svc.CollectCandidates(context.Background(), seedProduct(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Competitors) != 1 || got.Competitors[0].ASIN != "C1" {
		t.Fatalf("unresolved IDs must be dropped silently, got %+v", got.Competitors)
	}
}

func TestCollectCandidatesCachesResolvedRecords(t *testing.T) {
	client := &fakeClient{
		items:        map[string]string{"C1": itemJSON("C1", "Cached candidate")},
		keywordPages: [][]string{{"C1"}},
	}
	store := openTestStore(t)
	svc := NewService(client, store, nil)

	if _, err := svc.CollectCandidates(context.Background(), seedProduct(`{}`)); err != nil {
		t.Fatal(err)
	}
	cached, err := store.GetProduct(context.Background(), "C1")
	if err != nil {
		t.Fatal(err)
	}
	if cached == nil || cached.Title != "Cached candidate" {
		t.Fatalf("resolved candidate should be cached, got %+v", cached)
	}
}

func TestAnalyseUsesCachedPool(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	client := &fakeClient{}
	svc := NewService(client, store, nil)

	seed := catalog.ProductDetails{ASIN: "B001", Title: "Wireless Mouse", Description: "Ergonomic"}
	if err := store.CacheProduct(ctx, seed); err != nil {
		t.Fatal(err)
	}
	if err := store.CacheProduct(ctx, catalog.ProductDetails{ASIN: "B002", Title: "Wireless Mouse Pro"}); err != nil {
		t.Fatal(err)
	}
	if err := store.CacheProduct(ctx, catalog.ProductDetails{ASIN: "B003", Title: "Garden Hose"}); err != nil {
		t.Fatal(err)
	}

	records, err := svc.Analyse(ctx, seed, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(client.searchCalls) != 0 || len(client.getItemsCalls) != 0 {
		t.Fatal("cached-pool analysis must not hit the catalog client")
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].CompetitorASIN != "B002" {
		t.Errorf("similar listing should rank first, got %s", records[0].CompetitorASIN)
	}
	for i := 1; i < len(records); i++ {
		if records[i].SimilarityScore > records[i-1].SimilarityScore {
			t.Fatal("records not sorted by descending similarity")
		}
		if !records[i].CapturedAt.Equal(records[0].CapturedAt) {
			t.Fatal("all records of one run must share one capture timestamp")
		}
	}

	stored, err := store.CompetitorsForSeed(ctx, "B001", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Fatalf("analysis should persist scores, found %d rows", len(stored))
	}
}

func TestAnalyseFallsBackToCollectionWhenCacheEmpty(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	client := &fakeClient{
		items:        map[string]string{"C1": itemJSON("C1", "Wireless Mouse Pro")},
		keywordPages: [][]string{{"C1"}},
	}
	svc := NewService(client, store, nil)

	seed := catalog.ProductDetails{ASIN: "B001", Title: "Wireless Mouse"}
	if err := store.CacheProduct(ctx, seed); err != nil {
		t.Fatal(err)
	}

	// Only the seed itself is cached, so the pool is empty and analysis must
	// fall back to a fresh collection.
	records, err := svc.Analyse(ctx, seed, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(client.searchCalls) == 0 {
		t.Fatal("empty cached pool should trigger a fresh collection")
	}
	if len(records) != 1 || records[0].CompetitorASIN != "C1" {
		t.Fatalf("records = %+v", records)
	}
}

func TestIngestSkipsCachedASINs(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	client := &fakeClient{items: map[string]string{
		"B001": itemJSON("B001", "Cached already"),
		"B002": itemJSON("B002", "New listing"),
	}}
	mgr := NewSeedManager(client, store)

	if err := store.CacheProduct(ctx, catalog.ProductDetails{ASIN: "B001", Title: "Cached already"}); err != nil {
		t.Fatal(err)
	}

	fetched, err := mgr.Ingest(ctx, []string{" b001 "}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(fetched) != 0 {
		t.Fatalf("cached ASIN should not be re-fetched, got %d", len(fetched))
	}
	if len(client.getItemsCalls) != 0 {
		t.Fatal("no catalog calls expected when everything is cached")
	}

	fetched, err = mgr.Ingest(ctx, []string{"b001", "b002", "B002"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(fetched) != 1 || fetched[0].ASIN != "B002" {
		t.Fatalf("only the uncached ASIN should be fetched, got %+v", fetched)
	}
	if len(client.getItemsCalls) != 1 || len(client.getItemsCalls[0]) != 1 {
		t.Fatalf("getItems calls = %v", client.getItemsCalls)
	}

	fetched, err = mgr.Ingest(ctx, []string{"B001"}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(fetched) != 1 {
		t.Fatal("force refresh must re-fetch cached ASINs")
	}
}

func TestGetSeedDetailsFetchesOnMiss(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	client := &fakeClient{items: map[string]string{"B009": itemJSON("B009", "Fresh seed")}}
	mgr := NewSeedManager(client, store)

	details, err := mgr.GetSeedDetails(ctx, "b009", false)
	if err != nil {
		t.Fatal(err)
	}
	if details == nil || details.Title != "Fresh seed" {
		t.Fatalf("details = %+v", details)
	}

	// Second call comes from the cache.
	if _, err := mgr.GetSeedDetails(ctx, "B009", false); err != nil {
		t.Fatal(err)
	}
	if len(client.getItemsCalls) != 1 {
		t.Fatalf("expected a single remote fetch, got %d", len(client.getItemsCalls))
	}

	missing, err := mgr.GetSeedDetails(ctx, "B404", false)
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("unknown ASIN should yield nil, got %+v", missing)
	}
}
