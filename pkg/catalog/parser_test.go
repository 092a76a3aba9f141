package catalog

import (
	"testing"

	"github.com/tidwall/gjson"
)

const sampleItem = `{
  "ASIN": "b001test0",
  "ItemInfo": {
    "Title": {"DisplayValue": "Wireless Mouse"},
    "ContentInfo": {"ShortDescription": "<p>Ergonomic <b>design</b></p>"},
    "Features": {"DisplayValues": ["2.4GHz", "Silent clicks"]},
    "ProductInfo": {"BestSellerRank": 42}
  },
  "BrowseNodeInfo": {
    "BrowseNodes": [
      {"Id": "123", "DisplayName": "Electronics", "Children": [{"DisplayName": "Mice"}]},
      {"Ancestor": {"Id": "999"}},
      {"DisplayName": "Orphan"}
    ]
  },
  "CustomerReviews": {
    "TotalReviewCount": 120,
    "StarRating": 4.5,
    "MostRecentReview": {"Body": "Great mouse"}
  },
  "Offers": {
    "Listings": [{"Price": {"Amount": 59.99, "Currency": "SAR"}}]
  },
  "Relationships": {
    "RelatedProducts": [
      {"Identifiers": {"ASIN": "b002rel"}},
      {"Identifiers": {}},
      {"Identifiers": {"ASIN": "B003REL"}}
    ]
  }
}`

func TestExtractProductDetails(t *testing.T) {
	d := ExtractProductDetails(gjson.Parse(sampleItem))

	if d.ASIN != "B001TEST0" {
		t.Fatalf("ASIN not normalized: %q", d.ASIN)
	}
	if d.Title != "Wireless Mouse" {
		t.Errorf("title = %q", d.Title)
	}
	if d.Description != "Ergonomic design" {
		t.Errorf("description should have HTML flattened, got %q", d.Description)
	}
	if len(d.BulletPoints) != 2 || d.BulletPoints[0] != "2.4GHz" {
		t.Errorf("bullet points = %v", d.BulletPoints)
	}
	if d.BestSellerRank == nil || *d.BestSellerRank != 42 {
		t.Errorf("best seller rank = %v", d.BestSellerRank)
	}
	if d.Category != "Electronics" || d.Subcategory != "Mice" {
		t.Errorf("category = %q, subcategory = %q", d.Category, d.Subcategory)
	}
	if d.ReviewCount == nil || *d.ReviewCount != 120 {
		t.Errorf("review count = %v", d.ReviewCount)
	}
	if d.ReviewRating == nil || *d.ReviewRating != 4.5 {
		t.Errorf("review rating = %v", d.ReviewRating)
	}
	if d.Price == nil || *d.Price != 59.99 || d.Currency != "SAR" {
		t.Errorf("price = %v %q", d.Price, d.Currency)
	}
	if d.Raw == "" {
		t.Error("raw payload should be preserved")
	}
	if d.FetchedAt.IsZero() {
		t.Error("fetched_at should be set")
	}
}

func TestExtractMalformedNumerics(t *testing.T) {
	item := gjson.Parse(`{
	  "ASIN": "B00X",
	  "ItemInfo": {"ProductInfo": {"BestSellerRank": "not-a-number"}},
	  "CustomerReviews": {"TotalReviewCount": {"nested": true}, "StarRating": "4.2"}
	}`)
	d := ExtractProductDetails(item)

	if d.BestSellerRank != nil {
		t.Errorf("unparseable rank should be absent, got %v", *d.BestSellerRank)
	}
	if d.ReviewCount != nil {
		t.Errorf("non-numeric review count should be absent, got %v", *d.ReviewCount)
	}
	if d.ReviewRating == nil || *d.ReviewRating != 4.2 {
		t.Errorf("string-encoded rating should parse, got %v", d.ReviewRating)
	}
	if d.Price != nil {
		t.Errorf("missing offers should mean absent price, got %v", *d.Price)
	}
}

func TestExtractPriceFallsBackToSummaries(t *testing.T) {
	item := gjson.Parse(`{
	  "ASIN": "B00Y",
	  "Offers": {"Summaries": [{"LowestPrice": {"Amount": 12.5, "Currency": "USD"}}]}
	}`)
	d := ExtractProductDetails(item)
	if d.Price == nil || *d.Price != 12.5 || d.Currency != "USD" {
		t.Fatalf("price = %v %q", d.Price, d.Currency)
	}
}

func TestParseItemsResponse(t *testing.T) {
	body := `{"ItemsResult": {"Items": [` + sampleItem + `, {"ItemInfo": {}}]}}`
	details := ParseItemsResponse(body)
	if len(details) != 1 {
		t.Fatalf("items without ASIN must be skipped, got %d details", len(details))
	}

	search := `{"SearchResult": {"Items": [{"ASIN": "B005"}, {"ASIN": "B006"}]}}`
	if got := ParseItemsResponse(search); len(got) != 2 {
		t.Fatalf("expected 2 search results, got %d", len(got))
	}
}

func TestExtractRelatedASINs(t *testing.T) {
	got := ExtractRelatedASINs(sampleItem)
	want := []string{"B002REL", "B003REL"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("related = %v, want %v", got, want)
	}
	if got := ExtractRelatedASINs(`{}`); got != nil {
		t.Fatalf("no relationships should mean no related ASINs, got %v", got)
	}
}

func TestExtractBrowseNodes(t *testing.T) {
	nodes := ExtractBrowseNodes(sampleItem)
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	if nodes[0].SearchID() != "123" {
		t.Errorf("node with own ID: %q", nodes[0].SearchID())
	}
	if nodes[1].SearchID() != "999" {
		t.Errorf("node should fall back to ancestor: %q", nodes[1].SearchID())
	}
	if nodes[2].SearchID() != "" {
		t.Errorf("node without IDs should be unsearchable: %q", nodes[2].SearchID())
	}
}

func TestMergedText(t *testing.T) {
	p := ProductDetails{
		Title:        "Wireless Mouse",
		Description:  "Ergonomic",
		BulletPoints: []string{"2.4GHz", "Silent"},
	}
	if got := p.MergedText(); got != "Wireless Mouse\nErgonomic\n2.4GHz Silent" {
		t.Fatalf("merged text = %q", got)
	}

	empty := ProductDetails{Title: "Only Title"}
	if got := empty.MergedText(); got != "Only Title" {
		t.Fatalf("empty parts must be skipped, got %q", got)
	}
	if got := (ProductDetails{}).MergedText(); got != "" {
		t.Fatalf("all-empty product should merge to empty string, got %q", got)
	}
}

func TestFlattenHTML(t *testing.T) {
	if got := FlattenHTML("plain text"); got != "plain text" {
		t.Errorf("plain text must pass through, got %q", got)
	}
	if got := FlattenHTML("<p>Ergonomic  <b>design</b><br/>2.4GHz</p>"); got != "Ergonomic design 2.4GHz" {
		t.Errorf("flattened = %q", got)
	}
}
