// Package catalog holds the product data model and the best-effort extraction
// of structured fields from raw PA-API 5.0 responses.
//
// Field mapping (gjson paths relative to one item):
//
//	ASIN                ASIN
//	Title               ItemInfo.Title.DisplayValue
//	Description         ItemInfo.ContentInfo.ShortDescription
//	BulletPoints        ItemInfo.Features.DisplayValues
//	BestSellerRank      ItemInfo.ProductInfo.BestSellerRank
//	Category            BrowseNodeInfo.BrowseNodes.0.DisplayName
//	Subcategory         BrowseNodeInfo.BrowseNodes.0.Children.0.DisplayName
//	ReviewCount         CustomerReviews.TotalReviewCount, then CustomerReviews.Count
//	ReviewRating        CustomerReviews.StarRating
//	LatestReviewText    CustomerReviews.MostRecentReview.Body
//	Price, Currency     Offers.Listings.0.Price, then Offers.Summaries.0.LowestPrice
//
// Any missing path yields the zero value (or nil for numerics); nothing in
// here returns an error.
package catalog

import (
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

// ParseItemsResponse extracts product details from a GetItems/SearchItems
// response body. Items without an ASIN are skipped.
func ParseItemsResponse(body string) []ProductDetails {
	var details []ProductDetails
	gjson.Get(body, "ItemsResult.Items").ForEach(func(_, item gjson.Result) bool {
		if item.Get("ASIN").String() == "" {
			return true
		}
		details = append(details, ExtractProductDetails(item))
		return true
	})
	// SearchItems nests items under SearchResult instead.
	gjson.Get(body, "SearchResult.Items").ForEach(func(_, item gjson.Result) bool {
		if item.Get("ASIN").String() == "" {
			return true
		}
		details = append(details, ExtractProductDetails(item))
		return true
	})
	return details
}

// ExtractProductDetails lifts the structured fields out of one raw item.
func ExtractProductDetails(item gjson.Result) ProductDetails {
	price, currency := extractPrice(item)

	reviewCount := intField(item.Get("CustomerReviews.TotalReviewCount"))
	if reviewCount == nil {
		reviewCount = intField(item.Get("CustomerReviews.Count"))
	}

	return ProductDetails{
		ASIN:             NormalizeASIN(item.Get("ASIN").String()),
		Title:            item.Get("ItemInfo.Title.DisplayValue").String(),
		Description:      FlattenHTML(item.Get("ItemInfo.ContentInfo.ShortDescription").String()),
		BulletPoints:     stringList(item.Get("ItemInfo.Features.DisplayValues")),
		BestSellerRank:   intField(item.Get("ItemInfo.ProductInfo.BestSellerRank")),
		Category:         item.Get("BrowseNodeInfo.BrowseNodes.0.DisplayName").String(),
		Subcategory:      item.Get("BrowseNodeInfo.BrowseNodes.0.Children.0.DisplayName").String(),
		ReviewCount:      reviewCount,
		ReviewRating:     floatField(item.Get("CustomerReviews.StarRating")),
		LatestReviewText: item.Get("CustomerReviews.MostRecentReview.Body").String(),
		Price:            price,
		Currency:         currency,
		Raw:              item.Raw,
		FetchedAt:        time.Now().UTC(),
	}
}

// ExtractRelatedASINs returns the explicit cross-reference ASINs embedded in
// a raw item, in payload order.
func ExtractRelatedASINs(raw string) []string {
	var related []string
	gjson.Get(raw, "Relationships.RelatedProducts").ForEach(func(_, product gjson.Result) bool {
		if asin := product.Get("Identifiers.ASIN").String(); asin != "" {
			related = append(related, NormalizeASIN(asin))
		}
		return true
	})
	return related
}

// BrowseNode is one category node attached to a listing.
type BrowseNode struct {
	ID         string
	AncestorID string
}

// ExtractBrowseNodes returns the browse nodes of a raw item. Nodes may carry
// an own ID, only an ancestor ID, or neither.
func ExtractBrowseNodes(raw string) []BrowseNode {
	var nodes []BrowseNode
	gjson.Get(raw, "BrowseNodeInfo.BrowseNodes").ForEach(func(_, node gjson.Result) bool {
		nodes = append(nodes, BrowseNode{
			ID:         node.Get("Id").String(),
			AncestorID: node.Get("Ancestor.Id").String(),
		})
		return true
	})
	return nodes
}

// SearchID returns the node identifier usable for a category-scoped search,
// falling back to the ancestor. Empty means the node cannot be searched.
func (n BrowseNode) SearchID() string {
	if n.ID != "" {
		return n.ID
	}
	return n.AncestorID
}

func extractPrice(item gjson.Result) (*float64, string) {
	if listing := item.Get("Offers.Listings.0.Price"); listing.Exists() {
		return floatField(listing.Get("Amount")), listing.Get("Currency").String()
	}
	if lowest := item.Get("Offers.Summaries.0.LowestPrice"); lowest.Exists() {
		return floatField(lowest.Get("Amount")), lowest.Get("Currency").String()
	}
	return nil, ""
}

func stringList(res gjson.Result) []string {
	if !res.Exists() {
		return nil
	}
	if !res.IsArray() {
		return []string{res.String()}
	}
	var out []string
	res.ForEach(func(_, v gjson.Result) bool {
		out = append(out, v.String())
		return true
	})
	return out
}

// intField coerces a numeric JSON value to an int, tolerating numbers encoded
// as strings. Anything unparseable is absent, not an error.
func intField(res gjson.Result) *int {
	switch res.Type {
	case gjson.Number:
		v := int(res.Int())
		return &v
	case gjson.String:
		if v, err := strconv.Atoi(res.String()); err == nil {
			return &v
		}
	}
	return nil
}

func floatField(res gjson.Result) *float64 {
	switch res.Type {
	case gjson.Number:
		v := res.Float()
		return &v
	case gjson.String:
		if v, err := strconv.ParseFloat(res.String(), 64); err == nil {
			return &v
		}
	}
	return nil
}
