// Package paapi is a minimal signed client for the Amazon Product
// Advertising API 5.0. Responses are returned as raw JSON strings; the
// catalog package turns them into structured records.
package paapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const requestTimeout = 20 * time.Second

type Client struct {
	settings Settings
	http     *retryablehttp.Client
	now      func() time.Time
}

func NewClient(settings Settings) *Client {
	settings.ApplyDefaults()
	rc := retryablehttp.NewClient()
	// The PA-API quota is tight and callers expect a single failed call to
	// abort the whole operation, so no retries and no status-based policy:
	// non-2xx responses pass through and fail in request().
	rc.RetryMax = 0
	rc.CheckRetry = func(_ context.Context, _ *http.Response, err error) (bool, error) {
		return false, err
	}
	rc.Logger = nil
	rc.HTTPClient.Timeout = requestTimeout
	return &Client{settings: settings, http: rc, now: time.Now}
}

// GetItems looks up a batch of ASINs. Keeping batches at or under 10 IDs is
// the caller's responsibility.
func (c *Client) GetItems(ctx context.Context, asins []string, resources []string) (string, error) {
	payload := map[string]interface{}{
		"ItemIds":     asins,
		"Resources":   orDefault(resources),
		"PartnerTag":  c.settings.PartnerTag,
		"PartnerType": c.settings.PartnerType,
		"Marketplace": c.settings.Marketplace,
	}
	return c.request(ctx, "getitems", payload)
}

// SearchQuery selects one page of a keyword- or category-scoped search.
type SearchQuery struct {
	Keywords     string
	BrowseNodeID string
	SearchIndex  string
	ItemPage     int
	Resources    []string
}

// SearchItems issues one search page. A keyword search carries its Keywords
// field even when empty; a category search omits it.
func (c *Client) SearchItems(ctx context.Context, q SearchQuery) (string, error) {
	page := q.ItemPage
	if page < 1 {
		page = 1
	}
	payload := map[string]interface{}{
		"ItemPage":    page,
		"Resources":   orDefault(q.Resources),
		"PartnerTag":  c.settings.PartnerTag,
		"PartnerType": c.settings.PartnerType,
		"Marketplace": c.settings.Marketplace,
	}
	if q.BrowseNodeID != "" {
		payload["BrowseNodeId"] = q.BrowseNodeID
	} else {
		payload["Keywords"] = q.Keywords
	}
	if q.SearchIndex != "" {
		payload["SearchIndex"] = q.SearchIndex
	}
	return c.request(ctx, "searchitems", payload)
}

// GetVariations returns the variation family of one ASIN.
func (c *Client) GetVariations(ctx context.Context, asin string, resources []string) (string, error) {
	payload := map[string]interface{}{
		"ASIN":        asin,
		"Resources":   orDefault(resources),
		"PartnerTag":  c.settings.PartnerTag,
		"PartnerType": c.settings.PartnerType,
		"Marketplace": c.settings.Marketplace,
	}
	return c.request(ctx, "getvariations", payload)
}

func (c *Client) request(ctx context.Context, target string, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	headers := c.sign(string(body), target, c.now().UTC())

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost,
		c.settings.baseURL()+"/paapi5/"+target, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	for name, value := range headers {
		if name == "Host" {
			req.Host = value
			continue
		}
		req.Header.Set(name, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("paapi %s: %w", target, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("paapi %s: read response: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("paapi %s: status %d: %s", target, resp.StatusCode, snippet(respBody))
	}
	return string(respBody), nil
}

func orDefault(resources []string) []string {
	if len(resources) == 0 {
		return DefaultResources
	}
	return resources
}

func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

// DefaultResources is the response shape requested unless a caller narrows
// it: everything the collector and parser consume.
var DefaultResources = []string{
	"ItemInfo.Title",
	"ItemInfo.Features",
	"ItemInfo.ProductInfo",
	"ItemInfo.Classifications",
	"ItemInfo.ContentInfo",
	"BrowseNodeInfo.BrowseNodes",
	"Offers.Listings.Price",
	"Offers.Summaries.LowestPrice",
	"Offers.Summaries.HighestPrice",
	"Offers.Listings.MerchantInfo",
	"Offers.Listings.Condition",
	"Offers.Listings.DeliveryInfo.IsPrimeEligible",
	"CustomerReviews.Count",
	"CustomerReviews.StarRating",
	"CustomerReviews.TotalReviewCount",
	"CustomerReviews.MostRecentReview",
	"Images.Primary.Medium",
	"Images.Variants.Medium",
	"Relationships.RelatedProducts",
}
