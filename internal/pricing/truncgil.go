package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cgulucan/bilanco/internal/domain"
)

// feedKeys maps internal price-table key prefixes to Truncgil feed fields.
var feedKeys = map[string]string{
	"USDTRY":  "USD",
	"EURTRY":  "EUR",
	"GRAM":    "GRA",
	"CEYREK":  "CEYREKALTIN",
	"YARIM":   "YARIMALTIN",
	"ATA":     "ATAALTIN",
	"BILEZIK": "YIA",
}

// updateDateFormats lists the timestamp layouts the feed has been seen to use.
var updateDateFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02-01-2006 15:04:05",
	"02-01-2006 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
}

// TruncgilClient fetches FX and gold reference prices from the Truncgil
// today.json feed.
type TruncgilClient struct {
	baseURL    string
	httpClient *http.Client
	retryDelay time.Duration
	maxRetries int
}

// NewTruncgilClient creates a new feed client.
func NewTruncgilClient(baseURL string, timeout, retryDelay time.Duration, maxRetries int) *TruncgilClient {
	return &TruncgilClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		retryDelay: retryDelay,
		maxRetries: maxRetries,
	}
}

// FetchSnapshot pulls the feed and builds a price snapshot. The feed quotes
// only a Buying price, so the buy and sell keys are set to the same value.
func (c *TruncgilClient) FetchSnapshot(ctx context.Context) (domain.PriceSnapshot, error) {
	// Cache buster: some CDN layers in front of the feed serve stale copies.
	sep := "?"
	if strings.Contains(c.baseURL, "?") {
		sep = "&"
	}
	url := fmt.Sprintf("%s%st=%d", c.baseURL, sep, time.Now().Unix())

	body, err := c.fetchWithRetry(ctx, url)
	if err != nil {
		return domain.PriceSnapshot{}, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return domain.PriceSnapshot{}, fmt.Errorf("parsing feed response: %w", err)
	}

	prices := make(domain.PriceTable)
	for key, feedField := range feedKeys {
		item, ok := raw[feedField]
		if !ok {
			continue
		}
		var entry struct {
			Buying json.RawMessage `json:"Buying"`
		}
		if err := json.Unmarshal(item, &entry); err != nil {
			continue
		}
		buying, ok := parseFeedNumber(entry.Buying)
		if !ok {
			continue
		}
		prices[key+"_BUY"] = buying
		prices[key+"_SELL"] = buying
	}

	if len(prices) == 0 {
		return domain.PriceSnapshot{}, fmt.Errorf("feed returned no usable prices")
	}

	return domain.PriceSnapshot{
		Prices:    prices,
		FetchedAt: parseUpdateDate(rawString(raw["Update_Date"])),
		Source:    c.baseURL,
		Notes:     "Truncgil today.json (Buying)",
	}, nil
}

func (c *TruncgilClient) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating feed request: %w", err)
		}
		req.Header.Set("User-Agent", "Mozilla/5.0 (bilanco)")
		req.Header.Set("Cache-Control", "no-cache")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("feed request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading feed response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("feed HTTP %d (attempt %d/%d)", resp.StatusCode, attempt+1, c.maxRetries+1)
			continue
		}
		return nil, fmt.Errorf("feed HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil, lastErr
}

// parseFeedNumber accepts the Buying field as either a JSON number or a
// Turkish-formatted string like "7.609,50".
func parseFeedNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	return domain.ParseNumber(s)
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func parseUpdateDate(s string) time.Time {
	if s == "" {
		return time.Now()
	}
	for _, layout := range updateDateFormats {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Now()
}
