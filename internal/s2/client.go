// Package s2 is a rate-limited client for the Semantic Scholar Graph
// API, used to enrich entries with citation counts and reference
// lists.
package s2

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Semantic Scholar Graph API base URL.
	BaseURL = "https://api.semanticscholar.org/graph/v1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// RateLimit is 1 request per second, the unauthenticated budget.
	RateLimit = 1.0

	// MaxRetries is how many times a request is attempted before the
	// rate-limit error is surfaced.
	MaxRetries = 3

	// RetryBackoff is the base pause after a 429; attempt n waits
	// RetryBackoff * (n + 1).
	RetryBackoff = 10 * time.Second

	// MinTitleSimilarity is the word-overlap threshold under which a
	// title search result is rejected as a different paper.
	MinTitleSimilarity = 0.5

	// BatchLimit is the Graph API's cap on ids per batch lookup.
	BatchLimit = 500

	// DefaultPaperFields are the fields requested for paper lookups.
	// Nested reference and citation records carry their paper ids so
	// links can resolve without a DOI.
	DefaultPaperFields = "paperId,title,abstract,year,venue,citationCount,externalIds,references.paperId,references.title,references.externalIds,citations.paperId,citations.title,citations.externalIds"

	// BatchPaperFields are the compact fields requested for reference
	// cache lookups.
	BatchPaperFields = "paperId,title,year,venue,citationCount,externalIds"
)

// Client is a rate-limited HTTP client for the Graph API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	apiKey     string
	baseURL    string
	backoff    time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIKey sets the API key for authenticated requests.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithBackoff sets the retry backoff base (for testing).
func WithBackoff(d time.Duration) ClientOption {
	return func(c *Client) {
		c.backoff = d
	}
}

// NewClient creates a new Graph API client. An API key raises the
// server-side rate budget but is not required.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
		backoff:    RetryBackoff,
	}

	if key := os.Getenv("S2_API_KEY"); key != "" {
		c.apiKey = key
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// do issues one rate-limited request, retrying up to MaxRetries times
// on 429 with a growing pause.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	for attempt := 0; attempt < MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		u := c.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("x-api-key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
		}
		data, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: reading body: %v", ErrNetworkError, err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return data, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, ErrNotFound
		case resp.StatusCode == http.StatusTooManyRequests:
			pause := c.backoff * time.Duration(attempt+1)
			select {
			case <-time.After(pause):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		default:
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
			}
		}
	}
	return nil, ErrRateLimited
}

// GetPaperByDOI fetches a paper record by DOI, including its reference
// and citation lists.
func (c *Client) GetPaperByDOI(ctx context.Context, doi string) (*Paper, error) {
	doi = NormalizeDOI(doi)
	if doi == "" {
		return nil, fmt.Errorf("%w: empty DOI", ErrNotFound)
	}

	query := url.Values{"fields": {DefaultPaperFields}}
	data, err := c.do(ctx, http.MethodGet, "/paper/DOI:"+url.PathEscape(doi), query, nil)
	if err != nil {
		return nil, err
	}

	var paper Paper
	if err := json.Unmarshal(data, &paper); err != nil {
		return nil, fmt.Errorf("%w: parsing paper: %v", ErrInvalidResponse, err)
	}
	if paper.PaperID == "" {
		return nil, ErrNotFound
	}
	return &paper, nil
}

// SearchByTitle finds the paper whose title best matches the query. A
// result is accepted only when its word overlap with the query reaches
// MinTitleSimilarity; otherwise ErrNoMatch is returned.
func (c *Client) SearchByTitle(ctx context.Context, title string) (*Paper, error) {
	query := url.Values{
		"query":  {title},
		"fields": {DefaultPaperFields},
		"limit":  {"3"},
	}
	data, err := c.do(ctx, http.MethodGet, "/paper/search", query, nil)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("%w: parsing search results: %v", ErrInvalidResponse, err)
	}

	var best *Paper
	bestScore := 0.0
	for i := range resp.Data {
		score := TitleSimilarity(title, resp.Data[i].Title)
		if score > bestScore {
			best = &resp.Data[i]
			bestScore = score
		}
	}
	if best == nil || bestScore < MinTitleSimilarity {
		return nil, ErrNoMatch
	}
	return best, nil
}

// BatchPapers fetches compact records for up to BatchLimit identifiers
// per request, chunking as needed. Identifiers the API cannot resolve
// are omitted from the result.
func (c *Client) BatchPapers(ctx context.Context, ids []string) ([]Paper, error) {
	var papers []Paper
	for start := 0; start < len(ids); start += BatchLimit {
		end := start + BatchLimit
		if end > len(ids) {
			end = len(ids)
		}

		body, err := json.Marshal(map[string][]string{"ids": ids[start:end]})
		if err != nil {
			return nil, fmt.Errorf("marshaling batch request: %w", err)
		}

		query := url.Values{"fields": {BatchPaperFields}}
		data, err := c.do(ctx, http.MethodPost, "/paper/batch", query, body)
		if err != nil {
			return nil, err
		}

		// Unresolved ids come back as JSON nulls.
		var chunk []*Paper
		if err := json.Unmarshal(data, &chunk); err != nil {
			return nil, fmt.Errorf("%w: parsing batch results: %v", ErrInvalidResponse, err)
		}
		for _, p := range chunk {
			if p != nil && p.PaperID != "" {
				papers = append(papers, *p)
			}
		}
	}
	return papers, nil
}
