// Package zotero is a client for the Zotero Web API v3, covering
// library reads (top items plus child notes) and tag writes.
package zotero

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/zotatlas/zotatlas/internal/entry"
	"github.com/zotatlas/zotatlas/internal/progress"
)

const (
	// BaseURL is the Zotero Web API base URL.
	BaseURL = "https://api.zotero.org"

	// APIVersion is the Zotero-API-Version header value.
	APIVersion = "3"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// PageSize is the item page size, the API maximum.
	PageSize = 100

	// RateLimit keeps well under Zotero's burst allowance.
	RateLimit = 5.0
)

// Client is a rate-limited HTTP client for one Zotero library.
type Client struct {
	httpClient  *http.Client
	limiter     *rate.Limiter
	baseURL     string
	apiKey      string
	libraryID   string
	libraryType string // "user" or "group"
}

// ClientOption configures a Client.
type ClientOption func(*Client)

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

// NewClient creates a client for the given library. libraryType is
// "user" or "group".
func NewClient(libraryID, libraryType, apiKey string, opts ...ClientOption) (*Client, error) {
	if libraryID == "" {
		return nil, fmt.Errorf("zotero: library ID is required")
	}
	if libraryType != "user" && libraryType != "group" {
		return nil, fmt.Errorf("zotero: library type must be user or group, got %q", libraryType)
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:     BaseURL,
		apiKey:      apiKey,
		libraryID:   libraryID,
		libraryType: libraryType,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) libraryPrefix() string {
	return fmt.Sprintf("/%ss/%s", c.libraryType, c.libraryID)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, extraHeaders map[string]string) ([]byte, http.Header, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, nil, fmt.Errorf("rate limiter: %w", err)
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
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Zotero-API-Version", APIVersion)
	if c.apiKey != "" {
		req.Header.Set("Zotero-API-Key", c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("zotero request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("reading zotero response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return data, resp.Header, nil
	case http.StatusForbidden:
		return nil, nil, fmt.Errorf("zotero: access denied, check the API key")
	case http.StatusNotFound:
		return nil, nil, fmt.Errorf("zotero: library or item not found")
	case http.StatusPreconditionFailed:
		return nil, nil, fmt.Errorf("zotero: item changed upstream, re-fetch before writing")
	default:
		return nil, nil, fmt.Errorf("zotero: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
}

// apiItem mirrors the wire shape of one Zotero item.
type apiItem struct {
	Key     string  `json:"key"`
	Version int     `json:"version"`
	Data    apiData `json:"data"`
}

type apiData struct {
	Key              string       `json:"key"`
	Version          int          `json:"version"`
	ItemType         string       `json:"itemType"`
	Title            string       `json:"title"`
	AbstractNote     string       `json:"abstractNote"`
	PublicationTitle string       `json:"publicationTitle"`
	ConferenceName   string       `json:"conferenceName"`
	ProceedingsTitle string       `json:"proceedingsTitle"`
	Series           string       `json:"series"`
	Date             string       `json:"date"`
	DOI              string       `json:"DOI"`
	URL              string       `json:"url"`
	Note             string       `json:"note"`
	ParentItem       string       `json:"parentItem"`
	ContentType      string       `json:"contentType"`
	LinkMode         string       `json:"linkMode"`
	Creators         []apiCreator `json:"creators"`
	Tags             []apiTag     `json:"tags"`
}

type apiCreator struct {
	CreatorType string `json:"creatorType"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Name        string `json:"name"`
}

type apiTag struct {
	Tag  string `json:"tag"`
	Type int    `json:"type,omitempty"`
}

// authorString renders creators the way a CSV export does:
// "Last, First; Last, First".
func authorString(creators []apiCreator) string {
	var parts []string
	for _, cr := range creators {
		if cr.CreatorType != "" && cr.CreatorType != "author" {
			continue
		}
		switch {
		case cr.Name != "":
			parts = append(parts, cr.Name)
		case cr.LastName != "" && cr.FirstName != "":
			parts = append(parts, cr.LastName+", "+cr.FirstName)
		case cr.LastName != "":
			parts = append(parts, cr.LastName)
		}
	}
	return strings.Join(parts, "; ")
}

func tagString(tags []apiTag) string {
	var parts []string
	for _, t := range tags {
		parts = append(parts, t.Tag)
	}
	return strings.Join(parts, "; ")
}

// FetchItems retrieves every top-level item in the library, following
// Total-Results pagination, and converts each to an entry.Item. Child
// notes and the first PDF attachment key are folded into their parent.
// Progress is reported per page.
func (c *Client) FetchItems(ctx context.Context, reporter progress.Reporter) ([]entry.Item, error) {
	if reporter == nil {
		reporter = progress.Discard
	}

	var raw []apiItem
	total := -1
	for start := 0; total < 0 || start < total; start += PageSize {
		query := url.Values{
			"format": {"json"},
			"limit":  {strconv.Itoa(PageSize)},
			"start":  {strconv.Itoa(start)},
		}
		data, headers, err := c.do(ctx, http.MethodGet, c.libraryPrefix()+"/items/top", query, nil, nil)
		if err != nil {
			return nil, fmt.Errorf("fetching items at offset %d: %w", start, err)
		}

		if total < 0 {
			total, err = strconv.Atoi(headers.Get("Total-Results"))
			if err != nil {
				return nil, fmt.Errorf("zotero: missing Total-Results header")
			}
		}

		var page []apiItem
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("parsing items page: %w", err)
		}
		raw = append(raw, page...)
		reporter.OnProgress(len(raw), total, "fetching library items")

		if len(page) == 0 {
			break
		}
	}

	notes, pdfKeys, err := c.fetchChildren(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]entry.Item, 0, len(raw))
	for _, it := range raw {
		if it.Data.ItemType == "attachment" || it.Data.ItemType == "note" {
			continue
		}
		items = append(items, entry.Item{
			Key:              it.Key,
			ItemType:         it.Data.ItemType,
			Title:            it.Data.Title,
			Authors:          authorString(it.Data.Creators),
			Abstract:         it.Data.AbstractNote,
			PublicationTitle: it.Data.PublicationTitle,
			ConferenceName:   it.Data.ConferenceName,
			ProceedingsTitle: it.Data.ProceedingsTitle,
			Series:           it.Data.Series,
			Date:             it.Data.Date,
			DOI:              it.Data.DOI,
			URL:              it.Data.URL,
			ManualTags:       tagString(it.Data.Tags),
			Notes:            notes[it.Key],
			PDFKey:           pdfKeys[it.Key],
		})
	}
	return items, nil
}

// fetchChildren pulls all note and attachment children in one paged
// sweep and indexes them by parent key. Notes of one parent are
// concatenated in API order.
func (c *Client) fetchChildren(ctx context.Context) (notes map[string]string, pdfKeys map[string]string, err error) {
	notes = make(map[string]string)
	pdfKeys = make(map[string]string)

	for _, itemType := range []string{"note", "attachment"} {
		total := -1
		for start := 0; total < 0 || start < total; start += PageSize {
			query := url.Values{
				"format":   {"json"},
				"itemType": {itemType},
				"limit":    {strconv.Itoa(PageSize)},
				"start":    {strconv.Itoa(start)},
			}
			data, headers, err := c.do(ctx, http.MethodGet, c.libraryPrefix()+"/items", query, nil, nil)
			if err != nil {
				return nil, nil, fmt.Errorf("fetching %s children: %w", itemType, err)
			}

			if total < 0 {
				total, err = strconv.Atoi(headers.Get("Total-Results"))
				if err != nil {
					return nil, nil, fmt.Errorf("zotero: missing Total-Results header")
				}
			}

			var page []apiItem
			if err := json.Unmarshal(data, &page); err != nil {
				return nil, nil, fmt.Errorf("parsing %s page: %w", itemType, err)
			}
			for _, child := range page {
				parent := child.Data.ParentItem
				if parent == "" {
					continue
				}
				switch itemType {
				case "note":
					if notes[parent] != "" {
						notes[parent] += "\n"
					}
					notes[parent] += child.Data.Note
				case "attachment":
					if child.Data.ContentType == "application/pdf" && pdfKeys[parent] == "" {
						pdfKeys[parent] = child.Key
					}
				}
			}

			if len(page) == 0 {
				break
			}
		}
	}
	return notes, pdfKeys, nil
}

// getItem fetches the current version and data of one item.
func (c *Client) getItem(ctx context.Context, key string) (*apiItem, error) {
	data, _, err := c.do(ctx, http.MethodGet, c.libraryPrefix()+"/items/"+key, url.Values{"format": {"json"}}, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching item %s: %w", key, err)
	}
	var it apiItem
	if err := json.Unmarshal(data, &it); err != nil {
		return nil, fmt.Errorf("parsing item %s: %w", key, err)
	}
	return &it, nil
}

// AddTags merges tags into an item, skipping any it already carries.
func (c *Client) AddTags(ctx context.Context, key string, tags []string) error {
	it, err := c.getItem(ctx, key)
	if err != nil {
		return err
	}

	existing := make(map[string]bool, len(it.Data.Tags))
	merged := it.Data.Tags
	for _, t := range it.Data.Tags {
		existing[t.Tag] = true
	}
	added := false
	for _, t := range tags {
		if !existing[t] {
			merged = append(merged, apiTag{Tag: t})
			added = true
		}
	}
	if !added {
		return nil
	}
	return c.patchTags(ctx, key, it.Version, merged)
}

// SetTags replaces an item's tags wholesale.
func (c *Client) SetTags(ctx context.Context, key string, tags []string) error {
	it, err := c.getItem(ctx, key)
	if err != nil {
		return err
	}
	replaced := make([]apiTag, len(tags))
	for i, t := range tags {
		replaced[i] = apiTag{Tag: t}
	}
	return c.patchTags(ctx, key, it.Version, replaced)
}

func (c *Client) patchTags(ctx context.Context, key string, version int, tags []apiTag) error {
	body, err := json.Marshal(map[string]any{"tags": tags})
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}
	headers := map[string]string{"If-Unmodified-Since-Version": strconv.Itoa(version)}
	if _, _, err := c.do(ctx, http.MethodPatch, c.libraryPrefix()+"/items/"+key, nil, body, headers); err != nil {
		return fmt.Errorf("updating tags on %s: %w", key, err)
	}
	return nil
}
