// Package ssb is a client for the Statistics Norway open data API
// (Statbank), scoped to the household budget survey in Table 10235.
// Responses are cached by query hash through an injected Cache.
package ssb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrNoData is returned when the Statbank answers but has no values for the
// requested year and categories.
var ErrNoData = fmt.Errorf("no data for the requested selection")

// CategorySpending is one category's expenditure in a given year.
type CategorySpending struct {
	Code      string
	Label     string
	AnnualNOK float64
	Year      string
}

// MonthlyNOK derives the monthly amount from the annual figure the survey
// reports.
func (c CategorySpending) MonthlyNOK() float64 {
	return c.AnnualNOK / 12
}

// TableMetadata is the subset of table metadata statbot surfaces.
type TableMetadata struct {
	Title string `json:"title"`
}

// Client queries the Statbank API.
type Client struct {
	baseURL    string
	tableID    string
	httpClient *http.Client
	cache      Cache
	logger     *zap.Logger
}

// NewClient creates a Statbank client. cache must not be nil; pass a
// MemoryCache when persistence is not wanted.
func NewClient(baseURL, tableID string, cache Cache, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = "https://data.ssb.no/api/v0"
	}
	if tableID == "" {
		tableID = "10235"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tableID:    tableID,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      cache,
		logger:     logger,
	}
}

// ---------------------------------------------------------------------------
// Query types (Statbank POST body and json-stat2 response)
// ---------------------------------------------------------------------------

type tableQuery struct {
	Query    []queryClause `json:"query"`
	Response struct {
		Format string `json:"format"`
	} `json:"response"`
}

type queryClause struct {
	Code      string `json:"code"`
	Selection struct {
		Filter string   `json:"filter"`
		Values []string `json:"values"`
	} `json:"selection"`
}

func itemClause(code string, values []string) queryClause {
	c := queryClause{Code: code}
	c.Selection.Filter = "item"
	c.Selection.Values = values
	return c
}

// jsonStat2 covers the parts of the json-stat2 envelope the parser needs.
// Values may be null for suppressed cells, hence the pointer slice.
type jsonStat2 struct {
	Dimension map[string]struct {
		Category struct {
			Index map[string]int    `json:"index"`
			Label map[string]string `json:"label"`
		} `json:"category"`
	} `json:"dimension"`
	Value []*float64 `json:"value"`
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// QueryBudget fetches expenditure for the given year and category codes.
// A nil or empty codes slice selects all twelve main categories.
func (c *Client) QueryBudget(ctx context.Context, year string, codes []string) ([]CategorySpending, error) {
	if year == "" {
		return nil, fmt.Errorf("year must not be empty")
	}
	if len(codes) == 0 {
		codes = mainCodes
	}

	q := tableQuery{
		Query: []queryClause{
			itemClause("Forbruksundersok", codes),
			itemClause("ContentsCode", []string{"Utgift"}),
			itemClause("Tid", []string{year}),
		},
	}
	q.Response.Format = "json-stat2"

	raw, err := c.postQuery(ctx, q)
	if err != nil {
		return nil, err
	}
	return parseBudget(raw, year)
}

// Metadata fetches the table's metadata, used for diagnostics.
func (c *Client) Metadata(ctx context.Context) (TableMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.tableURL(), nil)
	if err != nil {
		return TableMetadata{}, fmt.Errorf("create metadata request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return TableMetadata{}, fmt.Errorf("metadata request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return TableMetadata{}, fmt.Errorf("metadata request returned status %d", resp.StatusCode)
	}

	var meta TableMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return TableMetadata{}, fmt.Errorf("decode metadata: %w", err)
	}
	return meta, nil
}

func (c *Client) tableURL() string {
	return fmt.Sprintf("%s/en/table/%s", c.baseURL, c.tableID)
}

// postQuery sends the query, consulting and filling the response cache.
func (c *Client) postQuery(ctx context.Context, q tableQuery) ([]byte, error) {
	body, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	key := cacheKey(c.tableID, body)
	if raw, ok := c.cache.Get(key); ok {
		c.logger.Debug("ssb cache hit", zap.String("table", c.tableID), zap.String("key", key))
		return raw, nil
	}

	c.logger.Debug("querying statbank",
		zap.String("table", c.tableID),
		zap.String("url", c.tableURL()),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tableURL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("statbank request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read statbank response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("statbank returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if err := c.cache.Put(key, raw); err != nil {
		// A failing cache must not fail the query.
		c.logger.Warn("caching statbank response failed", zap.Error(err))
	}
	return raw, nil
}

// parseBudget maps a json-stat2 response onto CategorySpending values,
// skipping suppressed (null) cells.
func parseBudget(raw []byte, year string) ([]CategorySpending, error) {
	var stat jsonStat2
	if err := json.Unmarshal(raw, &stat); err != nil {
		return nil, fmt.Errorf("decode json-stat2 response: %w", err)
	}

	dim, ok := stat.Dimension["Forbruksundersok"]
	if !ok {
		return nil, fmt.Errorf("response is missing the Forbruksundersok dimension")
	}

	results := make([]CategorySpending, 0, len(dim.Category.Label))
	for code, label := range dim.Category.Label {
		idx, ok := dim.Category.Index[code]
		if !ok || idx < 0 || idx >= len(stat.Value) {
			continue
		}
		val := stat.Value[idx]
		if val == nil {
			continue
		}
		results = append(results, CategorySpending{
			Code:      code,
			Label:     label,
			AnnualNOK: *val,
			Year:      year,
		})
	}
	if len(results) == 0 {
		return nil, ErrNoData
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Code < results[j].Code })
	return results, nil
}

// cacheKey derives a stable key from the table and the serialised query.
func cacheKey(tableID string, query []byte) string {
	h := fnv.New64a()
	h.Write(query)
	return fmt.Sprintf("%s_%x", tableID, h.Sum64())
}
