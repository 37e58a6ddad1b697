package film

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultTMDBBaseURL = "https://api.themoviedb.org/3"

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// TMDBMovie is one result of the TMDB movie search endpoint.
type TMDBMovie struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title"`
	Overview      string   `json:"overview"`
	ReleaseDate   string   `json:"release_date"`
	OriginCountry []string `json:"origin_country"`
}

// TMDBClient queries TMDB for film metadata localized to Russian.
type TMDBClient struct {
	client  HTTPClient
	apiKey  string
	baseURL string
}

// NewTMDBClient creates a client with the given HTTP client and API key.
// A nil client falls back to a default with a 15s timeout.
func NewTMDBClient(client HTTPClient, apiKey string) *TMDBClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &TMDBClient{client: client, apiKey: apiKey, baseURL: defaultTMDBBaseURL}
}

// SetBaseURL overrides the API endpoint (useful for testing).
func (c *TMDBClient) SetBaseURL(base string) {
	c.baseURL = base
}

// Search returns the best match for a title/year pair, or nil when TMDB
// has no results.
func (c *TMDBClient) Search(ctx context.Context, title string, year int) (*TMDBMovie, error) {
	q := url.Values{}
	q.Set("query", title)
	if year > 0 {
		q.Set("year", strconv.Itoa(year))
	}
	q.Set("language", "ru-RU")
	q.Set("include_adult", "false")
	q.Set("page", "1")
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/movie?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var payload struct {
		Results []TMDBMovie `json:"results"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}
	movie := payload.Results[0]
	return &movie, nil
}
