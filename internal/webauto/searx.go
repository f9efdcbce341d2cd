package webauto

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/stewardbot/steward/internal/httpkit"
)

// searxClient queries a SearxNG instance's JSON API.
type searxClient struct {
	baseURL string
	client  *http.Client
}

func newSearxClient(baseURL string) *searxClient {
	return &searxClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpkit.NewClient(httpkit.WithTimeout(15 * time.Second)),
	}
}

// searchResult is one hit from the search backend.
type searchResult struct {
	Title   string
	URL     string
	Snippet string
}

type searxResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// search runs a query and returns up to max results.
func (c *searxClient) search(ctx context.Context, query string, max int) ([]searchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")

	reqURL := c.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned %d: %s", resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 512))
	}

	var parsed searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	results := make([]searchResult, 0, max)
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		results = append(results, searchResult{Title: r.Title, URL: r.URL, Snippet: r.Content})
		if len(results) == max {
			break
		}
	}
	return results, nil
}
