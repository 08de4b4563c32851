package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"booksearch/internal/models"
)

const DefaultGoogleBooksURL = "https://www.googleapis.com/books/v1/volumes"

// GoogleBooks searches the Google Books volumes API.
type GoogleBooks struct {
	baseURL    string
	apiKey     string
	maxResults int
	client     *http.Client
}

func NewGoogleBooks(baseURL, apiKey string, maxResults int, timeout time.Duration) *GoogleBooks {
	if baseURL == "" {
		baseURL = DefaultGoogleBooksURL
	}
	if maxResults <= 0 || maxResults > 40 {
		maxResults = 20
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &GoogleBooks{
		baseURL:    baseURL,
		apiKey:     apiKey,
		maxResults: maxResults,
		client:     &http.Client{Timeout: timeout},
	}
}

type volumesResponse struct {
	Items []struct {
		ID         string `json:"id"`
		VolumeInfo struct {
			Title       string   `json:"title"`
			Authors     []string `json:"authors"`
			Description string   `json:"description"`
			InfoLink    string   `json:"infoLink"`
			ImageLinks  struct {
				Thumbnail string `json:"thumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

func (g *GoogleBooks) Search(ctx context.Context, query string) ([]models.BookRecord, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(g.maxResults))
	if g.apiKey != "" {
		params.Set("key", g.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: google books status %d", ErrUpstreamUnavailable, res.StatusCode)
	}

	var parsed volumesResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode google books: %v", ErrUpstreamUnavailable, err)
	}

	out := make([]models.BookRecord, 0, len(parsed.Items))
	for _, it := range parsed.Items {
		v := it.VolumeInfo
		out = append(out, models.BookRecord{
			BookID:      it.ID,
			Title:       v.Title,
			Authors:     v.Authors,
			Description: v.Description,
			Image:       v.ImageLinks.Thumbnail,
			Link:        v.InfoLink,
		})
	}
	return Normalize(out), nil
}
