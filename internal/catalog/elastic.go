package catalog

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"booksearch/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// NewESClient creates an Elasticsearch client with sane defaults and optional basic auth.
func NewESClient(addrs []string, username, password string) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses: addrs,
		Username:  username,
		Password:  password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	}
	return elasticsearch.NewClient(cfg)
}

// Elastic searches a local book index with a multi_match query. Documents are
// expected in BookRecord shape; the hit id stands in for a missing bookId.
type Elastic struct {
	es      *elasticsearch.Client
	index   string
	size    int
	timeout time.Duration
}

func NewElastic(es *elasticsearch.Client, index string, size int, timeout time.Duration) *Elastic {
	if size <= 0 || size > 50 {
		size = 20
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Elastic{es: es, index: index, size: size, timeout: timeout}
}

func (e *Elastic) Search(ctx context.Context, query string) ([]models.BookRecord, error) {
	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"title^2", "authors", "description"},
			},
		},
		"size": e.size,
	})
	if err != nil {
		return nil, fmt.Errorf("encode es query: %w", err)
	}

	c, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	res, err := e.es.Search(
		e.es.Search.WithContext(c),
		e.es.Search.WithIndex(e.index),
		e.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("%w: elasticsearch %s", ErrUpstreamUnavailable, res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string            `json:"_id"`
				Source models.BookRecord `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode es response: %v", ErrUpstreamUnavailable, err)
	}

	out := make([]models.BookRecord, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		r := h.Source
		if r.BookID == "" {
			r.BookID = h.ID
		}
		out = append(out, r)
	}
	return Normalize(out), nil
}
