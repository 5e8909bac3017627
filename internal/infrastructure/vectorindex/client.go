package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ArticlesCurator/internal/ports"
)

const defaultTimeout = 10 * time.Second

// Client talks to the external approximate-search service over HTTP. Any
// transport failure or server-side error maps to ports.ErrIndexUnavailable
// so the engine can fall back to brute force.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.VectorIndex = (*Client)(nil)

// NewClient creates a reusable HTTP client for the index service.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

type knnRequest struct {
	Embedding []float64 `json:"embedding"`
	K         int       `json:"k"`
	Filter    knnFilter `json:"filter"`
}

type knnFilter struct {
	PublishedAfter  time.Time `json:"published_after"`
	PublishedBefore time.Time `json:"published_before"`
	ExcludeID       int64     `json:"exclude_id,omitempty"`
	HasEmbedding    bool      `json:"has_embedding"`
}

type knnResponse struct {
	Hits []struct {
		ID    int64   `json:"id"`
		Score float64 `json:"score"`
	} `json:"hits"`
}

// KNNSearch issues a nearest-neighbour query restricted to items with an
// embedding inside the time window.
func (c *Client) KNNSearch(ctx context.Context, embedding []float64, k int, filter ports.SearchFilter) ([]ports.VectorHit, error) {
	if c.http == nil || c.endpoint == "" {
		return nil, ports.ErrIndexUnavailable
	}

	body, err := json.Marshal(knnRequest{
		Embedding: embedding,
		K:         k,
		Filter: knnFilter{
			PublishedAfter:  filter.Window.Start,
			PublishedBefore: filter.Window.End,
			ExcludeID:       filter.ExcludeID,
			HasEmbedding:    true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal knn request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/knn_search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrIndexUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: index returned %s", ports.ErrIndexUnavailable, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var decoded knnResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode knn response: %w", err)
	}

	hits := make([]ports.VectorHit, 0, len(decoded.Hits))
	for _, hit := range decoded.Hits {
		hits = append(hits, ports.VectorHit{ItemID: hit.ID, Score: hit.Score})
	}

	return hits, nil
}
