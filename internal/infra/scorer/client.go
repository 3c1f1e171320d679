// Package scorer calls the external image safety model.
package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/luckyyyj77-wq/pho-ma-sub000/internal/infra/httpclient"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.New(timeout),
	}
}

type scoreRequest struct {
	ObjectKey string `json:"object_key"`
}

type scoreResponse struct {
	Score  float64  `json:"score"`
	Issues []string `json:"issues"`
}

// Score asks the model for a safety score in [0,1] and detected issue
// tags for the stored object.
func (c *Client) Score(ctx context.Context, objectKey string) (float64, []string, error) {
	if c.baseURL == "" {
		return 0, nil, fmt.Errorf("scorer base url is empty")
	}

	body, err := json.Marshal(scoreRequest{ObjectKey: objectKey})
	if err != nil {
		return 0, nil, fmt.Errorf("marshal score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/score", bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("call scorer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, nil, fmt.Errorf("scorer returned status %d", resp.StatusCode)
	}

	var out scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, nil, fmt.Errorf("decode score response: %w", err)
	}
	if out.Score < 0 || out.Score > 1 {
		return 0, nil, fmt.Errorf("scorer returned score out of range: %f", out.Score)
	}

	return out.Score, out.Issues, nil
}
