package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"blocks/agent"
)

// Client calls a running move endpoint, for external games written in Go and for smoke tests.
type Client struct {
	serverURL string
	http      *http.Client
}

func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Move(ctx context.Context, req MoveRequest) (MoveResponse, error) {
	var move MoveResponse
	data, err := json.Marshal(req)
	if err != nil {
		return move, fmt.Errorf("failed to encode move request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+"/move", bytes.NewReader(data))
	if err != nil {
		return move, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return move, c.do(httpReq, &move)
}

func (c *Client) Stats(ctx context.Context) (agent.Stats, error) {
	var stats agent.Stats
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.serverURL+"/stats", nil)
	if err != nil {
		return stats, err
	}
	return stats, c.do(httpReq, &stats)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s %s: unexpected status %s", req.Method, req.URL.Path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.URL.Path, err)
	}
	return nil
}
