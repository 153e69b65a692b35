package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tweetbot/api"
	"tweetbot/types"
)

// DaemonStatus is the decoded /api/status document
type DaemonStatus struct {
	Status         api.StatusResponse   `json:"status"`
	PublishRecords int                  `json:"publish_records"`
	ResurfaceState types.ResurfaceState `json:"resurface_state"`
}

// StatusClient is a thin HTTP client for the daemon's status API
type StatusClient struct {
	baseURL string
	client  *http.Client
}

// NewStatusClient creates a client for the given daemon base URL
func NewStatusClient(baseURL string) *StatusClient {
	return &StatusClient{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// GetStatus fetches the current daemon status
func (c *StatusClient) GetStatus() (*DaemonStatus, error) {
	resp, err := c.client.Get(c.baseURL + "/api/status")
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}

	var status DaemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &status, nil
}
