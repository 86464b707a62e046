package tui

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	stypes "newsbrief/shared/types"
	"newsbrief/types"
)

// DebugSnapshot is the subset of GET /api/debug the viewer renders.
type DebugSnapshot struct {
	Uptime   string                `json:"uptime"`
	Sources  []string              `json:"sources"`
	Pipeline stypes.PipelineStatus `json:"pipeline"`
	Jobs     []types.JobRun        `json:"jobs"`
}

// Client is a thin HTTP client for the briefing API.
type Client struct {
	baseURL string
	secret  string
	client  *http.Client
}

func NewClient(baseURL, secret string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *Client) getJSON(path string, out any) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Latest fetches the current briefing.
func (c *Client) Latest() ([]types.BriefingItem, error) {
	var items []types.BriefingItem
	err := c.getJSON("/api/briefings/latest", &items)
	return items, err
}

// Debug fetches the debug snapshot.
func (c *Client) Debug() (*DebugSnapshot, error) {
	var snap DebugSnapshot
	if err := c.getJSON("/api/debug", &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Trigger asks the server to start a job and returns its status text.
func (c *Client) Trigger(session string) (string, error) {
	u := c.baseURL + "/api/jobs/trigger"
	if session != "" {
		u += "?session=" + url.QueryEscape(session)
	}
	req, err := http.NewRequest(http.MethodPost, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to trigger job: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var body struct {
		Status string `json:"status"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return body.Status, nil
}
