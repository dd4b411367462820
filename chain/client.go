package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// RawLog is one undecoded log entry as returned by the chain log service.
type RawLog struct {
	BlockNumber uint64          `json:"block_number"`
	LogIndex    uint            `json:"log_index"`
	TxHash      string          `json:"tx_hash"`
	Contract    string          `json:"contract"`
	Topic       string          `json:"topic"`
	Data        json.RawMessage `json:"data"`
}

// LogClient talks to the chain log service. All calls are bounded by the
// client timeout plus whatever deadline the caller puts on ctx — a hung chain
// node fails the one invocation and the next periodic trigger retries.
type LogClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewLogClient(baseURL, token string) *LogClient {
	return &LogClient{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchLogs returns all logs emitted since the given cursor position, in
// ascending block/log-index order.
func (c *LogClient) FetchLogs(ctx context.Context, fromBlock uint64, fromLog uint) ([]RawLog, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid chain log service URL %q: %w", c.BaseURL, err)
	}
	endpoint := base.JoinPath("/logs")

	q := endpoint.Query()
	q.Set("from_block", strconv.FormatUint(fromBlock, 10))
	q.Set("from_log", strconv.FormatUint(uint64(fromLog), 10))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chain log service request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("chain log service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Logs []RawLog `json:"logs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode chain log service response: %w", err)
	}
	return response.Logs, nil
}

// SubmitRaid asks the chain service to submit a raid intent on behalf of an
// agent-enabled user. The contracts remain the source of truth — this only
// forwards the intent.
func (c *LogClient) SubmitRaid(ctx context.Context, actor, target string) error {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid chain log service URL %q: %w", c.BaseURL, err)
	}
	endpoint := base.JoinPath("/raids")

	payload, err := json.Marshal(map[string]string{
		"actor":  actor,
		"target": target,
	})
	if err != nil {
		return fmt.Errorf("failed to encode raid intent: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Service-Token", c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("raid submission failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("raid submission returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
