package moderation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExecutionIDPlaceholder is substituted with the execution id in the poll URL.
const ExecutionIDPlaceholder = "{execution_id}"

// Config for the moderation API client.
type Config struct {
	APIKey          string
	SubmitURL       string
	PollURL         string        // template containing ExecutionIDPlaceholder
	PollInterval    time.Duration // wait between poll attempts, default 5s
	MaxPollAttempts int           // 0 polls until a terminal status
	Timeout         time.Duration // http client timeout
}

// Client submits texts to the moderation API and polls executions to
// completion. One job at a time; the poll loop blocks until the provider
// reports a terminal status, the context is done, or MaxPollAttempts is hit.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
	schema map[string]any
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
		schema: buildResultJSONSchema(),
	}
}

// Submit sends one text for moderation and returns the execution id used to
// poll for its result. A response without an id is a *SubmissionError.
func (c *Client) Submit(ctx context.Context, text string) (string, error) {
	rid := uuid.New().String()
	start := time.Now()

	raw, err := c.post(ctx, c.cfg.SubmitURL, map[string]any{"text": text})
	if err != nil {
		c.logger.Error("moderation.submit.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		c.logger.Error("moderation.submit.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
		)
		return "", fmt.Errorf("decode submit response: %w", err)
	}
	if out.ID == "" {
		c.logger.Error("moderation.submit.no_id", "req_id", rid, "raw", string(raw))
		return "", &SubmissionError{Body: raw}
	}

	c.logger.Info("moderation.submit.ok",
		"req_id", rid,
		"execution_id", out.ID,
		"text_len", len(text),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.ID, nil
}

// Poll queries the execution until it reaches a terminal status. A "failed"
// status is a *ModerationFailedError carrying the raw payload; any status
// outside the known set is an *UnexpectedStatusError.
func (c *Client) Poll(ctx context.Context, executionID string) (*Result, error) {
	url := strings.Replace(c.cfg.PollURL, ExecutionIDPlaceholder, executionID, 1)
	start := time.Now()

	for attempt := 1; ; attempt++ {
		raw, err := c.get(ctx, url)
		if err != nil {
			return nil, err
		}
		if err := validateJSONAgainstSchema(c.schema, raw); err != nil {
			return nil, fmt.Errorf("malformed poll response: %w", err)
		}
		var res Result
		if err := json.Unmarshal(raw, &res); err != nil {
			return nil, fmt.Errorf("decode poll response: %w", err)
		}

		switch res.Content.Status {
		case StatusSucceeded:
			c.logger.Info("moderation.poll.ok",
				"execution_id", executionID,
				"attempts", attempt,
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return &res, nil
		case StatusFailed:
			return nil, &ModerationFailedError{Raw: raw}
		case StatusProcessing:
			if c.cfg.MaxPollAttempts > 0 && attempt >= c.cfg.MaxPollAttempts {
				return nil, fmt.Errorf("execution %s still processing after %d poll attempts", executionID, attempt)
			}
			c.logger.Debug("moderation.poll.processing",
				"execution_id", executionID, "attempt", attempt,
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.PollInterval):
			}
		default:
			return nil, &UnexpectedStatusError{Status: res.Content.Status}
		}
	}
}

// Moderate runs the full submit-then-poll cycle for one text.
func (c *Client) Moderate(ctx context.Context, text string) (*Result, error) {
	id, err := c.Submit(ctx, text)
	if err != nil {
		return nil, err
	}
	return c.Poll(ctx, id)
}

func (c *Client) post(ctx context.Context, url string, body any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.send(req)
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return c.send(req)
}

func (c *Client) send(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("moderation api http error: %w", err)
	}
	defer func(Body io.ReadCloser) {
		err := Body.Close()
		if err != nil {
			c.logger.Warn("moderation response body close error", "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("moderation api status %d: %s", resp.StatusCode, raw)
	}
	return raw, nil
}
