package moderation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func createMockServer(response any) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	}))
}

// sequenceServer replays responses in order, repeating the last one, and
// counts requests.
func sequenceServer(responses []any) (*httptest.Server, *int) {
	calls := new(int)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		idx := *calls
		if idx >= len(responses) {
			idx = len(responses) - 1
		}
		*calls++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(responses[idx])
	}))
	return srv, calls
}

func newTestClient(srv *httptest.Server, interval time.Duration, maxAttempts int) *Client {
	return NewClient(Config{
		APIKey:          "test-key",
		SubmitURL:       srv.URL + "/text/moderation",
		PollURL:         srv.URL + "/executions/" + ExecutionIDPlaceholder,
		PollInterval:    interval,
		MaxPollAttempts: maxAttempts,
	}, testLogger())
}

func processingResponse() map[string]any {
	return map[string]any{"content": map[string]any{"status": "processing"}}
}

func succeededResponse(score float64, items []map[string]any) map[string]any {
	return map[string]any{"content": map[string]any{
		"status": "succeeded",
		"results": map[string]any{
			"text__moderation": map[string]any{
				"results": []map[string]any{{
					"nsfw_likelihood_score": score,
					"items":                 items,
				}},
			},
		},
	}}
}

func TestSubmitReturnsExecutionID(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "exec-123"})
	}))
	defer srv.Close()

	client := newTestClient(srv, time.Millisecond, 0)
	id, err := client.Submit(context.Background(), "hello world")
	require.NoError(t, err)

	assert.Equal(t, "exec-123", id)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, map[string]string{"text": "hello world"}, gotBody)
}

func TestSubmitWithoutIDFails(t *testing.T) {
	srv := createMockServer(map[string]any{"detail": "quota exceeded"})
	defer srv.Close()

	client := newTestClient(srv, time.Millisecond, 0)
	_, err := client.Submit(context.Background(), "hello")
	require.Error(t, err)

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Contains(t, string(subErr.Body), "quota exceeded")
}

func TestPollWaitsForTerminalStatus(t *testing.T) {
	interval := 20 * time.Millisecond
	srv, calls := sequenceServer([]any{
		processingResponse(),
		processingResponse(),
		succeededResponse(0.42, []map[string]any{
			{"category": "Violence", "likelihood_score": 0.42},
		}),
	})
	defer srv.Close()

	client := newTestClient(srv, interval, 0)
	start := time.Now()
	res, err := client.Poll(context.Background(), "exec-123")
	require.NoError(t, err)

	assert.Equal(t, 3, *calls)
	assert.GreaterOrEqual(t, time.Since(start), 2*interval)
	assert.Equal(t, StatusSucceeded, res.Content.Status)
	require.NotNil(t, res.Content.Results.TextModeration)
	require.Len(t, res.Content.Results.TextModeration.Results, 1)
	assert.Equal(t, 0.42, res.Content.Results.TextModeration.Results[0].NSFWLikelihoodScore)
}

func TestPollFailedStatus(t *testing.T) {
	srv := createMockServer(map[string]any{"content": map[string]any{"status": "failed"}})
	defer srv.Close()

	client := newTestClient(srv, time.Millisecond, 0)
	_, err := client.Poll(context.Background(), "exec-123")
	require.Error(t, err)

	var failErr *ModerationFailedError
	require.ErrorAs(t, err, &failErr)
	assert.Contains(t, string(failErr.Raw), "failed")
}

func TestPollUnexpectedStatus(t *testing.T) {
	srv := createMockServer(map[string]any{"content": map[string]any{"status": "weird"}})
	defer srv.Close()

	client := newTestClient(srv, time.Millisecond, 0)
	_, err := client.Poll(context.Background(), "exec-123")
	require.Error(t, err)

	var statusErr *UnexpectedStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, "weird", statusErr.Status)
}

func TestPollMaxAttempts(t *testing.T) {
	srv, calls := sequenceServer([]any{processingResponse()})
	defer srv.Close()

	client := newTestClient(srv, time.Millisecond, 2)
	_, err := client.Poll(context.Background(), "exec-123")
	require.Error(t, err)

	assert.Equal(t, 2, *calls)
	assert.Contains(t, err.Error(), "still processing")
}

func TestPollContextCancellation(t *testing.T) {
	srv := createMockServer(processingResponse())
	defer srv.Close()

	client := newTestClient(srv, time.Hour, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Poll(ctx, "exec-123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestPollRejectsMistypedPayload(t *testing.T) {
	srv := createMockServer(map[string]any{"content": map[string]any{"status": 42}})
	defer srv.Close()

	client := newTestClient(srv, time.Millisecond, 0)
	_, err := client.Poll(context.Background(), "exec-123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed poll response")
}

func TestModerateRunsFullCycle(t *testing.T) {
	srv, _ := sequenceServer([]any{
		map[string]any{"id": "exec-123"},
		processingResponse(),
		succeededResponse(0.9, []map[string]any{
			{"category": "Sexual", "likelihood_score": 0.9},
		}),
	})
	defer srv.Close()

	client := newTestClient(srv, time.Millisecond, 0)
	res, err := client.Moderate(context.Background(), "text under test")
	require.NoError(t, err)
	assert.Equal(t, StatusSucceeded, res.Content.Status)
}
