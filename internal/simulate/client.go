package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/rally/pkg/logger"
)

// httpClient wraps http.Client with the service base URL.
type httpClient struct {
	client  *http.Client
	baseURL string
}

func newHTTPClient(baseURL string, timeout time.Duration) *httpClient {
	return &httpClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends a request and returns the status and body.
func (c *httpClient) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var r io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

func (c *httpClient) getJSON(ctx context.Context, path string, v any) error {
	status, body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, status)
	}
	return json.Unmarshal(body, v)
}

// checkHealth verifies the service answers /healthz.
func (c *httpClient) checkHealth(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}
	return nil
}

type submitCounts struct {
	submitted, accepted, duplicate, failed int
}

// submitGames posts games concurrently from a pool of workers.
func (c *httpClient) submitGames(ctx context.Context, log logger.Logger, games []game, workers int, verbose bool) submitCounts {
	var submitted, accepted, duplicate, failed atomic.Int64

	gameChan := make(chan game, workers*2)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range gameChan {
				if ctx.Err() != nil {
					return
				}
				submitted.Add(1)
				status, body, err := c.do(ctx, http.MethodPost, "/games", g)
				switch {
				case err != nil:
					failed.Add(1)
					if verbose {
						log.Warn(ctx, "submit failed", logger.String("game_id", g.ID), logger.Error(err))
					}
				case status == http.StatusAccepted:
					accepted.Add(1)
				case status == http.StatusOK:
					duplicate.Add(1)
				default:
					failed.Add(1)
					if verbose {
						log.Warn(ctx, "submit rejected",
							logger.String("game_id", g.ID),
							logger.Int("status", status),
							logger.String("body", string(body)),
						)
					}
				}
			}
		}()
	}

	go func() {
		defer close(gameChan)
		for _, g := range games {
			select {
			case <-ctx.Done():
				return
			case gameChan <- g:
			}
		}
	}()
	wg.Wait()

	return submitCounts{
		submitted: int(submitted.Load()),
		accepted:  int(accepted.Load()),
		duplicate: int(duplicate.Load()),
		failed:    int(failed.Load()),
	}
}

// waitProcessed polls /stats until the recorder has applied want games.
func (c *httpClient) waitProcessed(ctx context.Context, want int, timeout time.Duration) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	processed := 0
	for {
		var stats struct {
			Processed int `json:"gamesProcessed"`
		}
		if err := c.getJSON(ctx, "/stats", &stats); err == nil {
			processed = stats.Processed
			if processed >= want {
				return processed, nil
			}
		}
		select {
		case <-ctx.Done():
			return processed, fmt.Errorf("waiting for %d processed games, saw %d: %w", want, processed, ctx.Err())
		case <-ticker.C:
		}
	}
}

type leaderboardEntry struct {
	Rank int    `json:"rank"`
	Name string `json:"name"`
}

func (c *httpClient) leaderboard(ctx context.Context, limit int) ([]leaderboardEntry, error) {
	var entries []leaderboardEntry
	err := c.getJSON(ctx, "/leaderboard?limit="+strconv.Itoa(min(limit, maxLeaderboard)), &entries)
	return entries, err
}
