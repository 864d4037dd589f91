package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/loanguard/internal/simulation"
	"github.com/okian/loanguard/pkg/logger"
)

// HTTP status code constants.
const (
	StatusOK = 200
)

// httpClient wraps http.Client with a per-request timeout.
type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}}
}

// get performs a GET request.
func (c *httpClient) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// post performs a POST request with a JSON body.
func (c *httpClient) post(ctx context.Context, url string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

type predictResult struct {
	Profile            string  `json:"-"`
	RiskClass          string  `json:"risk_class"`
	DefaultProbability float64 `json:"default_probability"`
	Indicator          string  `json:"indicator"`
	Recommendation     string  `json:"recommendation"`
}

// runSmoke checks a running server: health first, then one /predict per
// profile issued concurrently.
func runSmoke(ctx context.Context, opts Options) error {
	start := time.Now()
	base := opts.URL
	if base == "" {
		base = DefaultURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := newHTTPClient(timeout)

	if err := checkServiceHealth(ctx, client, base); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	profiles := simulation.Profiles()
	results := make([]predictResult, len(profiles))

	g, gctx := errgroup.WithContext(ctx)
	for i, profile := range profiles {
		i, profile := i, profile
		g.Go(func() error {
			res, err := predict(gctx, client, base, profile, opts.Months)
			if err != nil {
				return fmt.Errorf("predict %s: %w", profile, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range results {
		fmt.Fprintf(opts.Out, "%s %-20s %-12s %5.1f%%  %s\n",
			r.Indicator, r.Profile, r.RiskClass, r.DefaultProbability, r.Recommendation)
	}
	logger.Get().Info(ctx, "smoke test completed",
		logger.String("url", base),
		logger.Int("profiles", len(profiles)),
		logger.String("took", since(start)))
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *httpClient, base string) error {
	resp, err := client.get(ctx, base+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func predict(ctx context.Context, client *httpClient, base, profile string, months int) (predictResult, error) {
	body := map[string]any{"profile": profile}
	if months > 0 {
		body["months"] = months
	}
	resp, err := client.post(ctx, base+"/predict", body)
	if err != nil {
		return predictResult{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return predictResult{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return predictResult{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(data))
	}
	var res predictResult
	if err := json.Unmarshal(data, &res); err != nil {
		return predictResult{}, fmt.Errorf("decode response: %w", err)
	}
	res.Profile = profile
	return res, nil
}
