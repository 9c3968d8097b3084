package jsearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"job-bot-go/internal/config"
	"job-bot-go/internal/models"
	"job-bot-go/internal/query"
	"job-bot-go/pkg/httpclient"
)

//go:generate mockgen -destination=mock/searcher.go -package=mockjsearch job-bot-go/internal/jsearch Searcher

// Searcher runs job searches against the provider.
type Searcher interface {
	Search(ctx context.Context, q query.Query) ([]models.Job, error)
	Ping(ctx context.Context) error
}

// Client implements Searcher for the JSearch API on RapidAPI.
type Client struct {
	client  *httpclient.HttpClient
	cfg     config.JSearchConfig
	logger  zerolog.Logger
	metrics metrics
}

// searchResponse is the envelope returned by /search
type searchResponse struct {
	Status string       `json:"status"`
	Data   []models.Job `json:"data"`
}

// NewClient creates a new JSearch client
func NewClient(cfg config.JSearchConfig, logger zerolog.Logger) *Client {
	return &Client{
		client: httpclient.NewHttpClient(cfg.RequestTimeout),
		cfg:    cfg,
		logger: logger.With().Str("component", "jsearch").Logger(),
	}
}

// Search fetches one page of listings for q and returns at most q.Limit of
// them after filtering and deduplication.
func (c *Client) Search(ctx context.Context, q query.Query) ([]models.Job, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	jobs, err := c.search(ctx, q)
	latency := time.Since(start)
	c.metrics.record(len(jobs), latency, err)

	if err != nil {
		c.logger.Warn().Err(err).Str("query", q.Keywords).Dur("latency", latency).Msg("search failed")
		return nil, err
	}

	c.logger.Info().
		Str("query", q.Keywords).
		Str("location", q.Location).
		Int("results", len(jobs)).
		Dur("latency", latency).
		Msg("search completed")
	return jobs, nil
}

func (c *Client) search(ctx context.Context, q query.Query) ([]models.Job, error) {
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	params := url.Values{}
	params.Set("query", searchText(q))
	params.Set("page", "1")
	params.Set("num_pages", "1")
	params.Set("date_posted", string(q.DatePosted))

	headers := map[string]string{
		"X-RapidAPI-Key":  c.cfg.APIKey,
		"X-RapidAPI-Host": c.cfg.Host,
	}

	resp, err := c.client.GetWithHeaders(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/search", params, headers)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("failed to fetch from JSearch: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	default:
		return nil, &APIError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var response searchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse JSearch response: %w", err)
	}

	jobs := filterJobs(response.Data, q.MinSalary, q.RemoteOnly)
	jobs = removeDuplicates(jobs)
	return truncate(jobs, q.Limit), nil
}

// Ping runs a single-result search to check the provider is reachable.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Search(ctx, query.Query{
		Keywords:   "test",
		Limit:      1,
		DatePosted: query.DateAll,
	})
	return err
}

// Stats returns a snapshot of the search metrics.
func (c *Client) Stats() Stats {
	return c.metrics.snapshot()
}

// searchText builds the provider query string. Remote searches ignore the
// location.
func searchText(q query.Query) string {
	text := q.Keywords
	if q.RemoteOnly {
		text += " remote"
	} else if q.Location != "" {
		text += " " + q.Location
	}
	return strings.TrimSpace(text)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Describe returns a short user-facing description of a search error.
func Describe(err error) string {
	var apiErr *APIError
	switch {
	case errors.Is(err, ErrRateLimited):
		return "Rate limit exceeded. Please try again later."
	case errors.Is(err, ErrUnauthorized):
		return "Invalid API key."
	case errors.Is(err, ErrTimeout):
		return "Search timed out. Please try again."
	case errors.Is(err, ErrNotConfigured):
		return "API key not configured"
	case errors.As(err, &apiErr):
		return "API Error: " + strconv.Itoa(apiErr.StatusCode)
	default:
		return err.Error()
	}
}
