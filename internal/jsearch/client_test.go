package jsearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"job-bot-go/internal/config"
	"job-bot-go/internal/query"
)

const sampleResponse = `{
	"status": "OK",
	"data": [
		{"job_id": "1", "job_title": "Go Developer", "employer_name": "Acme", "job_city": "London", "job_min_salary": 60000},
		{"job_id": "2", "job_title": "go developer", "employer_name": "ACME"},
		{"job_id": "3", "job_title": "", "employer_name": "Nobody"},
		{"job_id": "4", "job_title": "Backend Engineer", "employer_name": "Globex", "job_min_salary": 40000},
		{"job_id": "5", "job_title": "Platform Engineer", "employer_name": "Initech"}
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.JSearchConfig{
		APIKey:         "secret",
		BaseURL:        server.URL,
		Host:           "jsearch.p.rapidapi.com",
		RequestTimeout: 2 * time.Second,
	}, zerolog.Nop())
}

func TestSearch_Request(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.Equal(t, "secret", r.Header.Get("X-RapidAPI-Key"))
		require.Equal(t, "jsearch.p.rapidapi.com", r.Header.Get("X-RapidAPI-Host"))

		params := r.URL.Query()
		require.Equal(t, "python developer london", params.Get("query"))
		require.Equal(t, "1", params.Get("page"))
		require.Equal(t, "1", params.Get("num_pages"))
		require.Equal(t, "today", params.Get("date_posted"))

		fmt.Fprint(w, sampleResponse)
	})

	jobs, err := client.Search(context.Background(), query.Parse("python developer --location london --recent"))
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	require.Equal(t, "1", jobs[0].ID)
	require.Equal(t, "4", jobs[1].ID)
	require.Equal(t, "5", jobs[2].ID)

	stats := client.Stats()
	require.EqualValues(t, 1, stats.TotalSearches)
	require.EqualValues(t, 3, stats.TotalJobs)
	require.Zero(t, stats.TotalErrors)
}

func TestSearch_RemoteIgnoresLocation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "python remote", r.URL.Query().Get("query"))
		fmt.Fprint(w, `{"data": []}`)
	})

	jobs, err := client.Search(context.Background(), query.Parse("python --location berlin --remote"))
	require.NoError(t, err)
	require.Empty(t, jobs)
}

func TestSearch_SalaryAndLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleResponse)
	})

	jobs, err := client.Search(context.Background(), query.Parse("engineer --salary 50000 --limit 1"))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.Equal(t, "1", jobs[0].ID)
}

func TestSearch_StatusErrors(t *testing.T) {
	testCases := []struct {
		name   string
		status int
		check  func(t *testing.T, err error)
	}{
		{
			name:   "RateLimited",
			status: http.StatusTooManyRequests,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrRateLimited)
			},
		},
		{
			name:   "Unauthorized",
			status: http.StatusUnauthorized,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrUnauthorized)
			},
		},
		{
			name:   "ServerError",
			status: http.StatusBadGateway,
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
				require.Equal(t, "API Error: 502", Describe(err))
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})

			jobs, err := client.Search(context.Background(), query.Parse("golang"))
			require.Nil(t, jobs)
			tc.check(t, err)
			require.EqualValues(t, 1, client.Stats().TotalErrors)
		})
	}
}

func TestSearch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	client := NewClient(config.JSearchConfig{
		APIKey:         "secret",
		BaseURL:        server.URL,
		RequestTimeout: 50 * time.Millisecond,
	}, zerolog.Nop())

	_, err := client.Search(context.Background(), query.Parse("golang"))
	require.ErrorIs(t, err, ErrTimeout)
}

func TestSearch_NotConfigured(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	client.cfg.APIKey = ""

	_, err := client.Search(context.Background(), query.Parse("golang"))
	require.ErrorIs(t, err, ErrNotConfigured)
	require.False(t, called)
}

func TestPing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test", r.URL.Query().Get("query"))
		fmt.Fprint(w, sampleResponse)
	})

	require.NoError(t, client.Ping(context.Background()))
	require.EqualValues(t, 1, client.Stats().TotalJobs)
}

func TestDescribe(t *testing.T) {
	require.Equal(t, "Rate limit exceeded. Please try again later.", Describe(fmt.Errorf("wrapped: %w", ErrRateLimited)))
	require.Equal(t, "Invalid API key.", Describe(ErrUnauthorized))
	require.Equal(t, "Search timed out. Please try again.", Describe(ErrTimeout))
	require.Equal(t, "boom", Describe(errors.New("boom")))
}
