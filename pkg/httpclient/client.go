package httpclient

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

type HttpClient struct {
	client *http.Client
}

func NewHttpClient(timeout time.Duration) *HttpClient {
	return &HttpClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetWithHeaders issues a GET to rawURL with params encoded as the query
// string and the given headers set on the request.
func (h *HttpClient) GetWithHeaders(ctx context.Context, rawURL string, params url.Values, headers map[string]string) (*http.Response, error) {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return h.client.Do(req)
}

