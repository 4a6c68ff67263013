package gateway

import (
	"context"
	"net/http"
	"strings"
)

// forwardedHeaders are copied from the inbound request to the upstream one.
var forwardedHeaders = []string{"Content-Type", "Accept", "X-Request-Id"}

type ServiceProxy struct {
	baseURL string
	client  *http.Client
}

func NewServiceProxy(baseURL string, client *http.Client) *ServiceProxy {
	return &ServiceProxy{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// ForwardRequest replays r against path on the upstream service, keeping the
// method, body, query string and a small set of headers.
func (p *ServiceProxy) ForwardRequest(ctx context.Context, r *http.Request, path string) (*http.Response, error) {
	target := p.baseURL + path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, target, r.Body)
	if err != nil {
		return nil, err
	}
	req.ContentLength = r.ContentLength

	for _, name := range forwardedHeaders {
		if v := r.Header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}

	return p.client.Do(req)
}
