package translate

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// browserUserAgent keeps the public web endpoints from rejecting requests.
const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.45 Safari/537.36"

// HTTPOptions configures the HTTP client of a web backend.
type HTTPOptions struct {
	// BaseURL overrides the public endpoint (tests, mirrors).
	BaseURL string
	// Timeout is the per-request timeout.
	Timeout time.Duration
	// Proxy is an optional HTTP/HTTPS proxy URL. When empty the
	// HTTP_PROXY/HTTPS_PROXY environment variables apply.
	Proxy string
}

func (o HTTPOptions) baseURL(def string) string {
	if o.BaseURL != "" {
		return o.BaseURL
	}
	return def
}

// newHTTPClient builds a resty client with timeout, proxy and a browser
// User-Agent. Retries are left to the dispatcher.
func newHTTPClient(opts HTTPOptions, defaultTimeout time.Duration) *resty.Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", browserUserAgent)
	if opts.Proxy != "" {
		c.SetProxy(opts.Proxy)
	}
	return c
}
