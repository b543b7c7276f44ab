package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const googleAPIURL = "https://translate.googleapis.com"

// Googletrans uses the public gtx endpoint of the Google Translate API.
type Googletrans struct {
	baseURL string
	http    *resty.Client
}

// NewGoogletrans creates the googletrans backend.
func NewGoogletrans(opts HTTPOptions) *Googletrans {
	return &Googletrans{
		baseURL: strings.TrimRight(opts.baseURL(googleAPIURL), "/"),
		http:    newHTTPClient(opts, 10*time.Second),
	}
}

// Translate implements Backend.
func (g *Googletrans) Translate(ctx context.Context, text, source, target string) (string, error) {
	resp, err := g.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"client": "gtx",
			"sl":     source,
			"tl":     target,
			"dt":     "t",
			"q":      text,
		}).
		Get(g.baseURL + "/translate_a/single")
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("googletrans returned status %d", resp.StatusCode())
	}
	return parseGtxResponse(resp.Body())
}

// parseGtxResponse joins the translated part of every sentence segment of
// a gtx answer: [[["translated","original",...],...],...].
func parseGtxResponse(body []byte) (string, error) {
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("empty response")
	}
	segments, ok := raw[0].([]any)
	if !ok {
		return "", fmt.Errorf("unexpected response shape: %s", truncate(string(body), 200))
	}

	var sb strings.Builder
	for _, s := range segments {
		seg, ok := s.([]any)
		if !ok || len(seg) == 0 {
			continue
		}
		if part, ok := seg[0].(string); ok {
			sb.WriteString(part)
		}
	}
	return sb.String(), nil
}
