package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

const googleWebURL = "https://translate.google.com"

// GoogleWeb scrapes the Google Translate mobile page.
type GoogleWeb struct {
	baseURL string
	http    *resty.Client
}

// NewGoogleWeb creates the google backend.
func NewGoogleWeb(opts HTTPOptions) *GoogleWeb {
	return &GoogleWeb{
		baseURL: strings.TrimRight(opts.baseURL(googleWebURL), "/"),
		http:    newHTTPClient(opts, 10*time.Second),
	}
}

// Translate implements Backend.
func (g *GoogleWeb) Translate(ctx context.Context, text, source, target string) (string, error) {
	resp, err := g.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"sl": source,
			"tl": target,
			"q":  text,
		}).
		Get(g.baseURL + "/m")
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("google returned status %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return "", fmt.Errorf("parsing response page: %w", err)
	}
	result := doc.Find("div.result-container").First()
	if result.Length() == 0 {
		return "", fmt.Errorf("no translation found in response page")
	}
	return strings.TrimSpace(result.Text()), nil
}
