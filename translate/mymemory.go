package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const myMemoryURL = "https://api.mymemory.translated.net"

// MyMemory calls the MyMemory translation API. A contact email raises the
// daily quota.
type MyMemory struct {
	baseURL string
	email   string
	http    *resty.Client
	logger  *zap.Logger
}

// NewMyMemory creates the mymemory backend.
func NewMyMemory(opts HTTPOptions, email string, logger *zap.Logger) *MyMemory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MyMemory{
		baseURL: strings.TrimRight(opts.baseURL(myMemoryURL), "/"),
		email:   email,
		http:    newHTTPClient(opts, 10*time.Second),
		logger:  logger,
	}
}

type myMemoryResponse struct {
	ResponseData *struct {
		TranslatedText *string `json:"translatedText"`
	} `json:"responseData"`
	// responseStatus is a number on success and sometimes a string on errors.
	ResponseStatus  any `json:"responseStatus"`
	ResponseDetails any `json:"responseDetails"`
}

// Translate implements Backend. The API cannot detect the source language
// for this call pattern, so "auto" is refused before any request is made.
func (m *MyMemory) Translate(ctx context.Context, text, source, target string) (string, error) {
	if source == AutoDetect {
		return "", ErrUnsupportedSource
	}

	params := map[string]string{
		"q":        text,
		"langpair": source + "|" + target,
	}
	if m.email != "" {
		params["de"] = m.email
	}

	resp, err := m.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(m.baseURL + "/get")
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("mymemory returned status %d", resp.StatusCode())
	}

	var data myMemoryResponse
	if err := json.Unmarshal(resp.Body(), &data); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}
	if fmt.Sprint(data.ResponseStatus) == "429" {
		return "", fmt.Errorf("mymemory rate limit reached")
	}
	if data.ResponseData == nil || data.ResponseData.TranslatedText == nil {
		return "", fmt.Errorf("invalid response structure")
	}

	if details := fmt.Sprint(data.ResponseDetails); strings.Contains(details, "Daily request limit") {
		m.logger.Warn("MyMemory quota warning", zap.String("details", details))
	}
	return *data.ResponseData.TranslatedText, nil
}
