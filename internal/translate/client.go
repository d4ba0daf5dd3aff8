package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"lingoboard.org/internal/obs"
)

const (
	defaultTimeout  = 10 * time.Second
	textMemoEntries = 1024
	textMemoTTL     = 10 * time.Minute
)

// Client talks to the hosted localization engine over its JSON API.
// Single-string lookups are memoized in a short-TTL LRU so repeated UI
// strings do not burn quota; object translation is always forwarded because
// the session cache in front of it already dedups content.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	memo    *lru.LRU[string, string]
}

// ClientOption configures Client behavior.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.httpc = h
		}
	}
}

// NewClient constructs a provider client for the given endpoint.
func NewClient(baseURL, apiKey string, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("translate: base url is required")
	}
	c := &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		httpc:   &http.Client{Timeout: defaultTimeout},
		memo:    lru.NewLRU[string, string](textMemoEntries, nil, textMemoTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type localizeRequest struct {
	SourceLocale string            `json:"source_locale"`
	TargetLocale string            `json:"target_locale"`
	Data         map[string]string `json:"data"`
}

type localizeResponse struct {
	Data map[string]string `json:"data"`
}

// LocalizeObject implements Provider.
func (c *Client) LocalizeObject(ctx context.Context, fields map[string]string, sourceLocale, targetLocale string) (map[string]string, error) {
	if len(fields) == 0 {
		return map[string]string{}, nil
	}
	body, err := json.Marshal(localizeRequest{
		SourceLocale: sourceLocale,
		TargetLocale: targetLocale,
		Data:         fields,
	})
	if err != nil {
		return nil, fmt.Errorf("translate: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/localize/object", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		obs.ObserveProviderCall("error")
		return nil, fmt.Errorf("translate: provider call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		obs.ObserveProviderCall("error")
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("translate: provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded localizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		obs.ObserveProviderCall("error")
		return nil, fmt.Errorf("translate: decode response: %w", err)
	}
	obs.ObserveProviderCall("ok")
	if decoded.Data == nil {
		return nil, errors.New("translate: provider returned empty payload")
	}
	return decoded.Data, nil
}

// LocalizeText implements Provider.
func (c *Client) LocalizeText(ctx context.Context, text, sourceLocale, targetLocale string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}
	memoKey := sourceLocale + "\x00" + targetLocale + "\x00" + text
	if cached, ok := c.memo.Get(memoKey); ok {
		return cached, nil
	}
	result, err := c.LocalizeObject(ctx, map[string]string{"text": text}, sourceLocale, targetLocale)
	if err != nil {
		return "", err
	}
	translated, ok := result["text"]
	if !ok {
		return "", errors.New("translate: provider dropped text field")
	}
	c.memo.Add(memoKey, translated)
	return translated, nil
}
