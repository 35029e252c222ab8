// internal/app/system/recommend/recommend.go

// Package recommend fetches idea suggestions from an external
// recommendation service. The engine only depends on the Provider
// interface; the HTTP adapter here is one implementation of it.
package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

// ErrUnavailable means the provider could not be reached or answered
// with a server error. Suggestions are best-effort; callers degrade to
// an empty list rather than failing the request.
var ErrUnavailable = errors.New("recommendation provider unavailable")

// Suggestion is one proposed idea from the provider.
type Suggestion struct {
	Text          string `json:"text"`
	Category      string `json:"category"`
	Cost          string `json:"cost"`
	ActivityLevel string `json:"activity_level"`
}

// Provider supplies idea suggestions for a jar's category.
type Provider interface {
	Suggest(ctx context.Context, category string, limit int) ([]Suggestion, error)
}

// HTTPProvider talks to the provider's REST endpoint using an OAuth2
// client-credentials token.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// Config for the HTTP adapter. ClientID and ClientSecret feed the
// client-credentials grant against TokenURL.
type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

func NewHTTPProvider(cfg Config) *HTTPProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}
	client := cc.Client(context.Background())
	client.Timeout = timeout
	return &HTTPProvider{
		baseURL: cfg.BaseURL,
		client:  client,
	}
}

func (p *HTTPProvider) Suggest(ctx context.Context, category string, limit int) ([]Suggestion, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/suggestions?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w (status %d)", ErrUnavailable, resp.StatusCode)
	}

	var body struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}
	return body.Suggestions, nil
}
