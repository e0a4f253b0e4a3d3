// Package search is the web search gateway backed by SerpAPI.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/capitalize-ai/companion-chat/internal/model"
	"github.com/capitalize-ai/companion-chat/pkg/logger"
)

const (
	DefaultBaseURL = "https://serpapi.com/search.json"
	// MaxResults caps results for every shape.
	MaxResults     = 5
	defaultTimeout = 10 * time.Second
)

// Config configures the SerpAPI client.
type Config struct {
	APIKey       string
	BaseURL      string
	Timeout      time.Duration
	RetryBackoff time.Duration
	HTTPClient   *http.Client
}

// Client queries SerpAPI's Google engine.
type Client struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	backoff time.Duration
	http    *http.Client
	logger  *logger.Logger
}

// NewClient creates a search client. A client without an API key is valid;
// every Search call then fails with model.ErrProviderUnavailable.
func NewClient(cfg Config, log *logger.Logger) *Client {
	c := &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
		backoff: cfg.RetryBackoff,
		http:    cfg.HTTPClient,
		logger:  log,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.backoff <= 0 {
		c.backoff = 250 * time.Millisecond
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	return c
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type serpResponse struct {
	Error          string          `json:"error"`
	OrganicResults []organicResult `json:"organic_results"`
}

type organicResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Search runs a shaped query. Transient failures are retried once.
func (c *Client) Search(ctx context.Context, query string, shape model.Shape, location string) (*model.WebResults, error) {
	if !c.Configured() {
		return nil, model.NewError(model.CodeProviderUnavailable, "search_not_configured",
			fmt.Errorf("%w: search service not configured", model.ErrProviderUnavailable))
	}

	params := c.params(query, shape, location)

	var resp *serpResponse
	op := func() error {
		r, err := c.do(ctx, params)
		if err != nil {
			return err
		}
		resp = r
		return nil
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.backoff), 1), ctx)
	notify := func(err error, wait time.Duration) {
		if c.logger != nil {
			c.logger.Warn("Retrying web search", zap.String("shape", string(shape)), zap.Duration("wait", wait), zap.Error(err))
		}
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		var coded *model.Error
		if errors.As(err, &coded) {
			return nil, err
		}
		return nil, model.NewError(model.CodeProviderError, "search_failed",
			fmt.Errorf("%w: search: %v", model.ErrProviderError, err))
	}

	return toResults(resp, shape), nil
}

func (c *Client) params(query string, shape model.Shape, location string) url.Values {
	v := url.Values{}
	v.Set("engine", "google")
	v.Set("api_key", c.apiKey)
	v.Set("num", strconv.Itoa(MaxResults))
	v.Set("q", Template(query, shape, location))
	switch shape {
	case model.ShapeHotels, model.ShapeRestaurants, model.ShapeAttractions:
		if location != "" {
			v.Set("location", location)
		}
	}
	return v
}

func (c *Client) do(ctx context.Context, params url.Values) (*serpResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer res.Body.Close()

	var body serpResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", res.StatusCode, err)
	}
	if res.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("status %d: %s", res.StatusCode, body.Error)
	}
	if res.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(model.NewError(model.CodeProviderError, "search_rejected",
			fmt.Errorf("%w: search status %d: %s", model.ErrProviderError, res.StatusCode, body.Error)))
	}
	return &body, nil
}

// Template renders the provider query for a shape.
func Template(query string, shape model.Shape, location string) string {
	var q string
	switch shape {
	case model.ShapeHotels:
		q = fmt.Sprintf("hotels in %s %s", location, query)
	case model.ShapeRestaurants:
		q = fmt.Sprintf("restaurants %s %s", query, location)
	case model.ShapeAttractions:
		q = fmt.Sprintf("tourist attractions %s %s", query, location)
	case model.ShapeFlights:
		q = "flights " + query
	case model.ShapeProducts:
		q = fmt.Sprintf("buy %s online shopping", query)
	case model.ShapeShopping:
		q = fmt.Sprintf("%s price compare buy online", query)
	default:
		q = query
	}
	return strings.Join(strings.Fields(q), " ")
}

func toResults(resp *serpResponse, shape model.Shape) *model.WebResults {
	out := &model.WebResults{Type: shape, Results: []model.WebResult{}}
	typ := shape.ResultType()
	for i, r := range resp.OrganicResults {
		if i == MaxResults {
			break
		}
		wr := model.WebResult{
			Title:   r.Title,
			Link:    r.Link,
			Snippet: r.Snippet,
			Type:    typ,
		}
		if shape == model.ShapeProducts || shape == model.ShapeShopping {
			if strings.Contains(r.Snippet, "$") || strings.Contains(strings.ToLower(r.Snippet), "price") {
				wr.PriceInfo = r.Snippet
			}
		}
		out.Results = append(out.Results, wr)
	}
	return out
}
