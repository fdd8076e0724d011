// Package pdl searches people through the People Data Labs person search API.
package pdl

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospect-cli/pkg/apierr"
)

const (
	defaultBaseURL = "https://api.peopledatalabs.com/v5"

	// MaxPageSize is the largest page the search endpoint returns.
	MaxPageSize = 100
)

// Client performs People Data Labs operations.
type Client interface {
	SearchPeople(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest is the body of POST /person/search. Exactly one of Query
// or SQL should be set.
type SearchRequest struct {
	Query       map[string]any `json:"query,omitempty"`
	SQL         string         `json:"sql,omitempty"`
	Size        int            `json:"size,omitempty"`
	ScrollToken string         `json:"scroll_token,omitempty"`
	Dataset     string         `json:"dataset,omitempty"`
}

// SearchResponse is one page of search results.
type SearchResponse struct {
	Status      int      `json:"status"`
	Data        []Person `json:"data"`
	ScrollToken string   `json:"scroll_token"`
	Total       int      `json:"total"`
}

// Person is the subset of a PDL person record we use.
type Person struct {
	ID                string   `json:"id"`
	FullName          string   `json:"full_name"`
	FirstName         string   `json:"first_name"`
	LastName          string   `json:"last_name"`
	JobTitle          string   `json:"job_title"`
	JobCompanyName    string   `json:"job_company_name"`
	JobCompanyWebsite string   `json:"job_company_website"`
	LocationName      string   `json:"location_name"`
	LocationLocality  string   `json:"location_locality"`
	LocationRegion    string   `json:"location_region"`
	WorkEmail         string   `json:"work_email"`
	PersonalEmails    []string `json:"personal_emails"`
	Emails            []Email  `json:"emails"`
}

// Email is a typed address on a person record.
type Email struct {
	Address string `json:"address"`
	Type    string `json:"type"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps requests per second. Zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a People Data Labs client, throttled to 5 req/s by default.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchPeople(ctx context.Context, sr SearchRequest) (*SearchResponse, error) {
	if sr.Query == nil && sr.SQL == "" {
		return nil, eris.New("pdl: query or sql is required")
	}
	if sr.Size <= 0 || sr.Size > MaxPageSize {
		sr.Size = MaxPageSize
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "pdl: rate limit")
		}
	}

	body, err := json.Marshal(sr)
	if err != nil {
		return nil, eris.Wrap(err, "pdl: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/person/search", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "pdl: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pdl: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.FromResponse("pdl", resp)
	}

	var result SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, eris.Wrap(err, "pdl: unmarshal response")
	}
	return &result, nil
}
