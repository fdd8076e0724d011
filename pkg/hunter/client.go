// Package hunter wraps the Hunter.io v2 API: domain search, email finder,
// and email verification.
package hunter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospect-cli/pkg/apierr"
)

const defaultBaseURL = "https://api.hunter.io/v2"

// Client performs Hunter.io operations.
type Client interface {
	DomainSearch(ctx context.Context, domain, company string) (*DomainSearchResult, error)
	EmailFinder(ctx context.Context, domain, firstName, lastName string) (*EmailFinderResult, error)
	VerifyEmail(ctx context.Context, email string) (*VerifyResult, error)
}

// DomainSearchResult describes an organization's domain and naming pattern.
type DomainSearchResult struct {
	Domain       string        `json:"domain"`
	Organization string        `json:"organization"`
	Pattern      string        `json:"pattern"`
	Emails       []DomainEmail `json:"emails"`
}

// DomainEmail is one address known for a domain.
type DomainEmail struct {
	Value      string `json:"value"`
	Type       string `json:"type"`
	Confidence int    `json:"confidence"`
}

// EmailFinderResult is the most likely address for a person.
type EmailFinderResult struct {
	Email  string `json:"email"`
	Score  int    `json:"score"`
	Domain string `json:"domain"`
}

// VerifyResult is a deliverability verdict.
type VerifyResult struct {
	Email  string `json:"email"`
	Status string `json:"status"`
	Result string `json:"result"`
	Score  int    `json:"score"`
}

type envelope[T any] struct {
	Data T `json:"data"`
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

// NewClient creates a Hunter.io client, throttled to 10 req/s by default.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) DomainSearch(ctx context.Context, domain, company string) (*DomainSearchResult, error) {
	if domain == "" && company == "" {
		return nil, eris.New("hunter: domain or company is required")
	}
	q := url.Values{}
	if domain != "" {
		q.Set("domain", domain)
	}
	if company != "" {
		q.Set("company", company)
	}
	q.Set("limit", "10")

	var out envelope[DomainSearchResult]
	if err := c.get(ctx, "/domain-search", q, &out); err != nil {
		return nil, eris.Wrap(err, "hunter: domain search")
	}
	return &out.Data, nil
}

func (c *httpClient) EmailFinder(ctx context.Context, domain, firstName, lastName string) (*EmailFinderResult, error) {
	q := url.Values{}
	q.Set("domain", domain)
	q.Set("first_name", firstName)
	q.Set("last_name", lastName)

	var out envelope[EmailFinderResult]
	if err := c.get(ctx, "/email-finder", q, &out); err != nil {
		return nil, eris.Wrap(err, "hunter: email finder")
	}
	return &out.Data, nil
}

func (c *httpClient) VerifyEmail(ctx context.Context, email string) (*VerifyResult, error) {
	q := url.Values{}
	q.Set("email", email)

	var out envelope[VerifyResult]
	if err := c.get(ctx, "/email-verifier", q, &out); err != nil {
		return nil, eris.Wrap(err, "hunter: verify email")
	}
	return &out.Data, nil
}

func (c *httpClient) get(ctx context.Context, path string, q url.Values, dst any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	// 202 means the verification is still running; the body carries status "unknown".
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return apierr.FromResponse("hunter", resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}
