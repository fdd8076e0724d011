// Package gmail creates Gmail drafts through the Gmail REST API.
package gmail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospect-cli/pkg/apierr"
)

const defaultBaseURL = "https://gmail.googleapis.com/gmail/v1"

// Client performs Gmail API operations.
type Client interface {
	CreateDraft(ctx context.Context, raw []byte) (*Draft, error)
}

// Draft is the created draft resource.
type Draft struct {
	ID      string     `json:"id"`
	Message DraftedMsg `json:"message"`
}

// DraftedMsg identifies the message inside a draft.
type DraftedMsg struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId"`
}

type createDraftRequest struct {
	Message struct {
		Raw string `json:"raw"`
	} `json:"message"`
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
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Gmail client authorized with an OAuth access token,
// throttled to 4 req/s by default.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(4, 4),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CreateDraft uploads an RFC 822 message as a draft in the authorized
// user's mailbox.
func (c *httpClient) CreateDraft(ctx context.Context, raw []byte) (*Draft, error) {
	if len(raw) == 0 {
		return nil, eris.New("gmail: empty message")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "gmail: rate limit")
		}
	}

	var body createDraftRequest
	body.Message.Raw = base64.URLEncoding.EncodeToString(raw)
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, eris.Wrap(err, "gmail: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users/me/drafts", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "gmail: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "gmail: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, apierr.FromResponse("gmail", resp)
	}

	var d Draft
	if err := json.NewDecoder(resp.Body).Decode(&d); err != nil {
		return nil, eris.Wrap(err, "gmail: unmarshal response")
	}
	if d.ID == "" {
		return nil, eris.New("gmail: response has no draft id")
	}
	return &d, nil
}
