package hunter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/pkg/apierr"
)

func newTestServer(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(0))
}

func TestDomainSearch(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/domain-search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		assert.Empty(t, r.URL.Query().Get("domain"))
		assert.Equal(t, "Acme Corp", r.URL.Query().Get("company"))
		_, _ = w.Write([]byte(`{"data":{"domain":"acme.com","organization":"Acme","pattern":"{first}.{last}",
			"emails":[{"value":"jane.doe@acme.com","type":"personal","confidence":94}]}}`))
	})

	res, err := c.DomainSearch(context.Background(), "", "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, "acme.com", res.Domain)
	assert.Equal(t, "{first}.{last}", res.Pattern)
	require.Len(t, res.Emails, 1)
	assert.Equal(t, 94, res.Emails[0].Confidence)
}

func TestDomainSearch_RequiresInput(t *testing.T) {
	_, err := NewClient("k").DomainSearch(context.Background(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "domain or company is required")
}

func TestEmailFinder(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email-finder", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "acme.com", q.Get("domain"))
		assert.Equal(t, "Jane", q.Get("first_name"))
		assert.Equal(t, "Doe", q.Get("last_name"))
		_, _ = w.Write([]byte(`{"data":{"email":"jane@acme.com","score":91,"domain":"acme.com"}}`))
	})

	res, err := c.EmailFinder(context.Background(), "acme.com", "Jane", "Doe")
	require.NoError(t, err)
	assert.Equal(t, "jane@acme.com", res.Email)
	assert.Equal(t, 91, res.Score)
}

func TestEmailFinder_NoResult(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"email":null,"score":null}}`))
	})

	res, err := c.EmailFinder(context.Background(), "acme.com", "Nobody", "Here")
	require.NoError(t, err)
	assert.Empty(t, res.Email)
}

func TestVerifyEmail(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email-verifier", r.URL.Path)
		assert.Equal(t, "jane@acme.com", r.URL.Query().Get("email"))
		_, _ = w.Write([]byte(`{"data":{"email":"jane@acme.com","status":"valid","result":"deliverable","score":97}}`))
	})

	res, err := c.VerifyEmail(context.Background(), "jane@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "valid", res.Status)
	assert.Equal(t, 97, res.Score)
}

func TestVerifyEmail_Pending(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"data":{"email":"jane@acme.com","status":"unknown","score":0}}`))
	})

	res, err := c.VerifyEmail(context.Background(), "jane@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "unknown", res.Status)
}

func TestAPIError(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"errors":[{"id":"too_many_requests","details":"slow down"}]}`))
	})

	_, err := c.VerifyEmail(context.Background(), "jane@acme.com")
	require.Error(t, err)
	assert.True(t, apierr.IsRateLimited(err))
	assert.Contains(t, err.Error(), "hunter: verify email")
}

func TestMalformedResponse(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{nope`))
	})

	_, err := c.EmailFinder(context.Background(), "acme.com", "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal response")
}
