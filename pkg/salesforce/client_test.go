package salesforce

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type mockClient struct {
	queryFn func(ctx context.Context, soql string, out any) error
}

func (m *mockClient) Query(ctx context.Context, soql string, out any) error {
	return m.queryFn(ctx, soql, out)
}

func newTestSFClient(t *testing.T, handler http.Handler) Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	sf, err := gosf.Init(gosf.Creds{
		AccessToken: "test-token",
		Domain:      ts.URL,
	},
		gosf.WithValidateAuthentication(false),
		gosf.WithRoundTripper(http.DefaultTransport),
	)
	require.NoError(t, err)
	return NewClient(sf)
}

func TestSFClient_QueryContacts(t *testing.T) {
	client := newTestSFClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/query")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalSize": 2,
			"done":      true,
			"records": []map[string]any{
				{
					"attributes": map[string]any{"type": "Contact"},
					"FirstName":  "Jane",
					"LastName":   "Doe",
					"Account":    map[string]any{"attributes": map[string]any{"type": "Account"}, "Name": "Acme Corp"},
				},
				{
					"attributes": map[string]any{"type": "Contact"},
					"FirstName":  "Solo",
					"LastName":   "Person",
					"Account":    nil,
				},
			},
		})
	}))

	contacts, err := QueryContacts(context.Background(), client, "SELECT FirstName, LastName, Account.Name FROM Contact")
	require.NoError(t, err)
	require.Len(t, contacts, 2)
	assert.Equal(t, "Jane", contacts[0].FirstName)
	assert.Equal(t, "Acme Corp", contacts[0].Employer())
	assert.Equal(t, "", contacts[1].Employer())
}

func TestQueryContacts_RejectsOtherObjects(t *testing.T) {
	_, err := QueryContacts(context.Background(), &mockClient{}, "SELECT Id FROM Account")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must select from Contact")
}

func TestQueryContacts_Error(t *testing.T) {
	mock := &mockClient{queryFn: func(_ context.Context, _ string, _ any) error {
		return errors.New("timeout")
	}}
	contacts, err := QueryContacts(context.Background(), mock, "SELECT FirstName FROM Contact")
	require.Error(t, err)
	assert.Nil(t, contacts)
	assert.Contains(t, err.Error(), "query contacts")
}

func TestConnect_RequiresClientID(t *testing.T) {
	_, err := Connect(Creds{LoginURL: "https://login.salesforce.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client id is required")
}

func TestWithRateLimit(t *testing.T) {
	t.Run("sets limiter", func(t *testing.T) {
		c := NewClient(nil, WithRateLimit(10)).(*sfClient)
		require.NotNil(t, c.limiter)
		assert.Equal(t, rate.Limit(10), c.limiter.Limit())
		assert.Equal(t, 10, c.limiter.Burst())
	})

	t.Run("zero rate skips limiter", func(t *testing.T) {
		c := NewClient(nil, WithRateLimit(0)).(*sfClient)
		assert.Nil(t, c.limiter)
	})

	t.Run("fractional rate gets burst of 1", func(t *testing.T) {
		c := NewClient(nil, WithRateLimit(0.5)).(*sfClient)
		require.NotNil(t, c.limiter)
		assert.Equal(t, 1, c.limiter.Burst())
	})
}

func TestRateLimiter_CancelledContext(t *testing.T) {
	c := &sfClient{limiter: rate.NewLimiter(rate.Every(time.Hour), 0)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, c.Query(ctx, "SELECT Id FROM Contact", nil))
}
