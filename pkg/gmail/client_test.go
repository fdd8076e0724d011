package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/pkg/apierr"
)

func TestCreateDraft_Success(t *testing.T) {
	raw := []byte("To: jane@acme.com\r\nSubject: hi\r\n\r\nhello")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/users/me/drafts", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var body createDraftRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		decoded, err := base64.URLEncoding.DecodeString(body.Message.Raw)
		require.NoError(t, err)
		assert.Equal(t, raw, decoded)

		_, _ = w.Write([]byte(`{"id":"r-123","message":{"id":"m-1","threadId":"t-1"}}`))
	}))
	defer srv.Close()

	c := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0))
	d, err := c.CreateDraft(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "r-123", d.ID)
	assert.Equal(t, "t-1", d.Message.ThreadID)
}

func TestCreateDraft_EmptyMessage(t *testing.T) {
	_, err := NewClient("tok").CreateDraft(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty message")
}

func TestCreateDraft_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
	}))
	defer srv.Close()

	_, err := NewClient("bad", WithBaseURL(srv.URL), WithRateLimit(0)).CreateDraft(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.True(t, apierr.IsStatus(err, http.StatusUnauthorized))
	se, _ := apierr.As(err)
	assert.False(t, se.Temporary())
}

func TestCreateDraft_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient("tok", WithBaseURL(srv.URL), WithRateLimit(0)).CreateDraft(context.Background(), []byte("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no draft id")
}
