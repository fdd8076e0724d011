// Package apierr describes non-2xx responses from third-party HTTP APIs.
package apierr

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const maxSnippet = 256

var (
	bearerTokenRe = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)
	apiKeyKVRe    = regexp.MustCompile(`(?i)\b(api[_-]?key|access[_-]?token|token)\b"?\s*[:=]\s*"?[^\s"',}]+`)
)

// StatusError is a sanitized summary of a non-2xx response.
type StatusError struct {
	Service    string
	StatusCode int
	RetryAfter time.Duration
	Snippet    string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "api error"
	}
	msg := fmt.Sprintf("%s: unexpected status %d", e.Service, e.StatusCode)
	if e.Snippet != "" {
		msg += ": " + e.Snippet
	}
	return msg
}

// Temporary reports whether the status is worth retrying.
func (e *StatusError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// FromResponse builds a StatusError from resp, reading at most a small
// prefix of the body. The caller still owns resp.Body.
func FromResponse(service string, resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*maxSnippet))
	return &StatusError{
		Service:    service,
		StatusCode: resp.StatusCode,
		RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		Snippet:    Redact(body),
	}
}

// ParseRetryAfter accepts both delta-seconds and HTTP-date forms.
func ParseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// Redact strips credentials from body and truncates it.
func Redact(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	b := body
	if len(b) > maxSnippet {
		b = b[:maxSnippet]
	}
	s := bearerTokenRe.ReplaceAllString(string(b), "Bearer <redacted>")
	s = apiKeyKVRe.ReplaceAllString(s, "<redacted_kv>")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > maxSnippet {
		return s + "..."
	}
	return s
}

// As returns the StatusError in err's chain, if any.
func As(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, code int) bool {
	se, ok := As(err)
	return ok && se.StatusCode == code
}

// IsRateLimited reports whether err is a 429.
func IsRateLimited(err error) bool {
	return IsStatus(err, http.StatusTooManyRequests)
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}
