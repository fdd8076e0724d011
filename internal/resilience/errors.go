package resilience

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/sells-group/prospect-cli/pkg/apierr"
)

var transientPatterns = []string{
	"connection reset by peer",
	"broken pipe",
	"temporary failure in name resolution",
	"tls handshake timeout",
	"i/o timeout",
	"server closed idle connection",
	"unexpected eof",
}

// IsTransient reports whether err is worth retrying: a retryable HTTP
// status, a network timeout, or a dropped connection. Context
// cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}

	if se, ok := apierr.As(err); ok {
		return se.Temporary()
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// retryAfter returns the server-requested delay carried by err.
func retryAfter(err error) (d time.Duration) {
	if se, ok := apierr.As(err); ok {
		return se.RetryAfter
	}
	return 0
}
