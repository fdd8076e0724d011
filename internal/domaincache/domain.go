package domaincache

import (
	"net/url"
	"strings"
)

// NormalizeDomain reduces a URL, host, or email address to a bare
// lower-case host without "www.", port, or path. Returns "" when nothing
// host-like remains.
func NormalizeDomain(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}
	if at := strings.LastIndex(s, "@"); at >= 0 && !strings.Contains(s, "://") {
		s = s[at+1:]
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	host := strings.TrimSuffix(u.Hostname(), ".")
	host = strings.TrimPrefix(host, "www.")
	if !strings.Contains(host, ".") || strings.ContainsAny(host, " _") {
		return ""
	}
	return host
}

// EmailDomain returns the normalized domain part of an address.
func EmailDomain(addr string) string {
	at := strings.LastIndex(addr, "@")
	if at < 0 || at == len(addr)-1 {
		return ""
	}
	return NormalizeDomain(addr[at+1:])
}

// Related reports whether a and b are equal or one is a subdomain of the
// other (mail.acme.com vs acme.com).
func Related(a, b string) bool {
	a, b = NormalizeDomain(a), NormalizeDomain(b)
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.HasSuffix(a, "."+b) || strings.HasSuffix(b, "."+a)
}
