package httpx

import (
	"net"
	"net/http"
	"strings"
)

// CountryHeader is the CDN-populated header carrying the visitor's
// two-letter country code, when the deployment sits behind one.
const CountryHeader = "CF-IPCountry"

// ClientIP returns the best-effort client address for a request.
// It prefers the first entry of X-Forwarded-For, then X-Real-IP, and
// falls back to the connection's remote address. The result is only
// used for audit logging, never for access decisions.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if first, _, found := strings.Cut(xff, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return strings.TrimSpace(rip)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ClientCountry returns the visitor's country code from the CDN header,
// or empty when absent. "XX" (unknown) is treated as absent.
func ClientCountry(r *http.Request) string {
	country := strings.ToUpper(strings.TrimSpace(r.Header.Get(CountryHeader)))
	if country == "" || country == "XX" {
		return ""
	}
	return country
}
