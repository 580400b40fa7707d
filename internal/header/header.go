// Package header implements the hop-by-hop header filter used by the proxy:
// enumerating a request or response's headers while preserving duplicates,
// stripping headers that are only meaningful for a single connection, and
// maintaining the Via/X-Forwarded-For forwarding chain (RFC 7230 §6.1,
// RFC 2616 §13.5.1/§14.45).
package header

import (
	"net/http"
	"net/textproto"
	"sort"
	"strings"
)

// Version is the proxy's product token, combined with the local hostname
// into the Via pseudonym "1.1 <hostname> (proxy/<version>)".
const Version = "1.3.0"

// Pair is a single (name, value) header entry as it appears on the wire.
type Pair struct {
	Name  string
	Value string
}

// hopByHop is the fixed set of headers that must never cross the proxy in
// either direction (RFC 7230 §6.1).
var hopByHop = map[string]struct{}{
	"Connection":          {},
	"Keep-Alive":          {},
	"Proxy-Authenticate":  {},
	"Proxy-Authorization": {},
	"Te":                  {},
	"Trailers":            {},
	"Transfer-Encoding":   {},
	"Upgrade":             {},
}

// IsHopByHop reports whether name case-insensitively matches the fixed
// hop-by-hop set. It does not additionally parse a Connection header for
// per-request hop-by-hop names; the fixed set covers every header that
// matters in practice.
func IsHopByHop(name string) bool {
	_, ok := hopByHop[textproto.CanonicalMIMEHeaderKey(name)]
	return ok
}

// Enumerate returns every (name, value) pair in h, one pair per list element
// for multi-valued headers (e.g. Set-Cookie), in a deterministic order:
// names sorted, each name's values in the order they were added. Go's
// http.Header is a map and does not retain the original wire order across
// distinct header names (net/http discards that at parse time), so sorted
// names is the closest idiomatic approximation; per-name duplicate order is
// exact since net/http appends repeated headers in arrival order.
func Enumerate(h http.Header) []Pair {
	if len(h) == 0 {
		return nil
	}
	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]Pair, 0, len(h))
	for _, name := range names {
		for _, value := range h[name] {
			pairs = append(pairs, Pair{Name: name, Value: value})
		}
	}
	return pairs
}

// ViaToken builds this proxy's Via pseudonym for the given hostname.
func ViaToken(hostname string) string {
	return "1.1 " + hostname + " (proxy/" + Version + ")"
}

// RewriteRequest strips hop-by-hop headers and extends/creates the
// X-Forwarded-For and Via chains. clientAddr is the client's remote address
// (no port); viaToken is this proxy's pseudonym.
func RewriteRequest(in http.Header, clientAddr, viaToken string) http.Header {
	out := make(http.Header, len(in))
	sawXFF, sawVia := false, false

	for _, p := range Enumerate(in) {
		if IsHopByHop(p.Name) {
			continue
		}
		switch {
		case !sawXFF && strings.EqualFold(p.Name, "X-Forwarded-For"):
			sawXFF = true
			out.Add(p.Name, p.Value+", "+clientAddr)
		case !sawVia && strings.EqualFold(p.Name, "Via"):
			sawVia = true
			out.Add(p.Name, p.Value+", "+viaToken)
		default:
			out.Add(p.Name, p.Value)
		}
	}

	if !sawXFF {
		out.Set("X-Forwarded-For", clientAddr)
	}
	if !sawVia {
		out.Set("Via", viaToken)
	}
	return out
}

// RewriteResponse strips hop-by-hop headers only; XFF/Via are request-
// direction concerns and are never injected into a response.
func RewriteResponse(in http.Header) http.Header {
	out := make(http.Header, len(in))
	for _, p := range Enumerate(in) {
		if IsHopByHop(p.Name) {
			continue
		}
		out.Add(p.Name, p.Value)
	}
	return out
}
