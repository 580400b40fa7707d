package cli

import (
	"encoding/base64"
	"strings"
)

// parseProxyBasicAuth decodes a "Basic <base64(user:pass)>" credential from
// a Proxy-Authorization header value. net/http's Request.BasicAuth only
// looks at the end-to-end Authorization header, so the proxy case needs its
// own parse of the hop-by-hop Proxy-Authorization header.
func parseProxyBasicAuth(header string) (username, password string, ok bool) {
	const prefix = "Basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}
	user, pass, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", "", false
	}
	return user, pass, true
}
