// Package auth implements the proxy's pluggable authentication hook and the
// 407 Proxy Authentication Required challenge (RFC 7235 §3.2).
package auth

import "net/http"

// Func decides whether a request carrying a Proxy-Authorization header is
// allowed through. It is only ever invoked when that header is present; a
// missing header always results in a challenge without calling Func, since
// there is nothing in the request for the hook to evaluate.
type Func func(r *http.Request) (bool, error)

// Realm is the fixed realm advertised in the Proxy-Authenticate challenge.
const Realm = "proxy"

// Authenticator gates requests through an optional Func. A nil Authenticator,
// or one built with a nil Func, allows every request through unchecked.
type Authenticator struct {
	hook Func
}

// New returns an Authenticator that delegates decisions to hook. A nil hook
// is equivalent to no authentication at all.
func New(hook Func) *Authenticator {
	return &Authenticator{hook: hook}
}

// Check decides whether r may proceed:
//   - no hook configured              ⇒ allow
//   - hook configured, no header      ⇒ challenge (hook is not consulted)
//   - hook configured, header present ⇒ hook decides
func (a *Authenticator) Check(r *http.Request) (bool, error) {
	if a == nil || a.hook == nil {
		return true, nil
	}
	if r.Header.Get("Proxy-Authorization") == "" {
		return false, nil
	}
	return a.hook(r)
}

// Challenge writes the 407 Proxy Authentication Required response with a
// Basic realm="proxy" challenge. It must be called before the connection is
// hijacked (CONNECT) or before any response body write (plain HTTP).
func Challenge(w http.ResponseWriter) {
	w.Header().Set("Proxy-Authenticate", `Basic realm="`+Realm+`"`)
	w.WriteHeader(http.StatusProxyAuthRequired)
}
