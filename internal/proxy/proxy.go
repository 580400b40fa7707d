// Package proxy implements an HTTP/1.1 forward proxy: plain-HTTP request
// forwarding (proxy.go) and CONNECT tunneling (connect.go), both gated by an
// optional pluggable authenticator and an optional pluggable outbound agent.
package proxy

import (
	"errors"
	"io"
	"net"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/majorcontext/fwdproxy/internal/auth"
	"github.com/majorcontext/fwdproxy/internal/header"
)

// Proxy is an http.Handler exposing two extension points, authenticate and
// agent, neither of which is required.
type Proxy struct {
	logger   zerolog.Logger
	hostname string
	viaToken string

	auth  *auth.Authenticator
	agent http.RoundTripper
}

// New builds a Proxy with no authentication and the default transport as its
// outbound agent. hostname identifies this proxy instance in its Via header;
// callers typically pass os.Hostname()'s result.
func New(hostname string, logger zerolog.Logger) *Proxy {
	return &Proxy{
		logger:   logger,
		hostname: hostname,
		viaToken: header.ViaToken(hostname),
		auth:     auth.New(nil),
	}
}

// SetAuthenticate installs the authenticate extension point. Passing nil
// restores the default (no authentication, every request allowed).
func (p *Proxy) SetAuthenticate(fn auth.Func) {
	p.auth = auth.New(fn)
}

// SetAgent installs the outbound connection manager extension point. A nil
// agent falls back to http.DefaultTransport at request time.
func (p *Proxy) SetAgent(rt http.RoundTripper) {
	p.agent = rt
}

func (p *Proxy) transport() http.RoundTripper {
	if p.agent != nil {
		return p.agent
	}
	return http.DefaultTransport
}

// ServeHTTP dispatches CONNECT requests to the tunnel path and everything
// else to the plain HTTP forwarding path.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	clientAddr := clientIP(r.RemoteAddr)
	logger := p.logger.With().Str("request_id", id).Str("client_addr", clientAddr).Logger()

	if r.Method == http.MethodConnect {
		p.handleConnect(w, r, id, clientAddr, logger)
		return
	}
	p.handleHTTP(w, r, id, clientAddr, logger)
}

// handleHTTP implements the plain-HTTP forwarding path as a short state
// machine: RECEIVED -> AUTHING -> BUILDING -> AWAITING_RESP -> STREAMING ->
// ENDED, with ABORTING on client disconnect.
func (p *Proxy) handleHTTP(w http.ResponseWriter, r *http.Request, id, clientAddr string, logger zerolog.Logger) {
	state := newRequestState(id)
	logger.Info().Str("method", r.Method).Str("url", r.URL.String()).Msg("received")

	// AUTHING
	ok, err := p.auth.Check(r)
	if err != nil {
		logger.Error().Err(err).Msg("authenticate hook failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if !ok {
		logger.Warn().Msg("challenging for proxy authentication")
		auth.Challenge(w)
		return
	}

	// BUILDING
	if r.URL.Scheme != "http" {
		logger.Warn().Str("scheme", r.URL.Scheme).Msg("rejected non-http scheme")
		http.Error(w, `Only "http:" protocol prefix is supported`, http.StatusBadRequest)
		return
	}

	outReq := r.Clone(r.Context())
	outReq.RequestURI = ""
	outReq.Header = header.RewriteRequest(r.Header, clientAddr, p.viaToken)

	logger.Debug().Str("target", outReq.URL.Host).Msg("forwarding")

	// AWAITING_RESP
	resp, err := p.transport().RoundTrip(outReq)
	if err != nil {
		if ctxErr := r.Context().Err(); ctxErr != nil {
			logger.Info().Msg("client disconnected before upstream responded")
			return
		}
		status := classifyDialError(err)
		logger.Error().Err(err).Int("status", status).Msg("upstream round-trip failed")
		http.Error(w, http.StatusText(status), status)
		return
	}
	defer resp.Body.Close()

	// STREAMING
	for k, v := range header.RewriteResponse(resp.Header) {
		for _, vv := range v {
			w.Header().Add(k, vv)
		}
	}
	w.WriteHeader(resp.StatusCode)
	state.markSent()

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		logger.Warn().Err(err).Int64("bytes_written", written).Msg("response streaming interrupted")
		// The status line is already out: drop the client connection so the
		// truncated body is not terminated as if it were complete.
		if state.responseSent() {
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, hjErr := hj.Hijack(); hjErr == nil {
					conn.Close()
				}
			}
		}
		return
	}
	logger.Info().Int("status", resp.StatusCode).Int64("bytes_written", written).Msg("completed")
}

// classifyDialError maps a RoundTrip/dial failure to a response status:
// DNS resolution failure -> 404, anything else -> 500.
func classifyDialError(err error) int {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// clientIP strips the port from a RemoteAddr of the form "host:port".
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
