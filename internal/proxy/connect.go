package proxy

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/majorcontext/fwdproxy/internal/auth"
)

// handleConnect implements CONNECT tunneling: parse the authority,
// authenticate while the client socket is still under the request/response
// protocol, then detach both sockets from HTTP entirely and relay raw bytes
// until either side closes.
func (p *Proxy) handleConnect(w http.ResponseWriter, r *http.Request, id, clientAddr string, logger zerolog.Logger) {
	state := newRequestState(id)
	logger.Info().Str("authority", r.Host).Msg("connect received")

	host, portStr, err := net.SplitHostPort(r.Host)
	if err != nil {
		logger.Warn().Str("authority", r.Host).Msg("malformed connect authority")
		http.Error(w, "malformed CONNECT authority", http.StatusBadRequest)
		return
	}
	if _, err := strconv.Atoi(portStr); err != nil {
		logger.Warn().Str("port", portStr).Msg("non-numeric connect port")
		http.Error(w, "malformed CONNECT authority", http.StatusBadRequest)
		return
	}

	// AUTHING, still over the normal response-writer path: no bytes of the
	// tunnel payload have been read or written yet.
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

	hijacker, ok := w.(http.Hijacker)
	if !ok {
		logger.Error().Msg("response writer does not support hijacking")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	clientConn, bufrw, err := hijacker.Hijack()
	if err != nil {
		logger.Error().Err(err).Msg("hijack failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if bufrw.Reader.Buffered() > 0 {
		logger.Warn().Msg("protocol violation: pipelined data ahead of CONNECT response")
		clientConn.Close()
		return
	}

	targetConn, err := net.Dial("tcp", net.JoinHostPort(host, portStr))
	if err != nil {
		status := classifyDialError(err)
		logger.Error().Err(err).Int("status", status).Msg("connect dial failed")
		fmt.Fprintf(clientConn, "HTTP/1.1 %d %s\r\n\r\n", status, http.StatusText(status))
		clientConn.Close()
		return
	}

	if _, err := bufrw.WriteString("HTTP/1.1 200 Connection established\r\n\r\n"); err != nil {
		logger.Warn().Err(err).Msg("writing connect established response failed")
		targetConn.Close()
		clientConn.Close()
		return
	}
	if err := bufrw.Flush(); err != nil {
		logger.Warn().Err(err).Msg("flushing connect established response failed")
		targetConn.Close()
		clientConn.Close()
		return
	}
	state.markSent()
	logger.Info().Str("target", targetConn.RemoteAddr().String()).Msg("tunnel established")

	relay(clientConn, targetConn, state, logger)
}

// relay bidirectionally copies bytes between the client and target
// connections until one side closes, then tears down the other. It is the
// CONNECT analogue of io.Copy's backpressure: each direction blocks on its
// own reads/writes, so a slow peer on either side throttles the other.
func relay(clientConn, targetConn net.Conn, state *requestState, logger zerolog.Logger) {
	var g errgroup.Group

	g.Go(func() error {
		_, err := io.Copy(targetConn, clientConn)
		targetConn.Close()
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(clientConn, targetConn)
		clientConn.Close()
		return err
	})

	err := g.Wait()
	state.cleanup(func() {
		clientConn.Close()
		targetConn.Close()
	})
	if err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Debug().Err(err).Msg("tunnel relay ended")
		return
	}
	logger.Info().Msg("tunnel closed")
}
