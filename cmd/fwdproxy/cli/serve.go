package cli

import (
	"context"
	"crypto/subtle"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/majorcontext/fwdproxy/internal/config"
	"github.com/majorcontext/fwdproxy/internal/proxy"
)

var configDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the forward proxy",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configDir)
		if err != nil {
			return err
		}

		hostname, err := os.Hostname()
		if err != nil {
			hostname = "fwdproxy"
		}

		p := proxy.New(hostname, rootLogger)
		if cfg.AuthUsername != "" {
			p.SetAuthenticate(basicAuthenticator(cfg.AuthUsername, cfg.AuthPassword))
		}
		p.SetAgent(&http.Transport{IdleConnTimeout: cfg.IdleConnTimeout})

		srv := proxy.NewServer(p)
		srv.SetBindAddr(cfg.BindAddr)
		srv.SetPort(cfg.Port)
		srv.SetReadHeaderTimeout(cfg.ReadHeaderTimeout)

		if err := srv.Start(); err != nil {
			return err
		}
		rootLogger.Info().Str("addr", srv.Addr()).Msg("proxy listening")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		rootLogger.Info().Msg("shutting down")
		return srv.Stop(ctx)
	},
}

// basicAuthenticator checks a Proxy-Authorization: Basic header against a
// single configured username/password using constant-time comparison.
func basicAuthenticator(username, password string) func(r *http.Request) (bool, error) {
	return func(r *http.Request) (bool, error) {
		user, pass, ok := parseProxyBasicAuth(r.Header.Get("Proxy-Authorization"))
		if !ok {
			return false, nil
		}
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
		return userMatch && passMatch, nil
	}
}

func init() {
	serveCmd.Flags().StringVar(&configDir, "config-dir", ".", "directory containing fwdproxy.yaml")
}
