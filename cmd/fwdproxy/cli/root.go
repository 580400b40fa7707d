package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/majorcontext/fwdproxy/internal/log"
)

var (
	verbose  bool
	jsonOut  bool
	debugDir string

	rootLogger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "fwdproxy",
	Short: "fwdproxy - a minimal HTTP/1.1 forward proxy",
	Long: `fwdproxy is a standalone HTTP/1.1 forward proxy: plain-HTTP request
forwarding and CONNECT tunneling, with optional Basic-style proxy
authentication.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger, err := log.Init(log.Options{
			Verbose:    verbose,
			JSONFormat: jsonOut,
			DebugDir:   debugDir,
		})
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		rootLogger = logger
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().StringVar(&debugDir, "debug-dir", "", "directory for daily-rotating debug logs")
	rootCmd.AddCommand(serveCmd)

	cobra.OnFinalize(func() {
		log.Close()
	})
}
