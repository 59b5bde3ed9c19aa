package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/indieinfra/capture/config"
)

var version = "dev"

func main() {
	log.SetPrefix("capture: ")
	log.SetFlags(log.Ldate | log.Ltime | log.Lmsgprefix)

	rootCmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture uploads photos, videos and locations to media storage",
		Long: `Capture accepts multipart uploads from a browser, stores the media with
the configured host, optionally mirrors it to a second bucket and records
one row per upload.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var configFile string
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file (i.e., /etc/capture.yml)")

	rootCmd.AddCommand(
		serveCmd(&configFile),
		migrateCmd(&configFile),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "capture: %s\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and routes the standard logger through
// zap. The returned func flushes and restores logging.
func loadConfig(file string) (*config.Config, func(), error) {
	log.Println("loading configuration...")
	cfg, err := config.LoadConfig(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	restore := zap.RedirectStdLog(logger)

	return cfg, func() {
		restore()
		_ = logger.Sync()
	}, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
