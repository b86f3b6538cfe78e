package main

import (
	"log/slog"
	"os"

	errors "github.com/jmgilman/go/errors"
	"github.com/spf13/cobra"

	"github.com/interaxions/interaxions/config"
	"github.com/interaxions/interaxions/hub"
)

// rootFlags are shared by every subcommand. Flag defaults come from the
// IX_* environment so flags only need to be passed to override it.
type rootFlags struct {
	cacheDir string
	endpoint string
	offline  bool
	logLevel string
}

func newRootCmd() *cobra.Command {
	cfg, err := config.Load()
	if err != nil {
		// Fall back to bare defaults; the error surfaces again if a
		// subcommand actually needs the missing setting.
		cfg = &config.Config{Endpoint: config.DefaultEndpoint}
	}

	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "ix",
		Short:         "Interaxions hub: cached repositories and component modules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(flags.logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.cacheDir, "cache-dir", cfg.CacheDir,
		"repository cache directory")
	cmd.PersistentFlags().StringVar(&flags.endpoint, "endpoint", cfg.Endpoint,
		"remote Git endpoint")
	cmd.PersistentFlags().BoolVar(&flags.offline, "offline", cfg.Offline,
		"disable remote acquisition")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "warn",
		"log level (debug, info, warn, error)")

	cmd.AddCommand(
		newResolveCmd(flags),
		newLoadCmd(flags),
		newCacheCmd(flags),
		newRenderCmd(flags),
	)
	return cmd
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return errors.Newf(errors.CodeInvalidInput, "invalid log level: %s", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})))
	return nil
}

// newHub builds a Hub from the shared flags.
func newHub(flags *rootFlags) (*hub.Hub, error) {
	if flags.cacheDir == "" {
		return nil, errors.New(errors.CodeInvalidConfig,
			"no cache directory: set --cache-dir or IX_HUB_CACHE")
	}
	return hub.New(flags.cacheDir,
		hub.WithEndpoint(flags.endpoint),
		hub.WithOffline(flags.offline),
	)
}
