// Package config resolves the process-level settings of the hub from the
// environment. Core packages take plain values; only the outer surfaces
// (CLI, service wiring) read the environment, through this package.
//
// Recognized variables:
//
//	IX_HOME       base data directory        default ~/.interaxions
//	IX_HUB_CACHE  repository cache directory default $IX_HOME/hub
//	IX_ENDPOINT   remote Git endpoint        default https://github.com
//	IX_OFFLINE    disable remote acquisition default false
package config

import (
	"os"
	"path/filepath"

	errors "github.com/jmgilman/go/errors"
	"github.com/spf13/viper"
)

// Config holds the resolved settings.
type Config struct {
	Home     string
	CacheDir string
	Endpoint string
	Offline  bool
}

// DefaultEndpoint is the remote used when IX_ENDPOINT is unset.
const DefaultEndpoint = "https://github.com"

// Load reads the environment and fills defaults.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("IX")
	v.AutomaticEnv()

	if err := v.BindEnv("home"); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to bind environment")
	}
	if err := v.BindEnv("hub_cache"); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to bind environment")
	}
	if err := v.BindEnv("endpoint"); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to bind environment")
	}
	if err := v.BindEnv("offline"); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to bind environment")
	}
	v.SetDefault("endpoint", DefaultEndpoint)
	v.SetDefault("offline", false)

	home := v.GetString("home")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidConfig,
				"IX_HOME is unset and the user home directory could not be determined")
		}
		home = filepath.Join(userHome, ".interaxions")
	}

	cacheDir := v.GetString("hub_cache")
	if cacheDir == "" {
		cacheDir = filepath.Join(home, "hub")
	}

	return &Config{
		Home:     home,
		CacheDir: cacheDir,
		Endpoint: v.GetString("endpoint"),
		Offline:  v.GetBool("offline"),
	}, nil
}
