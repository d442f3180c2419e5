package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/LeJamon/goFracVault/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	debugLog   bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fracvaultd",
	Short: "fracvaultd - asset fractionalization vaults",
	Long: `fracvaultd locks a non-fungible asset in a vault, issues fungible shares
against it, runs buyout tender offers and a fixed-price share market, and
serves all of it over JSON-RPC and websocket.`,
	Version:       "0.1.0-dev",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "conf", "", "configuration file path")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "enable normally suppressed debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output to console after startup")
}

// configPaths resolves --conf. Without it the working directory's
// fracvault.toml is used when present; otherwise only the environment
// configures the server.
func configPaths() config.ConfigPaths {
	if configFile != "" {
		return config.ConfigPaths{
			Main: configFile,
			Env:  filepath.Join(filepath.Dir(configFile), ".env"),
		}
	}
	paths := config.DefaultConfigPaths()
	if _, err := os.Stat(paths.Main); err != nil {
		paths.Main = ""
	}
	return paths
}

// loadConfig loads and validates the configuration, applying --debug.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPaths())
	if err != nil {
		return nil, err
	}
	if debugLog {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}
