package cli

import (
	"fmt"
	"os"

	"github.com/LeJamon/goFracVault/internal/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration file commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write an example configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigPaths().Main
		if len(args) > 0 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.SaveExampleConfig(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote example configuration to %s\n", path)
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Load and validate the configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		source := cfg.GetConfigPath()
		if source == "" {
			source = "environment only"
		}
		fmt.Fprintf(out, "Configuration OK (%s)\n", source)
		fmt.Fprintf(out, "  listen:   %s\n", cfg.Server.ListenAddr())
		fmt.Fprintf(out, "  admin:    %s\n", cfg.Engine.Admin)
		fmt.Fprintf(out, "  storage:  %s\n", cfg.Storage.Backend)
		fmt.Fprintf(out, "  index:    %s\n", cfg.Index.Driver)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configCheckCmd)
	rootCmd.AddCommand(configCmd)
}
