package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/config"
)

var rootCmd = &cobra.Command{
	Use:           "desktop",
	Short:         "AgentOS desktop core",
	Long:          "Process lifecycle, window stacking and session persistence for the AgentOS desktop shell.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("storage", "", "Storage backend: memory, file, http (overrides STORAGE_BACKEND)")
	rootCmd.PersistentFlags().String("root", "", "File backend root directory (overrides STORAGE_ROOT)")
	rootCmd.PersistentFlags().String("url", "", "HTTP backend base URL (overrides STORAGE_URL)")
	rootCmd.PersistentFlags().String("session-key", "", "Key the session snapshot is stored under (overrides SESSION_KEY)")
}

// loadConfig reads the environment and applies persistent flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("storage"); v != "" {
		cfg.Storage.Backend = v
	}
	if v, _ := flags.GetString("root"); v != "" {
		cfg.Storage.Root = v
	}
	if v, _ := flags.GetString("url"); v != "" {
		cfg.Storage.URL = v
	}
	if v, _ := flags.GetString("session-key"); v != "" {
		cfg.Session.Key = v
	}
	return cfg, nil
}
