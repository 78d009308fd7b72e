package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/storage"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Work with the persisted desktop session",
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print the persisted session as YAML",
	Long: `Read the session snapshot from the configured storage backend and
print it as YAML. Compressed snapshots are detected automatically.

Examples:
  desktop session inspect --storage file --root ./data
  desktop session inspect --storage http --url http://localhost:9100`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	backend, err := storage.Open(storage.Config{
		Backend: cfg.Storage.Backend,
		Root:    cfg.Storage.Root,
		URL:     cfg.Storage.URL,
		Timeout: cfg.Storage.Timeout,
	})
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Storage.Timeout)
	defer cancel()
	return inspect(ctx, backend, cfg.Session.Key, cmd.OutOrStdout())
}

func inspect(ctx context.Context, backend storage.Backend, key string, w io.Writer) error {
	data, err := backend.Read(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("no session stored under %q", key)
	}
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	snapshot, err := session.Decode(data)
	if err != nil {
		return fmt.Errorf("failed to decode session: %w", err)
	}

	out, err := yaml.Marshal(snapshot)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
