package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/AgentOS/desktop/internal/infrastructure/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the desktop HTTP and WebSocket API",
	Long: `Start the desktop core. The session is loaded from the configured
storage backend in the background; application opens requested before it
is ready are queued and replayed once it loads.

Examples:
  desktop serve
  desktop serve --port 9000 --apps ./apps --watch
  desktop serve --storage file --root ./data`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("port", "", "HTTP port (overrides PORT)")
	serveCmd.Flags().String("host", "", "Listen address (overrides HOST)")
	serveCmd.Flags().String("apps", "", "Directory of application manifests (overrides APPS_DIR)")
	serveCmd.Flags().Bool("watch", false, "Reload manifests when the apps directory changes")
	serveCmd.Flags().Bool("dev", false, "Development logging")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("port"); v != "" {
		cfg.Server.Port = v
	}
	if v, _ := flags.GetString("host"); v != "" {
		cfg.Server.Host = v
	}
	if v, _ := flags.GetString("apps"); v != "" {
		cfg.Directory.AppsDir = v
	}
	if watch, _ := flags.GetBool("watch"); watch {
		cfg.Directory.Watch = true
	}
	if dev, _ := flags.GetBool("dev"); dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-sigChan:
		return srv.Close()
	case err := <-errChan:
		if closeErr := srv.Close(); err == nil {
			err = closeErr
		}
		return err
	}
}
