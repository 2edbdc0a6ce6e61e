package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"blogpipe/internal/config"
	"blogpipe/internal/logger"
	"blogpipe/internal/server"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve command for starting the preview server
func NewServeCmd() *cobra.Command {
	var (
		port     int
		host     string
		noStatic bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the articles and their connections over HTTP",
		Long: `Start a read-only preview server over the intelligence document.

The server provides:
  • GET /api/articles              articles with analysis summary (?category=, ?type=)
  • GET /api/articles/{url}        one article with analysis and connections
  • GET /api/articles/{url}/related its ranked connections (?limit=)
  • GET /health                    document status
  • the site directory as static files

The document is re-read on every request, so pipeline runs show up
without a restart.

Examples:
  blogpipe serve
  blogpipe serve --port 3000 --no-static`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			startRun("serve")

			serverCfg := cfg.Server
			if port != 0 {
				serverCfg.Port = port
			}
			if host != "" {
				serverCfg.Host = host
			}
			siteDir := cfg.Paths.SiteDir
			if noStatic {
				siteDir = ""
			}
			return runServe(server.New(newStore(cfg), serverCfg, siteDir), serverCfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 8080)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: 127.0.0.1)")
	cmd.Flags().BoolVar(&noStatic, "no-static", false, "Serve the API only, not the site directory")

	return cmd
}

func runServe(srv *server.Server, serverCfg config.Server) error {
	log := logger.Get()

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		log.Info(fmt.Sprintf("Server listening on http://%s:%d", serverCfg.Host, serverCfg.Port))
		log.Info("Press Ctrl+C to stop")
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case sig := <-shutdown:
		log.Info("Server shutdown initiated", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Server shutdown failed", "error", err)
			return err
		}

		log.Info("Server stopped successfully")
	}

	return nil
}
