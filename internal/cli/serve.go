package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"adpulse/internal/cache"
	"adpulse/internal/pipeline"
	"adpulse/internal/server"
	"adpulse/internal/store"
)

var serveAddr string

// serveCmd runs the HTTP API.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis HTTP API",
	Long: `Serve exposes the pipeline over HTTP: register a media reference, analyze
segments, and query persisted events, ads, and aggregate metrics.
Prometheus metrics are served on /metrics.

Example:
  adpulse serve --addr :8080 --db adpulse.db`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	addPipelineFlags(serveCmd)

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Server.Addr = serveAddr

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	p, err := pipeline.New(cfg, st)
	if err != nil {
		return err
	}

	media := server.NewMediaRegistry(cache.NewMemoryCache(cfg.Cache.TTL, 10*time.Minute), cfg.Cache.TTL)
	srv := server.New(p, st, media)

	log.Printf("listening on %s (db: %s)", cfg.Server.Addr, cfg.Store.Path)
	return srv.ListenAndServe(cfg.Server.Addr)
}
