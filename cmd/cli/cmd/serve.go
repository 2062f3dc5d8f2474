package cmd

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/linkmap-analysis/internal/parser/linkmap"
	"github.com/linkmap-analysis/internal/webui"
	apperrors "github.com/linkmap-analysis/pkg/errors"
)

const shutdownTimeout = 5 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var (
		input string
		port  int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a map file over a read-only HTTP API",
		Long: `Serve a map file over a JSON HTTP API. The file is read again on every
request, so a rebuilt map file is picked up without restarting.

Endpoints (GET):
  /api/memory            memory regions and usage over all regions
  /api/stats             usage over all regions
  /api/symbols           symbols; ?section= filters by section column
  /api/symbols/{name}    one symbol with its offset and line, 404 if absent
  /api/sections          linked sections; ?output_section= filters
  /api/report            the whole report
  /api/healthz           liveness`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(input); errors.Is(err, os.ErrNotExist) {
				return apperrors.New(apperrors.CodeNotFound, "map file not found: "+input)
			}
			if !cmd.Flags().Changed("port") {
				port = a.cfg.Server.Port
			}

			cache, err := linkmap.NewCache(a.cfg.Parser.CacheSize)
			if err != nil {
				return err
			}

			server := webui.NewServer(input, webui.Options{
				Port:        port,
				ReadTimeout: a.cfg.Server.ReadTimeout,
				Parser: linkmap.NewParser(&linkmap.ParserOptions{
					MaxFileSize: a.cfg.Parser.MaxFileSize,
					Logger:      a.logger.WithField("component", "parser"),
				}),
				Cache:  cache,
				Logger: a.logger,
			})

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			a.logger.Info("Shutting down server...")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Map file to serve (required)")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "Port for the HTTP server")
	cmd.MarkFlagRequired("input")

	return cmd
}
