package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/olivier-w/enchordify/internal/logger"
	"github.com/olivier-w/enchordify/internal/server"
)

var serveOrigins []string

func init() {
	serveCmd.Flags().StringVar(&cfg.ServerAddr, "addr", cfg.ServerAddr, "listen address")
	serveCmd.Flags().StringVar(&cfg.UploadDir, "upload-dir", cfg.UploadDir, "directory uploads are stored in")
	serveCmd.Flags().Int64Var(&cfg.MaxUploadBytes, "max-upload", cfg.MaxUploadBytes, "largest accepted upload in bytes")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "origin", nil, "allowed CORS origin (repeatable, default any)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve chord analysis over HTTP",
	Long: `serve accepts audio uploads and returns their chord timelines as JSON.

Analysis is delegated to the configured analyzer command or upstream
server; results are cached like in the player.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initLogger(true); err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		defer logger.Sync()

		analyzer, closeCache := buildAnalyzer()
		defer closeCache()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv := server.New(analyzer, server.Options{
			UploadDir:      cfg.UploadDir,
			MaxUploadBytes: cfg.MaxUploadBytes,
			AllowedOrigins: serveOrigins,
		})
		return srv.ListenAndServe(ctx, cfg.ServerAddr)
	},
}
