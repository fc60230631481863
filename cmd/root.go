// Package cmd wires configuration, logging and the analyzers into the
// enchordify commands.
package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/olivier-w/enchordify/internal/analysis"
	"github.com/olivier-w/enchordify/internal/config"
	"github.com/olivier-w/enchordify/internal/logger"
	"github.com/olivier-w/enchordify/internal/store"
	"github.com/olivier-w/enchordify/internal/ui"
)

var cfg = config.Load()

var rootCmd = &cobra.Command{
	Use:   "enchordify [file|url]",
	Short: "Play a track with its chords scrolling past",
	Long: `enchordify plays an audio file or a downloaded track and scrolls the
detected chords past in time with the music.

Without an argument it opens a file browser on the current directory.
Chords come from a saved .chords.json sidecar, an external analyzer
command (ENCHORDIFY_ANALYZER_CMD) or an analysis server
(ENCHORDIFY_ANALYZER_URL), in that order.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         runPlayer,
}

// Execute runs the root command.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&cfg.AnalyzerURL, "analyzer-url", cfg.AnalyzerURL, "chord analysis server base URL")
	f.StringVar(&cfg.AnalyzerCmd, "analyzer-cmd", cfg.AnalyzerCmd, "external analyzer command; the audio path is appended")
	f.StringVar(&cfg.CacheDB, "cache-db", cfg.CacheDB, "analysis cache database (empty disables caching)")
	f.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	f.StringVar(&cfg.LogPath, "log-file", cfg.LogPath, "log file path")

	rootCmd.Flags().DurationVar(&cfg.Skip, "skip", cfg.Skip, "skip length for the arrow keys")
	rootCmd.Flags().Float64Var(&cfg.PixelsPerSecond, "cells-per-second", cfg.PixelsPerSecond, "reel scroll speed")
}

func initLogger(console bool) error {
	return logger.Init(logger.Config{
		Level:      logger.Level(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		Console:    console,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
	})
}

// buildAnalyzer assembles sidecar, command and remote analyzers behind the
// cache. The returned func closes the cache.
func buildAnalyzer() (analysis.Analyzer, func()) {
	chain := analysis.Chain{analysis.Sidecar{}}
	if c := analysis.ParseCommand(cfg.AnalyzerCmd); c != nil {
		chain = append(chain, c)
	}
	if cfg.AnalyzerURL != "" {
		chain = append(chain, analysis.NewRemote(cfg.AnalyzerURL))
	}

	if cfg.CacheDB == "" {
		return chain, func() {}
	}
	st, err := store.Open(cfg.CacheDB)
	if err != nil {
		logger.Warn("analysis cache unavailable", logger.String("path", cfg.CacheDB), logger.ErrorField(err))
		return chain, func() {}
	}
	return &analysis.Cached{Cache: st, Next: chain}, func() { st.Close() }
}

func runPlayer(cmd *cobra.Command, args []string) error {
	if err := initLogger(false); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Sync()

	analyzer, closeCache := buildAnalyzer()
	defer closeCache()

	arg := ""
	if len(args) == 1 {
		arg = args[0]
	}

	app := ui.NewApp(ui.Opener{
		Analyzer:  analyzer,
		Transport: cfg.Transport(),
	}, ".", arg)

	logger.Info("starting player", logger.String("arg", arg))
	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return err
	}
	return nil
}
