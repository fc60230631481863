package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/olivier-w/enchordify/internal/store"
)

func init() {
	cacheCmd.AddCommand(cacheLsCmd, cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the analysis cache",
}

var cacheLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cached analyses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openCache()
		if err != nil {
			return err
		}
		defer st.Close()

		entries, err := st.List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "cache is empty")
			return nil
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("HASH", "CHORDS", "ANALYZED", "SOURCE")
		for _, e := range entries {
			t.Row(shortHash(e.Hash), fmt.Sprint(e.Count), e.CreatedAt.Format("2006-01-02 15:04"), e.Source)
		}
		fmt.Fprintln(out, t.Render())
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached analysis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openCache()
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.Clear(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached analyses\n", n)
		return nil
	},
}

func openCache() (*store.Store, error) {
	if cfg.CacheDB == "" {
		return nil, fmt.Errorf("analysis cache is disabled (set ENCHORDIFY_CACHE_DB or --cache-db)")
	}
	return store.Open(cfg.CacheDB)
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
