package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/olivier-w/enchordify/internal/analysis"
	"github.com/olivier-w/enchordify/internal/downloader"
	"github.com/olivier-w/enchordify/internal/logger"
	"github.com/olivier-w/enchordify/internal/timeline"
	"github.com/olivier-w/enchordify/internal/util"
)

var (
	inspectJSON bool
	inspectSave bool
)

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "print the records as JSON")
	inspectCmd.Flags().BoolVar(&inspectSave, "save", false, "write the analysis next to the file as a .chords.json sidecar")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print the chord timeline of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initLogger(false); err != nil {
			return err
		}
		defer logger.Sync()

		analyzer, closeCache := buildAnalyzer()
		defer closeCache()

		_, records, err := analysis.Load(cmd.Context(), analyzer, args[0])
		if err != nil {
			return err
		}
		if inspectSave {
			if err := downloader.WriteSidecar(args[0], records); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		if inspectJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}
		fmt.Fprintln(out, renderRecords(records))
		return nil
	},
}

func renderRecords(records []timeline.Record) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("START", "CHORD", "DURATION")
	for _, r := range records {
		label := timeline.Label{Tonic: r.Tonic, Kind: r.Kind}
		t.Row(util.FormatStopwatch(r.Start), label.Symbol(), fmt.Sprintf("%.2fs", r.Duration))
	}
	return t.Render()
}
