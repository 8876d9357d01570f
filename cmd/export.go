package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/venue-cli/internal/venuefile"
)

var (
	exportIn  string
	exportOut string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a venue CSV to an Excel workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		in := exportIn
		if in == "" {
			in = stageInput(cfg.Files)
		}
		out := exportOut
		if out == "" {
			out = xlsxPath(in)
		}

		venues, err := loadVenues(in)
		if err != nil {
			return err
		}
		if err := venuefile.WriteXLSX(out, venues); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d venues to %s\n", len(venues), out)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportIn, "in", "", "venue CSV to export (default: enriched output)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "workbook path (default: input with .xlsx)")
	rootCmd.AddCommand(exportCmd)
}

func xlsxPath(csvPath string) string {
	return strings.TrimSuffix(csvPath, filepath.Ext(csvPath)) + ".xlsx"
}
