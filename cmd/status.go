package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/venue-cli/internal/venuefile"
)

var statusFile string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report enrichment coverage of a venue CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := statusFile
		if path == "" {
			path = stageInput(cfg.Files)
		}
		venues, err := loadVenues(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Coverage of %s\n%s\n", path, venuefile.Measure(venues).String())
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVar(&statusFile, "file", "", "venue CSV to inspect (default: enriched output)")
	rootCmd.AddCommand(statusCmd)
}
