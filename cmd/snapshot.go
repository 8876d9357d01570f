package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/venue-cli/internal/snapshot"
)

var snapshotArea string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Download the region's pubs and bars from OpenStreetMap for offline lookups",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("websites"); err != nil {
			return err
		}

		area := snapshotArea
		if area == "" {
			area = cfg.Overpass.Area
		}

		venues, err := newOverpassClient().RegionVenues(ctx, area)
		if err != nil {
			return err
		}
		if err := snapshot.Save(cfg.Overpass.SnapshotPath, area, venues); err != nil {
			return err
		}

		withSite := 0
		for _, v := range venues {
			if v.Website != "" {
				withSite++
			}
		}
		fmt.Printf("Saved %d venues (%d with websites) to %s\n", len(venues), withSite, cfg.Overpass.SnapshotPath)
		return nil
	},
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotArea, "area", "", "admin area name (default from config)")
	rootCmd.AddCommand(snapshotCmd)
}
