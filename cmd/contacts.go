package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/enrich"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/scrape"
	"github.com/sells-group/venue-cli/internal/venuefile"
)

var contactsCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Scrape venue websites for emails and phone numbers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("contacts"); err != nil {
			return err
		}
		counters, err := runContacts(ctx)
		printCounters("contacts", counters)
		return err
	},
}

func init() {
	rootCmd.AddCommand(contactsCmd)
}

func newScrapeChain() *scrape.Chain {
	timeout := time.Duration(cfg.Scrape.TimeoutSecs) * time.Second
	opts := []scrape.ChainOption{scrape.WithAttempts(cfg.Scrape.Attempts)}
	if cfg.Scrape.UnlockerKey != "" {
		opts = append(opts, scrape.WithPrimary(scrape.NewUnlockerScraper(cfg.Scrape.UnlockerKey,
			scrape.WithUnlockerEndpoint(cfg.Scrape.UnlockerURL),
			scrape.WithUnlockerZone(cfg.Scrape.UnlockerZone),
			scrape.WithUnlockerTimeout(timeout),
		)))
	} else {
		zap.L().Info("no unlocker key configured, using direct HTTP only")
	}
	return scrape.NewChain(scrape.NewDirectScraper(timeout), opts...)
}

// runContacts scrapes contact details and writes the enriched list.
func runContacts(ctx context.Context) (model.Counters, error) {
	stats, err := newStats(cfg)
	if err != nil {
		return model.Counters{}, err
	}
	venues, err := loadVenues(stageInput(cfg.Files))
	if err != nil {
		return model.Counters{}, err
	}

	driver := enrich.NewContactDriver(newScrapeChain(), stats)
	counters, err := enrich.NewLoop(loopOptions(cfg.Enrich, cfg.Files.Output)).Run(ctx, driver, venues)

	fmt.Println(venuefile.Measure(venues).String())
	fmt.Println(stats.Summary())
	saveFilterLog(stats, cfg.Files.FilterLog)
	return counters, err
}
