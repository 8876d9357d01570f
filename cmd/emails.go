package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/enrich"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/pkg/hunter"
)

const dryRunSample = 10

var emailsDryRun bool

var emailsCmd = &cobra.Command{
	Use:   "emails",
	Short: "Verify existing emails and find new ones with Hunter.io",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("emails"); err != nil {
			return err
		}
		counters, err := runEmails(ctx, emailsDryRun)
		printCounters("emails", counters)
		return err
	},
}

func init() {
	emailsCmd.Flags().BoolVar(&emailsDryRun, "dry-run", false, fmt.Sprintf("process only the first %d venues", dryRunSample))
	rootCmd.AddCommand(emailsCmd)
}

// runEmails runs the Hunter stage and writes the cost report.
func runEmails(ctx context.Context, dryRun bool) (model.Counters, error) {
	stats, err := newStats(cfg)
	if err != nil {
		return model.Counters{}, err
	}
	venues, err := loadVenues(stageInput(cfg.Files))
	if err != nil {
		return model.Counters{}, err
	}
	if dryRun && len(venues) > dryRunSample {
		zap.L().Info("dry run: processing sample", zap.Int("sample", dryRunSample))
		venues = venues[:dryRunSample]
	}

	client := hunter.NewClient(cfg.Hunter.Key,
		hunter.WithBaseURL(cfg.Hunter.BaseURL),
		hunter.WithDelay(time.Duration(cfg.Hunter.DelayMs)*time.Millisecond),
	)
	driver := enrich.NewDomainSearchDriver(client, enrich.DomainSearchConfig{
		MaxSearches:         cfg.Hunter.MaxSearches,
		MaxVerifications:    cfg.Hunter.MaxVerifications,
		ConfidenceThreshold: cfg.Hunter.ConfidenceThreshold,
	}, stats)
	driver.LogAccount(ctx)

	loopOpts := loopOptions(cfg.Enrich, cfg.Files.Output)
	// Hunter calls are paced by the client's limiter and capped by the
	// search and verification budgets.
	loopOpts.Delay = 0
	loopOpts.MaxRequests = 0
	counters, err := enrich.NewLoop(loopOpts).Run(ctx, driver, venues)

	report := driver.Report()
	report.RunID = uuid.NewString()
	if werr := enrich.WriteReport(cfg.Files.Report, report); werr != nil {
		zap.L().Warn("write hunter report", zap.Error(werr))
	}
	zap.L().Info("hunter usage",
		zap.String("run_id", report.RunID),
		zap.Int("emails_found", report.Summary.EmailsFound),
		zap.Int("emails_verified", report.Summary.EmailsVerified),
		zap.Int("invalid_emails", report.Summary.InvalidEmails),
		zap.Int("credits_used", report.Summary.CreditsUsed),
		zap.Float64("estimated_cost_usd", report.CostEstimate.Total),
	)
	saveFilterLog(stats, cfg.Files.FilterLog)
	return counters, err
}
