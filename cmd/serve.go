package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/venue-cli/internal/metrics"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the task server for running pipeline stages over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		metrics.Init()
		srv := server.New(runStage, []model.Stage{
			model.StageBuild, model.StageWebsites, model.StageEmails, model.StageContacts,
		})
		return srv.ListenAndServe(ctx, port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// runStage validates the stage's config and runs it.
func runStage(ctx context.Context, stage model.Stage) (model.Counters, error) {
	if err := cfg.Validate(string(stage)); err != nil {
		return model.Counters{}, err
	}
	switch stage {
	case model.StageBuild:
		return runBuild(ctx)
	case model.StageWebsites:
		return runWebsites(ctx)
	case model.StageEmails:
		return runEmails(ctx, false)
	case model.StageContacts:
		return runContacts(ctx)
	default:
		return model.Counters{}, eris.Errorf("unknown stage %q", stage)
	}
}
