// Package enrich runs the per-stage enrichment drivers over a venue list.
package enrich

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/venue-cli/internal/metrics"
	"github.com/sells-group/venue-cli/internal/model"
	"github.com/sells-group/venue-cli/internal/resilience"
)

// Outcome is the result of processing one venue.
type Outcome string

const (
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not_found"
	OutcomeFailed   Outcome = "failed"
	OutcomeSkipped  Outcome = "skipped"
)

// Driver enriches one kind of field.
type Driver interface {
	// Stage names the driver for logs and metrics.
	Stage() model.Stage
	// Select returns the indexes of venues to process, in input order,
	// and how many were excluded by filters.
	Select(venues []model.Venue) (candidates []int, skipped int)
	// Process enriches v in place.
	Process(ctx context.Context, v *model.Venue) (Outcome, error)
}

// SaveFunc checkpoints the full venue list.
type SaveFunc func(venues []model.Venue) error

// Options configures a Loop.
type Options struct {
	// MaxRequests caps how many candidates are processed. Zero means no cap.
	MaxRequests int
	// Delay is slept after every processed venue.
	Delay time.Duration
	// PauseEvery inserts an extra Pause after every N processed venues.
	PauseEvery int
	Pause      time.Duration
	// SaveEvery checkpoints after every N processed venues.
	SaveEvery int
	Save      SaveFunc
	Sleep     resilience.SleepFunc
}

// Loop drives a Driver over a venue list with budget, politeness delays,
// and checkpoints.
type Loop struct {
	opts Options
}

// NewLoop creates a Loop.
func NewLoop(opts Options) *Loop {
	if opts.Sleep == nil {
		opts.Sleep = resilience.Sleep
	}
	return &Loop{opts: opts}
}

// Run processes the driver's candidates in order. The final checkpoint is
// written even when ctx is cancelled. Per-venue errors are counted and
// logged; only a failed final save or cancellation is returned.
func (l *Loop) Run(ctx context.Context, d Driver, venues []model.Venue) (model.Counters, error) {
	log := zap.L().With(zap.String("stage", string(d.Stage())))

	candidates, skipped := d.Select(venues)
	counters := model.Counters{Skipped: skipped}
	log.Info("enrich: starting",
		zap.Int("venues", len(venues)),
		zap.Int("candidates", len(candidates)),
		zap.Int("skipped", skipped),
	)

	processed := 0
	for _, idx := range candidates {
		if l.opts.MaxRequests > 0 && processed >= l.opts.MaxRequests {
			log.Info("enrich: request budget reached", zap.Int("max_requests", l.opts.MaxRequests))
			break
		}
		if ctx.Err() != nil {
			break
		}

		v := &venues[idx]
		outcome, err := d.Process(ctx, v)
		if err != nil && ctx.Err() != nil {
			break
		}
		if err != nil {
			log.Warn("enrich: venue failed", zap.String("venue", v.Name), zap.Error(err))
			outcome = OutcomeFailed
		}
		counters.Attempted++
		switch outcome {
		case OutcomeFound:
			counters.Found++
		case OutcomeFailed:
			counters.Failed++
		case OutcomeSkipped:
			counters.Skipped++
		}
		metrics.RecordStage(string(d.Stage()), string(outcome))
		processed++

		if l.opts.SaveEvery > 0 && processed%l.opts.SaveEvery == 0 {
			l.checkpoint(venues, processed)
		}
		if err := l.wait(ctx, processed); err != nil {
			break
		}
	}

	saveErr := l.finalSave(ctx, venues)
	log.Info("enrich: finished",
		zap.Int("attempted", counters.Attempted),
		zap.Int("found", counters.Found),
		zap.Int("failed", counters.Failed),
		zap.Int("skipped", counters.Skipped),
	)
	if saveErr != nil {
		return counters, saveErr
	}
	return counters, ctx.Err()
}

func (l *Loop) wait(ctx context.Context, processed int) error {
	if l.opts.Delay > 0 {
		if err := l.opts.Sleep(ctx, l.opts.Delay); err != nil {
			return err
		}
	}
	if l.opts.PauseEvery > 0 && l.opts.Pause > 0 && processed%l.opts.PauseEvery == 0 {
		return l.opts.Sleep(ctx, l.opts.Pause)
	}
	return nil
}

func (l *Loop) checkpoint(venues []model.Venue, processed int) {
	if err := l.save(venues); err != nil {
		zap.L().Warn("enrich: checkpoint failed", zap.Int("processed", processed), zap.Error(err))
		return
	}
	zap.L().Info("enrich: progress saved", zap.Int("processed", processed))
}

// finalSave retries the last checkpoint and ignores cancellation of ctx.
func (l *Loop) finalSave(ctx context.Context, venues []model.Venue) error {
	cfg := resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Second,
		ShouldRetry:    func(error) bool { return true },
		OnRetry:        resilience.RetryLogger("enrich", "save"),
		Sleep:          l.opts.Sleep,
	}
	return resilience.Do(context.WithoutCancel(ctx), cfg, func(context.Context) error {
		return l.save(venues)
	})
}

func (l *Loop) save(venues []model.Venue) error {
	if l.opts.Save == nil {
		return nil
	}
	if err := l.opts.Save(venues); err != nil {
		return eris.Wrap(err, "enrich: save venues")
	}
	return nil
}
