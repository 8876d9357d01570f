package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/venue-cli/internal/model"
)

type fakeDriver struct {
	skipped  int
	outcomes map[string]Outcome
	errs     map[string]error
	onCall   func(name string)
	calls    []string
}

func (d *fakeDriver) Stage() model.Stage { return model.StageWebsites }

func (d *fakeDriver) Select(venues []model.Venue) ([]int, int) {
	out := make([]int, 0, len(venues))
	for i := range venues {
		out = append(out, i)
	}
	return out, d.skipped
}

func (d *fakeDriver) Process(_ context.Context, v *model.Venue) (Outcome, error) {
	d.calls = append(d.calls, v.Name)
	if d.onCall != nil {
		d.onCall(v.Name)
	}
	if err := d.errs[v.Name]; err != nil {
		return OutcomeFailed, err
	}
	v.Website = "https://" + v.Name + ".example"
	if o, ok := d.outcomes[v.Name]; ok {
		return o, nil
	}
	return OutcomeFound, nil
}

type saveRecorder struct {
	saves [][]model.Venue
	err   error
}

func (s *saveRecorder) save(venues []model.Venue) error {
	s.saves = append(s.saves, append([]model.Venue(nil), venues...))
	return s.err
}

type sleepRecorder struct{ calls []time.Duration }

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func venuesNamed(names ...string) []model.Venue {
	out := make([]model.Venue, len(names))
	for i, n := range names {
		out[i] = model.Venue{Name: n, Postcode: "CM1 1AA"}
	}
	return out
}

func TestLoopCountsOutcomes(t *testing.T) {
	d := &fakeDriver{
		skipped:  2,
		outcomes: map[string]Outcome{"b": OutcomeNotFound, "d": OutcomeSkipped},
		errs:     map[string]error{"c": errors.New("boom")},
	}
	rec := &saveRecorder{}
	sl := &sleepRecorder{}
	l := NewLoop(Options{Save: rec.save, Sleep: sl.sleep})

	venues := venuesNamed("a", "b", "c", "d")
	counters, err := l.Run(context.Background(), d, venues)
	require.NoError(t, err)

	assert.Equal(t, model.Counters{Attempted: 4, Found: 2, Failed: 1, Skipped: 3}, counters)
	assert.Equal(t, []string{"a", "b", "c", "d"}, d.calls)
	require.Len(t, rec.saves, 1)
	assert.Equal(t, "https://a.example", rec.saves[0][0].Website)
	assert.Empty(t, sl.calls)
}

func TestLoopBudget(t *testing.T) {
	d := &fakeDriver{}
	l := NewLoop(Options{MaxRequests: 2, Sleep: (&sleepRecorder{}).sleep})

	counters, err := l.Run(context.Background(), d, venuesNamed("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, 2, counters.Attempted)
	assert.Equal(t, []string{"a", "b"}, d.calls)
}

func TestLoopDelayAndPause(t *testing.T) {
	sl := &sleepRecorder{}
	l := NewLoop(Options{
		Delay:      500 * time.Millisecond,
		PauseEvery: 2,
		Pause:      time.Second,
		Sleep:      sl.sleep,
	})

	_, err := l.Run(context.Background(), &fakeDriver{}, venuesNamed("a", "b", "c", "d"))
	require.NoError(t, err)

	half := 500 * time.Millisecond
	assert.Equal(t, []time.Duration{half, half, time.Second, half, half, time.Second}, sl.calls)
}

func TestLoopCheckpoints(t *testing.T) {
	rec := &saveRecorder{}
	l := NewLoop(Options{SaveEvery: 2, Save: rec.save, Sleep: (&sleepRecorder{}).sleep})

	_, err := l.Run(context.Background(), &fakeDriver{}, venuesNamed("a", "b", "c", "d", "e"))
	require.NoError(t, err)

	// Two checkpoints plus the final save.
	require.Len(t, rec.saves, 3)
	assert.Equal(t, "https://b.example", rec.saves[0][1].Website)
	assert.Empty(t, rec.saves[0][2].Website)
	assert.Equal(t, "https://e.example", rec.saves[2][4].Website)
}

func TestLoopCancelStillSaves(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := &fakeDriver{onCall: func(name string) {
		if name == "b" {
			cancel()
		}
	}}
	rec := &saveRecorder{}
	l := NewLoop(Options{Save: rec.save, Sleep: (&sleepRecorder{}).sleep})

	counters, err := l.Run(ctx, d, venuesNamed("a", "b", "c"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"a", "b"}, d.calls)
	assert.Equal(t, 2, counters.Attempted)
	require.Len(t, rec.saves, 1)
	assert.Equal(t, "https://b.example", rec.saves[0][1].Website)
}

func TestLoopFinalSaveRetriesThenFails(t *testing.T) {
	rec := &saveRecorder{err: errors.New("disk full")}
	sl := &sleepRecorder{}
	l := NewLoop(Options{Save: rec.save, Sleep: sl.sleep})

	_, err := l.Run(context.Background(), &fakeDriver{}, venuesNamed("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enrich: save venues")
	assert.Len(t, rec.saves, 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sl.calls)
}

func TestLoopCheckpointFailureContinues(t *testing.T) {
	calls := 0
	save := func([]model.Venue) error {
		calls++
		if calls == 1 {
			return errors.New("locked")
		}
		return nil
	}
	l := NewLoop(Options{SaveEvery: 1, Save: save, Sleep: (&sleepRecorder{}).sleep})

	counters, err := l.Run(context.Background(), &fakeDriver{}, venuesNamed("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, 2, counters.Found)
	assert.Equal(t, 3, calls)
}
