// Package server exposes the pipeline stages as background tasks over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/sells-group/venue-cli/internal/metrics"
	"github.com/sells-group/venue-cli/internal/model"
)

// Runner executes one pipeline stage to completion.
type Runner func(ctx context.Context, stage model.Stage) (model.Counters, error)

// Server tracks stage tasks. At most one task runs at a time.
type Server struct {
	run     Runner
	stages  map[model.Stage]bool
	sem     *semaphore.Weighted
	now     func() time.Time
	origins []string

	mu    sync.RWMutex
	tasks map[string]*model.Task
	wg    sync.WaitGroup
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithAllowedOrigins sets the CORS origins. Defaults to "*".
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// New creates a Server that accepts the given stages.
func New(run Runner, stages []model.Stage, opts ...Option) *Server {
	s := &Server{
		run:     run,
		stages:  make(map[model.Stage]bool, len(stages)),
		sem:     semaphore.NewWeighted(1),
		now:     time.Now,
		origins: []string{"*"},
		tasks:   make(map[string]*model.Task),
	}
	for _, st := range stages {
		s.stages[st] = true
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the HTTP routes. Tasks started through it run under ctx.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", s.listTasks)
		r.Post("/{stage}", func(w http.ResponseWriter, req *http.Request) {
			s.startTask(ctx, w, req)
		})
		r.Get("/{id}", s.getTask)
	})
	return r
}

// ListenAndServe serves on port until ctx is cancelled, then waits for the
// running task to finish.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(ctx),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("server: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server: shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("server: listening", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server: listen")
	}
	s.Wait()
	return nil
}

// Wait blocks until no task is running.
func (s *Server) Wait() { s.wg.Wait() }

func (s *Server) startTask(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	stage := model.Stage(chi.URLParam(r, "stage"))
	if !s.stages[stage] {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown stage %q", stage))
		return
	}
	if !s.sem.TryAcquire(1) {
		writeError(w, http.StatusConflict, "a task is already running")
		return
	}

	now := s.now()
	task := &model.Task{
		ID:        uuid.NewString(),
		Stage:     stage,
		Status:    model.TaskQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.tasks[task.ID] = task
	snapshot := *task
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.sem.Release(1)
		s.execute(ctx, task.ID, stage)
	}()

	writeJSON(w, http.StatusAccepted, snapshot)
}

func (s *Server) execute(ctx context.Context, id string, stage model.Stage) {
	s.update(id, func(t *model.Task) { t.Status = model.TaskRunning })
	log := zap.L().With(zap.String("task", id), zap.String("stage", string(stage)))
	log.Info("server: task started")

	counters, err := s.run(ctx, stage)
	s.update(id, func(t *model.Task) {
		t.Counters = &counters
		if err != nil {
			t.Status = model.TaskFailed
			t.Error = err.Error()
			return
		}
		t.Status = model.TaskComplete
	})
	if err != nil {
		log.Error("server: task failed", zap.Error(err))
		return
	}
	log.Info("server: task complete", zap.Int("found", counters.Found))
}

func (s *Server) update(id string, fn func(*model.Task)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		fn(t)
		t.UpdatedAt = s.now()
	}
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}
	s.mu.RLock()
	t, ok := s.tasks[id]
	var out model.Task
	if ok {
		out = *t
	}
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listTasks(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	out := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, *t)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
