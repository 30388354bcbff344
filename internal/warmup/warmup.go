// Package warmup refreshes cached backend lists on a cron schedule so page
// views rarely wait on the backend.
package warmup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-vitalpress/pkg/post"
)

// Refresher reloads a list from the backend and stores it in the cache.
// api.CachedClient implements it.
type Refresher interface {
	RefreshPosts(ctx context.Context, position post.Position) ([]post.Post, error)
	RefreshVideos(ctx context.Context) ([]post.Video, error)
}

// Config selects what is refreshed and when.
type Config struct {
	// Schedule is a standard five field cron spec or a descriptor such as
	// "@every 5m".
	Schedule  string
	Positions []post.Position
	Videos    bool
	// Timeout bounds a single run. Zero means one minute.
	Timeout time.Duration
	// Concurrency caps parallel backend calls. Zero means four.
	Concurrency int
}

// Scheduler owns the cron instance.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	cfg       Config
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
}

// New validates the schedule and registers the refresh job.
func New(refresher Refresher, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	if refresher == nil {
		return nil, errors.New("warmup: refresher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	s := &Scheduler{
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		refresher: refresher,
		cfg:       cfg,
		logger:    logger,
	}
	if _, err := s.cron.AddFunc(cfg.Schedule, s.tick); err != nil {
		return nil, fmt.Errorf("warmup: schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()
	<-s.cron.Stop().Done()
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	start := time.Now()
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Warn("warmup incomplete", "error", err, "elapsed", time.Since(start))
		return
	}
	s.logger.Debug("warmup done", "elapsed", time.Since(start))
}

// RunOnce refreshes every configured list. A failing list does not stop
// the others; all failures are joined into the returned error.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	record := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, position := range s.cfg.Positions {
		g.Go(func() error {
			if _, err := s.refresher.RefreshPosts(ctx, position); err != nil {
				record(fmt.Errorf("posts %s: %w", position, err))
			}
			return nil
		})
	}
	if s.cfg.Videos {
		g.Go(func() error {
			if _, err := s.refresher.RefreshVideos(ctx); err != nil {
				record(fmt.Errorf("videos: %w", err))
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return fmt.Errorf("warmup: %w", errors.Join(errs...))
	}
	return nil
}
