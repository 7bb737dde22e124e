package retention

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"opsboard/internal/services"

	"github.com/robfig/cron/v3"
)

const DefaultSchedule = "@every 12h"

// Purger is the part of the attachment lifecycle the sweeper drives. Purge
// must be the same operation interactive deletion uses.
type Purger interface {
	ListExpired(ctx context.Context, window time.Duration) ([]uint, error)
	Purge(ctx context.Context, id uint, userID *uint) error
}

type Config struct {
	Window     time.Duration
	Schedule   string
	RunOnStart bool
}

func DefaultConfig() Config {
	return Config{
		Window:     services.DefaultRetentionWindow,
		Schedule:   DefaultSchedule,
		RunOnStart: true,
	}
}

type SweepResult struct {
	Candidates int           `json:"candidates"`
	Purged     int           `json:"purged"`
	Failed     int           `json:"failed"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
}

// Sweeper permanently removes attachments whose grace window has passed.
// Runs never overlap: scheduled runs are skipped while one is in progress
// and manual runs wait for it.
type Sweeper struct {
	purger Purger
	config Config
	cron   *cron.Cron
	logger *log.Logger

	runMu sync.Mutex
	wg    sync.WaitGroup

	mu      sync.RWMutex
	last    *SweepResult
	runs    int64
	started bool
}

func NewSweeper(purger Purger, config Config) (*Sweeper, error) {
	if purger == nil {
		return nil, errors.New("retention: purger is required")
	}
	if config.Window <= 0 {
		return nil, fmt.Errorf("retention: window must be positive, got %s", config.Window)
	}
	if config.Schedule == "" {
		config.Schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(config.Schedule); err != nil {
		return nil, fmt.Errorf("retention: invalid schedule %q: %w", config.Schedule, err)
	}

	logger := log.New(os.Stderr, "[sweeper] ", log.LstdFlags)
	return &Sweeper{
		purger: purger,
		config: config,
		logger: logger,
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.PrintfLogger(logger)),
			cron.SkipIfStillRunning(cron.PrintfLogger(logger)),
		)),
	}, nil
}

// Start schedules the sweep. With RunOnStart the first sweep begins
// immediately in the background.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("retention: sweeper already started")
	}

	_, err := s.cron.AddFunc(s.config.Schedule, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Printf("scheduled sweep failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("retention: schedule sweep: %w", err)
	}

	if s.config.RunOnStart {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if _, err := s.RunOnce(ctx); err != nil {
				s.logger.Printf("startup sweep failed: %v", err)
			}
		}()
	}

	s.cron.Start()
	s.started = true
	s.logger.Printf("scheduled with %q, retention window %s", s.config.Schedule, s.config.Window)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()
	if !started {
		return
	}

	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Println("stopped")
}

// RunOnce purges every expired attachment. A failing item is logged and
// counted; it never stops the rest of the sweep.
func (s *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	result := SweepResult{StartedAt: time.Now()}

	ids, err := s.purger.ListExpired(ctx, s.config.Window)
	if err != nil {
		return result, fmt.Errorf("retention: list expired attachments: %w", err)
	}
	result.Candidates = len(ids)

	if len(ids) > 0 {
		s.logger.Printf("purging %d expired attachment(s)", len(ids))
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			s.logger.Printf("sweep interrupted after %d of %d: %v", result.Purged+result.Failed, len(ids), err)
			break
		}

		err := s.purger.Purge(ctx, id, nil)
		switch {
		case err == nil:
			result.Purged++
			s.logger.Printf("purged attachment %d", id)
		case services.IsKind(err, services.KindNotFound):
			s.logger.Printf("attachment %d already removed", id)
		default:
			result.Failed++
			s.logger.Printf("failed to purge attachment %d: %v", id, err)
		}
	}

	result.Duration = time.Since(result.StartedAt)
	s.record(result)
	return result, nil
}

func (s *Sweeper) record(result SweepResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	s.last = &result
}

// LastResult returns the outcome of the most recent completed sweep.
func (s *Sweeper) LastResult() (SweepResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return SweepResult{}, false
	}
	return *s.last, true
}

func (s *Sweeper) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"schedule":         s.config.Schedule,
		"retention_window": s.config.Window.String(),
		"runs":             s.runs,
		"running":          s.started,
	}
	if s.last != nil {
		stats["last_run"] = s.last.StartedAt
		stats["last_candidates"] = s.last.Candidates
		stats["last_purged"] = s.last.Purged
		stats["last_failed"] = s.last.Failed
	}
	if entries := s.cron.Entries(); len(entries) > 0 {
		stats["next_run"] = entries[0].Next
	}
	return stats
}
