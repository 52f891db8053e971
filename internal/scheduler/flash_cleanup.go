package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/secrets/internal/config"
)

// FlashPruner deletes stale flash message rows.
type FlashPruner interface {
	PruneBefore(cutoff time.Time) (int64, error)
}

// FlashCleanupScheduler periodically removes flash messages that were
// pushed but never drained (abandoned anonymous sessions, crashed
// browsers). Without it the flash table grows without bound.
type FlashCleanupScheduler struct {
	pruner FlashPruner
	cfg    config.Cleanup

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isPruning  bool
	cancelFunc context.CancelFunc
}

// NewFlashCleanupScheduler creates a new scheduler instance
func NewFlashCleanupScheduler(pruner FlashPruner, cfg config.Cleanup) *FlashCleanupScheduler {
	return &FlashCleanupScheduler{
		pruner: pruner,
		cfg:    cfg,
		cron:   cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if cleanup is enabled
func (s *FlashCleanupScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.cfg.Enabled {
		log.Printf("Flash cleanup scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		s.runPrune()
	})
	if err != nil {
		return fmt.Errorf("invalid cleanup schedule '%s': %w", s.cfg.Schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Flash cleanup scheduler: started with schedule '%s' (retention %v)",
		s.cfg.Schedule, s.cfg.FlashRetention)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *FlashCleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	// Stop accepting new jobs and wait for running jobs to complete
	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Flash cleanup scheduler: stopped")
}

// RunNow triggers an immediate cleanup pass
func (s *FlashCleanupScheduler) RunNow() {
	go s.runPrune()
}

// IsRunning returns whether the scheduler is active
func (s *FlashCleanupScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next cleanup will occur
func (s *FlashCleanupScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runPrune performs the actual cleanup pass
func (s *FlashCleanupScheduler) runPrune() {
	s.mu.Lock()
	if s.isPruning {
		s.mu.Unlock()
		log.Printf("Flash cleanup: skipped (already running)")
		return
	}
	s.isPruning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isPruning = false
		s.mu.Unlock()
	}()

	cutoff := time.Now().Add(-s.cfg.FlashRetention)
	removed, err := s.pruner.PruneBefore(cutoff)
	if err != nil {
		log.Printf("Flash cleanup: failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Flash cleanup: removed %d stale flash messages", removed)
	}
}
