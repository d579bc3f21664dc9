package uploads

import (
	"context"
	"fmt"
	"time"

	"malaria_clinic/internal/logger"

	"github.com/robfig/cron/v3"
)

// Sweeper periodically clears stale files out of the scratch dir, e.g. files
// left behind when the process died mid-request.
type Sweeper struct {
	cron   *cron.Cron
	store  *Store
	maxAge time.Duration
	log    *logger.Logger
	now    func() time.Time
}

// NewSweeper schedules the sweep with a cron spec such as "@every 10m".
func NewSweeper(store *Store, spec string, maxAge time.Duration, log *logger.Logger) (*Sweeper, error) {
	s := &Sweeper{
		cron:   cron.New(),
		store:  store,
		maxAge: maxAge,
		log:    log,
		now:    time.Now,
	}
	if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
		return nil, fmt.Errorf("schedule uploads sweep %q: %w", spec, err)
	}
	return s, nil
}

func (s *Sweeper) runOnce() {
	n, err := s.store.Sweep(s.maxAge, s.now())
	if s.log == nil {
		return
	}
	if err != nil {
		s.log.Errorw("uploads_sweep_failed", "dir", s.store.Dir(), "removed", n, "err", err)
		return
	}
	if n > 0 {
		s.log.Infow("uploads_swept", "dir", s.store.Dir(), "removed", n)
	}
}

func (s *Sweeper) Start() { s.cron.Start() }

// Stop halts scheduling; the returned context is done once a running sweep finishes.
func (s *Sweeper) Stop() context.Context { return s.cron.Stop() }
