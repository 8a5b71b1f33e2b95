package investments

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vestapay/platform/internal/app/system"
	"github.com/vestapay/platform/pkg/logger"
)

// DefaultSweepSchedule matches the 30-second cadence clients used to poll at.
const DefaultSweepSchedule = "@every 30s"

// Sweeper periodically matures due investments. It replaces client-driven
// maturation polling with a single server-side runner.
type Sweeper struct {
	service  *Service
	schedule string
	log      *logger.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

var _ system.Service = (*Sweeper)(nil)

// NewSweeper constructs a maturation sweeper. schedule accepts cron syntax
// including @every expressions; empty selects the default.
func NewSweeper(service *Service, schedule string, log *logger.Logger) *Sweeper {
	if log == nil {
		log = logger.NewDefault("maturation-sweeper")
	}
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	return &Sweeper{service: service, schedule: schedule, log: log}
}

func (s *Sweeper) Name() string { return "maturation-sweeper" }

func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	runner := cron.New()
	if _, err := runner.AddFunc(s.schedule, func() { s.sweep(runCtx) }); err != nil {
		cancel()
		return err
	}
	runner.Start()

	s.cron = runner
	s.cancel = cancel
	s.running = true
	s.log.Infof("maturation sweeper started (%s)", s.schedule)
	return nil
}

func (s *Sweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	runner := s.cron
	cancel := s.cancel
	s.cron = nil
	s.cancel = nil
	s.running = false
	s.mu.Unlock()

	cancel()
	select {
	case <-runner.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (s *Sweeper) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.service.MatureDue(ctx, time.Now().UTC()); err != nil {
		s.log.WithError(err).Warn("maturation sweep failed")
	}
}
