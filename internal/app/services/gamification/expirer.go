package gamification

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vestapay/platform/internal/app/system"
	"github.com/vestapay/platform/pkg/logger"
)

// DefaultExpirySchedule runs the challenge expiry sweep hourly.
const DefaultExpirySchedule = "@hourly"

// Expirer periodically expires joined entries of finished challenges.
type Expirer struct {
	service  *Service
	schedule string
	log      *logger.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

var _ system.Service = (*Expirer)(nil)

// NewExpirer constructs a challenge expirer. Empty schedule selects the
// default.
func NewExpirer(service *Service, schedule string, log *logger.Logger) *Expirer {
	if log == nil {
		log = logger.NewDefault("challenge-expirer")
	}
	if schedule == "" {
		schedule = DefaultExpirySchedule
	}
	return &Expirer{service: service, schedule: schedule, log: log}
}

func (e *Expirer) Name() string { return "challenge-expirer" }

func (e *Expirer) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	runner := cron.New()
	if _, err := runner.AddFunc(e.schedule, func() {
		if runCtx.Err() != nil {
			return
		}
		if _, err := e.service.ExpireEnded(runCtx, time.Now().UTC()); err != nil {
			e.log.WithError(err).Warn("challenge expiry sweep failed")
		}
	}); err != nil {
		cancel()
		return err
	}
	runner.Start()

	e.cron = runner
	e.cancel = cancel
	e.running = true
	e.log.Infof("challenge expirer started (%s)", e.schedule)
	return nil
}

func (e *Expirer) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	runner := e.cron
	cancel := e.cancel
	e.cron = nil
	e.cancel = nil
	e.running = false
	e.mu.Unlock()

	cancel()
	select {
	case <-runner.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}
