// Package ops reports host health for the admin console.
package ops

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/vestapay/platform/pkg/logger"
)

// Status is a point-in-time host snapshot.
type Status struct {
	CPUPercent    float64   `json:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent"`
	MemoryUsedMB  uint64    `json:"memory_used_mb"`
	MemoryTotalMB uint64    `json:"memory_total_mb"`
	UptimeSeconds uint64    `json:"uptime_seconds"`
	CheckedAt     time.Time `json:"checked_at"`
}

// Service samples host metrics.
type Service struct {
	log *logger.Logger
}

// New constructs an ops service.
func New(log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("ops")
	}
	return &Service{log: log}
}

// Status samples CPU, memory and uptime. Individual probe failures degrade
// to zero values rather than failing the whole call.
func (s *Service) Status(ctx context.Context) Status {
	status := Status{CheckedAt: time.Now().UTC()}

	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		status.CPUPercent = percents[0]
	} else if err != nil {
		s.log.WithError(err).Debug("sample cpu")
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		status.MemoryPercent = vm.UsedPercent
		status.MemoryUsedMB = vm.Used / 1024 / 1024
		status.MemoryTotalMB = vm.Total / 1024 / 1024
	} else {
		s.log.WithError(err).Debug("sample memory")
	}

	if uptime, err := host.UptimeWithContext(ctx); err == nil {
		status.UptimeSeconds = uptime
	} else {
		s.log.WithError(err).Debug("sample uptime")
	}

	return status
}
