// Package securitylog writes and resolves suspicious-activity audit rows.
package securitylog

import (
	"context"

	"github.com/vestapay/platform/internal/app/domain/security"
	"github.com/vestapay/platform/internal/app/storage"
	"github.com/vestapay/platform/pkg/logger"
)

// Service manages the audit trail.
type Service struct {
	store storage.SecurityStore
	log   *logger.Logger
}

// New constructs a security log service.
func New(store storage.SecurityStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("securitylog")
	}
	return &Service{store: store, log: log}
}

// Record writes an audit row. Errors are logged but not propagated; auditing
// must never fail the operation it observes.
func (s *Service) Record(ctx context.Context, profileID, kind, severity, detail string) {
	_, err := s.store.CreateActivity(ctx, security.Activity{
		ProfileID: profileID,
		Kind:      kind,
		Severity:  severity,
		Detail:    detail,
	})
	if err != nil {
		s.log.WithError(err).Warnf("record %s activity", kind)
	}
}

// List returns audit rows, optionally only unresolved ones.
func (s *Service) List(ctx context.Context, unresolvedOnly bool) ([]security.Activity, error) {
	return s.store.ListActivities(ctx, unresolvedOnly)
}

// Resolve marks an audit row as handled.
func (s *Service) Resolve(ctx context.Context, id string) (security.Activity, error) {
	return s.store.ResolveActivity(ctx, id)
}
