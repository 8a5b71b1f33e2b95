package securitylog

import (
	"context"
	"errors"
	"testing"

	"github.com/vestapay/platform/internal/app/domain/security"
	"github.com/vestapay/platform/internal/app/storage"
	"github.com/vestapay/platform/internal/app/storage/memory"
)

func TestRecordListResolve(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, nil)

	svc.Record(ctx, "user-1", security.KindAuthFailure, security.SeverityMedium, "password mismatch")
	svc.Record(ctx, "", security.KindAdminAction, security.SeverityLow, "admin.listUsers")

	all, err := svc.List(ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("activities %d, want 2", len(all))
	}

	resolved, err := svc.Resolve(ctx, all[0].ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !resolved.Resolved {
		t.Fatalf("activity not marked resolved")
	}

	unresolved, err := svc.List(ctx, true)
	if err != nil {
		t.Fatalf("list unresolved: %v", err)
	}
	if len(unresolved) != 1 {
		t.Fatalf("unresolved %d, want 1", len(unresolved))
	}

	if _, err := svc.Resolve(ctx, "ghost"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
