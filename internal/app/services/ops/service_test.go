package ops

import (
	"context"
	"testing"
)

func TestStatus(t *testing.T) {
	svc := New(nil)
	status := svc.Status(context.Background())
	if status.CheckedAt.IsZero() {
		t.Fatalf("checked_at not set")
	}
	if status.MemoryPercent < 0 || status.MemoryPercent > 100 {
		t.Fatalf("memory percent out of range: %.2f", status.MemoryPercent)
	}
}
