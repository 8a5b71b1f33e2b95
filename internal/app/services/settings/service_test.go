package settings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/vestapay/platform/internal/app/domain/setting"
	"github.com/vestapay/platform/internal/app/storage/memory"
)

func TestSetValidation(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil, nil)

	cases := []struct {
		name  string
		key   string
		value string
		ok    bool
	}{
		{"unknown key", "mystery", `{"x": 1}`, false},
		{"not an object", setting.KeyDepositsFrozen, `true`, false},
		{"frozen flag", setting.KeyDepositsFrozen, `{"frozen": true}`, true},
		{"frozen wrong type", setting.KeyDepositsFrozen, `{"frozen": "yes"}`, false},
		{"message", setting.KeyMaintenanceMessage, `{"enabled": true, "message": "back soon"}`, true},
		{"message missing field", setting.KeyMaintenanceMessage, `{"enabled": true}`, false},
		{"welcome bonus", setting.KeyWelcomeBonus, `{"amount": 100}`, true},
		{"welcome bonus negative", setting.KeyWelcomeBonus, `{"amount": -5}`, false},
		{"contact", setting.KeyWhatsappSupport, `{"value": "+250788000000"}`, true},
		{"contact missing", setting.KeyWhatsappSupport, `{}`, false},
	}

	for _, tc := range cases {
		_, err := svc.Set(ctx, "admin-1", tc.key, json.RawMessage(tc.value))
		if tc.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestSetUnknownKeySentinel(t *testing.T) {
	svc := New(memory.New(), nil, nil)
	_, err := svc.Set(context.Background(), "admin-1", "mystery", json.RawMessage(`{"x": 1}`))
	if !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
}

func TestFrozenFlags(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil, nil)

	// Unset keys read as not frozen.
	if svc.DepositsFrozen(ctx) || svc.WithdrawalsFrozen(ctx) {
		t.Fatalf("fresh store reports frozen")
	}

	if _, err := svc.Set(ctx, "admin-1", setting.KeyDepositsFrozen, json.RawMessage(`{"frozen": true}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !svc.DepositsFrozen(ctx) {
		t.Fatalf("deposits not reported frozen")
	}
	if svc.WithdrawalsFrozen(ctx) {
		t.Fatalf("withdrawals frozen without being set")
	}

	if _, err := svc.Set(ctx, "admin-1", setting.KeyDepositsFrozen, json.RawMessage(`{"frozen": false}`)); err != nil {
		t.Fatalf("unset: %v", err)
	}
	if svc.DepositsFrozen(ctx) {
		t.Fatalf("deposits still frozen after unset")
	}
}

func TestWelcomeBonus(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil, nil)

	if got := svc.WelcomeBonus(ctx); got != 0 {
		t.Fatalf("unset welcome bonus %.2f, want 0", got)
	}
	if _, err := svc.Set(ctx, "admin-1", setting.KeyWelcomeBonus, json.RawMessage(`{"amount": 300}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := svc.WelcomeBonus(ctx); got != 300 {
		t.Fatalf("welcome bonus %.2f, want 300", got)
	}
}

func TestGetAndAll(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil, nil)

	if _, err := svc.Get(ctx, "mystery"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey on get, got %v", err)
	}

	if _, err := svc.Set(ctx, "admin-1", setting.KeyOverlayMessage, json.RawMessage(`{"enabled": false, "message": ""}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	st, err := svc.Get(ctx, setting.KeyOverlayMessage)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st.UpdatedBy != "admin-1" {
		t.Fatalf("updated_by %q, want admin-1", st.UpdatedBy)
	}

	all, err := svc.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if _, ok := all[setting.KeyOverlayMessage]; !ok {
		t.Fatalf("overlay message missing from All")
	}
}
