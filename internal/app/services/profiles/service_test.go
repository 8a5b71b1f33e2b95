package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/vestapay/platform/internal/app/services/settings"
	"github.com/vestapay/platform/internal/app/storage"
	"github.com/vestapay/platform/internal/app/storage/memory"
)

func newTestService(store *memory.Store) *Service {
	st := settings.New(store, nil, nil)
	return New(store, store, store, store, st, Config{TokenSecret: "test-secret", ReferralReward: 1000}, nil)
}

func TestSignupAndLogin(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(store)

	p, token, err := svc.Signup(ctx, "Alice@Example.com", "hunter2hunter2", "Alice", "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if p.ID == "" || token == "" {
		t.Fatalf("expected id and token")
	}
	if p.Email != "alice@example.com" {
		t.Fatalf("email not normalized: %q", p.Email)
	}
	if len(p.ReferralCode) != 8 {
		t.Fatalf("expected 8-char referral code, got %q", p.ReferralCode)
	}

	if _, err := store.GetWallet(ctx, p.ID); err != nil {
		t.Fatalf("wallet not created: %v", err)
	}

	claims, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Subject != p.ID {
		t.Fatalf("token subject %q, want %q", claims.Subject, p.ID)
	}
	if claims.Admin {
		t.Fatalf("fresh signup must not be admin")
	}

	if _, _, err := svc.Login(ctx, "alice@example.com", "hunter2hunter2"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, _, err := svc.Login(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	activities, err := store.ListActivities(ctx, false)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(activities) != 2 {
		t.Fatalf("expected 2 audit rows for failed logins, got %d", len(activities))
	}
}

func TestSignupValidation(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(store)

	if _, _, err := svc.Signup(ctx, "not-an-email", "hunter2hunter2", "", ""); err == nil {
		t.Fatalf("expected error for bad email")
	}
	if _, _, err := svc.Signup(ctx, "bob@example.com", "short", "", ""); err == nil {
		t.Fatalf("expected error for short password")
	}
	if _, _, err := svc.Signup(ctx, "bob@example.com", "hunter2hunter2", "", "NOSUCHCODE"); err == nil {
		t.Fatalf("expected error for unknown referral code")
	}

	if _, _, err := svc.Signup(ctx, "bob@example.com", "hunter2hunter2", "Bob", ""); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, _, err := svc.Signup(ctx, "bob@example.com", "hunter2hunter2", "Bob Again", ""); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSignupRecordsReferral(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(store)

	referrer, _, err := svc.Signup(ctx, "ref@example.com", "hunter2hunter2", "Referrer", "")
	if err != nil {
		t.Fatalf("signup referrer: %v", err)
	}
	referred, _, err := svc.Signup(ctx, "friend@example.com", "hunter2hunter2", "Friend", referrer.ReferralCode)
	if err != nil {
		t.Fatalf("signup referred: %v", err)
	}
	if referred.ReferredBy != referrer.ID {
		t.Fatalf("referred_by %q, want %q", referred.ReferredBy, referrer.ID)
	}

	ref, err := store.GetPendingReferralByReferred(ctx, referred.ID)
	if err != nil {
		t.Fatalf("pending referral not recorded: %v", err)
	}
	if ref.ReferrerID != referrer.ID || ref.RewardAmount != 1000 {
		t.Fatalf("unexpected referral row: %+v", ref)
	}
}

func TestSignupWelcomeBonus(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	st := settings.New(store, nil, nil)
	svc := New(store, store, store, store, st, Config{TokenSecret: "test-secret"}, nil)

	if _, err := st.Set(ctx, "admin", "welcome_bonus", json.RawMessage(`{"amount": 250}`)); err != nil {
		t.Fatalf("set welcome bonus: %v", err)
	}

	p, _, err := svc.Signup(ctx, "bonus@example.com", "hunter2hunter2", "", "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	w, err := store.GetWallet(ctx, p.ID)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	if w.Balance != 250 {
		t.Fatalf("balance %.2f, want 250", w.Balance)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(store)

	p, _, err := svc.Signup(ctx, "carol@example.com", "hunter2hunter2", "Carol", "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	updated, err := svc.Update(ctx, p.ID, "Caroline", true)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.DisplayName != "Caroline" || !updated.HideBalance {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := svc.Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, p.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestParseTokenRejectsForgery(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := newTestService(store)

	_, token, err := svc.Signup(ctx, "dave@example.com", "hunter2hunter2", "", "")
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	other := New(store, store, store, store, settings.New(store, nil, nil), Config{TokenSecret: "different-secret"}, nil)
	if _, err := other.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken across secrets, got %v", err)
	}
	if _, err := svc.ParseToken("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
