package payments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/vestapay/platform/internal/app/domain/referral"
	"github.com/vestapay/platform/internal/app/domain/security"
	"github.com/vestapay/platform/internal/app/domain/wallet"
	"github.com/vestapay/platform/internal/app/services/settings"
	"github.com/vestapay/platform/internal/app/storage"
	"github.com/vestapay/platform/internal/app/storage/memory"
)

func newTestService(store *memory.Store, alertThreshold float64) (*Service, *settings.Service) {
	st := settings.New(store, nil, nil)
	return New(store, store, store, st, alertThreshold, nil), st
}

func newWallet(t *testing.T, store *memory.Store, profileID string, balance float64) {
	t.Helper()
	if _, err := store.CreateWallet(context.Background(), wallet.Wallet{ProfileID: profileID}); err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	if balance > 0 {
		_, _, err := store.ApplyWalletDelta(context.Background(), profileID, wallet.Delta{Balance: balance}, wallet.Transaction{
			Type: wallet.TypeDeposit, Amount: balance,
		})
		if err != nil {
			t.Fatalf("fund wallet: %v", err)
		}
	}
}

func TestDepositLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, 0)
	newWallet(t, store, "user-1", 0)

	d, err := svc.CreateDeposit(ctx, "user-1", 3000, "mobile_money", "MM-123")
	if err != nil {
		t.Fatalf("create deposit: %v", err)
	}
	if d.Status != "pending" {
		t.Fatalf("status %q, want pending", d.Status)
	}

	// Submission must not touch the wallet.
	w, _ := store.GetWallet(ctx, "user-1")
	if w.Balance != 0 {
		t.Fatalf("balance %.2f before approval, want 0", w.Balance)
	}

	approved, err := svc.ApproveDeposit(ctx, "admin-1", d.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != "approved" || approved.ReviewedBy != "admin-1" {
		t.Fatalf("unexpected deposit after approval: %+v", approved)
	}
	w, _ = store.GetWallet(ctx, "user-1")
	if w.Balance != 3000 {
		t.Fatalf("balance %.2f after approval, want 3000", w.Balance)
	}

	// A second approval of the same deposit must fail and not pay again.
	if _, err := svc.ApproveDeposit(ctx, "admin-1", d.ID); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict on repeat approval, got %v", err)
	}
	w, _ = store.GetWallet(ctx, "user-1")
	if w.Balance != 3000 {
		t.Fatalf("balance changed on repeat approval: %.2f", w.Balance)
	}
}

func TestRejectDepositLeavesWalletAlone(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, 0)
	newWallet(t, store, "user-1", 0)

	d, err := svc.CreateDeposit(ctx, "user-1", 500, "mobile_money", "")
	if err != nil {
		t.Fatalf("create deposit: %v", err)
	}
	rejected, err := svc.RejectDeposit(ctx, "admin-1", d.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.Status != "rejected" {
		t.Fatalf("status %q, want rejected", rejected.Status)
	}
	w, _ := store.GetWallet(ctx, "user-1")
	if w.Balance != 0 {
		t.Fatalf("balance %.2f, want 0", w.Balance)
	}
	if _, err := svc.ApproveDeposit(ctx, "admin-1", d.ID); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict approving a rejected deposit, got %v", err)
	}
}

func TestFirstApprovedDepositRewardsReferrerOnce(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, 0)
	newWallet(t, store, "referrer", 0)
	newWallet(t, store, "referred", 0)

	if _, err := store.CreateReferral(ctx, referral.Referral{
		ReferrerID:   "referrer",
		ReferredID:   "referred",
		RewardAmount: 1000,
	}); err != nil {
		t.Fatalf("create referral: %v", err)
	}

	first, err := svc.CreateDeposit(ctx, "referred", 2000, "mobile_money", "")
	if err != nil {
		t.Fatalf("create deposit: %v", err)
	}
	if _, err := svc.ApproveDeposit(ctx, "admin-1", first.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	w, _ := store.GetWallet(ctx, "referrer")
	if w.Balance != 1000 {
		t.Fatalf("referrer balance %.2f, want 1000", w.Balance)
	}

	second, err := svc.CreateDeposit(ctx, "referred", 2000, "mobile_money", "")
	if err != nil {
		t.Fatalf("second deposit: %v", err)
	}
	if _, err := svc.ApproveDeposit(ctx, "admin-1", second.ID); err != nil {
		t.Fatalf("approve second: %v", err)
	}
	w, _ = store.GetWallet(ctx, "referrer")
	if w.Balance != 1000 {
		t.Fatalf("referrer paid twice: %.2f", w.Balance)
	}
}

func TestWithdrawalLifecycle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, 0)
	newWallet(t, store, "user-1", 5000)

	wd, w, err := svc.CreateWithdrawal(ctx, "user-1", 2000, "0788000001")
	if err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}
	if wd.Status != "pending" {
		t.Fatalf("status %q, want pending", wd.Status)
	}
	if w.Balance != 3000 {
		t.Fatalf("hold not taken: balance %.2f, want 3000", w.Balance)
	}

	// Approval pays out the hold; the balance does not move again.
	if _, err := svc.ApproveWithdrawal(ctx, "admin-1", wd.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	got, _ := store.GetWallet(ctx, "user-1")
	if got.Balance != 3000 {
		t.Fatalf("balance %.2f after approval, want 3000", got.Balance)
	}
}

func TestRejectWithdrawalRefundsHold(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, 0)
	newWallet(t, store, "user-1", 5000)

	wd, _, err := svc.CreateWithdrawal(ctx, "user-1", 2000, "0788000001")
	if err != nil {
		t.Fatalf("create withdrawal: %v", err)
	}
	_, w, err := svc.RejectWithdrawal(ctx, "admin-1", wd.ID)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if w.Balance != 5000 {
		t.Fatalf("balance %.2f after refund, want 5000", w.Balance)
	}

	// The store guard blocks a second resolution.
	if _, _, err := svc.RejectWithdrawal(ctx, "admin-1", wd.ID); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict on repeat rejection, got %v", err)
	}
	w, _ = store.GetWallet(ctx, "user-1")
	if w.Balance != 5000 {
		t.Fatalf("balance changed on repeat rejection: %.2f", w.Balance)
	}
}

func TestWithdrawalInsufficientBalance(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, 0)
	newWallet(t, store, "user-1", 100)

	if _, _, err := svc.CreateWithdrawal(ctx, "user-1", 500, "0788000001"); !errors.Is(err, storage.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if list, _ := svc.ListWithdrawals(ctx, "user-1", false); len(list) != 0 {
		t.Fatalf("withdrawal row recorded despite failed hold: %d", len(list))
	}
}

func TestFrozenFlagsBlockSubmissions(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, st := newTestService(store, 0)
	newWallet(t, store, "user-1", 5000)

	if _, err := st.Set(ctx, "admin-1", "deposits_frozen", json.RawMessage(`{"frozen": true}`)); err != nil {
		t.Fatalf("freeze deposits: %v", err)
	}
	if _, err := st.Set(ctx, "admin-1", "withdrawals_frozen", json.RawMessage(`{"frozen": true}`)); err != nil {
		t.Fatalf("freeze withdrawals: %v", err)
	}

	if _, err := svc.CreateDeposit(ctx, "user-1", 100, "mobile_money", ""); !errors.Is(err, ErrDepositsFrozen) {
		t.Fatalf("expected ErrDepositsFrozen, got %v", err)
	}
	if _, _, err := svc.CreateWithdrawal(ctx, "user-1", 100, "0788000001"); !errors.Is(err, ErrWithdrawalsFrozen) {
		t.Fatalf("expected ErrWithdrawalsFrozen, got %v", err)
	}
}

func TestLargeWithdrawalFlagged(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(store, 1000)
	newWallet(t, store, "user-1", 5000)

	if _, _, err := svc.CreateWithdrawal(ctx, "user-1", 500, "0788000001"); err != nil {
		t.Fatalf("small withdrawal: %v", err)
	}
	if _, _, err := svc.CreateWithdrawal(ctx, "user-1", 1500, "0788000001"); err != nil {
		t.Fatalf("large withdrawal: %v", err)
	}

	acts, err := store.ListActivities(ctx, false)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(acts) != 1 {
		t.Fatalf("expected 1 flagged withdrawal, got %d", len(acts))
	}
	if acts[0].Kind != security.KindLargeWithdrawal || acts[0].Severity != security.SeverityHigh {
		t.Fatalf("unexpected activity: %+v", acts[0])
	}
}
