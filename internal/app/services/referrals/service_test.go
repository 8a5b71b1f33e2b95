package referrals

import (
	"context"
	"testing"

	"github.com/vestapay/platform/internal/app/domain/referral"
	"github.com/vestapay/platform/internal/app/domain/wallet"
	"github.com/vestapay/platform/internal/app/storage/memory"
)

func TestStats(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := New(store, nil)

	if _, err := store.CreateWallet(ctx, wallet.Wallet{ProfileID: "referrer"}); err != nil {
		t.Fatalf("create wallet: %v", err)
	}

	first, err := store.CreateReferral(ctx, referral.Referral{ReferrerID: "referrer", ReferredID: "a", RewardAmount: 1000})
	if err != nil {
		t.Fatalf("create referral: %v", err)
	}
	if _, err := store.CreateReferral(ctx, referral.Referral{ReferrerID: "referrer", ReferredID: "b", RewardAmount: 1000}); err != nil {
		t.Fatalf("create referral: %v", err)
	}

	if _, _, err := store.RewardReferral(ctx, first.ID, wallet.Transaction{
		Type: wallet.TypeReferralBonus, Amount: 1000,
	}); err != nil {
		t.Fatalf("reward: %v", err)
	}

	list, err := svc.List(ctx, "referrer")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("referrals %d, want 2", len(list))
	}

	stats, err := svc.Stats(ctx, "referrer")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalReferred != 2 || stats.TotalRewarded != 1 || stats.TotalEarned != 1000 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
