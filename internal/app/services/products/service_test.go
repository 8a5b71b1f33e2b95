package products

import (
	"context"
	"testing"

	"github.com/vestapay/platform/internal/app/domain/product"
	"github.com/vestapay/platform/internal/app/storage/memory"
)

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil)

	cases := []struct {
		name string
		p    product.Product
	}{
		{"missing name", product.Product{Price: 100, ExpectedReturn: 120, DurationDays: 7}},
		{"zero price", product.Product{Name: "x", ExpectedReturn: 120, DurationDays: 7}},
		{"return below price", product.Product{Name: "x", Price: 100, ExpectedReturn: 90, DurationDays: 7}},
		{"zero duration", product.Product{Name: "x", Price: 100, ExpectedReturn: 120}},
		{"negative units", product.Product{Name: "x", Price: 100, ExpectedReturn: 120, DurationDays: 7, TotalUnits: -1}},
	}
	for _, tc := range cases {
		if _, err := svc.Create(ctx, tc.p); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}

	if _, err := svc.Create(ctx, product.Product{Name: "Gold 30", Price: 1000, ExpectedReturn: 1300, DurationDays: 30, Active: true}); err != nil {
		t.Fatalf("valid product rejected: %v", err)
	}
}

func TestUpdateAndList(t *testing.T) {
	ctx := context.Background()
	svc := New(memory.New(), nil)

	created, err := svc.Create(ctx, product.Product{Name: "Gold 30", Price: 1000, ExpectedReturn: 1300, DurationDays: 30, Active: true})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, product.Product{Name: "Retired", Price: 100, ExpectedReturn: 120, DurationDays: 7, Active: false}); err != nil {
		t.Fatalf("create retired: %v", err)
	}

	created.Name = "Gold 45"
	created.DurationDays = 45
	updated, err := svc.Update(ctx, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Gold 45" || updated.DurationDays != 45 {
		t.Fatalf("update not applied: %+v", updated)
	}

	created.ID = ""
	if _, err := svc.Update(ctx, created); err == nil {
		t.Fatalf("expected error for missing id")
	}

	activeOnly, err := svc.List(ctx, true)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(activeOnly) != 1 {
		t.Fatalf("active products %d, want 1", len(activeOnly))
	}
	all, err := svc.List(ctx, false)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all products %d, want 2", len(all))
	}
}
