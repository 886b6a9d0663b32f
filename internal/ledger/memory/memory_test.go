package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fcd/internal/core"
)

func TestAppendAssignsIDAndCreatedAt(t *testing.T) {
	s := New()
	ctx := context.Background()

	first, err := s.AppendEntry(ctx, core.Entry{
		Type:   core.TypeTransfer,
		Status: core.StatusIn,
		Date:   time.Now(),
		USD:    decimal.NewFromInt(100),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if first.ID != 1 || first.CreatedAt.IsZero() {
		t.Fatalf("expected id=1 and created_at set, got %+v", first)
	}

	second, err := s.AppendEntry(ctx, core.Entry{
		Type:   core.TypeTransfer,
		Status: core.StatusOut,
		Date:   time.Now(),
		USD:    decimal.NewFromInt(40),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if second.ID != 2 {
		t.Fatalf("expected id=2, got %d", second.ID)
	}
}

func TestListReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	if _, err := s.AppendEntry(ctx, core.Entry{Type: core.TypeTransfer, Status: core.StatusIn, Date: time.Now(), USD: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("append: %v", err)
	}

	list, err := s.ListEntries(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	list[0].Status = "tampered"

	again, _ := s.ListEntries(ctx)
	if again[0].Status != core.StatusIn {
		t.Fatalf("store mutated through snapshot: %+v", again[0])
	}
}
