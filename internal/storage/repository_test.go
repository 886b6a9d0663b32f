package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fcd/internal/core"
	"fcd/internal/ledger"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "fcd.db"))
	if err != nil {
		t.Fatalf("open repo: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAppendAndRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	thb := decimal.RequireFromString("3500.25")
	rate := decimal.RequireFromString("35.0025")
	in := core.Entry{
		Type:   core.TypeFX,
		Status: core.StatusIn,
		Date:   time.Date(2025, 3, 1, 10, 30, 0, 0, time.FixedZone("ICT", 7*3600)),
		USD:    decimal.RequireFromString("100.07"),
		THB:    &thb,
		Rate:   &rate,
		Note:   "branch exchange",
	}

	stored, err := repo.AppendEntry(ctx, in)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if stored.ID == 0 || stored.CreatedAt.IsZero() {
		t.Fatalf("expected assigned id and created_at, got %+v", stored)
	}

	list, err := repo.ListEntries(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(list))
	}
	got := list[0]
	if got.Type != core.TypeFX || got.Status != core.StatusIn || got.Note != "branch exchange" {
		t.Fatalf("fields did not round-trip: %+v", got)
	}
	if !got.USD.Equal(in.USD) || got.THB == nil || !got.THB.Equal(thb) || got.Rate == nil || !got.Rate.Equal(rate) {
		t.Fatalf("decimals did not round-trip exactly: %+v", got)
	}
	if !got.Date.Equal(in.Date) {
		t.Fatalf("date did not round-trip: want %v, got %v", in.Date, got.Date)
	}
	if _, off := got.Date.Zone(); off != 7*3600 {
		t.Fatalf("utc offset lost: %v", got.Date)
	}
}

func TestNonFXStoresNullTHBAndRate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AppendEntry(ctx, core.Entry{
		Type:   core.TypeGoldBuy,
		Status: core.StatusOut,
		Date:   time.Now(),
		USD:    decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	list, err := repo.ListEntries(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if list[0].THB != nil || list[0].Rate != nil {
		t.Fatalf("expected nil thb/rate for non-fx row, got %+v", list[0])
	}
}

func TestMirrorQueue(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first, _ := repo.AppendEntry(ctx, core.Entry{Type: core.TypeTransfer, Status: core.StatusIn, Date: time.Now(), USD: decimal.NewFromInt(1)})
	second, _ := repo.AppendEntry(ctx, core.Entry{Type: core.TypeTransfer, Status: core.StatusOut, Date: time.Now(), USD: decimal.NewFromInt(2)})

	pending, err := repo.ListUnmirrored(ctx, 10)
	if err != nil {
		t.Fatalf("list unmirrored: %v", err)
	}
	if len(pending) != 2 || pending[0].ID != first.ID {
		t.Fatalf("expected both entries pending oldest-first, got %+v", pending)
	}

	if err := repo.MarkMirrored(ctx, first.ID); err != nil {
		t.Fatalf("mark mirrored: %v", err)
	}
	if err := repo.MarkMirrorError(ctx, second.ID); err != nil {
		t.Fatalf("mark mirror error: %v", err)
	}

	pending, err = repo.ListUnmirrored(ctx, 10)
	if err != nil {
		t.Fatalf("list unmirrored: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != second.ID {
		t.Fatalf("expected only the failed entry pending, got %+v", pending)
	}
}

func TestListUnmirroredRejectsCorruptCreatedAt(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO entries (tx_type, status, entry_date, usd, note, created_at)
		 VALUES ('TRANSFER', 'IN', '2025-03-01T10:30:00+07:00', '1', '', 'not-a-timestamp')`)
	if err != nil {
		t.Fatalf("seed corrupt row: %v", err)
	}

	if _, err := repo.ListUnmirrored(ctx, 10); !errors.Is(err, ledger.ErrStorage) {
		t.Fatalf("want ErrStorage for corrupt created_at, got %v", err)
	}
}

func TestGetEntry(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	stored, _ := repo.AppendEntry(ctx, core.Entry{Type: core.TypeInterest, Status: core.StatusInterest, Date: time.Now(), USD: decimal.RequireFromString("0.55")})

	got, err := repo.GetEntry(ctx, stored.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != stored.ID || got.Type != core.TypeInterest || !got.USD.Equal(stored.USD) {
		t.Fatalf("get mismatch: %+v", got)
	}
}
