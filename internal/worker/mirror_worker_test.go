package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"fcd/internal/amqp"
	"fcd/internal/core"
	"fcd/internal/storage"
)

type fakeMirrorStore struct {
	entries      map[int64]core.Entry
	unmirrored   []int64
	mirrored     []int64
	mirrorErrors []int64
}

func (f *fakeMirrorStore) GetEntry(_ context.Context, id int64) (core.Entry, error) {
	e, ok := f.entries[id]
	if !ok {
		return core.Entry{}, errors.New("not found")
	}
	return e, nil
}

func (f *fakeMirrorStore) ListUnmirrored(_ context.Context, limit int) ([]storage.UnmirroredEntry, error) {
	out := make([]storage.UnmirroredEntry, 0, len(f.unmirrored))
	for _, id := range f.unmirrored {
		if len(out) == limit {
			break
		}
		out = append(out, storage.UnmirroredEntry{ID: id})
	}
	return out, nil
}

func (f *fakeMirrorStore) MarkMirrored(_ context.Context, id int64) error {
	f.mirrored = append(f.mirrored, id)
	return nil
}

func (f *fakeMirrorStore) MarkMirrorError(_ context.Context, id int64) error {
	f.mirrorErrors = append(f.mirrorErrors, id)
	return nil
}

type fakeJournal struct {
	rows []int64
	err  error
}

func (f *fakeJournal) MirrorEntry(_ context.Context, e core.Entry) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.rows = append(f.rows, e.ID)
	return "Journal!A2:H2", nil
}

func testEntry(id int64) core.Entry {
	return core.Entry{ID: id, Type: core.TypeTransfer, Status: core.StatusIn, USD: decimal.NewFromInt(10)}
}

func TestHandleMirrorMessage(t *testing.T) {
	store := &fakeMirrorStore{entries: map[int64]core.Entry{7: testEntry(7)}}
	journal := &fakeJournal{}
	w := NewMirrorWorker(store, journal, 10)

	if err := w.HandleMirrorMessage(context.Background(), amqp.NewEntryMirrorMessage(7)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(journal.rows) != 1 || journal.rows[0] != 7 {
		t.Fatalf("journal rows: %v", journal.rows)
	}
	if len(store.mirrored) != 1 || store.mirrored[0] != 7 {
		t.Fatalf("mirrored marks: %v", store.mirrored)
	}
}

func TestHandleMirrorMessageJournalFailureRequeues(t *testing.T) {
	store := &fakeMirrorStore{entries: map[int64]core.Entry{7: testEntry(7)}}
	journal := &fakeJournal{err: errors.New("quota")}
	w := NewMirrorWorker(store, journal, 10)

	if err := w.HandleMirrorMessage(context.Background(), amqp.NewEntryMirrorMessage(7)); err == nil {
		t.Fatalf("expected error so the message requeues")
	}
	if len(store.mirrorErrors) != 1 || store.mirrorErrors[0] != 7 {
		t.Fatalf("expected mirror error mark, got %v", store.mirrorErrors)
	}
}

func TestProcessPendingDrainsBacklog(t *testing.T) {
	store := &fakeMirrorStore{
		entries:    map[int64]core.Entry{1: testEntry(1), 2: testEntry(2)},
		unmirrored: []int64{1, 2},
	}
	journal := &fakeJournal{}
	w := NewMirrorWorker(store, journal, 10)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(journal.rows) != 2 {
		t.Fatalf("expected both entries mirrored, got %v", journal.rows)
	}
}

func TestProcessPendingRespectsBatchSize(t *testing.T) {
	store := &fakeMirrorStore{
		entries:    map[int64]core.Entry{1: testEntry(1), 2: testEntry(2), 3: testEntry(3)},
		unmirrored: []int64{1, 2, 3},
	}
	w := NewMirrorWorker(store, &fakeJournal{}, 2)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}
	if len(store.mirrored) != 2 {
		t.Fatalf("expected batch of 2, got %v", store.mirrored)
	}
}

func TestStartupCheckContinuesPastFailures(t *testing.T) {
	store := &fakeMirrorStore{
		entries:    map[int64]core.Entry{2: testEntry(2)}, // id 1 missing
		unmirrored: []int64{1, 2},
	}
	journal := &fakeJournal{}
	w := NewMirrorWorker(store, journal, 10)

	if err := w.StartupCheck(context.Background()); err != nil {
		t.Fatalf("startup check: %v", err)
	}
	if len(journal.rows) != 1 || journal.rows[0] != 2 {
		t.Fatalf("expected the readable entry mirrored, got %v", journal.rows)
	}
}
