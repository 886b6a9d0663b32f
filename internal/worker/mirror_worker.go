// Package worker mirrors stored entries to the external journal. The
// AMQP stream is the fast path; a periodic sweep over unmirrored rows is
// the backup in case messages are lost.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"fcd/internal/amqp"
	"fcd/internal/core"
	"fcd/internal/ledger"
	"fcd/internal/storage"
)

// mirrorStore is the slice of the SQLite repository the worker needs.
type mirrorStore interface {
	GetEntry(ctx context.Context, id int64) (core.Entry, error)
	ListUnmirrored(ctx context.Context, limit int) ([]storage.UnmirroredEntry, error)
	MarkMirrored(ctx context.Context, id int64) error
	MarkMirrorError(ctx context.Context, id int64) error
}

type MirrorWorker struct {
	store     mirrorStore
	journal   ledger.JournalMirror
	batchSize int
}

func NewMirrorWorker(store mirrorStore, journal ledger.JournalMirror, batchSize int) *MirrorWorker {
	return &MirrorWorker{
		store:     store,
		journal:   journal,
		batchSize: batchSize,
	}
}

// HandleMirrorMessage processes one mirror request from AMQP. Returning
// an error requeues the message.
func (w *MirrorWorker) HandleMirrorMessage(ctx context.Context, msg *amqp.EntryMirrorMessage) error {
	slog.InfoContext(ctx, "Processing mirror message", "id", msg.ID)

	entry, err := w.store.GetEntry(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get entry from storage: %w", err)
	}

	if err := w.mirrorEntry(ctx, entry); err != nil {
		return fmt.Errorf("mirror entry: %w", err)
	}
	return nil
}

// ProcessPending mirrors any entries the stream missed. Safe to call on
// a timer; does nothing when the backlog is empty.
func (w *MirrorWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListUnmirrored(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unmirrored entries: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing unmirrored entries", "count", len(pending))

	for _, p := range pending {
		entry, err := w.store.GetEntry(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get entry", "id", p.ID, "error", err)
			if err := w.store.MarkMirrorError(ctx, p.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark mirror error", "id", p.ID, "error", err)
			}
			continue
		}
		if err := w.mirrorEntry(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror entry", "id", p.ID, "error", err)
			continue
		}
	}

	return nil
}

// StartupCheck drains a larger backlog once at boot to recover from
// worker downtime.
func (w *MirrorWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.store.ListUnmirrored(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list unmirrored entries for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No unmirrored entries found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found unmirrored entries on startup", "count", len(pending))

	mirrored := 0
	failed := 0
	for _, p := range pending {
		entry, err := w.store.GetEntry(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to get entry for startup mirror", "id", p.ID, "error", err)
			failed++
			continue
		}
		if err := w.mirrorEntry(ctx, entry); err != nil {
			slog.ErrorContext(ctx, "Failed to mirror entry during startup", "id", p.ID, "error", err)
			failed++
			continue
		}
		mirrored++
	}

	slog.InfoContext(ctx, "Startup mirror check completed",
		"total", len(pending),
		"mirrored", mirrored,
		"failed", failed)

	return nil
}

func (w *MirrorWorker) mirrorEntry(ctx context.Context, entry core.Entry) error {
	ref, err := w.journal.MirrorEntry(ctx, entry)
	if err != nil {
		if markErr := w.store.MarkMirrorError(ctx, entry.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark mirror error", "id", entry.ID, "error", markErr)
		}
		return fmt.Errorf("append to journal: %w", err)
	}

	if err := w.store.MarkMirrored(ctx, entry.ID); err != nil {
		// The mirror itself worked; only the bookkeeping failed.
		slog.ErrorContext(ctx, "Failed to mark as mirrored", "id", entry.ID, "error", err)
	}

	slog.InfoContext(ctx, "Entry mirrored",
		"id", entry.ID,
		"journal_ref", ref,
		"tx_type", entry.Type)

	return nil
}
