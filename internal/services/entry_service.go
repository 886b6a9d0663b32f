// Package services orchestrates entry writes across storage and the
// mirror queue.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"fcd/internal/core"
)

type (
	// entryStore is the slice of the storage collaborator the service
	// needs for writes.
	entryStore interface {
		AppendEntry(ctx context.Context, e core.Entry) (core.Entry, error)
	}

	// MirrorPublisher queues a stored entry for journal mirroring.
	// Exported so callers can hold a nil publisher when no journal is
	// configured.
	MirrorPublisher interface {
		PublishEntryMirror(ctx context.Context, id int64) error
	}
)

// EntryService accepts drafts: validate, persist locally, then queue the
// mirror. The local write is the commit point; a failed publish only
// delays the mirror until the worker's periodic sweep.
type EntryService struct {
	store     entryStore
	publisher MirrorPublisher
}

func NewEntryService(store entryStore, publisher MirrorPublisher) *EntryService {
	return &EntryService{
		store:     store,
		publisher: publisher,
	}
}

// Create validates the draft and persists the canonical entry. A
// *core.ValidationError comes back verbatim for the caller to surface;
// nothing is committed on rejection.
func (s *EntryService) Create(ctx context.Context, d core.Draft) (core.Entry, error) {
	entry, err := core.Validate(d)
	if err != nil {
		return core.Entry{}, err
	}

	stored, err := s.store.AppendEntry(ctx, entry)
	if err != nil {
		return core.Entry{}, fmt.Errorf("append entry: %w", err)
	}

	if s.publisher == nil {
		slog.DebugContext(ctx, "Mirror publisher not configured, skipping", "id", stored.ID)
		return stored, nil
	}
	if err := s.publisher.PublishEntryMirror(ctx, stored.ID); err != nil {
		// The entry is saved; the sweep will mirror it later.
		slog.ErrorContext(ctx, "Failed to publish mirror message", "id", stored.ID, "error", err)
	}

	return stored, nil
}
