package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"fcd/internal/core"
)

// Collaborator failures. Adapters wrap these so callers can test with
// errors.Is without knowing the backend.
var (
	// ErrStorage marks connectivity, auth, or constraint failures in the
	// entry store. The core never retries; that policy belongs to the
	// adapter or the caller.
	ErrStorage = errors.New("entry storage failure")

	// ErrNoFields is returned when a slip extraction yields nothing
	// usable. A partial extraction is not an error.
	ErrNoFields = errors.New("no usable fields extracted")
)

// ExtractedFields is a best-effort read of a slip image. Every field is
// individually optional; the validator treats a draft built from these
// exactly like manual input.
type ExtractedFields struct {
	USD  *decimal.Decimal `json:"usd,omitempty"`
	THB  *decimal.Decimal `json:"thb,omitempty"`
	Rate *decimal.Decimal `json:"rate,omitempty"`
	Date *time.Time       `json:"date,omitempty"`
}

// Empty reports whether the extraction produced no usable field at all.
func (f ExtractedFields) Empty() bool {
	return f.USD == nil && f.THB == nil && f.Rate == nil && f.Date == nil
}

// Ports for outbound adapters.
type (
	EntryWriter interface {
		// AppendEntry persists a validated entry, assigning ID and
		// CreatedAt, and returns the stored row.
		AppendEntry(ctx context.Context, e core.Entry) (core.Entry, error)
	}

	EntryLister interface {
		// ListEntries returns the full current entry list. Statistics are
		// recomputed from this snapshot on every read; no aggregate is
		// ever persisted.
		ListEntries(ctx context.Context) ([]core.Entry, error)
	}

	// SlipExtractor reads numeric and date fields off a slip image.
	SlipExtractor interface {
		Extract(ctx context.Context, image []byte) (ExtractedFields, error)
	}

	// JournalMirror appends committed entries to an external journal.
	JournalMirror interface {
		MirrorEntry(ctx context.Context, e core.Entry) (rowRef string, err error)
	}
)
