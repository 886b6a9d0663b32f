package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Draft is an entry as it arrives from a form or an OCR extraction, before
// it has been accepted for persistence. Date is the raw local-time string
// supplied by the caller; Validate canonicalizes it.
type Draft struct {
	Type   TransactionType  `json:"tx_type"`
	Status string           `json:"status"`
	Date   string           `json:"date"`
	USD    decimal.Decimal  `json:"usd"`
	THB    *decimal.Decimal `json:"thb,omitempty"`
	Rate   *decimal.Decimal `json:"rate,omitempty"`
	Note   string           `json:"note,omitempty"`
}

// ValidationError is a rejection with a caller-facing reason. It wraps one
// of the sentinel errors in domain.go so callers can test with errors.Is.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return e.Err }

func reject(err error, format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// Accepted local-time layouts for drafts, tried in order. Layouts without
// an offset are interpreted in the server's local zone.
var draftLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Validate turns a draft into a canonical Entry or rejects it with a
// *ValidationError. Pure transform: it never touches storage, and the
// returned Entry carries copies of the draft's decimal fields.
//
// Rules, in order: the type must be known and the status classifiable;
// FX entries need positive usd, thb and rate; everything else needs a
// positive usd and must not carry thb or rate; non-FX thb/rate are forced
// to nil regardless of what the draft held; the timestamp must parse and
// comes back with an explicit UTC offset.
func Validate(d Draft) (Entry, error) {
	if !d.Type.Valid() {
		return Entry{}, reject(ErrInvalidType, "unknown transaction type %q", string(d.Type))
	}

	status := strings.TrimSpace(d.Status)
	if d.Type == TypeInterest {
		// Interest is canonically its own status; an INTEREST draft that
		// says IN is normalized, anything else is rejected.
		switch FlowOf(status) {
		case FlowIn, FlowInterest:
			status = StatusInterest
		default:
			return Entry{}, reject(ErrInvalidStatus, "interest entries must flow in, got %q", d.Status)
		}
	} else {
		switch FlowOf(status) {
		case FlowIn, FlowOut:
			// ok
		default:
			return Entry{}, reject(ErrInvalidStatus, "status %q is not IN or OUT", d.Status)
		}
	}

	// Currency-field shape is checked before the usd amount so an FX
	// draft that is wrong on both counts reports the FX problem.
	var thb, rate *decimal.Decimal
	if d.Type == TypeFX {
		if d.THB == nil || !d.THB.IsPositive() {
			return Entry{}, reject(ErrIncompleteFX, "fx entry requires thb > 0")
		}
		if d.Rate == nil || !d.Rate.IsPositive() {
			return Entry{}, reject(ErrIncompleteFX, "fx entry requires rate > 0")
		}
		t, r := *d.THB, *d.Rate
		thb, rate = &t, &r
	} else {
		if d.THB != nil && !d.THB.IsZero() {
			return Entry{}, reject(ErrStrayFXFields, "thb is not valid for %s entries", d.Type)
		}
		if d.Rate != nil && !d.Rate.IsZero() {
			return Entry{}, reject(ErrStrayFXFields, "rate is not valid for %s entries", d.Type)
		}
		// Zero-valued thb/rate from stale form state are dropped here.
	}

	if !d.USD.IsPositive() {
		return Entry{}, reject(ErrNonPositiveUSD, "usd must be > 0, got %s", d.USD)
	}

	date, err := ParseLocalTime(d.Date)
	if err != nil {
		return Entry{}, reject(ErrBadTimestamp, "cannot parse timestamp %q", d.Date)
	}

	return Entry{
		Type:   d.Type,
		Status: status,
		Date:   date,
		USD:    d.USD,
		THB:    thb,
		Rate:   rate,
		Note:   strings.TrimSpace(d.Note),
	}, nil
}

// ParseLocalTime parses a draft timestamp into a time carrying an explicit
// UTC offset. Offset-less layouts are taken in the local zone.
func ParseLocalTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrBadTimestamp
	}
	for _, layout := range draftLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrBadTimestamp
}
