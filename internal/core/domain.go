package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	TypeFX       TransactionType = "FX"
	TypeGoldBuy  TransactionType = "GOLD_BUY"
	TypeGoldSell TransactionType = "GOLD_SELL"
	TypeInterest TransactionType = "INTEREST"
	TypeTransfer TransactionType = "TRANSFER"
)

// Raw status labels as stored. Only these three carry meaning; anything
// else is FlowUnclassified.
const (
	StatusIn       = "IN"
	StatusOut      = "OUT"
	StatusInterest = "Interest"
)

type (
	TransactionType string

	// Flow is the closed classification of a raw status label. The stats
	// engine only ever looks at Flow, never at the raw string.
	Flow int

	// Entry is a persisted FCD transaction. Immutable once stored: the
	// engine reads it, nothing mutates it.
	Entry struct {
		ID     int64           `json:"id"`
		Type   TransactionType `json:"tx_type"`
		Status string          `json:"status"`
		Date   time.Time       `json:"date"`
		// USD is always stored positive; direction is implied by Status.
		USD decimal.Decimal `json:"usd"`
		// THB and Rate are set for FX entries only and nil otherwise.
		THB       *decimal.Decimal `json:"thb,omitempty"`
		Rate      *decimal.Decimal `json:"rate,omitempty"`
		Note      string           `json:"note,omitempty"`
		CreatedAt time.Time        `json:"created_at"`
	}
)

const (
	FlowUnclassified Flow = iota
	FlowIn
	FlowOut
	FlowInterest
)

var (
	ErrInvalidType    = errors.New("unknown transaction type")
	ErrInvalidStatus  = errors.New("status must be IN, OUT or Interest")
	ErrNonPositiveUSD = errors.New("usd amount must be positive")
	ErrIncompleteFX   = errors.New("fx entry requires positive thb and rate")
	ErrStrayFXFields  = errors.New("thb and rate are only valid on fx entries")
	ErrBadTimestamp   = errors.New("timestamp does not parse")
)

// Valid reports whether t is one of the closed set of transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeFX, TypeGoldBuy, TypeGoldSell, TypeInterest, TypeTransfer:
		return true
	}
	return false
}

// FlowOf classifies a raw status label.
func FlowOf(status string) Flow {
	switch status {
	case StatusIn:
		return FlowIn
	case StatusOut:
		return FlowOut
	case StatusInterest:
		return FlowInterest
	}
	return FlowUnclassified
}

// Flow returns the classification of the entry's stored status.
func (e Entry) Flow() Flow {
	return FlowOf(e.Status)
}

func (f Flow) String() string {
	switch f {
	case FlowIn:
		return "in"
	case FlowOut:
		return "out"
	case FlowInterest:
		return "interest"
	}
	return "unclassified"
}
