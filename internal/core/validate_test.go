package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateFXComplete(t *testing.T) {
	e, err := Validate(Draft{
		Type:   TypeFX,
		Status: StatusIn,
		Date:   "2025-03-01T10:30:00",
		USD:    dec("100"),
		THB:    decp("3500"),
		Rate:   decp("35"),
		Note:   "  branch exchange  ",
	})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if e.THB == nil || !e.THB.Equal(dec("3500")) || e.Rate == nil || !e.Rate.Equal(dec("35")) {
		t.Fatalf("fx fields not carried: %+v", e)
	}
	if e.Note != "branch exchange" {
		t.Fatalf("note not trimmed: %q", e.Note)
	}
	want := time.Date(2025, 3, 1, 10, 30, 0, 0, time.Local)
	if !e.Date.Equal(want) {
		t.Fatalf("date not canonicalized in local zone: got %v, want %v", e.Date, want)
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name string
		d    Draft
		want error
	}{
		{
			name: "unknown type",
			d:    Draft{Type: "SALARY", Status: StatusIn, Date: "2025-01-01", USD: dec("1")},
			want: ErrInvalidType,
		},
		{
			name: "unclassified status",
			d:    Draft{Type: TypeTransfer, Status: "PENDING", Date: "2025-01-01", USD: dec("1")},
			want: ErrInvalidStatus,
		},
		{
			name: "interest flowing out",
			d:    Draft{Type: TypeInterest, Status: StatusOut, Date: "2025-01-01", USD: dec("1")},
			want: ErrInvalidStatus,
		},
		{
			name: "zero usd",
			d:    Draft{Type: TypeTransfer, Status: StatusIn, Date: "2025-01-01", USD: dec("0")},
			want: ErrNonPositiveUSD,
		},
		{
			// Field shape is reported before the amount when both are wrong.
			name: "fx missing thb and zero usd",
			d:    Draft{Type: TypeFX, Status: StatusIn, Date: "2025-01-01", USD: dec("0"), Rate: decp("35")},
			want: ErrIncompleteFX,
		},
		{
			name: "fx missing thb",
			d:    Draft{Type: TypeFX, Status: StatusIn, Date: "2025-01-01", USD: dec("100"), Rate: decp("35")},
			want: ErrIncompleteFX,
		},
		{
			name: "fx missing rate",
			d:    Draft{Type: TypeFX, Status: StatusIn, Date: "2025-01-01", USD: dec("100"), THB: decp("3500")},
			want: ErrIncompleteFX,
		},
		{
			name: "fx negative rate",
			d:    Draft{Type: TypeFX, Status: StatusIn, Date: "2025-01-01", USD: dec("100"), THB: decp("3500"), Rate: decp("-35")},
			want: ErrIncompleteFX,
		},
		{
			name: "thb on gold buy",
			d:    Draft{Type: TypeGoldBuy, Status: StatusOut, Date: "2025-01-01", USD: dec("100"), THB: decp("10")},
			want: ErrStrayFXFields,
		},
		{
			name: "rate on transfer",
			d:    Draft{Type: TypeTransfer, Status: StatusIn, Date: "2025-01-01", USD: dec("100"), Rate: decp("35")},
			want: ErrStrayFXFields,
		},
		{
			name: "bad timestamp",
			d:    Draft{Type: TypeTransfer, Status: StatusIn, Date: "yesterday-ish", USD: dec("100")},
			want: ErrBadTimestamp,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Validate(tc.d)
			if err == nil {
				t.Fatalf("expected rejection")
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Reason == "" {
				t.Fatalf("expected ValidationError with reason, got %v", err)
			}
		})
	}
}

func TestValidateNormalizesNonFX(t *testing.T) {
	zero := dec("0")
	e, err := Validate(Draft{
		Type:   TypeGoldBuy,
		Status: StatusOut,
		Date:   "2025-02-10 09:15",
		USD:    dec("100"),
		THB:    &zero,
		Rate:   &zero,
	})
	if err != nil {
		t.Fatalf("zero-valued thb/rate must be tolerated, got %v", err)
	}
	if e.THB != nil || e.Rate != nil {
		t.Fatalf("non-fx thb/rate not forced to nil: %+v", e)
	}
}

func TestValidateInterestStatusNormalization(t *testing.T) {
	e, err := Validate(Draft{Type: TypeInterest, Status: StatusIn, Date: "2025-01-01", USD: dec("5")})
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if e.Status != StatusInterest {
		t.Fatalf("INTEREST draft must canonicalize to %q, got %q", StatusInterest, e.Status)
	}
}

func TestParseLocalTimeLayouts(t *testing.T) {
	good := []string{
		"2025-03-01T10:30:00+07:00",
		"2025-03-01T10:30:00",
		"2025-03-01 10:30",
		"2025-03-01",
	}
	for _, s := range good {
		if _, err := ParseLocalTime(s); err != nil {
			t.Fatalf("%q expected to parse: %v", s, err)
		}
	}
	bad := []string{"", "   ", "01/03/2025 10:30pm-ish", "20250301T103000"}
	for _, s := range bad {
		if _, err := ParseLocalTime(s); err == nil {
			t.Fatalf("%q expected to fail", s)
		}
	}
}

func TestFlowOf(t *testing.T) {
	cases := map[string]Flow{
		"IN":       FlowIn,
		"OUT":      FlowOut,
		"Interest": FlowInterest,
		"interest": FlowUnclassified, // raw labels are matched exactly
		"":         FlowUnclassified,
		"PENDING":  FlowUnclassified,
	}
	for raw, want := range cases {
		if got := FlowOf(raw); got != want {
			t.Fatalf("FlowOf(%q): want %v, got %v", raw, want, got)
		}
	}
}
