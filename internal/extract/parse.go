package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fcd/internal/ledger"
)

var (
	amountPat = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)
	usdPat    = regexp.MustCompile(`(?i)\b(usd|us\$)\b|\$`)
	thbPat    = regexp.MustCompile(`(?i)\b(thb|baht)\b|฿`)
	ratePat   = regexp.MustCompile(`(?i)\brate\b|@`)
	isoPat    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	slashPat  = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`)
)

// ParseSlipText scans OCR output line by line for labeled amounts and a
// date. A line carries at most one field: the first label found wins, and
// the first amount on the line is taken as its value. Every field is
// optional; whatever is missing stays nil for the caller to fill in.
func ParseSlipText(text string, now time.Time) ledger.ExtractedFields {
	var fields ledger.ExtractedFields

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case fields.Rate == nil && ratePat.MatchString(line):
			fields.Rate = amountOn(line)
		case fields.USD == nil && usdPat.MatchString(line):
			fields.USD = amountOn(line)
		case fields.THB == nil && thbPat.MatchString(line):
			fields.THB = amountOn(line)
		}

		if fields.Date == nil {
			if raw := dateCandidate(line); raw != "" {
				if d, ok := parseSlipDate(raw); ok {
					fields.Date = &d
				}
			}
		}
	}

	// A slip that yielded amounts but no readable date defaults to now;
	// the caller gets an editable date field either way. An extraction
	// with no amounts stays empty so it can be rejected outright.
	if fields.Date == nil && !fields.Empty() {
		d := now
		fields.Date = &d
	}

	return fields
}

// ParseSlipDate canonicalizes a loosely formatted extracted date string
// into a local timestamp, defaulting to now when absent or unparseable.
func ParseSlipDate(raw string, now time.Time) time.Time {
	if d, ok := parseSlipDate(raw); ok {
		return d
	}
	return now
}

func amountOn(line string) *decimal.Decimal {
	raw := amountPat.FindString(line)
	if raw == "" {
		return nil
	}
	raw = strings.ReplaceAll(raw, ",", "")
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return nil
	}
	return &d
}

func dateCandidate(line string) string {
	if m := isoPat.FindString(line); m != "" {
		return m
	}
	return slashPat.FindString(line)
}

// Accepted slip date layouts; slips in the wild put the day first.
var slipLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"2/1/06",
}

func parseSlipDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range slipLayouts {
		if d, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return d, true
		}
	}
	return time.Time{}, false
}
