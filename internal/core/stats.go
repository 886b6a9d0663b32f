// Package core holds the FCD entry model, the draft validator, and the
// derived-statistics engine. Everything here is pure: no I/O, no clocks
// beyond what callers pass in, no mutation of inputs.
package core

import "github.com/shopspring/decimal"

// Stats is the full derived summary over an entry list. All monetary
// fields are exact decimals; rounding to display precision is up to the
// presentation layer.
type Stats struct {
	TotalIn    decimal.Decimal `json:"total_in"`
	TotalOut   decimal.Decimal `json:"total_out"`
	CashRemain decimal.Decimal `json:"cash_remain"`

	GoldSellTotal decimal.Decimal `json:"gold_sell_total"`
	GoldBuyTotal  decimal.Decimal `json:"gold_buy_total"`
	GoldProfit    decimal.Decimal `json:"gold_profit"`

	InterestIncome decimal.Decimal `json:"interest_income"`

	TotalTHB        decimal.Decimal `json:"total_thb"`
	WeightedAvgRate decimal.Decimal `json:"weighted_avg_rate"`
	TotalValueTHB   decimal.Decimal `json:"total_value_thb"`
	TotalValueUSD   decimal.Decimal `json:"total_value_usd"`

	TotalEntries  int `json:"total_entries"`
	ActiveEntries int `json:"active_entries"`
}

// Compute derives the full summary from an unordered entry list in a
// single pass. It is total over any well-formed input: an empty list
// yields all zeros and no division is ever performed on a zero weight.
// Input order never affects the result.
func Compute(entries []Entry) Stats {
	s := Stats{TotalEntries: len(entries)}

	var rateWeight, rateSum decimal.Decimal // W = Σ usd, R = Σ usd×rate over rated entries

	for _, e := range entries {
		switch e.Flow() {
		case FlowIn:
			s.TotalIn = s.TotalIn.Add(e.USD)
			s.ActiveEntries++
		case FlowInterest:
			s.TotalIn = s.TotalIn.Add(e.USD)
			s.InterestIncome = s.InterestIncome.Add(e.USD)
			s.ActiveEntries++
		case FlowOut:
			s.TotalOut = s.TotalOut.Add(e.USD)
		}
		// FlowUnclassified rows are excluded from both sums; new writes
		// can't produce them but historical data may.

		switch e.Type {
		case TypeGoldSell:
			s.GoldSellTotal = s.GoldSellTotal.Add(e.USD.Abs())
		case TypeGoldBuy:
			s.GoldBuyTotal = s.GoldBuyTotal.Add(e.USD.Abs())
		}

		if e.THB != nil {
			s.TotalTHB = s.TotalTHB.Add(*e.THB)
		}
		if e.Rate != nil && e.Rate.IsPositive() {
			rateWeight = rateWeight.Add(e.USD)
			rateSum = rateSum.Add(e.USD.Mul(*e.Rate))
		}
	}

	s.CashRemain = s.TotalIn.Sub(s.TotalOut)
	s.GoldProfit = s.GoldSellTotal.Sub(s.GoldBuyTotal)

	if rateWeight.IsPositive() {
		s.WeightedAvgRate = rateSum.Div(rateWeight)
	}

	s.TotalValueTHB = s.TotalTHB.Add(s.CashRemain.Mul(s.WeightedAvgRate))
	s.TotalValueUSD = s.CashRemain
	if s.WeightedAvgRate.IsPositive() {
		s.TotalValueUSD = s.CashRemain.Add(s.TotalTHB.Div(s.WeightedAvgRate))
	}

	return s
}
