package timeline

import (
	"math"

	"warchest/internal/core"
)

// ProjectionInput carries one currency's inputs to the balance projector.
// All amounts are in the currency's native integer unit.
type ProjectionInput struct {
	Balance           int64
	WeeklyIncome      int64
	GrowthRatePercent float64

	// Expenditures maps week index to the total scheduled spend for that
	// week, already apportioned across multi-week events.
	Expenditures map[int]int64

	Weeks           int
	ProrationFactor float64
}

// Project walks the week sequence combining starting balance, compounded
// weekly income and scheduled expenditures into per-week display rows.
// Week 0's income is scaled by the proration factor; later weeks use the
// full compounded figure. Balances are never clamped: a negative balance is
// a valid, displayed state signaling insufficient funds.
func Project(in ProjectionInput) []WeekDisplayData {
	if in.Weeks <= 0 {
		return nil
	}

	weeks := make([]WeekDisplayData, 0, in.Weeks)
	growth := 1 + in.GrowthRatePercent/100
	prior := in.Balance

	for n := 0; n < in.Weeks; n++ {
		compounded := float64(in.WeeklyIncome) * math.Pow(growth, float64(n))
		if n == 0 {
			compounded *= in.ProrationFactor
		}
		income := int64(math.Round(compounded))

		expenditure := in.Expenditures[n]
		balance := prior + income - expenditure

		weeks = append(weeks, WeekDisplayData{
			PriorBalance: prior,
			Income:       income,
			Expenditure:  expenditure,
			Balance:      balance,
		})
		prior = balance
	}
	return weeks
}

// WeeklyExpenditures flattens the positioned events of one currency into a
// week-indexed spend map. A multi-week event debits amount/span per spanned
// week, with the integer remainder charged on the final week so the total
// debited equals the event amount exactly.
func WeeklyExpenditures(positioned []PositionedEvent, currency core.CurrencyID) map[int]int64 {
	out := make(map[int]int64)
	for _, p := range positioned {
		if p.Event.Currency != currency {
			continue
		}
		span := int64(p.SpanWeeks)
		perWeek := p.Event.Amount / span
		remainder := p.Event.Amount - perWeek*span
		for w := p.StartWeek; w < p.StartWeek+p.SpanWeeks; w++ {
			out[w] += perWeek
			if w == p.StartWeek+p.SpanWeeks-1 {
				out[w] += remainder
			}
		}
	}
	return out
}
