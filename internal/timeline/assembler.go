package timeline

import (
	"time"

	"warchest/internal/core"
)

// Assemble computes the full timeline for one snapshot: the week-date
// sequence anchored on the Sunday of the current week, every enabled
// currency's balance projection, the shared event-row grid and the list of
// unaffordable events. The same snapshot always produces the same result.
func Assemble(snap Snapshot) TimelineData {
	if snap.Weeks <= 0 || len(snap.Configs) == 0 {
		return TimelineData{}
	}

	start := WeekStart(snap.Now)
	dates := make([]time.Time, snap.Weeks)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, 7*i)
	}
	factor := CurrentWeekProrationFactor(snap.Now)

	ids := make([]core.CurrencyID, 0, len(snap.Configs))
	cfgByID := make(map[core.CurrencyID]core.IncomeConfig, len(snap.Configs))
	for _, cfg := range snap.Configs {
		ids = append(ids, cfg.Currency)
		cfgByID[cfg.Currency] = cfg
	}
	enabled := core.EnabledInOrder(ids)

	// Events beyond the horizon or for disabled currencies never reach the
	// positioner.
	visible := make([]core.SpendingEvent, 0, len(snap.Events))
	for _, e := range snap.Events {
		if e.TriggerWeek < 0 || e.TriggerWeek >= snap.Weeks {
			continue
		}
		if _, ok := cfgByID[e.Currency]; !ok {
			continue
		}
		visible = append(visible, e)
	}
	positioned := Position(visible, snap.Weeks)

	currencies := make([]CurrencyTimeline, 0, len(enabled))
	byCurrency := make(map[core.CurrencyID][]WeekDisplayData, len(enabled))
	for _, cur := range enabled {
		cfg := cfgByID[cur.ID]

		income := cfg.WeeklyIncome
		growth := cfg.GrowthRatePercent
		if cfg.Source == core.SourceDerived && cur.Derivable {
			inc, gr := DeriveValues(snap.Runs, cur.ID, snap.Lookback, snap.Now)
			income = inc.WeeklyIncome
			growth = gr.GrowthRatePercent
		}

		weeks := Project(ProjectionInput{
			Balance:           cfg.Balance,
			WeeklyIncome:      income,
			GrowthRatePercent: growth,
			Expenditures:      WeeklyExpenditures(positioned, cur.ID),
			Weeks:             snap.Weeks,
			ProrationFactor:   factor,
		})
		currencies = append(currencies, CurrencyTimeline{Currency: cur.ID, Weeks: weeks})
		byCurrency[cur.ID] = weeks
	}

	var unaffordable []UnaffordableEvent
	for _, p := range positioned {
		weeks := byCurrency[p.Event.Currency]
		if weeks == nil {
			continue
		}
		if neverRecovers(weeks, p.StartWeek) {
			unaffordable = append(unaffordable, UnaffordableEvent{
				Event:     p.Event,
				Week:      p.StartWeek,
				Shortfall: -weeks[p.StartWeek].Balance,
			})
		}
	}

	return TimelineData{
		WeekDates:    dates,
		Currencies:   currencies,
		Events:       positioned,
		Unaffordable: unaffordable,
	}
}

// neverRecovers reports whether the balance is negative at week w and stays
// negative through the end of the horizon.
func neverRecovers(weeks []WeekDisplayData, w int) bool {
	if weeks[w].Balance >= 0 {
		return false
	}
	for i := w + 1; i < len(weeks); i++ {
		if weeks[i].Balance >= 0 {
			return false
		}
	}
	return true
}
