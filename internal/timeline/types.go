// Package timeline implements the projection engine: event row positioning,
// current-week proration, per-week balance projection, historical income and
// growth derivation, and the assembler that combines them into one snapshot
// result. Every function here is pure; callers pass an immutable snapshot and
// get a fresh result back.
package timeline

import (
	"time"

	"warchest/internal/core"
)

type (
	// PositionedEvent is a spending event placed on the week grid. Events
	// whose week ranges overlap never share a row.
	PositionedEvent struct {
		Event     core.SpendingEvent `json:"event"`
		StartWeek int                `json:"start_week"`
		SpanWeeks int                `json:"span_weeks"`
		Row       int                `json:"row"`
	}

	// WeekDisplayData is one week of a currency's projection. For every
	// week, Balance = PriorBalance + Income - Expenditure holds exactly,
	// and PriorBalance chains from the previous week's Balance.
	WeekDisplayData struct {
		PriorBalance int64 `json:"prior_balance"`
		Income       int64 `json:"income"`
		Expenditure  int64 `json:"expenditure"`
		Balance      int64 `json:"balance"`
	}

	// DerivedIncomeResult is the 7-day rolling income extrapolated to a
	// weekly figure. DaysOfData counts distinct calendar days with at
	// least one run, not the run count.
	DerivedIncomeResult struct {
		WeeklyIncome      int64 `json:"weekly_income"`
		HasSufficientData bool  `json:"has_sufficient_data"`
		DaysOfData        int   `json:"days_of_data"`
		RunsAnalyzed      int   `json:"runs_analyzed"`
	}

	// DerivedGrowthRateResult is the regression-based weekly growth rate
	// over the requested lookback window.
	DerivedGrowthRateResult struct {
		GrowthRatePercent float64 `json:"growth_rate_percent"`
		HasSufficientData bool    `json:"has_sufficient_data"`
		WeeksOfData       int     `json:"weeks_of_data"`
	}

	// CurrencyTimeline is one currency's full projection across the
	// horizon.
	CurrencyTimeline struct {
		Currency core.CurrencyID   `json:"currency"`
		Weeks    []WeekDisplayData `json:"weeks"`
	}

	// UnaffordableEvent marks a scheduled event whose currency balance is
	// negative at the trigger week and never recovers within the horizon.
	UnaffordableEvent struct {
		Event     core.SpendingEvent `json:"event"`
		Week      int                `json:"week"`
		Shortfall int64              `json:"shortfall"`
	}

	// Snapshot is the full input to one timeline computation.
	Snapshot struct {
		Now      time.Time
		Weeks    int
		Lookback core.Lookback
		Configs  []core.IncomeConfig
		Events   []core.SpendingEvent
		Runs     []core.Run
	}

	// TimelineData is the assembled output consumed by presentation.
	// Presentation performs no further balance arithmetic, only
	// formatting.
	TimelineData struct {
		WeekDates    []time.Time         `json:"week_dates"`
		Currencies   []CurrencyTimeline  `json:"currencies"`
		Events       []PositionedEvent   `json:"events"`
		Unaffordable []UnaffordableEvent `json:"unaffordable"`
	}
)
