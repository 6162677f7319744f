package core

import (
	"errors"
	"strings"
	"time"
)

const (
	SourceManual  IncomeSource = "manual"
	SourceDerived IncomeSource = "derived"
)

const (
	Lookback3Months Lookback = "3m"
	Lookback6Months Lookback = "6m"
	LookbackAll     Lookback = "all"
)

// GrowthRateMin and GrowthRateMax bound the growth-rate percent a config may
// carry. Values outside the range are clamped at the mutation boundary.
const (
	GrowthRateMin = -100.0
	GrowthRateMax = 1000.0
)

// WeekCounts lists the selectable projection horizons.
var WeekCounts = []int{4, 8, 12, 26, 52}

type (
	// IncomeSource selects between manually entered income figures and
	// figures derived from the run log.
	IncomeSource string

	// Lookback bounds the growth-rate derivation window.
	Lookback string

	// Run is one recorded play session: a timestamp plus a map of named
	// numeric fields. The engine reads only the fields a derivable
	// currency's registry entry names.
	Run struct {
		ID     int64            `json:"id"`
		RunAt  time.Time        `json:"run_at"`
		Fields map[string]int64 `json:"fields"`
	}

	// SpendingEvent is a discrete future expenditure scheduled against a
	// currency. TriggerWeek 0 is the current week. DurationDays 0 means a
	// single-week event; anything longer is spread across ceil(days/7)
	// weeks by the projector.
	SpendingEvent struct {
		ID           int64      `json:"id"`
		Name         string     `json:"name"`
		Currency     CurrencyID `json:"currency"`
		Amount       int64      `json:"amount"`
		TriggerWeek  int        `json:"trigger_week"`
		DurationDays int        `json:"duration_days"`
		Priority     int        `json:"priority"`
	}

	// IncomeConfig holds the per-currency projection inputs. Derived
	// currencies additionally cache the last values the deriver produced.
	IncomeConfig struct {
		Currency          CurrencyID   `json:"currency"`
		Balance           int64        `json:"balance"`
		WeeklyIncome      int64        `json:"weekly_income"`
		GrowthRatePercent float64      `json:"growth_rate_percent"`
		Source            IncomeSource `json:"source"`
		DerivedIncome     int64        `json:"derived_income"`
		DerivedGrowthRate float64      `json:"derived_growth_rate"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidWeek     = errors.New("invalid trigger week")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrEmptyName       = errors.New("empty event name")
	ErrUnknownCurrency = errors.New("unknown currency")
	ErrInvalidBalance  = errors.New("invalid balance")
	ErrInvalidIncome   = errors.New("invalid weekly income")
	ErrInvalidSource   = errors.New("invalid income source")
)

// ValidWeekCount reports whether n is one of the selectable horizons.
func ValidWeekCount(n int) bool {
	for _, w := range WeekCounts {
		if w == n {
			return true
		}
	}
	return false
}

// ValidLookback reports whether l is a recognised lookback window.
func ValidLookback(l Lookback) bool {
	switch l {
	case Lookback3Months, Lookback6Months, LookbackAll:
		return true
	}
	return false
}

// FieldSum returns the sum of the named fields present on the run. Missing
// fields contribute zero.
func (r Run) FieldSum(names []string) int64 {
	var total int64
	for _, n := range names {
		total += r.Fields[n]
	}
	return total
}

func (r Run) Validate() error {
	if r.RunAt.IsZero() {
		return errors.New("run timestamp cannot be zero")
	}
	return nil
}

func (e SpendingEvent) Validate() error {
	if len(strings.TrimSpace(e.Name)) == 0 {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("event name too long (max 200 characters)")
	}
	if _, ok := GetCurrency(e.Currency); !ok {
		return ErrUnknownCurrency
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if e.TriggerWeek < 0 {
		return ErrInvalidWeek
	}
	if e.DurationDays < 0 {
		return ErrInvalidDuration
	}
	return nil
}

// Clamp forces the config into its valid range. Called at the mutation
// boundary so the projection engine can assume pre-validated input.
func (c *IncomeConfig) Clamp() {
	if c.Balance < 0 {
		c.Balance = 0
	}
	if c.WeeklyIncome < 0 {
		c.WeeklyIncome = 0
	}
	if c.GrowthRatePercent < GrowthRateMin {
		c.GrowthRatePercent = GrowthRateMin
	}
	if c.GrowthRatePercent > GrowthRateMax {
		c.GrowthRatePercent = GrowthRateMax
	}
}

func (c IncomeConfig) Validate() error {
	if _, ok := GetCurrency(c.Currency); !ok {
		return ErrUnknownCurrency
	}
	if c.Balance < 0 {
		return ErrInvalidBalance
	}
	if c.WeeklyIncome < 0 {
		return ErrInvalidIncome
	}
	switch c.Source {
	case SourceManual:
	case SourceDerived:
		if !IsDerivable(c.Currency) {
			return ErrInvalidSource
		}
	default:
		return ErrInvalidSource
	}
	return nil
}
