package timeline

import (
	"math"
	"testing"
	"time"

	"warchest/internal/core"
)

func runAt(y int, m time.Month, d int, fields map[string]int64) core.Run {
	return core.Run{RunAt: time.Date(y, m, d, 10, 0, 0, 0, time.UTC), Fields: fields}
}

func TestDeriveIncomeFullWeek(t *testing.T) {
	ref := time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)
	var runs []core.Run
	for d := 2; d <= 8; d++ {
		runs = append(runs, runAt(2025, 6, d, map[string]int64{"gold": 1000}))
	}

	got := DeriveIncome(runs, core.Gold, ref)
	if got == nil {
		t.Fatal("expected a result for a derivable currency")
	}
	if got.WeeklyIncome != 7000 {
		t.Errorf("WeeklyIncome = %d, want 7000", got.WeeklyIncome)
	}
	if !got.HasSufficientData {
		t.Error("HasSufficientData = false, want true")
	}
	if got.DaysOfData != 7 {
		t.Errorf("DaysOfData = %d, want 7", got.DaysOfData)
	}
	if got.RunsAnalyzed != 7 {
		t.Errorf("RunsAnalyzed = %d, want 7", got.RunsAnalyzed)
	}
}

func TestDeriveIncomeCountsDistinctDays(t *testing.T) {
	ref := time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)
	// Five runs on only two distinct days.
	runs := []core.Run{
		runAt(2025, 6, 6, map[string]int64{"gold": 100}),
		runAt(2025, 6, 6, map[string]int64{"gold": 100}),
		runAt(2025, 6, 6, map[string]int64{"gold": 100}),
		runAt(2025, 6, 7, map[string]int64{"gold": 100}),
		runAt(2025, 6, 7, map[string]int64{"gold": 100}),
	}

	got := DeriveIncome(runs, core.Gold, ref)
	if got.DaysOfData != 2 {
		t.Errorf("DaysOfData = %d, want 2", got.DaysOfData)
	}
	if got.HasSufficientData {
		t.Error("HasSufficientData = true, want false for 2 days")
	}
	if got.RunsAnalyzed != 5 {
		t.Errorf("RunsAnalyzed = %d, want 5", got.RunsAnalyzed)
	}
	// 500 over 2 days extrapolates to 1750/week regardless of sufficiency.
	if got.WeeklyIncome != 1750 {
		t.Errorf("WeeklyIncome = %d, want 1750", got.WeeklyIncome)
	}
}

func TestDeriveIncomeIgnoresRunsOutsideWindow(t *testing.T) {
	ref := time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)
	runs := []core.Run{
		runAt(2025, 5, 20, map[string]int64{"gold": 9999}), // too old
		runAt(2025, 6, 10, map[string]int64{"gold": 9999}), // after ref
		runAt(2025, 6, 7, map[string]int64{"gold": 700}),
	}
	got := DeriveIncome(runs, core.Gold, ref)
	if got.RunsAnalyzed != 1 {
		t.Errorf("RunsAnalyzed = %d, want 1", got.RunsAnalyzed)
	}
	if got.WeeklyIncome != 4900 {
		t.Errorf("WeeklyIncome = %d, want 4900", got.WeeklyIncome)
	}
}

func TestDeriveIncomeEmptyLog(t *testing.T) {
	got := DeriveIncome(nil, core.Gold, time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC))
	if got == nil {
		t.Fatal("expected zero result, not nil")
	}
	if got.WeeklyIncome != 0 || got.HasSufficientData || got.DaysOfData != 0 {
		t.Errorf("got %+v, want zero result", got)
	}
}

func TestDeriveIncomeNotDerivable(t *testing.T) {
	if got := DeriveIncome(nil, core.Gems, time.Now()); got != nil {
		t.Errorf("gems income = %+v, want nil", got)
	}
}

func TestDeriveIncomeBreakdownFields(t *testing.T) {
	ref := time.Date(2025, 6, 8, 12, 0, 0, 0, time.UTC)
	// Stones derive from the sum of both breakdown fields.
	runs := []core.Run{
		runAt(2025, 6, 7, map[string]int64{"stones_combined": 30, "stones_raw": 12}),
	}
	got := DeriveIncome(runs, core.Stones, ref)
	if got.WeeklyIncome != 294 { // 42/day * 7
		t.Errorf("WeeklyIncome = %d, want 294", got.WeeklyIncome)
	}
}

func TestDeriveGrowthRateLinearTrend(t *testing.T) {
	ref := time.Date(2025, 6, 26, 12, 0, 0, 0, time.UTC)
	// Four consecutive ISO weeks totalling 1000, 1100, 1200, 1300:
	// slope 100/week against mean 1150 is 8.7% after rounding.
	runs := []core.Run{
		runAt(2025, 6, 2, map[string]int64{"gold": 1000}),
		runAt(2025, 6, 9, map[string]int64{"gold": 1100}),
		runAt(2025, 6, 16, map[string]int64{"gold": 1200}),
		runAt(2025, 6, 23, map[string]int64{"gold": 1300}),
	}

	got := DeriveGrowthRate(runs, core.Gold, core.LookbackAll, ref)
	if got == nil {
		t.Fatal("expected a result for a derivable currency")
	}
	if math.Abs(got.GrowthRatePercent-8.7) > 1e-9 {
		t.Errorf("GrowthRatePercent = %v, want 8.7", got.GrowthRatePercent)
	}
	if !got.HasSufficientData {
		t.Error("HasSufficientData = false, want true for 4 weeks")
	}
	if got.WeeksOfData != 4 {
		t.Errorf("WeeksOfData = %d, want 4", got.WeeksOfData)
	}
}

func TestDeriveGrowthRateFlatSeries(t *testing.T) {
	ref := time.Date(2025, 6, 26, 12, 0, 0, 0, time.UTC)
	runs := []core.Run{
		runAt(2025, 6, 2, map[string]int64{"gold": 500}),
		runAt(2025, 6, 9, map[string]int64{"gold": 500}),
		runAt(2025, 6, 16, map[string]int64{"gold": 500}),
		runAt(2025, 6, 23, map[string]int64{"gold": 500}),
	}
	got := DeriveGrowthRate(runs, core.Gold, core.LookbackAll, ref)
	if got.GrowthRatePercent != 0 {
		t.Errorf("GrowthRatePercent = %v, want 0 for identical weeks", got.GrowthRatePercent)
	}
}

func TestDeriveGrowthRateWeeksWithoutRunsAreSkipped(t *testing.T) {
	ref := time.Date(2025, 6, 26, 12, 0, 0, 0, time.UTC)
	// A three-week gap between the buckets: the empty weeks must not
	// appear as zero data points (which would drag the fit down hard).
	runs := []core.Run{
		runAt(2025, 5, 26, map[string]int64{"gold": 1000}),
		runAt(2025, 6, 23, map[string]int64{"gold": 1100}),
	}
	got := DeriveGrowthRate(runs, core.Gold, core.LookbackAll, ref)
	if got.WeeksOfData != 2 {
		t.Errorf("WeeksOfData = %d, want 2", got.WeeksOfData)
	}
	// Two points (1000, 1100): slope 100, mean 1050 -> 9.5%.
	if math.Abs(got.GrowthRatePercent-9.5) > 1e-9 {
		t.Errorf("GrowthRatePercent = %v, want 9.5", got.GrowthRatePercent)
	}
	if got.HasSufficientData {
		t.Error("HasSufficientData = true, want false for 2 weeks")
	}
}

func TestDeriveGrowthRateLookbackBounds(t *testing.T) {
	ref := time.Date(2025, 6, 26, 12, 0, 0, 0, time.UTC)
	old := runAt(2025, 1, 6, map[string]int64{"gold": 99999})
	recent := []core.Run{
		runAt(2025, 6, 2, map[string]int64{"gold": 1000}),
		runAt(2025, 6, 9, map[string]int64{"gold": 1000}),
	}

	all := DeriveGrowthRate(append([]core.Run{old}, recent...), core.Gold, core.LookbackAll, ref)
	if all.WeeksOfData != 3 {
		t.Errorf("all-time WeeksOfData = %d, want 3", all.WeeksOfData)
	}

	bounded := DeriveGrowthRate(append([]core.Run{old}, recent...), core.Gold, core.Lookback3Months, ref)
	if bounded.WeeksOfData != 2 {
		t.Errorf("3-month WeeksOfData = %d, want 2", bounded.WeeksOfData)
	}
}

func TestDeriveGrowthRateEmptyLog(t *testing.T) {
	got := DeriveGrowthRate(nil, core.Gold, core.Lookback6Months, time.Now())
	if got == nil {
		t.Fatal("expected zero result, not nil")
	}
	if got.GrowthRatePercent != 0 || got.HasSufficientData || got.WeeksOfData != 0 {
		t.Errorf("got %+v, want zero result", got)
	}
}

func TestDeriveValuesNotDerivable(t *testing.T) {
	inc, gr := DeriveValues(nil, core.Gems, core.LookbackAll, time.Now())
	if inc != nil || gr != nil {
		t.Errorf("gems derive = (%+v, %+v), want (nil, nil)", inc, gr)
	}
}
