package timeline

import (
	"math"
	"sort"
	"time"

	"warchest/internal/core"
)

// DeriveValues computes both derived figures for a currency from the run
// log. It returns nil results for currencies the registry does not mark
// derivable; callers must nil-check rather than catch.
func DeriveValues(runs []core.Run, id core.CurrencyID, lookback core.Lookback, ref time.Time) (*DerivedIncomeResult, *DerivedGrowthRateResult) {
	return DeriveIncome(runs, id, ref), DeriveGrowthRate(runs, id, lookback, ref)
}

// DeriveIncome computes the 7-day rolling income rate extrapolated to a
// weekly figure: runs in the 7 days ending at ref are grouped by calendar
// day, summed over the currency's contributing fields, and the per-day
// average is scaled to 7 days. DaysOfData counts distinct days with at
// least one run; an empty window yields a zero result, never an error.
func DeriveIncome(runs []core.Run, id core.CurrencyID, ref time.Time) *DerivedIncomeResult {
	cur, ok := core.GetCurrency(id)
	if !ok || !cur.Derivable {
		return nil
	}

	windowStart := ref.AddDate(0, 0, -7)
	days := make(map[string]bool)
	var total int64
	analyzed := 0
	for _, r := range runs {
		if r.RunAt.After(ref) || !r.RunAt.After(windowStart) {
			continue
		}
		days[r.RunAt.Format("2006-01-02")] = true
		total += r.FieldSum(cur.RunFields)
		analyzed++
	}

	result := &DerivedIncomeResult{
		DaysOfData:        len(days),
		RunsAnalyzed:      analyzed,
		HasSufficientData: len(days) >= 3,
	}
	if len(days) == 0 {
		return result
	}
	// Always extrapolate to a full week, even with fewer than 7 days.
	result.WeeklyIncome = int64(math.Round(float64(total) / float64(len(days)) * 7))
	return result
}

// LookbackStart returns the lower bound of a lookback window relative to
// ref. The second return is false for the unbounded "all" window.
func LookbackStart(lookback core.Lookback, ref time.Time) (time.Time, bool) {
	switch lookback {
	case core.Lookback3Months:
		return ref.AddDate(0, -3, 0), true
	case core.Lookback6Months:
		return ref.AddDate(0, -6, 0), true
	}
	return time.Time{}, false
}

// DeriveGrowthRate fits an ordinary-least-squares line through the weekly
// totals of the lookback window and expresses the slope as a percentage of
// the mean weekly total, rounded to one decimal. Weeks are ISO-8601 weeks
// (Monday-anchored); weeks without runs simply do not appear as data
// points. Fewer than 2 weeks of data, or a non-positive mean, yield a zero
// rate.
//
// Regression is preferred over a naive first-to-last delta because a single
// volatile week (a tournament result, say) barely moves a fitted line.
func DeriveGrowthRate(runs []core.Run, id core.CurrencyID, lookback core.Lookback, ref time.Time) *DerivedGrowthRateResult {
	cur, ok := core.GetCurrency(id)
	if !ok || !cur.Derivable {
		return nil
	}

	lower, hasLower := LookbackStart(lookback, ref)

	// Bucket totals by ISO week. year*100+week sorts chronologically.
	buckets := make(map[int]int64)
	for _, r := range runs {
		if r.RunAt.After(ref) {
			continue
		}
		if hasLower && r.RunAt.Before(lower) {
			continue
		}
		y, w := r.RunAt.ISOWeek()
		buckets[y*100+w] += r.FieldSum(cur.RunFields)
	}

	result := &DerivedGrowthRateResult{
		WeeksOfData:       len(buckets),
		HasSufficientData: len(buckets) >= 4,
	}
	if len(buckets) < 2 {
		return result
	}

	keys := make([]int, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	// OLS of weekly totals against week index 0..n-1.
	var sumX, sumY, sumXY, sumXX float64
	for i, k := range keys {
		x := float64(i)
		y := float64(buckets[k])
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	n := float64(len(keys))
	mean := sumY / n
	if mean <= 0 {
		return result
	}
	slope := (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
	result.GrowthRatePercent = math.Round(slope/mean*100*10) / 10
	return result
}
