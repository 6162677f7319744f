package timeline

import "time"

// CurrentWeekProrationFactor returns the fraction of the current
// Sunday-anchored week still ahead of now, in (0, 1]. Sunday yields 1.0
// (the whole week remains), Saturday 1/7. The factor scales only week 0's
// income so a partially elapsed week is not overstated.
func CurrentWeekProrationFactor(now time.Time) float64 {
	daysRemaining := 7 - int(now.Weekday())
	return float64(daysRemaining) / 7
}

// WeekStart returns midnight of the Sunday beginning now's week, in now's
// location. This anchors the timeline's week-date sequence.
func WeekStart(now time.Time) time.Time {
	y, m, d := now.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	return midnight.AddDate(0, 0, -int(now.Weekday()))
}
