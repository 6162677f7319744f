package timeline

import (
	"sort"

	"warchest/internal/core"
)

// Position assigns each event a start week, a span in weeks and a display
// row so that no two events sharing a week share a row. Events are placed
// greedily in (triggerWeek, priority) order, each taking the first row whose
// occupied weeks do not intersect its span. Greedy first-fit is not globally
// row-minimal, but it is deterministic and stable, which is what the grid
// needs.
//
// Events triggering at or beyond totalWeeks must be filtered out by the
// caller; spans are clipped at the horizon rather than rejected.
func Position(events []core.SpendingEvent, totalWeeks int) []PositionedEvent {
	if len(events) == 0 || totalWeeks <= 0 {
		return nil
	}

	sorted := make([]core.SpendingEvent, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TriggerWeek != sorted[j].TriggerWeek {
			return sorted[i].TriggerWeek < sorted[j].TriggerWeek
		}
		return sorted[i].Priority < sorted[j].Priority
	})

	// Occupancy is local to this call: one set of occupied weeks per row.
	var rows []map[int]bool

	positioned := make([]PositionedEvent, 0, len(sorted))
	for _, e := range sorted {
		span := SpanWeeks(e.DurationDays)
		if e.TriggerWeek+span > totalWeeks {
			span = totalWeeks - e.TriggerWeek
		}
		if span <= 0 {
			continue
		}

		row := -1
		for i, occupied := range rows {
			if rowFits(occupied, e.TriggerWeek, span) {
				row = i
				break
			}
		}
		if row == -1 {
			rows = append(rows, make(map[int]bool))
			row = len(rows) - 1
		}
		for w := e.TriggerWeek; w < e.TriggerWeek+span; w++ {
			rows[row][w] = true
		}

		positioned = append(positioned, PositionedEvent{
			Event:     e,
			StartWeek: e.TriggerWeek,
			SpanWeeks: span,
			Row:       row,
		})
	}
	return positioned
}

// SpanWeeks converts an event duration in days to whole weeks, rounding up.
// A zero duration means a single-week event.
func SpanWeeks(durationDays int) int {
	if durationDays <= 0 {
		return 1
	}
	return (durationDays + 6) / 7
}

func rowFits(occupied map[int]bool, start, span int) bool {
	for w := start; w < start+span; w++ {
		if occupied[w] {
			return false
		}
	}
	return true
}
