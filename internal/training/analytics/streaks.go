package analytics

import (
	"sort"
	"time"

	"github.com/2beens/gymstats-backend/internal/training"
)

// StreakRun is a maximal stretch of training days where the gap between
// two consecutive training days never exceeds restDays+1 calendar days.
// Days counts the distinct training days inside the run, not the days
// the run spans.
type StreakRun struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// StreakRuns reduces the session history to distinct UTC calendar days
// and groups them into runs, oldest first. With restDays 0 only
// back-to-back days hold a run together, each allowed rest day widens
// the tolerated gap by one.
func StreakRuns(history []training.Session, restDays int) []StreakRun {
	if restDays < 0 {
		restDays = 0
	}

	daySet := make(map[time.Time]struct{}, len(history))
	for i := range history {
		daySet[history[i].Day()] = struct{}{}
	}

	days := make([]time.Time, 0, len(daySet))
	for day := range daySet {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	runs := make([]StreakRun, 0, len(days))
	if len(days) == 0 {
		return runs
	}

	maxGap := restDays + 1
	run := StreakRun{Start: days[0], End: days[0], Days: 1}
	for _, day := range days[1:] {
		if daysBetween(run.End, day) <= maxGap {
			run.End = day
			run.Days++
			continue
		}
		runs = append(runs, run)
		run = StreakRun{Start: day, End: day, Days: 1}
	}
	runs = append(runs, run)

	return runs
}

// CurrentRun returns the run that is still alive on the given day: the
// last run, if its end is at most restDays+1 days in the past. Returns
// nil when the latest run has already expired.
func CurrentRun(runs []StreakRun, restDays int, today time.Time) *StreakRun {
	if len(runs) == 0 {
		return nil
	}
	if restDays < 0 {
		restDays = 0
	}

	last := runs[len(runs)-1]
	if daysBetween(last.End, dayOf(today)) > restDays+1 {
		return nil
	}
	return &last
}

// LongestRun picks the run with the most training days, ties broken by
// the most recent end.
func LongestRun(runs []StreakRun) *StreakRun {
	if len(runs) == 0 {
		return nil
	}

	longest := runs[0]
	for _, run := range runs[1:] {
		if run.Days > longest.Days ||
			(run.Days == longest.Days && run.End.After(longest.End)) {
			longest = run
		}
	}
	return &longest
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from one UTC midnight to another.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
