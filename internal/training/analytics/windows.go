package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/2beens/gymstats-backend/internal/training"
)

// DateInterval is a half open time interval (From, To].
type DateInterval struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (di DateInterval) Contains(t time.Time) bool {
	return t.After(di.From) && !t.After(di.To)
}

// ChangeWindow pairs two contiguous intervals of equal length ending
// now: the current one and the one just before it.
type ChangeWindow struct {
	Label    string       `json:"label"`
	Current  DateInterval `json:"current"`
	Previous DateInterval `json:"previous"`
}

// ChangeMetric compares one measure between the two intervals of a
// ChangeWindow. Percent is the delta relative to the previous value
// and is left out when the previous value is zero.
type ChangeMetric struct {
	Title    string   `json:"title"`
	Current  float64  `json:"current"`
	Previous float64  `json:"previous"`
	Delta    float64  `json:"delta"`
	Percent  *float64 `json:"percent,omitempty"`
}

// RollingChangeWindow splits the last 2*windowDays before now into the
// current and the previous interval. Returns nil unless both intervals
// contain at least one session, callers must treat that as not enough
// history rather than as a pair of zeros.
func RollingChangeWindow(history []training.Session, windowDays int, now time.Time) *ChangeWindow {
	if windowDays < 1 {
		return nil
	}

	windowLength := time.Duration(windowDays) * 24 * time.Hour
	window := &ChangeWindow{
		Label: fmt.Sprintf("last %d days", windowDays),
		Current: DateInterval{
			From: now.Add(-windowLength),
			To:   now,
		},
		Previous: DateInterval{
			From: now.Add(-2 * windowLength),
			To:   now.Add(-windowLength),
		},
	}

	if len(sessionsIn(history, window.Current)) == 0 ||
		len(sessionsIn(history, window.Previous)) == 0 {
		return nil
	}

	return window
}

// ChangeMetrics computes the comparison metrics for the given window:
// session count, total volume and average session duration.
func ChangeMetrics(history []training.Session, window ChangeWindow) []ChangeMetric {
	current := sessionsIn(history, window.Current)
	previous := sessionsIn(history, window.Previous)

	return []ChangeMetric{
		newChangeMetric("sessions", float64(len(current)), float64(len(previous))),
		newChangeMetric("total volume", totalVolume(current), totalVolume(previous)),
		newChangeMetric("avg duration min", avgDurationMinutes(current), avgDurationMinutes(previous)),
	}
}

func newChangeMetric(title string, current, previous float64) ChangeMetric {
	metric := ChangeMetric{
		Title:    title,
		Current:  current,
		Previous: previous,
		Delta:    current - previous,
	}
	if previous != 0 {
		percent := metric.Delta / previous
		metric.Percent = &percent
	}
	return metric
}

// sessionsIn filters and orders sessions by start time, oldest first,
// so that aggregations always run in the same order.
func sessionsIn(history []training.Session, interval DateInterval) []training.Session {
	sessions := make([]training.Session, 0)
	for i := range history {
		if interval.Contains(history[i].StartedAt) {
			sessions = append(sessions, history[i])
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].StartedAt.Equal(sessions[j].StartedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].StartedAt.Before(sessions[j].StartedAt)
	})
	return sessions
}

func totalVolume(sessions []training.Session) float64 {
	var total float64
	for i := range sessions {
		total += sessions[i].TotalVolume()
	}
	return total
}

// avgDurationMinutes averages only over sessions that reported a
// duration.
func avgDurationMinutes(sessions []training.Session) float64 {
	var sum, count float64
	for i := range sessions {
		if sessions[i].DurationMinutes > 0 {
			sum += float64(sessions[i].DurationMinutes)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / count
}
