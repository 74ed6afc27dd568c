package readiness

import (
	"math"
	"time"

	"github.com/2beens/gymstats-backend/pkg"
)

const (
	neutralScore = 50
	componentCap = 0.25
)

// Evaluate turns the available signals into a readiness assessment for
// the given day. A wellness readiness sub-score wins when one exists
// within MaxSignalAgeDays, then the daily health heuristic, then a
// neutral default. The function is total: any input combination yields
// a score in [0,100] with its band.
func Evaluate(cfg Config, wellness []WellnessScore, health []DailyHealth, today time.Time) Assessment {
	todayDay := pkg.DayStart(today)

	if ws := latestWellness(wellness, todayDay, cfg.MaxSignalAgeDays); ws != nil {
		score := clampScore(*ws.Readiness)
		return Assessment{
			Score:  score,
			Band:   BandFor(score),
			Source: SourceWellness,
			Day:    ws.Day,
		}
	}

	if record := latestHealth(health, todayDay, cfg.MaxSignalAgeDays); record != nil {
		score := healthScore(cfg, *record, health)
		return Assessment{
			Score:  score,
			Band:   BandFor(score),
			Source: SourceHealth,
			Day:    record.Day,
		}
	}

	return Assessment{
		Score:  neutralScore,
		Band:   BandModerate,
		Source: SourceDefault,
		Day:    todayDay,
	}
}

// healthScore scores one health record against the trailing history:
// a resting heart rate below the baseline and enough sleep push the
// score up, the opposite pulls it down. Components are capped at
// componentCap each way.
func healthScore(cfg Config, record DailyHealth, history []DailyHealth) int {
	var rhrComponent float64
	if record.RestingHeartRate > 0 {
		if baseline := baselineRHR(history, record.Day, cfg.BaselineDays); baseline > 0 {
			rhrComponent = capComponent((baseline - float64(record.RestingHeartRate)) / baseline)
		}
	}

	var sleepComponent float64
	if record.SleepHours > 0 && cfg.TargetSleepHours > 0 {
		sleepComponent = capComponent((record.SleepHours - cfg.TargetSleepHours) / cfg.TargetSleepHours)
	}

	weighted := cfg.RHRWeight*rhrComponent + cfg.SleepWeight*sleepComponent
	return clampScore(neutralScore + int(math.Round(100*weighted)))
}

// baselineRHR is the mean resting heart rate over the baselineDays
// days right before (and not including) the given day. Returns 0 when
// no prior record carries a heart rate.
func baselineRHR(history []DailyHealth, day time.Time, baselineDays int) float64 {
	from := day.AddDate(0, 0, -baselineDays)

	var sum, count float64
	for _, record := range history {
		if record.RestingHeartRate <= 0 {
			continue
		}
		if record.Day.Before(from) || !record.Day.Before(day) {
			continue
		}
		sum += float64(record.RestingHeartRate)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / count
}

// latestWellness returns the most recent wellness score at most
// maxAgeDays old that actually carries a readiness sub-score.
func latestWellness(wellness []WellnessScore, today time.Time, maxAgeDays int) *WellnessScore {
	var latest *WellnessScore
	for i := range wellness {
		ws := wellness[i]
		if ws.Readiness == nil {
			continue
		}
		if !signalFresh(ws.Day, today, maxAgeDays) {
			continue
		}
		if latest == nil || ws.Day.After(latest.Day) {
			latest = &wellness[i]
		}
	}
	return latest
}

// latestHealth returns the most recent health record at most maxAgeDays
// old that carries at least one signal.
func latestHealth(health []DailyHealth, today time.Time, maxAgeDays int) *DailyHealth {
	var latest *DailyHealth
	for i := range health {
		record := health[i]
		if !record.HasSignal() {
			continue
		}
		if !signalFresh(record.Day, today, maxAgeDays) {
			continue
		}
		if latest == nil || record.Day.After(latest.Day) {
			latest = &health[i]
		}
	}
	return latest
}

func signalFresh(day, today time.Time, maxAgeDays int) bool {
	day = pkg.DayStart(day)
	if day.After(today) {
		return false
	}
	return int(today.Sub(day).Hours()/24) <= maxAgeDays
}

func capComponent(v float64) float64 {
	if v > componentCap {
		return componentCap
	}
	if v < -componentCap {
		return -componentCap
	}
	return v
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
