package readiness

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRecord = errors.New("invalid record")

// DailyHealth is one day of raw health signals, usually synced from a
// watch. Zero values mean the signal was not reported that day.
type DailyHealth struct {
	Day              time.Time `json:"day"`
	RestingHeartRate int       `json:"restingHeartRate,omitempty"`
	SleepHours       float64   `json:"sleepHours,omitempty"`
}

func (h DailyHealth) HasSignal() bool {
	return h.RestingHeartRate > 0 || h.SleepHours > 0
}

func (h DailyHealth) Validate() error {
	if h.RestingHeartRate < 0 || h.RestingHeartRate > 300 {
		return fmt.Errorf("%w: resting heart rate out of range", ErrInvalidRecord)
	}
	if h.SleepHours < 0 || h.SleepHours > 24 {
		return fmt.Errorf("%w: sleep hours out of range", ErrInvalidRecord)
	}
	return nil
}

// WellnessScore is the day summary of an external wellness provider,
// sub-scores on a 0 to 100 scale. Absent sub-scores stay nil.
type WellnessScore struct {
	Day       time.Time `json:"day"`
	Sleep     *int      `json:"sleep,omitempty"`
	Readiness *int      `json:"readiness,omitempty"`
	Activity  *int      `json:"activity,omitempty"`
}

func (ws WellnessScore) Validate() error {
	for name, sub := range map[string]*int{
		"sleep":     ws.Sleep,
		"readiness": ws.Readiness,
		"activity":  ws.Activity,
	} {
		if sub != nil && (*sub < 0 || *sub > 100) {
			return fmt.Errorf("%w: %s sub-score out of range", ErrInvalidRecord, name)
		}
	}
	return nil
}

type Band string

const (
	BandLow      Band = "low"
	BandModerate Band = "moderate"
	BandHigh     Band = "high"
)

// Band thresholds: scores below BandLowMax are low, above BandHighMin
// high, moderate in between (both edges included).
const (
	BandLowMax  = 40
	BandHighMin = 70
)

func BandFor(score int) Band {
	switch {
	case score < BandLowMax:
		return BandLow
	case score > BandHighMin:
		return BandHigh
	default:
		return BandModerate
	}
}

const (
	SourceWellness = "wellness"
	SourceHealth   = "health"
	SourceDefault  = "default"
)

// Assessment is the readiness verdict for one day. Source says which
// signal produced it.
type Assessment struct {
	Score  int       `json:"score"`
	Band   Band      `json:"band"`
	Source string    `json:"source"`
	Day    time.Time `json:"day"`
}

// Config holds the knobs of the fallback heuristic. The exact numbers
// are not load bearing, they only shape how strongly each signal pulls
// the score away from neutral.
type Config struct {
	RHRWeight        float64
	SleepWeight      float64
	BaselineDays     int
	TargetSleepHours float64
	MaxSignalAgeDays int
}

func DefaultConfig() Config {
	return Config{
		RHRWeight:        0.6,
		SleepWeight:      0.4,
		BaselineDays:     14,
		TargetSleepHours: 8,
		MaxSignalAgeDays: 3,
	}
}
