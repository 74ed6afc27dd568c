package analytics

import (
	"sort"
	"time"

	"github.com/2beens/gymstats-backend/internal/training"
)

// DefaultSlopeDeadBand is the slope magnitude below which a trend is
// reported as flat.
const DefaultSlopeDeadBand = 0.05

type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendFlat      TrendDirection = "flat"
)

// TrendLine is a least squares line fitted over a series of values at
// positions 0..n-1. First and Last are the fitted values at the two
// ends, enough for a renderer to draw the line.
type TrendLine struct {
	Slope     float64        `json:"slope"`
	Intercept float64        `json:"intercept"`
	First     float64        `json:"first"`
	Last      float64        `json:"last"`
	Direction TrendDirection `json:"direction"`
}

// EstimateTrend fits an ordinary least squares line through the given
// values, indexed 0..n-1. Returns nil for fewer than two points, a
// single measurement carries no direction.
func EstimateTrend(values []float64, deadBand float64) *TrendLine {
	n := len(values)
	if n < 2 {
		return nil
	}
	if deadBand < 0 {
		deadBand = 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	nf := float64(n)
	slope := (nf*sumXY - sumX*sumY) / (nf*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / nf

	direction := TrendFlat
	switch {
	case slope > deadBand:
		direction = TrendImproving
	case slope < -deadBand:
		direction = TrendDeclining
	}

	return &TrendLine{
		Slope:     slope,
		Intercept: intercept,
		First:     intercept,
		Last:      intercept + slope*float64(n-1),
		Direction: direction,
	}
}

// BestValueByDay builds the day ordered series of best single set
// values for one exercise, one value per training day. When the
// exercise has any strength sets the series tracks the heaviest set
// per day and skips cardio only days, otherwise it tracks the best
// cardio set per day.
func BestValueByDay(history []training.Session, exerciseName string) []float64 {
	bestByDay := make(map[time.Time]bestSet)
	for i := range history {
		day := history[i].Day()
		for _, exercise := range history[i].Exercises {
			if exercise.Name != exerciseName {
				continue
			}
			b := bestByDay[day]
			for _, set := range exercise.Sets {
				if set.IsStrength() {
					if set.Weight > b.weight {
						b.weight = set.Weight
					}
				} else if v := set.Volume(); v > b.cardio {
					b.cardio = v
				}
			}
			bestByDay[day] = b
		}
	}

	var strength bool
	for _, b := range bestByDay {
		if b.weight > 0 {
			strength = true
			break
		}
	}

	days := make([]time.Time, 0, len(bestByDay))
	for day := range bestByDay {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	values := make([]float64, 0, len(days))
	for _, day := range days {
		b := bestByDay[day]
		if strength {
			if b.weight > 0 {
				values = append(values, b.weight)
			}
			continue
		}
		values = append(values, b.cardio)
	}
	return values
}
