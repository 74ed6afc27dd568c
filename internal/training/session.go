package training

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Session (DB level type) is a single visit to the gym, as reported
// by the ios app: a list of performed exercises, each with its sets.
type Session struct {
	ID              int               `json:"id"`
	StartedAt       time.Time         `json:"startedAt"`
	Name            string            `json:"name,omitempty"`
	DurationMinutes int               `json:"durationMinutes,omitempty"`
	Exercises       []Exercise        `json:"exercises"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

type Exercise struct {
	Name string `json:"name"`
	Sets []Set  `json:"sets"`
}

// Set holds the raw numbers of one performed set. Strength sets carry
// weight and reps, cardio style sets carry distance and/or duration,
// bodyweight sets carry only reps.
type Set struct {
	Order           int     `json:"order"`
	Weight          float64 `json:"weight,omitempty"`
	Reps            int     `json:"reps,omitempty"`
	DistanceKm      float64 `json:"distanceKm,omitempty"`
	DurationSeconds int     `json:"durationSeconds,omitempty"`
}

var ErrInvalidSession = errors.New("invalid session")

func (s Set) IsStrength() bool {
	return s.Weight > 0 && s.Reps > 0
}

// Volume is the amount of work done in a set: kilos lifted for strength
// sets, otherwise distance in km, then duration in minutes, then plain
// reps, whichever is reported first.
func (s Set) Volume() float64 {
	if s.IsStrength() {
		return s.Weight * float64(s.Reps)
	}
	if s.DistanceKm > 0 {
		return s.DistanceKm
	}
	if s.DurationSeconds > 0 {
		return float64(s.DurationSeconds) / 60
	}
	if s.Reps > 0 {
		return float64(s.Reps)
	}
	return 0
}

// TotalVolume sums set volumes in the stored order, so the same session
// always yields the same float result.
func (s *Session) TotalVolume() float64 {
	var total float64
	for _, exercise := range s.Exercises {
		for _, set := range exercise.Sets {
			total += set.Volume()
		}
	}
	return total
}

// Day is the UTC calendar day the session belongs to.
func (s *Session) Day() time.Time {
	return time.Date(
		s.StartedAt.UTC().Year(), s.StartedAt.UTC().Month(), s.StartedAt.UTC().Day(),
		0, 0, 0, 0, time.UTC,
	)
}

func (s *Session) ExerciseNames() []string {
	names := make([]string, 0, len(s.Exercises))
	for _, exercise := range s.Exercises {
		names = append(names, exercise.Name)
	}
	return names
}

func (s *Session) Validate() error {
	if s.StartedAt.IsZero() {
		return fmt.Errorf("%w: start time empty", ErrInvalidSession)
	}
	if s.DurationMinutes < 0 {
		return fmt.Errorf("%w: duration negative", ErrInvalidSession)
	}
	for _, exercise := range s.Exercises {
		if strings.TrimSpace(exercise.Name) == "" {
			return fmt.Errorf("%w: exercise name empty", ErrInvalidSession)
		}
	}
	return nil
}
