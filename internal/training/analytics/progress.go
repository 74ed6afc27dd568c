package analytics

import (
	"sort"
	"time"

	"github.com/2beens/gymstats-backend/internal/training"
)

type ContributionCategory string

const (
	CategoryExercise    ContributionCategory = "exercise"
	CategoryMuscleGroup ContributionCategory = "muscle-group"
)

// ProgressContribution is how much one exercise (or one muscle group)
// moved between the two compared periods, measured on best single set
// values.
type ProgressContribution struct {
	Subject  string               `json:"subject"`
	Category ContributionCategory `json:"category"`
	Recent   float64              `json:"recent"`
	Prior    float64              `json:"prior"`
	Delta    float64              `json:"delta"`
}

// Contributions compares, per exercise, the best single set value of
// the most recent weeks*7 days against the weeks*7 days just before
// that. Exercises missing from either period are skipped, never
// compared against a made up zero baseline. The result is ranked by
// delta, biggest gain first, ties broken by subject name.
func Contributions(history []training.Session, weeks int, now time.Time) []ProgressContribution {
	if weeks < 1 {
		return []ProgressContribution{}
	}

	periodLength := time.Duration(weeks) * 7 * 24 * time.Hour
	recentInterval := DateInterval{From: now.Add(-periodLength), To: now}
	priorInterval := DateInterval{From: now.Add(-2 * periodLength), To: recentInterval.From}

	recent := bestSetValues(sessionsIn(history, recentInterval))
	prior := bestSetValues(sessionsIn(history, priorInterval))

	contributions := make([]ProgressContribution, 0, len(recent))
	for name, recentBest := range recent {
		priorBest, ok := prior[name]
		if !ok {
			continue
		}
		recentValue, priorValue := pickCategoryValues(recentBest, priorBest)
		contributions = append(contributions, ProgressContribution{
			Subject:  name,
			Category: CategoryExercise,
			Recent:   recentValue,
			Prior:    priorValue,
			Delta:    recentValue - priorValue,
		})
	}

	sortContributions(contributions)

	return contributions
}

// ByMuscleTag folds exercise contributions into muscle group
// contributions through the exercise name to muscle tags mapping.
// Exercises without a catalog entry are left out. An exercise with
// several tags contributes its full delta to each of them.
func ByMuscleTag(contributions []ProgressContribution, tagsByName map[string][]string) []ProgressContribution {
	byTag := make(map[string]*ProgressContribution)
	for _, contribution := range contributions {
		for _, tag := range tagsByName[contribution.Subject] {
			aggregated, ok := byTag[tag]
			if !ok {
				aggregated = &ProgressContribution{
					Subject:  tag,
					Category: CategoryMuscleGroup,
				}
				byTag[tag] = aggregated
			}
			aggregated.Recent += contribution.Recent
			aggregated.Prior += contribution.Prior
			aggregated.Delta += contribution.Delta
		}
	}

	aggregated := make([]ProgressContribution, 0, len(byTag))
	for _, contribution := range byTag {
		aggregated = append(aggregated, *contribution)
	}
	sortContributions(aggregated)

	return aggregated
}

// Gainers keeps only contributions with a positive delta, biggest gain
// first.
func Gainers(contributions []ProgressContribution) []ProgressContribution {
	gainers := make([]ProgressContribution, 0)
	for _, contribution := range contributions {
		if contribution.Delta > 0 {
			gainers = append(gainers, contribution)
		}
	}
	sortContributions(gainers)
	return gainers
}

// Decliners keeps only contributions with a negative delta, biggest
// decline first.
func Decliners(contributions []ProgressContribution) []ProgressContribution {
	decliners := make([]ProgressContribution, 0)
	for _, contribution := range contributions {
		if contribution.Delta < 0 {
			decliners = append(decliners, contribution)
		}
	}
	sort.Slice(decliners, func(i, j int) bool {
		if decliners[i].Delta == decliners[j].Delta {
			return decliners[i].Subject < decliners[j].Subject
		}
		return decliners[i].Delta < decliners[j].Delta
	})
	return decliners
}

func sortContributions(contributions []ProgressContribution) {
	sort.Slice(contributions, func(i, j int) bool {
		if contributions[i].Delta == contributions[j].Delta {
			return contributions[i].Subject < contributions[j].Subject
		}
		return contributions[i].Delta > contributions[j].Delta
	})
}

type bestSet struct {
	weight float64
	cardio float64
}

// bestSetValues finds, per exercise name, the heaviest strength set and
// the best cardio set in the given sessions.
func bestSetValues(sessions []training.Session) map[string]bestSet {
	best := make(map[string]bestSet)
	for i := range sessions {
		for _, exercise := range sessions[i].Exercises {
			b := best[exercise.Name]
			for _, set := range exercise.Sets {
				if set.IsStrength() {
					if set.Weight > b.weight {
						b.weight = set.Weight
					}
				} else if v := set.Volume(); v > b.cardio {
					b.cardio = v
				}
			}
			best[exercise.Name] = b
		}
	}
	return best
}

// pickCategoryValues chooses which measurement to compare: strength
// wins over cardio when an exercise has both kinds of sets in the
// compared periods.
func pickCategoryValues(recent, prior bestSet) (float64, float64) {
	if recent.weight > 0 || prior.weight > 0 {
		return recent.weight, prior.weight
	}
	return recent.cardio, prior.cardio
}
