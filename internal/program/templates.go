package program

type templateExercise struct {
	name        string
	defaultLoad float64
}

type splitDay struct {
	focus     string
	exercises []templateExercise
}

var (
	fullBodyDay = splitDay{
		focus: "full body",
		exercises: []templateExercise{
			{name: "Squat", defaultLoad: 60},
			{name: "Bench Press", defaultLoad: 40},
			{name: "Barbell Row", defaultLoad: 40},
			{name: "Plank", defaultLoad: 0},
		},
	}
	pushDay = splitDay{
		focus: "push",
		exercises: []templateExercise{
			{name: "Bench Press", defaultLoad: 40},
			{name: "Overhead Press", defaultLoad: 30},
			{name: "Triceps Pushdown", defaultLoad: 20},
		},
	}
	pullDay = splitDay{
		focus: "pull",
		exercises: []templateExercise{
			{name: "Deadlift", defaultLoad: 80},
			{name: "Barbell Row", defaultLoad: 40},
			{name: "Biceps Curl", defaultLoad: 15},
		},
	}
	legsDay = splitDay{
		focus: "legs",
		exercises: []templateExercise{
			{name: "Squat", defaultLoad: 60},
			{name: "Leg Press", defaultLoad: 100},
			{name: "Calf Raise", defaultLoad: 40},
		},
	}
	upperDay = splitDay{
		focus: "upper body",
		exercises: []templateExercise{
			{name: "Bench Press", defaultLoad: 40},
			{name: "Barbell Row", defaultLoad: 40},
			{name: "Overhead Press", defaultLoad: 30},
		},
	}
	lowerDay = splitDay{
		focus: "lower body",
		exercises: []templateExercise{
			{name: "Squat", defaultLoad: 60},
			{name: "Romanian Deadlift", defaultLoad: 60},
			{name: "Leg Press", defaultLoad: 100},
		},
	}
)

// splits maps training days per week to the focus sequence of one week.
var splits = map[int][]splitDay{
	1: {fullBodyDay},
	2: {upperDay, lowerDay},
	3: {pushDay, pullDay, legsDay},
	4: {upperDay, lowerDay, pushDay, pullDay},
	5: {pushDay, pullDay, legsDay, upperDay, lowerDay},
	6: {pushDay, pullDay, legsDay, pushDay, pullDay, legsDay},
}

// weekdayOffsets maps training days per week to day offsets within a
// week, spreading the sessions so that rest days land between them
// where possible. Offset 0 is the plan start weekday.
var weekdayOffsets = map[int][]int{
	1: {0},
	2: {0, 3},
	3: {0, 2, 4},
	4: {0, 1, 3, 4},
	5: {0, 1, 2, 4, 5},
	6: {0, 1, 2, 3, 4, 5},
}

// repScheme returns the sets and reps prescribed for every exercise of
// a plan with the given goal.
func repScheme(goal Goal) (sets, reps int) {
	switch goal {
	case GoalStrength:
		return 5, 5
	case GoalHypertrophy:
		return 4, 10
	case GoalEndurance:
		return 3, 15
	default:
		return 3, 10
	}
}
