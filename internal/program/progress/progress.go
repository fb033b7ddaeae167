package progress

import "time"

// FinalDay is the last day of the program. Completing it completes
// the whole program.
const FinalDay = 30

type Completion struct {
	ID          int       `json:"id"`
	UserID      string    `json:"userId"`
	ExerciseID  int       `json:"exerciseId"`
	DayNumber   int       `json:"dayNumber"`
	CompletedAt time.Time `json:"completedAt"`
}

type DayProgress struct {
	ID                 int        `json:"id"`
	UserID             string     `json:"userId"`
	DayNumber          int        `json:"dayNumber"`
	CompletedExercises int        `json:"completedExercises"`
	IsDayCompleted     bool       `json:"isDayCompleted"`
	CompletionDate     *time.Time `json:"completionDate,omitempty"`
	Notes              string     `json:"notes,omitempty"`
	WeightCheck        *float64   `json:"weightCheck,omitempty"`
}

type DayState string

const (
	DayStateNotStarted DayState = "not_started"
	DayStateInProgress DayState = "in_progress"
	DayStateCompleted  DayState = "completed"
)

func (dp DayProgress) State() DayState {
	switch {
	case dp.IsDayCompleted:
		return DayStateCompleted
	case dp.CompletedExercises > 0:
		return DayStateInProgress
	default:
		return DayStateNotStarted
	}
}

// Signal marks a milestone crossed by a completion update.
type Signal string

const (
	SignalDayCompleted     Signal = "day_completed"
	SignalProgramCompleted Signal = "program_completed"
)
