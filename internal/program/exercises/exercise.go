package exercises

import "time"

// ProgramDays is the length of the home program.
const ProgramDays = 30

type Difficulty string

const (
	DifficultyLight  Difficulty = "light"
	DifficultyMedium Difficulty = "medium"
	DifficultyHeavy  Difficulty = "heavy"
)

func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyLight, DifficultyMedium, DifficultyHeavy:
		return true
	}
	return false
}

type Goal string

const (
	GoalMaintainWeight     Goal = "maintain_weight"
	GoalLoseWeight         Goal = "lose_weight"
	GoalBariatricPrep      Goal = "bariatric_prep"
	GoalBariatricIndicated Goal = "bariatric_indicated"
)

func (g Goal) IsValid() bool {
	switch g {
	case GoalMaintainWeight, GoalLoseWeight, GoalBariatricPrep, GoalBariatricIndicated:
		return true
	}
	return false
}

type Exercise struct {
	ID               int        `json:"id"`
	DayNumber        int        `json:"dayNumber"`
	ExerciseOrder    int        `json:"exerciseOrder"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Instructions     string     `json:"instructions"`
	DurationMinutes  int        `json:"durationMinutes"`
	CaloriesEstimate int        `json:"caloriesEstimate"`
	Difficulty       Difficulty `json:"difficulty"`
	// TargetAudience is nil for exercises applicable to any goal.
	TargetAudience *Goal     `json:"targetAudience,omitempty"`
	VideoID        string    `json:"videoId,omitempty"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}
