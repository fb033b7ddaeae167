package profiles

import (
	"math"
	"time"

	"github.com/bariatricaemcasa/backend/internal/program/exercises"
)

// DefaultDifficulty applies when a user never picked one.
const DefaultDifficulty = exercises.DifficultyMedium

type Profile struct {
	ID                  int                   `json:"id"`
	UserID              string                `json:"userId"`
	Name                string                `json:"name"`
	Email               string                `json:"email"`
	PasswordHash        string                `json:"-"`
	Age                 int                   `json:"age"`
	HeightCm            float64               `json:"heightCm"`
	WeightKg            float64               `json:"weightKg"`
	CurrentBMI          float64               `json:"currentBmi"`
	Goal                exercises.Goal        `json:"goal"`
	PreferredDifficulty *exercises.Difficulty `json:"preferredDifficulty,omitempty"`
	ProgramStartDate    time.Time             `json:"programStartDate"`
	CreatedAt           time.Time             `json:"createdAt"`
}

func (p *Profile) EffectiveDifficulty() exercises.Difficulty {
	if p.PreferredDifficulty == nil {
		return DefaultDifficulty
	}
	return *p.PreferredDifficulty
}

// CalculateBMI returns the body mass index rounded to one decimal.
func CalculateBMI(weightKg, heightCm float64) float64 {
	if heightCm <= 0 || weightKg <= 0 {
		return 0
	}
	heightM := heightCm / 100
	return math.Round(weightKg/(heightM*heightM)*10) / 10
}
