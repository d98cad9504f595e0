// Package plan produces nutrition and training plans from an onboarding profile.
//
// Calculate is the deterministic local calculator. Planner asks the language model first and falls back to
// Calculate on any failure.
package plan

import (
	"log/slog"
	"math"

	"github.com/myrjola/liftcoach/internal/errors"
)

type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
	SexOther  Sex = "other"
)

type Goal string

const (
	GoalLoseWeight  Goal = "lose-weight"
	GoalBuildMuscle Goal = "build-muscle"
	GoalStrength    Goal = "strength"
	GoalGeneral     Goal = "general"
)

type Intensity string

const (
	IntensityLight    Intensity = "light"
	IntensityModerate Intensity = "moderate"
	IntensityIntense  Intensity = "intense"
)

// Timeframe is the label the user picked for reaching the goal. TimeframeCustom uses Profile.CustomDays.
type Timeframe string

const (
	Timeframe1Month  Timeframe = "1-month"
	Timeframe3Months Timeframe = "3-months"
	Timeframe6Months Timeframe = "6-months"
	Timeframe1Year   Timeframe = "1-year"
	TimeframeCustom  Timeframe = "custom"
)

var ErrInvalidProfile = errors.NewSentinel("invalid profile")

// Profile holds the onboarding answers.
type Profile struct {
	Age      int     `json:"age"`
	Sex      Sex     `json:"sex"`
	WeightKg float64 `json:"weight_kg"`
	HeightCm float64 `json:"height_cm"`
	// TargetWeightKg is optional. Zero means no target.
	TargetWeightKg    float64   `json:"target_weight_kg,omitempty"`
	Goal              Goal      `json:"goal"`
	TrainingFrequency int       `json:"training_frequency"`
	Intensity         Intensity `json:"intensity"`
	Timeframe         Timeframe `json:"timeframe"`
	CustomDays        int       `json:"custom_days,omitempty"`
}

// Validate rejects profiles the calculator cannot produce a sensible plan for. The calculator itself does not
// validate its input.
func (p Profile) Validate() error {
	var errs []error
	check := func(ok bool, msg string, attr slog.Attr) {
		if !ok {
			errs = append(errs, errors.Wrap(ErrInvalidProfile, msg, attr))
		}
	}
	const (
		maxAge       = 120
		maxWeightKg  = 400
		maxHeightCm  = 275
		daysPerWeek  = 7
		maxTimeframe = 3 * 365
	)
	check(p.Age > 0 && p.Age <= maxAge, "age out of range", slog.Int("age", p.Age))
	check(finite(p.WeightKg) && p.WeightKg > 0 && p.WeightKg <= maxWeightKg, "weight out of range",
		slog.Float64("weight_kg", p.WeightKg))
	check(finite(p.HeightCm) && p.HeightCm > 0 && p.HeightCm <= maxHeightCm, "height out of range",
		slog.Float64("height_cm", p.HeightCm))
	check(finite(p.TargetWeightKg) && p.TargetWeightKg >= 0 && p.TargetWeightKg <= maxWeightKg,
		"target weight out of range", slog.Float64("target_weight_kg", p.TargetWeightKg))
	check(p.TrainingFrequency >= 0 && p.TrainingFrequency <= daysPerWeek, "training frequency out of range",
		slog.Int("training_frequency", p.TrainingFrequency))
	switch p.Sex {
	case SexMale, SexFemale, SexOther:
	default:
		check(false, "unknown sex", slog.String("sex", string(p.Sex)))
	}
	switch p.Goal {
	case GoalLoseWeight, GoalBuildMuscle, GoalStrength, GoalGeneral:
	default:
		check(false, "unknown goal", slog.String("goal", string(p.Goal)))
	}
	switch p.Intensity {
	case IntensityLight, IntensityModerate, IntensityIntense:
	default:
		check(false, "unknown intensity", slog.String("intensity", string(p.Intensity)))
	}
	switch p.Timeframe {
	case Timeframe1Month, Timeframe3Months, Timeframe6Months, Timeframe1Year:
	case TimeframeCustom:
		check(p.CustomDays > 0 && p.CustomDays <= maxTimeframe, "custom days out of range",
			slog.Int("custom_days", p.CustomDays))
	default:
		check(false, "unknown timeframe", slog.String("timeframe", string(p.Timeframe)))
	}
	return errors.Join(errs...)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
