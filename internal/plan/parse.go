package plan

import (
	"encoding/json"
	"log/slog"
	"slices"
	"strings"

	"github.com/myrjola/liftcoach/internal/errors"
)

var ErrUnparsablePlan = errors.NewSentinel("unparsable plan")

// modelPlan is the shape the language model is asked to return. Pointers detect missing fields.
type modelPlan struct {
	DailyCalories   *float64  `json:"dailyCalories"`
	Protein         *float64  `json:"protein"`
	Carbs           *float64  `json:"carbs"`
	Fats            *float64  `json:"fats"`
	WorkoutSplit    *[]string `json:"workoutSplit"`
	EstimatedWeeks  *float64  `json:"estimatedWeeks"`
	AdditionalNotes *string   `json:"additionalNotes"`
}

// ParseModelPlan finds the first JSON object in content that has the plan shape. Each '{' is tried in turn so that
// braces in surrounding prose or markdown fences do not hide the plan. When no candidate fits, the error describes
// the first object that decoded, or else the first decode failure.
func ParseModelPlan(content string) (Plan, error) {
	var decodeErr, shapeErr error
	for offset := 0; offset < len(content); {
		i := strings.IndexByte(content[offset:], '{')
		if i < 0 {
			break
		}
		start := offset + i
		offset = start + 1

		var mp modelPlan
		if err := json.NewDecoder(strings.NewReader(content[start:])).Decode(&mp); err != nil {
			if decodeErr == nil {
				decodeErr = errors.Join(ErrUnparsablePlan, errors.Wrap(err, "decode plan", slog.Int("offset", start)))
			}
			continue
		}
		p, err := mp.toPlan()
		if err == nil {
			return p, nil
		}
		if shapeErr == nil {
			shapeErr = err
		}
	}
	switch {
	case shapeErr != nil:
		return Plan{}, shapeErr
	case decodeErr != nil:
		return Plan{}, decodeErr
	default:
		return Plan{}, errors.Wrap(ErrUnparsablePlan, "no JSON object", slog.Int("length", len(content)))
	}
}

func (mp modelPlan) toPlan() (Plan, error) {
	var missing []string
	for name, present := range map[string]bool{
		"dailyCalories":  mp.DailyCalories != nil,
		"protein":        mp.Protein != nil,
		"carbs":          mp.Carbs != nil,
		"fats":           mp.Fats != nil,
		"workoutSplit":   mp.WorkoutSplit != nil,
		"estimatedWeeks": mp.EstimatedWeeks != nil,
	} {
		if !present {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return Plan{}, errors.Wrap(ErrUnparsablePlan, "missing fields", slog.Any("fields", missing))
	}
	if *mp.DailyCalories <= 0 || *mp.Protein < 0 || *mp.Carbs < 0 || *mp.Fats < 0 || *mp.EstimatedWeeks < 0 {
		return Plan{}, errors.Wrap(ErrUnparsablePlan, "negative values")
	}
	if len(*mp.WorkoutSplit) == 0 {
		return Plan{}, errors.Wrap(ErrUnparsablePlan, "empty workout split")
	}

	p := Plan{
		DailyCalories:   roundInt(*mp.DailyCalories),
		ProteinGrams:    roundInt(*mp.Protein),
		CarbsGrams:      roundInt(*mp.Carbs),
		FatsGrams:       roundInt(*mp.Fats),
		WorkoutSplit:    *mp.WorkoutSplit,
		EstimatedWeeks:  roundInt(*mp.EstimatedWeeks),
		AdditionalNotes: "",
		Source:          SourceAI,
	}
	if mp.AdditionalNotes != nil {
		p.AdditionalNotes = *mp.AdditionalNotes
	}
	return p, nil
}
