// Package suggest ranks catalog exercises against a requested set of muscle groups.
package suggest

import (
	"slices"

	"github.com/myrjola/liftcoach/internal/catalog"
)

// TrainingStyle biases the ranking towards equipment suited to the goal. The zero value means no preference.
type TrainingStyle string

const (
	StyleNone        TrainingStyle = ""
	StyleStrength    TrainingStyle = "strength"
	StyleHypertrophy TrainingStyle = "hypertrophy"
	StyleEndurance   TrainingStyle = "endurance"
)

// Valid reports whether s is a known style or unset.
func (s TrainingStyle) Valid() bool {
	switch s {
	case StyleNone, StyleStrength, StyleHypertrophy, StyleEndurance:
		return true
	default:
		return false
	}
}

// Score contributions.
const (
	primaryMatchScore   = 10
	secondaryMatchScore = 5
	compoundScore       = 8
	historyScore        = 15
	strengthBarbell     = 5
	hypertrophyFreeLoad = 3
)

const (
	maxFrontLoadedCompounds = 2
	maxSuggestions          = 12
)

// Config describes a suggestion request.
type Config struct {
	MuscleGroups []catalog.MuscleGroup `json:"muscle_groups"`
	// SplitType is the caller's label for the day, e.g. "push". It does not affect scoring.
	SplitType     string        `json:"split_type,omitempty"`
	TrainingStyle TrainingStyle `json:"training_style,omitempty"`
	// UserHistory lists exercise ids the user has performed before.
	UserHistory []string `json:"user_history,omitempty"`
}

// Suggestion is a ranked exercise with the score that placed it.
type Suggestion struct {
	Exercise catalog.Exercise `json:"exercise"`
	Score    int              `json:"score"`
}

// Result is the ranked list together with summary facts about it.
type Result struct {
	Suggestions      []Suggestion `json:"suggestions"`
	Count            int          `json:"count"`
	HasCompoundLifts bool         `json:"has_compound_lifts"`
}

// Score returns the relevance of e for cfg. A score of zero or below means e is irrelevant.
func Score(e catalog.Exercise, cfg Config) int {
	requested := make(map[catalog.MuscleGroup]bool, len(cfg.MuscleGroups))
	for _, m := range cfg.MuscleGroups {
		requested[m] = true
	}
	return score(e, requested, cfg)
}

func score(e catalog.Exercise, requested map[catalog.MuscleGroup]bool, cfg Config) int {
	total := 0
	for _, m := range e.PrimaryMuscles {
		if requested[m] {
			total += primaryMatchScore
		}
	}
	for _, m := range e.SecondaryMuscles {
		if requested[m] {
			total += secondaryMatchScore
		}
	}
	if e.TrackE1RM {
		total += compoundScore
	}
	if slices.Contains(cfg.UserHistory, e.ID) {
		total += historyScore
	}
	switch cfg.TrainingStyle {
	case StyleStrength:
		if e.Uses(catalog.EquipmentBarbell) {
			total += strengthBarbell
		}
	case StyleHypertrophy:
		if e.Uses(catalog.EquipmentDumbbell) || e.Uses(catalog.EquipmentCable) {
			total += hypertrophyFreeLoad
		}
	case StyleEndurance, StyleNone:
	}
	return total
}

// Suggest ranks the exercises of cat for cfg.
//
// Exercises are ordered by descending score with ties kept in catalog order. The two best compound lifts are then
// moved to the front and the list is cut to twelve entries. An empty muscle group request yields an empty result.
func Suggest(cat *catalog.Catalog, cfg Config) Result {
	result := Result{Suggestions: []Suggestion{}, Count: 0, HasCompoundLifts: false}
	if len(cfg.MuscleGroups) == 0 {
		return result
	}
	requested := make(map[catalog.MuscleGroup]bool, len(cfg.MuscleGroups))
	for _, m := range cfg.MuscleGroups {
		requested[m] = true
	}

	var ranked []Suggestion
	for _, e := range cat.All() {
		if s := score(e, requested, cfg); s > 0 {
			ranked = append(ranked, Suggestion{Exercise: e, Score: s})
		}
	}
	slices.SortStableFunc(ranked, func(a, b Suggestion) int {
		return b.Score - a.Score
	})

	front := make([]Suggestion, 0, len(ranked))
	rest := make([]Suggestion, 0, len(ranked))
	for _, s := range ranked {
		if s.Exercise.TrackE1RM && len(front) < maxFrontLoadedCompounds {
			front = append(front, s)
			continue
		}
		rest = append(rest, s)
	}
	ordered := append(front, rest...)
	if len(ordered) > maxSuggestions {
		ordered = ordered[:maxSuggestions]
	}

	result.Suggestions = ordered
	result.Count = len(ordered)
	result.HasCompoundLifts = slices.ContainsFunc(ordered, func(s Suggestion) bool {
		return s.Exercise.TrackE1RM
	})
	return result
}
