package workout

import (
	"github.com/myrjola/liftcoach/internal/catalog"
)

const (
	baseStimulus     = 1.0
	topSetBonus      = 0.1
	rpeAdjustment    = 0.1
	highRPEThreshold = 8
	lowRPEThreshold  = 6
	minSetStimulus   = 0.8
	maxSetStimulus   = 1.2
)

// SetVolume is load times reps.
//
// Inputs are expected to be non-negative. Validation is the caller's job and negative values are not special-cased.
func SetVolume(load float64, reps int) float64 {
	return load * float64(reps)
}

// ExerciseVolume sums the volume of the completed sets.
func ExerciseVolume(sets []SetLog) float64 {
	var total float64
	for _, s := range sets {
		if s.Status != SetCompleted {
			continue
		}
		total += SetVolume(s.ActualLoad, s.ActualReps)
	}
	return total
}

// SessionVolume sums ExerciseVolume over all exercises.
func SessionVolume(exercises []SessionExercise) float64 {
	var total float64
	for _, e := range exercises {
		total += ExerciseVolume(e.Sets)
	}
	return total
}

// SetStimulus scores a set around 1.0.
//
// Non-completed sets score 0. The top set earns +0.1. RPE >= 8 adds 0.1 and RPE <= 6 subtracts 0.1, with no
// adjustment in between. The result is clamped to [0.8, 1.2].
func SetStimulus(set SetLog, isTopSet bool) float64 {
	if set.Status != SetCompleted {
		return 0
	}
	stimulus := baseStimulus
	if isTopSet {
		stimulus += topSetBonus
	}
	if set.RPE != nil {
		switch rpe := *set.RPE; {
		case rpe >= highRPEThreshold:
			stimulus += rpeAdjustment
		case rpe <= lowRPEThreshold:
			stimulus -= rpeAdjustment
		}
	}
	return min(max(stimulus, minSetStimulus), maxSetStimulus)
}

// ExerciseSubRegionStimulus distributes each set's stimulus over the exercise's sub-region weights.
//
// Only regions listed in weights appear in the result.
func ExerciseSubRegionStimulus(sets []SetLog, weights []catalog.RegionWeight) map[catalog.SubRegion]float64 {
	result := make(map[catalog.SubRegion]float64, len(weights))
	addSubRegionStimulus(result, sets, weights)
	return result
}

func addSubRegionStimulus(into map[catalog.SubRegion]float64, sets []SetLog, weights []catalog.RegionWeight) {
	for i, set := range sets {
		stimulus := SetStimulus(set, i == 0)
		for _, w := range weights {
			into[w.Region] += stimulus * w.Weight
		}
	}
}
