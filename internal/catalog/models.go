package catalog

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/myrjola/liftcoach/internal/errors"
)

// MuscleGroup is a whole-muscle tag such as chest or quads.
type MuscleGroup string

const (
	MuscleChest      MuscleGroup = "chest"
	MuscleLats       MuscleGroup = "lats"
	MuscleUpperBack  MuscleGroup = "upper-back"
	MuscleTraps      MuscleGroup = "traps"
	MuscleShoulders  MuscleGroup = "shoulders"
	MuscleBiceps     MuscleGroup = "biceps"
	MuscleTriceps    MuscleGroup = "triceps"
	MuscleForearms   MuscleGroup = "forearms"
	MuscleQuads      MuscleGroup = "quads"
	MuscleHamstrings MuscleGroup = "hamstrings"
	MuscleGlutes     MuscleGroup = "glutes"
	MuscleAdductors  MuscleGroup = "adductors"
	MuscleCalves     MuscleGroup = "calves"
	MuscleAbs        MuscleGroup = "abs"
	MuscleObliques   MuscleGroup = "obliques"
	MuscleLowerBack  MuscleGroup = "lower-back"
)

//nolint:gochecknoglobals // closed enumeration.
var muscleGroups = []MuscleGroup{
	MuscleChest, MuscleLats, MuscleUpperBack, MuscleTraps, MuscleShoulders, MuscleBiceps, MuscleTriceps,
	MuscleForearms, MuscleQuads, MuscleHamstrings, MuscleGlutes, MuscleAdductors, MuscleCalves, MuscleAbs,
	MuscleObliques, MuscleLowerBack,
}

// Valid reports whether m is a known muscle group.
func (m MuscleGroup) Valid() bool {
	return slices.Contains(muscleGroups, m)
}

// ParseMuscleGroup validates s as a muscle group tag.
func ParseMuscleGroup(s string) (MuscleGroup, error) {
	m := MuscleGroup(s)
	if !m.Valid() {
		return "", errors.Wrap(ErrUnknownTag, fmt.Sprintf("muscle group %q", s), slog.String("muscle_group", s))
	}
	return m, nil
}

// SubRegion is a finer-grained subdivision of a muscle group, e.g. chest-upper vs chest-lower.
type SubRegion string

const (
	RegionChestUpper     SubRegion = "chest-upper"
	RegionChestMid       SubRegion = "chest-mid"
	RegionChestLower     SubRegion = "chest-lower"
	RegionLats           SubRegion = "lats"
	RegionUpperBack      SubRegion = "upper-back"
	RegionTraps          SubRegion = "traps"
	RegionFrontDelts     SubRegion = "front-delts"
	RegionSideDelts      SubRegion = "side-delts"
	RegionRearDelts      SubRegion = "rear-delts"
	RegionBiceps         SubRegion = "biceps"
	RegionTricepsLong    SubRegion = "triceps-long"
	RegionTricepsLateral SubRegion = "triceps-lateral"
	RegionForearms       SubRegion = "forearms"
	RegionQuads          SubRegion = "quads"
	RegionHamstrings     SubRegion = "hamstrings"
	RegionGlutes         SubRegion = "glutes"
	RegionAdductors      SubRegion = "adductors"
	RegionCalves         SubRegion = "calves"
	RegionAbs            SubRegion = "abs"
	RegionObliques       SubRegion = "obliques"
	RegionLowerBack      SubRegion = "lower-back"
)

//nolint:gochecknoglobals // closed enumeration.
var subRegions = []SubRegion{
	RegionChestUpper, RegionChestMid, RegionChestLower, RegionLats, RegionUpperBack, RegionTraps, RegionFrontDelts,
	RegionSideDelts, RegionRearDelts, RegionBiceps, RegionTricepsLong, RegionTricepsLateral, RegionForearms,
	RegionQuads, RegionHamstrings, RegionGlutes, RegionAdductors, RegionCalves, RegionAbs, RegionObliques,
	RegionLowerBack,
}

// Valid reports whether r is a known sub-region.
func (r SubRegion) Valid() bool {
	return slices.Contains(subRegions, r)
}

// Equipment is a piece of equipment an exercise needs.
type Equipment string

const (
	EquipmentBarbell    Equipment = "barbell"
	EquipmentDumbbell   Equipment = "dumbbell"
	EquipmentCable      Equipment = "cable"
	EquipmentMachine    Equipment = "machine"
	EquipmentBodyweight Equipment = "bodyweight"
	EquipmentKettlebell Equipment = "kettlebell"
	EquipmentBench      Equipment = "bench"
	EquipmentPullUpBar  Equipment = "pull-up-bar"
	EquipmentEZBar      Equipment = "ez-bar"
	EquipmentBands      Equipment = "bands"
)

//nolint:gochecknoglobals // closed enumeration.
var equipment = []Equipment{
	EquipmentBarbell, EquipmentDumbbell, EquipmentCable, EquipmentMachine, EquipmentBodyweight,
	EquipmentKettlebell, EquipmentBench, EquipmentPullUpBar, EquipmentEZBar, EquipmentBands,
}

// Valid reports whether e is known equipment.
func (e Equipment) Valid() bool {
	return slices.Contains(equipment, e)
}

// ParseEquipment validates s as an equipment tag.
func ParseEquipment(s string) (Equipment, error) {
	e := Equipment(s)
	if !e.Valid() {
		return "", errors.Wrap(ErrUnknownTag, fmt.Sprintf("equipment %q", s), slog.String("equipment", s))
	}
	return e, nil
}

// MovementCategory classifies the movement pattern.
type MovementCategory string

const (
	MovementHorizontalPush MovementCategory = "horizontal-push"
	MovementVerticalPush   MovementCategory = "vertical-push"
	MovementHorizontalPull MovementCategory = "horizontal-pull"
	MovementVerticalPull   MovementCategory = "vertical-pull"
	MovementSquat          MovementCategory = "squat"
	MovementHinge          MovementCategory = "hinge"
	MovementLunge          MovementCategory = "lunge"
	MovementIsolation      MovementCategory = "isolation"
	MovementCore           MovementCategory = "core"
	MovementCarry          MovementCategory = "carry"
)

//nolint:gochecknoglobals // closed enumeration.
var movementCategories = []MovementCategory{
	MovementHorizontalPush, MovementVerticalPush, MovementHorizontalPull, MovementVerticalPull, MovementSquat,
	MovementHinge, MovementLunge, MovementIsolation, MovementCore, MovementCarry,
}

// Valid reports whether c is a known movement category.
func (c MovementCategory) Valid() bool {
	return slices.Contains(movementCategories, c)
}

// RegionWeight is the relative share of an exercise's stimulus attributed to a sub-region.
//
// Weights of one exercise are non-negative ratios and need not sum to 1.
type RegionWeight struct {
	Region SubRegion `json:"region" yaml:"region"`
	Weight float64   `json:"weight" yaml:"weight"`
}

// Exercise is an immutable catalog entry.
type Exercise struct {
	ID                  string           `json:"id"                   yaml:"id"`
	Name                string           `json:"name"                 yaml:"name"`
	MovementCategory    MovementCategory `json:"movement_category"    yaml:"movement_category"`
	PrimaryMuscles      []MuscleGroup    `json:"primary_muscles"      yaml:"primary_muscles"`
	SecondaryMuscles    []MuscleGroup    `json:"secondary_muscles"    yaml:"secondary_muscles"`
	Equipment           []Equipment      `json:"equipment"            yaml:"equipment"`
	IsUnilateral        bool             `json:"is_unilateral"        yaml:"is_unilateral"`
	TrackE1RM           bool             `json:"track_e1rm"           yaml:"track_e1rm"`
	SubRegionWeights    []RegionWeight   `json:"sub_region_weights"   yaml:"sub_region_weights"`
	Substitutions       []string         `json:"substitutions"        yaml:"substitutions"`
	DescriptionMarkdown string           `json:"description_markdown" yaml:"description_markdown"`
}

// Targets reports whether m is one of the exercise's primary or secondary muscles.
func (e Exercise) Targets(m MuscleGroup) bool {
	return slices.Contains(e.PrimaryMuscles, m) || slices.Contains(e.SecondaryMuscles, m)
}

// Uses reports whether the exercise needs eq.
func (e Exercise) Uses(eq Equipment) bool {
	return slices.Contains(e.Equipment, eq)
}

// clone returns a deep copy so that callers cannot mutate the catalog.
func (e Exercise) clone() Exercise {
	e.PrimaryMuscles = slices.Clone(e.PrimaryMuscles)
	e.SecondaryMuscles = slices.Clone(e.SecondaryMuscles)
	e.Equipment = slices.Clone(e.Equipment)
	e.SubRegionWeights = slices.Clone(e.SubRegionWeights)
	e.Substitutions = slices.Clone(e.Substitutions)
	return e
}
