package plan

import (
	"math"
)

// Source tells whether the language model or the local calculator produced a plan.
type Source string

const (
	SourceAI       Source = "ai"
	SourceFallback Source = "fallback"
)

// Plan is a daily nutrition target with a weekly training split.
type Plan struct {
	DailyCalories   int      `json:"daily_calories"`
	ProteinGrams    int      `json:"protein_grams"`
	CarbsGrams      int      `json:"carbs_grams"`
	FatsGrams       int      `json:"fats_grams"`
	WorkoutSplit    []string `json:"workout_split"`
	EstimatedWeeks  int      `json:"estimated_weeks"`
	AdditionalNotes string   `json:"additional_notes,omitempty"`
	Source          Source   `json:"source"`
}

const (
	kcalPerKg           = 7700
	daysPerWeek         = 7
	maxLossKgPerWeek    = 1.0
	maxGainKgPerWeek    = 0.5
	strengthSurplusKcal = 200

	kcalPerGramProtein = 4
	kcalPerGramCarbs   = 4
	kcalPerGramFat     = 9
)

// BMR returns the Harris-Benedict basal metabolic rate in kcal/day.
func BMR(weightKg, heightCm float64, age int, sex Sex) float64 {
	if sex == SexMale {
		return 88.362 + 13.397*weightKg + 4.799*heightCm - 5.677*float64(age)
	}
	return 447.593 + 9.247*weightKg + 3.098*heightCm - 4.330*float64(age)
}

// ActivityMultiplier maps weekly training frequency and intensity to the TDEE factor.
func ActivityMultiplier(frequency int, intensity Intensity) float64 {
	m := 1.2
	switch {
	case frequency >= 6: //nolint:mnd // sessions per week
		m = 1.725
	case frequency >= 4: //nolint:mnd // sessions per week
		m = 1.55
	case frequency >= 3: //nolint:mnd // sessions per week
		m = 1.375
	}
	switch intensity {
	case IntensityIntense:
		m += 0.1
	case IntensityLight:
		m -= 0.05
	case IntensityModerate:
	}
	return m
}

// TDEE returns total daily energy expenditure for p.
func TDEE(p Profile) float64 {
	return BMR(p.WeightKg, p.HeightCm, p.Age, p.Sex) * ActivityMultiplier(p.TrainingFrequency, p.Intensity)
}

// TimeframeDays resolves the timeframe label to days. Unknown labels count as three months.
func TimeframeDays(tf Timeframe, customDays int) int {
	switch tf {
	case Timeframe1Month:
		return 30
	case Timeframe6Months:
		return 180
	case Timeframe1Year:
		return 365
	case TimeframeCustom:
		if customDays > 0 {
			return customDays
		}
	case Timeframe3Months:
	}
	return 90
}

// DailyCalories applies the goal adjustment to tdee and rounds to whole kcal.
//
// Weight change is spread evenly over days and capped at 1 kg/week for loss and 0.5 kg/week for gain. Without a
// target in the direction of the goal the adjustment is half the cap.
func DailyCalories(tdee float64, p Profile, days int) int {
	switch p.Goal {
	case GoalLoseWeight:
		return roundInt(tdee - dailyAdjustment(p.WeightKg-p.TargetWeightKg, p.TargetWeightKg, days,
			maxLossKgPerWeek))
	case GoalBuildMuscle:
		return roundInt(tdee + dailyAdjustment(p.TargetWeightKg-p.WeightKg, p.TargetWeightKg, days,
			maxGainKgPerWeek))
	case GoalStrength:
		return roundInt(tdee + strengthSurplusKcal)
	case GoalGeneral:
	}
	return roundInt(tdee)
}

func dailyAdjustment(diffKg, targetKg float64, days int, capKgPerWeek float64) float64 {
	capKcal := capKgPerWeek * kcalPerKg / daysPerWeek
	if targetKg <= 0 || diffKg <= 0 || days <= 0 {
		return capKcal / 2 //nolint:mnd // half the cap
	}
	return min(diffKg*kcalPerKg/float64(days), capKcal)
}

// MacroRatios returns the protein, carbs and fat shares of calories for goal.
func MacroRatios(goal Goal) (float64, float64, float64) {
	switch goal {
	case GoalBuildMuscle, GoalStrength:
		return 0.35, 0.40, 0.25
	case GoalLoseWeight:
		return 0.40, 0.30, 0.30
	case GoalGeneral:
	}
	return 0.30, 0.40, 0.30
}

// Macros converts calories to rounded gram amounts for goal.
func Macros(calories int, goal Goal) (int, int, int) {
	p, c, f := MacroRatios(goal)
	kcal := float64(calories)
	return roundInt(kcal * p / kcalPerGramProtein),
		roundInt(kcal * c / kcalPerGramCarbs),
		roundInt(kcal * f / kcalPerGramFat)
}

// WorkoutSplit returns exactly frequency day labels. The template grows from a single full body day to five
// differentiated days and repeats when the frequency exceeds it.
func WorkoutSplit(frequency int) []string {
	if frequency <= 0 {
		return []string{}
	}
	var template []string
	switch {
	case frequency >= 5: //nolint:mnd // days per week
		template = []string{"Push", "Pull", "Legs", "Upper Body", "Full Body"}
	case frequency == 4: //nolint:mnd // days per week
		template = []string{"Upper Body", "Lower Body"}
	case frequency == 3: //nolint:mnd // days per week
		template = []string{"Push", "Pull", "Legs"}
	default:
		template = []string{"Full Body"}
	}
	split := make([]string, frequency)
	for i := range split {
		split[i] = template[i%len(template)]
	}
	return split
}

// Calculate builds a complete plan for p without any network access. It is deterministic.
func Calculate(p Profile) Plan {
	days := TimeframeDays(p.Timeframe, p.CustomDays)
	calories := DailyCalories(TDEE(p), p, days)
	protein, carbs, fats := Macros(calories, p.Goal)
	return Plan{
		DailyCalories:   calories,
		ProteinGrams:    protein,
		CarbsGrams:      carbs,
		FatsGrams:       fats,
		WorkoutSplit:    WorkoutSplit(p.TrainingFrequency),
		EstimatedWeeks:  roundInt(float64(days) / daysPerWeek),
		AdditionalNotes: "Estimated from your profile with standard formulas. Adjust after two weeks of tracking.",
		Source:          SourceFallback,
	}
}

func roundInt(f float64) int {
	return int(math.Round(f))
}
