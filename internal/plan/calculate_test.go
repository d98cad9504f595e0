package plan_test

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/myrjola/liftcoach/internal/plan"
)

func baseProfile() plan.Profile {
	return plan.Profile{
		Age:               30,
		Sex:               plan.SexMale,
		WeightKg:          80,
		HeightCm:          175,
		TargetWeightKg:    70,
		Goal:              plan.GoalLoseWeight,
		TrainingFrequency: 3,
		Intensity:         plan.IntensityModerate,
		Timeframe:         plan.Timeframe3Months,
		CustomDays:        0,
	}
}

func TestBMR(t *testing.T) {
	t.Parallel()
	got := plan.BMR(70, 175, 30, plan.SexMale)
	want := 88.362 + 13.397*70 + 4.799*175 - 5.677*30
	if math.Abs(got-want) > 1e-9 || math.Abs(got-1695.7) > 0.5 {
		t.Errorf("BMR(male) = %v, want %v", got, want)
	}
	for _, sex := range []plan.Sex{plan.SexFemale, plan.SexOther} {
		got = plan.BMR(60, 165, 40, sex)
		want = 447.593 + 9.247*60 + 3.098*165 - 4.330*40
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("BMR(%s) = %v, want %v", sex, got, want)
		}
	}
}

func TestActivityMultiplier(t *testing.T) {
	t.Parallel()
	tests := []struct {
		frequency int
		intensity plan.Intensity
		want      float64
	}{
		{frequency: 0, intensity: plan.IntensityModerate, want: 1.2},
		{frequency: 2, intensity: plan.IntensityLight, want: 1.15},
		{frequency: 3, intensity: plan.IntensityModerate, want: 1.375},
		{frequency: 4, intensity: plan.IntensityIntense, want: 1.65},
		{frequency: 5, intensity: plan.IntensityModerate, want: 1.55},
		{frequency: 6, intensity: plan.IntensityModerate, want: 1.725},
		{frequency: 7, intensity: plan.IntensityIntense, want: 1.825},
	}
	for _, tt := range tests {
		got := plan.ActivityMultiplier(tt.frequency, tt.intensity)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ActivityMultiplier(%d, %s) = %v, want %v", tt.frequency, tt.intensity, got, tt.want)
		}
	}
}

func TestDailyCaloriesCapsWeightLoss(t *testing.T) {
	t.Parallel()
	p := baseProfile()
	tdee := plan.TDEE(p)
	const capKcal = 1100

	for _, days := range []int{7, 30, 90, 365} {
		got := plan.DailyCalories(tdee, p, days)
		if deficit := tdee - float64(got); deficit > capKcal+0.5 {
			t.Errorf("%d days: deficit %v exceeds cap", days, deficit)
		}
	}
	// Ten kilos in a month is well above the cap so the cap applies exactly.
	if got, want := plan.DailyCalories(tdee, p, 30), int(math.Round(tdee-capKcal)); got != want {
		t.Errorf("30 days: calories = %d, want %d", got, want)
	}
	// Over a year the naive rate is below the cap.
	if got, want := plan.DailyCalories(tdee, p, 365), int(math.Round(tdee-10*7700.0/365)); got != want {
		t.Errorf("365 days: calories = %d, want %d", got, want)
	}
}

func TestDailyCaloriesByGoal(t *testing.T) {
	t.Parallel()
	const tdee = 2500.4
	tests := []struct {
		name   string
		goal   plan.Goal
		weight float64
		target float64
		days   int
		want   int
	}{
		{name: "gain capped", goal: plan.GoalBuildMuscle, weight: 70, target: 80, days: 30, want: 3050},
		{name: "gain spread", goal: plan.GoalBuildMuscle, weight: 70, target: 72, days: 154, want: 2600},
		{name: "gain without target", goal: plan.GoalBuildMuscle, weight: 70, days: 90, want: 2775},
		{name: "loss without target", goal: plan.GoalLoseWeight, weight: 70, days: 90, want: 1950},
		{name: "strength", goal: plan.GoalStrength, weight: 70, target: 60, days: 30, want: 2700},
		{name: "general", goal: plan.GoalGeneral, weight: 70, target: 60, days: 30, want: 2500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := plan.Profile{Goal: tt.goal, WeightKg: tt.weight, TargetWeightKg: tt.target}
			if got := plan.DailyCalories(tdee, p, tt.days); got != tt.want {
				t.Errorf("DailyCalories() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMacrosMatchCalories(t *testing.T) {
	t.Parallel()
	goals := []plan.Goal{plan.GoalLoseWeight, plan.GoalBuildMuscle, plan.GoalStrength, plan.GoalGeneral}
	for _, goal := range goals {
		for calories := 1200; calories <= 4000; calories += 37 {
			protein, carbs, fats := plan.Macros(calories, goal)
			sum := protein*4 + carbs*4 + fats*9
			if diff := math.Abs(float64(sum - calories)); diff > 9 {
				t.Errorf("%s at %d kcal: macros sum to %d", goal, calories, sum)
			}
		}
	}
	if p, c, f := plan.Macros(2000, plan.GoalBuildMuscle); p != 175 || c != 200 || f != 56 {
		t.Errorf("Macros(2000, build) = %d/%d/%d, want 175/200/56", p, c, f)
	}
}

func TestWorkoutSplit(t *testing.T) {
	t.Parallel()
	tests := []struct {
		frequency int
		want      []string
	}{
		{frequency: 0, want: []string{}},
		{frequency: 1, want: []string{"Full Body"}},
		{frequency: 2, want: []string{"Full Body", "Full Body"}},
		{frequency: 3, want: []string{"Push", "Pull", "Legs"}},
		{frequency: 4, want: []string{"Upper Body", "Lower Body", "Upper Body", "Lower Body"}},
		{frequency: 5, want: []string{"Push", "Pull", "Legs", "Upper Body", "Full Body"}},
		{frequency: 7, want: []string{"Push", "Pull", "Legs", "Upper Body", "Full Body", "Push", "Pull"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, plan.WorkoutSplit(tt.frequency)); diff != "" {
			t.Errorf("WorkoutSplit(%d) mismatch (-want +got):\n%s", tt.frequency, diff)
		}
	}
}

func TestCalculate(t *testing.T) {
	t.Parallel()
	p := baseProfile()
	got := plan.Calculate(p)
	if got.Source != plan.SourceFallback {
		t.Errorf("Source = %q", got.Source)
	}
	if got.EstimatedWeeks != 13 {
		t.Errorf("EstimatedWeeks = %d, want 13", got.EstimatedWeeks)
	}
	if len(got.WorkoutSplit) != p.TrainingFrequency {
		t.Errorf("split has %d days, want %d", len(got.WorkoutSplit), p.TrainingFrequency)
	}
	if diff := cmp.Diff(got, plan.Calculate(p)); diff != "" {
		t.Errorf("Calculate is not deterministic:\n%s", diff)
	}

	p.Timeframe = plan.TimeframeCustom
	p.CustomDays = 45
	if weeks := plan.Calculate(p).EstimatedWeeks; weeks != 6 {
		t.Errorf("custom 45 days = %d weeks, want 6", weeks)
	}
}

func TestProfileValidate(t *testing.T) {
	t.Parallel()
	if err := baseProfile().Validate(); err != nil {
		t.Errorf("valid profile: %v", err)
	}
	invalid := baseProfile()
	invalid.Age = 0
	invalid.Goal = "bulk"
	invalid.Timeframe = plan.TimeframeCustom
	err := invalid.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, msg := range []string{"age out of range", "unknown goal", "custom days out of range"} {
		if !strings.Contains(err.Error(), msg) {
			t.Errorf("error %q does not mention %q", err, msg)
		}
	}
}
