package mcp

import (
	"context"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/myrjola/liftcoach/internal/catalog"
	"github.com/myrjola/liftcoach/internal/errors"
	"github.com/myrjola/liftcoach/internal/observability"
	"github.com/myrjola/liftcoach/internal/plan"
	"github.com/myrjola/liftcoach/internal/suggest"
	"github.com/myrjola/liftcoach/internal/workout"
)

var stringItems = mcp.Items(map[string]any{"type": "string"})

var toolSearchExercises = mcp.NewTool("search_exercises",
	mcp.WithDescription("Search the exercise catalog by name with optional muscle group and equipment filters."),
	mcp.WithString("query", mcp.Description("Case-insensitive substring of the exercise name. Empty matches all.")),
	mcp.WithString("muscle", mcp.Description("Muscle group tag, e.g. chest, quads, lats.")),
	mcp.WithString("equipment", mcp.Description("Equipment tag, e.g. barbell, dumbbell, cable.")),
)

var toolSuggestExercises = mcp.NewTool("suggest_exercises",
	mcp.WithDescription("Rank catalog exercises for the requested muscle groups. Compound lifts are front-loaded and "+
		"at most 12 exercises are returned."),
	mcp.WithArray("muscle_groups", stringItems, mcp.Description("Muscle group tags to train.")),
	mcp.WithString("training_style", mcp.Enum("strength", "hypertrophy", "endurance")),
	mcp.WithArray("user_history", stringItems, mcp.Description("Exercise ids the user has done before.")),
	mcp.WithString("split_type", mcp.Description("Label of the training day, e.g. push.")),
)

var toolGeneratePlan = mcp.NewTool("generate_plan",
	mcp.WithDescription("Draft daily calories, macros and a weekly training split from an onboarding profile."),
	mcp.WithNumber("age", mcp.Required()),
	mcp.WithString("sex", mcp.Required(), mcp.Enum("male", "female", "other")),
	mcp.WithNumber("weight_kg", mcp.Required()),
	mcp.WithNumber("height_cm", mcp.Required()),
	mcp.WithNumber("target_weight_kg"),
	mcp.WithString("goal", mcp.Required(), mcp.Enum("lose-weight", "build-muscle", "strength", "general")),
	mcp.WithNumber("training_frequency", mcp.Required(), mcp.Description("Sessions per week, 0 to 7.")),
	mcp.WithString("intensity", mcp.Required(), mcp.Enum("light", "moderate", "intense")),
	mcp.WithString("timeframe", mcp.Required(), mcp.Enum("1-month", "3-months", "6-months", "1-year", "custom")),
	mcp.WithNumber("custom_days", mcp.Description("Days to reach the goal when timeframe is custom.")),
)

var toolWeeklyStimulus = mcp.NewTool("weekly_stimulus",
	mcp.WithDescription("Training stimulus per muscle sub-region for the Sunday-to-Saturday week containing date."),
	mcp.WithString("date", mcp.Description("Any date in the week (YYYY-MM-DD). Defaults to today.")),
)

func (h *handlers) searchExercises(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q := catalog.Query{Name: req.GetString("query", ""), Muscle: "", Equipment: ""}
	if m := req.GetString("muscle", ""); m != "" {
		muscle, err := catalog.ParseMuscleGroup(m)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		q.Muscle = muscle
	}
	if eq := req.GetString("equipment", ""); eq != "" {
		equipment, err := catalog.ParseEquipment(eq)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		q.Equipment = equipment
	}
	return jsonResult(h.catalog.Find(q))
}

func (h *handlers) suggestExercises(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := req.GetStringSlice("muscle_groups", nil)
	cfg := suggest.Config{
		MuscleGroups:  make([]catalog.MuscleGroup, 0, len(names)),
		SplitType:     req.GetString("split_type", ""),
		TrainingStyle: suggest.TrainingStyle(req.GetString("training_style", "")),
		UserHistory:   req.GetStringSlice("user_history", nil),
	}
	if !cfg.TrainingStyle.Valid() {
		return mcp.NewToolResultError("unknown training_style " + string(cfg.TrainingStyle)), nil
	}
	for _, name := range names {
		m, err := catalog.ParseMuscleGroup(name)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		cfg.MuscleGroups = append(cfg.MuscleGroups, m)
	}
	result := suggest.Suggest(h.catalog, cfg)
	observability.ObserveSuggestions(result.Count)
	return jsonResult(result)
}

func (h *handlers) generatePlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := plan.Profile{
		Age:               req.GetInt("age", 0),
		Sex:               plan.Sex(req.GetString("sex", "")),
		WeightKg:          req.GetFloat("weight_kg", 0),
		HeightCm:          req.GetFloat("height_cm", 0),
		TargetWeightKg:    req.GetFloat("target_weight_kg", 0),
		Goal:              plan.Goal(req.GetString("goal", "")),
		TrainingFrequency: req.GetInt("training_frequency", 0),
		Intensity:         plan.Intensity(req.GetString("intensity", "")),
		Timeframe:         plan.Timeframe(req.GetString("timeframe", "")),
		CustomDays:        req.GetInt("custom_days", 0),
	}
	if err := p.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(h.planner.Generate(ctx, p))
}

func (h *handlers) weeklyStimulus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := h.now().UTC()
	if date := strings.TrimSpace(req.GetString("date", "")); date != "" {
		day, err := workout.ParseDay(date)
		if err != nil {
			return mcp.NewToolResultError("invalid date, want YYYY-MM-DD"), nil
		}
		ref = day
	}
	report, err := h.reports.WeeklyReport(ctx, ref)
	if err != nil {
		h.logger.LogAttrs(ctx, slog.LevelError, "weekly stimulus tool failed", errors.SlogError(err))
		return mcp.NewToolResultError("could not build weekly report"), nil
	}
	return jsonResult(report)
}

func jsonResult[T any](v T) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
