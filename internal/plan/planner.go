package plan

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/myrjola/liftcoach/internal/ai"
	"github.com/myrjola/liftcoach/internal/errors"
	"github.com/myrjola/liftcoach/internal/observability"
)

const systemPrompt = `You are a strength and nutrition coach. Reply with a single JSON object with the fields ` +
	`dailyCalories, protein, carbs, fats (grams), workoutSplit (array of day labels, one per training day), ` +
	`estimatedWeeks and optionally additionalNotes. Do not add any other text.`

// Planner drafts plans with a language model and falls back to Calculate on any failure.
type Planner struct {
	generator ai.TextGenerator
	timeout   time.Duration
	logger    *slog.Logger
}

// NewPlanner creates a Planner. A nil generator makes Calculate the only path.
func NewPlanner(generator ai.TextGenerator, timeout time.Duration, logger *slog.Logger) *Planner {
	return &Planner{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
	}
}

// Generate returns a plan for p. It never fails: model errors, timeouts and malformed output are logged and
// replaced by the calculated plan.
func (pl *Planner) Generate(ctx context.Context, p Profile) Plan {
	if pl.generator == nil {
		observability.RecordPlan(string(SourceFallback))
		return Calculate(p)
	}

	result, err := pl.generate(ctx, p)
	if err != nil {
		reason := string(ai.Classify(err))
		if errors.Is(err, ErrUnparsablePlan) {
			reason = "unparsable"
		}
		pl.logger.LogAttrs(ctx, slog.LevelWarn, "language model plan failed, using fallback",
			slog.String("reason", reason), errors.SlogError(err))
		observability.RecordPlanFallback(reason)
		observability.RecordPlan(string(SourceFallback))
		return Calculate(p)
	}
	observability.RecordPlan(string(SourceAI))
	return result
}

func (pl *Planner) generate(ctx context.Context, p Profile) (Plan, error) {
	profileJSON, err := json.Marshal(p)
	if err != nil {
		return Plan{}, errors.Wrap(err, "marshal profile")
	}
	if pl.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pl.timeout)
		defer cancel()
	}

	type outcome struct {
		resp ai.Response
		err  error
	}
	done := make(chan outcome, 1)
	start := time.Now()
	go func() {
		resp, genErr := pl.generator.GenerateText(ctx, []ai.Message{
			{Role: ai.RoleSystem, Content: systemPrompt},
			{Role: ai.RoleUser, Content: "Create a plan for this profile: " + string(profileJSON)},
		}, ai.Options{MaxTokens: 800, Temperature: 0.7}) //nolint:mnd // generation budget
		done <- outcome{resp: resp, err: genErr}
	}()

	// Generators that ignore ctx are abandoned at the deadline.
	var out outcome
	select {
	case out = <-done:
	case <-ctx.Done():
		out = outcome{resp: ai.Response{}, err: ctx.Err()}
	}
	observability.ObserveAILatency(time.Since(start))
	if out.err != nil {
		return Plan{}, errors.Wrap(out.err, "generate text")
	}

	result, err := ParseModelPlan(out.resp.Content)
	if err != nil {
		return Plan{}, err
	}
	return result, nil
}
