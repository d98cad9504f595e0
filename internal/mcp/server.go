// Package mcp exposes the exercise catalog, suggestions, plans and weekly reports as Model Context Protocol tools.
package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/myrjola/liftcoach/internal/catalog"
	"github.com/myrjola/liftcoach/internal/plan"
	"github.com/myrjola/liftcoach/internal/workout"
)

// Planner produces a plan for a profile. *plan.Planner satisfies it.
type Planner interface {
	Generate(ctx context.Context, p plan.Profile) plan.Plan
}

// WeeklyReporter reports the week containing a reference time. *workout.Service satisfies it.
type WeeklyReporter interface {
	WeeklyReport(ctx context.Context, ref time.Time) (workout.WeeklyReport, error)
}

var (
	_ Planner        = (*plan.Planner)(nil)
	_ WeeklyReporter = (*workout.Service)(nil)
)

// New creates an MCP server with all tools registered.
func New(
	cat *catalog.Catalog,
	planner Planner,
	reports WeeklyReporter,
	version string,
	logger *slog.Logger,
) *server.MCPServer {
	s := server.NewMCPServer("liftcoach", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Strength training coach. Search the exercise catalog, rank exercises for target "+
			"muscle groups, draft nutrition and training plans, and report weekly training stimulus per muscle region."),
	)

	h := &handlers{catalog: cat, planner: planner, reports: reports, logger: logger, now: time.Now}
	s.AddTools(
		server.ServerTool{Tool: toolSearchExercises, Handler: h.searchExercises},
		server.ServerTool{Tool: toolSuggestExercises, Handler: h.suggestExercises},
		server.ServerTool{Tool: toolGeneratePlan, Handler: h.generatePlan},
		server.ServerTool{Tool: toolWeeklyStimulus, Handler: h.weeklyStimulus},
	)
	return s
}

type handlers struct {
	catalog *catalog.Catalog
	planner Planner
	reports WeeklyReporter
	logger  *slog.Logger
	now     func() time.Time
}
