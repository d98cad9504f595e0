package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/sync/errgroup"

	"github.com/myrjola/liftcoach/internal/ai"
	"github.com/myrjola/liftcoach/internal/catalog"
	"github.com/myrjola/liftcoach/internal/envstruct"
	"github.com/myrjola/liftcoach/internal/errors"
	"github.com/myrjola/liftcoach/internal/flightrecorder"
	"github.com/myrjola/liftcoach/internal/logging"
	"github.com/myrjola/liftcoach/internal/mcp"
	"github.com/myrjola/liftcoach/internal/plan"
	"github.com/myrjola/liftcoach/internal/sqlite"
	"github.com/myrjola/liftcoach/internal/workout"
)

type application struct {
	logger         *slog.Logger
	catalog        *catalog.Catalog
	workoutService *workout.Service
	planner        *plan.Planner
	mcpHandler     http.Handler
	// flightRecorder is nil unless a traces directory is configured.
	flightRecorder *flightrecorder.Service
	// planTimeout bounds the requests that may wait on the language model.
	planTimeout  time.Duration
	serveMetrics bool
	now          func() time.Time
}

type config struct {
	// Addr is the address to listen on. It's possible to choose the address dynamically with localhost:0.
	Addr string `env:"LIFTCOACH_ADDR" envDefault:"localhost:8081"`
	// MetricsAddr is an optional separate address for the Prometheus endpoint. When empty /metrics is served on Addr.
	MetricsAddr string `env:"LIFTCOACH_METRICS_ADDR" envDefault:""`
	// SqliteURL is the URL to the SQLite database. You can use ":memory:" for an ethereal in-memory database.
	SqliteURL string `env:"LIFTCOACH_SQLITE_URL" envDefault:"./liftcoach.sqlite3"`
	// OpenAIAPIKey enables language model plans. Without it every plan comes from the calculator.
	OpenAIAPIKey string `env:"LIFTCOACH_OPENAI_API_KEY" envDefault:""`
	// OpenAIBaseURL overrides the API endpoint, e.g. for a compatible self-hosted server.
	OpenAIBaseURL string `env:"LIFTCOACH_OPENAI_BASE_URL" envDefault:""`
	OpenAIModel   string `env:"LIFTCOACH_OPENAI_MODEL" envDefault:""`
	// AITimeout bounds a single plan generation before falling back to the calculator.
	AITimeout    time.Duration `env:"LIFTCOACH_AI_TIMEOUT" envDefault:"20s"`
	AICacheTTL   time.Duration `env:"LIFTCOACH_AI_CACHE_TTL" envDefault:"10m"`
	AICacheBytes int           `env:"LIFTCOACH_AI_CACHE_BYTES" envDefault:"8388608"`
	// TracesDirectory enables the flight recorder. Timed out requests dump the recent execution trace there.
	TracesDirectory string `env:"LIFTCOACH_TRACES_DIRECTORY" envDefault:""`
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	var (
		cancel context.CancelFunc
		err    error
	)

	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}

	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(context.Background(), slog.LevelError, "close db", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db")

	cat := catalog.Default()
	workoutService := workout.NewService(db, logger, cat)
	planner := plan.NewPlanner(newTextGenerator(cfg, logger), cfg.AITimeout, logger)
	mcpServer := mcp.New(cat, planner, workoutService, version(), logger)

	var recorder *flightrecorder.Service
	if cfg.TracesDirectory != "" {
		if recorder, err = flightrecorder.New(flightrecorder.Config{
			MinAge:          0,
			MaxBytes:        0,
			Cooldown:        0,
			TracesDirectory: cfg.TracesDirectory,
		}, logger); err != nil {
			return errors.Wrap(err, "new flight recorder")
		}
		if err = recorder.Start(ctx); err != nil {
			return errors.Wrap(err, "start flight recorder")
		}
		defer recorder.Stop(context.Background())
	}

	app := application{
		logger:         logger,
		catalog:        cat,
		workoutService: workoutService,
		planner:        planner,
		mcpHandler:     server.NewStreamableHTTPServer(mcpServer),
		flightRecorder: recorder,
		planTimeout:    cfg.AITimeout + defaultTimeout,
		serveMetrics:   cfg.MetricsAddr == "",
		now:            time.Now,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := app.configureAndStartServer(ctx, cfg.Addr, app.routes()); err != nil {
			return errors.Wrap(err, "start server")
		}
		return nil
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			if err := app.configureAndStartServer(ctx, cfg.MetricsAddr, metricsRoutes()); err != nil {
				return errors.Wrap(err, "start metrics server")
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return errors.Wrap(err, "serve")
	}
	return nil
}

// newTextGenerator returns nil when no API key is configured so that the planner always uses the calculator.
func newTextGenerator(cfg config, logger *slog.Logger) ai.TextGenerator {
	if cfg.OpenAIAPIKey == "" {
		logger.LogAttrs(context.Background(), slog.LevelInfo, "no OpenAI API key, plans use the calculator only")
		return nil
	}
	var opts []option.RequestOption
	if cfg.OpenAIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAIBaseURL))
	}
	client := ai.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, logger, opts...)
	if cfg.AICacheBytes <= 0 {
		return client
	}
	return ai.NewCachedGenerator(client, cfg.AICacheBytes, cfg.AICacheTTL, logger)
}

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "(devel)"
}

func main() {
	ctx := context.Background()
	level, err := logging.ParseLevel(os.Getenv("LIFTCOACH_LOG_LEVEL"))
	logger := logging.New(os.Stdout, level)
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelWarn, "invalid log level, using debug", errors.SlogError(err))
	}
	if err = run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
