package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/myrjola/liftcoach/internal/e2etest"
	"github.com/myrjola/liftcoach/internal/errors"
)

const (
	defaultTimeout  = 2 * time.Second
	shutdownTimeout = 5 * time.Second
)

func (app *application) newHTTPServer(handler http.Handler) *http.Server {
	return &http.Server{
		ErrorLog:          slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
		Handler:           handler,
		IdleTimeout:       time.Minute,
		ReadTimeout:       defaultTimeout,
		WriteTimeout:      defaultTimeout,
		ReadHeaderTimeout: time.Second,
	}
}

// configureAndStartServer listens on addr and serves handler until ctx is done, then drains open requests.
// The bound address is logged under e2etest.LogAddrKey so tests can use port 0.
func (app *application) configureAndStartServer(ctx context.Context, addr string, handler http.Handler) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "listen", slog.String("addr", addr))
	}
	bound := listener.Addr().String()
	srv := app.newHTTPServer(handler)

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		app.logger.LogAttrs(ctx, slog.LevelInfo, "shutting down server", slog.String("addr", bound))
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			app.logger.LogAttrs(ctx, slog.LevelError, "shutdown server",
				errors.SlogError(errors.Wrap(shutdownErr, "shutdown server")))
		}
	}()

	app.logger.LogAttrs(ctx, slog.LevelInfo, "starting server", slog.String(e2etest.LogAddrKey, bound))
	if err = srv.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serve", slog.String("addr", bound))
	}
	<-drained
	return nil
}
