// Package e2etest starts the liftcoach server in-process and talks to it over HTTP.
package e2etest

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/myrjola/liftcoach/internal/logging"
)

// LogAddrKey is the log attribute carrying the listener address. The server picks a free port in tests
// and the harness learns it from this attribute.
const LogAddrKey = "addr"

// RunFunc has the signature of the server entrypoint.
type RunFunc func(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error

// Server is a running in-process liftcoach server.
type Server struct {
	url    string
	client *Client
	stop   context.CancelCauseFunc
	done   <-chan struct{}
}

// Start runs the server, waits until /api/healthy answers and registers shutdown with t.Cleanup.
// Server logs go to logSink, usually testhelpers.NewWriter(t). Startup failures fail the test.
func Start(t *testing.T, logSink io.Writer, lookupEnv func(string) (string, bool), run RunFunc) *Server {
	t.Helper()

	ctx, stop := context.WithCancelCause(t.Context())
	done := make(chan struct{})
	logger, addrs := addrScrapingLogger(logSink)

	go func() {
		defer close(done)
		if err := run(ctx, logger, lookupEnv); err != nil {
			stop(err)
		}
	}()
	s := &Server{stop: stop, done: done}
	t.Cleanup(s.Shutdown)

	select {
	case <-ctx.Done():
		t.Fatalf("server exited before listening: %v", context.Cause(ctx))
	case addr := <-addrs:
		s.url = "http://" + addr
	}

	s.client = NewClient(s.url)
	if err := s.client.WaitForReady(ctx, "/api/healthy"); err != nil {
		t.Fatalf("server at %s never became ready: %v", s.url, err)
	}
	return s
}

// addrScrapingLogger returns a debug logger writing to sink and a channel receiving the first logged address.
func addrScrapingLogger(sink io.Writer) (*slog.Logger, <-chan string) {
	addrs := make(chan string, 1)
	opts := &slog.HandlerOptions{
		AddSource: false,
		Level:     slog.LevelDebug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == LogAddrKey {
				select {
				case addrs <- a.Value.String():
				default:
				}
			}
			return a
		},
	}
	return slog.New(logging.NewContextHandler(slog.NewTextHandler(sink, opts))), addrs
}

func (s *Server) Client() *Client {
	return s.client
}

func (s *Server) URL() string {
	return s.url
}

// Shutdown cancels the server context and waits for run to return. It is safe to call more than once.
func (s *Server) Shutdown() {
	s.stop(nil)
	<-s.done
}
