package ai

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/coocood/freecache"
	"golang.org/x/sync/singleflight"

	"github.com/myrjola/liftcoach/internal/errors"
)

// CachedGenerator remembers successful generations for a TTL and collapses concurrent identical requests.
// Failures are never cached so callers see every error and can fall back.
type CachedGenerator struct {
	next   TextGenerator
	cache  *freecache.Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewCachedGenerator wraps next with a cache of sizeBytes. freecache enforces a minimum of 512 KiB.
func NewCachedGenerator(next TextGenerator, sizeBytes int, ttl time.Duration, logger *slog.Logger) *CachedGenerator {
	return &CachedGenerator{
		next:   next,
		cache:  freecache.NewCache(sizeBytes),
		ttl:    ttl,
		group:  singleflight.Group{},
		logger: logger,
	}
}

type cacheKeyInput struct {
	Operation string    `json:"operation"`
	Messages  []Message `json:"messages"`
	Options   Options   `json:"options"`
}

func cacheKey(messages []Message, opts Options) ([]byte, error) {
	data, err := json.Marshal(cacheKeyInput{Operation: "generate_text", Messages: messages, Options: opts})
	if err != nil {
		return nil, errors.Wrap(err, "marshal cache key")
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

// GenerateText returns a cached response when one exists and otherwise delegates to the wrapped generator.
func (c *CachedGenerator) GenerateText(ctx context.Context, messages []Message, opts Options) (Response, error) {
	key, err := cacheKey(messages, opts)
	if err != nil {
		return Response{}, err
	}
	if cached, getErr := c.cache.Get(key); getErr == nil {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "language model cache hit")
		return Response{Content: string(cached)}, nil
	}

	flight := c.group.DoChan(string(key), func() (any, error) {
		// The flight outlives a caller that gives up. It keeps the caller's deadline but not its cancellation.
		flightCtx := context.WithoutCancel(ctx)
		if deadline, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			flightCtx, cancel = context.WithDeadline(flightCtx, deadline)
			defer cancel()
		}
		resp, genErr := c.next.GenerateText(flightCtx, messages, opts)
		if genErr != nil {
			return Response{}, genErr
		}
		if setErr := c.cache.Set(key, []byte(resp.Content), expireSeconds(c.ttl)); setErr != nil {
			c.logger.LogAttrs(flightCtx, slog.LevelWarn, "failed to cache language model response",
				errors.SlogError(setErr))
		}
		return resp, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return Response{}, errors.Wrap(context.Cause(ctx), "wait for language model")
	case res = <-flight:
	}
	if res.Err != nil {
		return Response{}, res.Err //nolint:wrapcheck // the caller classifies the generator's error.
	}
	if res.Shared {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "shared in-flight language model request")
	}
	resp, _ := res.Val.(Response)
	return resp, nil
}

func expireSeconds(ttl time.Duration) int {
	return max(int(ttl/time.Second), 1)
}
