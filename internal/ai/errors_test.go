package ai_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/openai/openai-go/v3"

	"github.com/myrjola/liftcoach/internal/ai"
)

func TestClassify(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want ai.ErrorKind
	}{
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: ai.KindTimeout},
		{name: "canceled", err: context.Canceled, want: ai.KindCanceled},
		{name: "empty", err: ai.ErrEmptyResponse, want: ai.KindEmpty},
		{name: "rate limit status", err: &openai.Error{StatusCode: http.StatusTooManyRequests}, want: ai.KindRateLimit},
		{
			name: "quota",
			err:  &openai.Error{StatusCode: http.StatusTooManyRequests, Code: "insufficient_quota"},
			want: ai.KindQuotaExceeded,
		},
		{name: "auth", err: &openai.Error{StatusCode: http.StatusUnauthorized}, want: ai.KindAuthentication},
		{name: "server", err: &openai.Error{StatusCode: http.StatusBadGateway}, want: ai.KindServer},
		{name: "bad request", err: &openai.Error{StatusCode: http.StatusBadRequest}, want: ai.KindInvalidRequest},
		{name: "message fallback", err: errors.New("Too Many Requests"), want: ai.KindRateLimit},
		{name: "unknown", err: errors.New("something odd"), want: ai.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ai.Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorKindRetryable(t *testing.T) {
	t.Parallel()
	if !ai.KindRateLimit.Retryable() {
		t.Error("rate limit should be retryable")
	}
	if ai.KindAuthentication.Retryable() {
		t.Error("authentication should not be retryable")
	}
}
