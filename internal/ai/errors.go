package ai

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"

	"github.com/myrjola/liftcoach/internal/errors"
)

// ErrorKind groups language model failures for logging and metrics.
type ErrorKind string

const (
	KindRateLimit      ErrorKind = "rate_limit"
	KindQuotaExceeded  ErrorKind = "quota_exceeded"
	KindInvalidRequest ErrorKind = "invalid_request"
	KindAuthentication ErrorKind = "authentication"
	KindPermission     ErrorKind = "permission"
	KindNotFound       ErrorKind = "not_found"
	KindServer         ErrorKind = "server_error"
	KindTimeout        ErrorKind = "timeout"
	KindCanceled       ErrorKind = "canceled"
	KindEmpty          ErrorKind = "empty_response"
	KindUnknown        ErrorKind = "unknown"
)

// Retryable reports whether the same request may succeed later.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindRateLimit, KindServer, KindTimeout, KindEmpty:
		return true
	case KindQuotaExceeded, KindInvalidRequest, KindAuthentication, KindPermission, KindNotFound, KindCanceled,
		KindUnknown:
		return false
	}
	return false
}

// Classify maps err to an ErrorKind. API errors are classified by status code and other errors by their message.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, ErrEmptyResponse):
		return KindEmpty
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests && apiErr.Code == "insufficient_quota":
			return KindQuotaExceeded
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return KindRateLimit
		case apiErr.StatusCode == http.StatusUnauthorized:
			return KindAuthentication
		case apiErr.StatusCode == http.StatusForbidden:
			return KindPermission
		case apiErr.StatusCode == http.StatusNotFound:
			return KindNotFound
		case apiErr.StatusCode == http.StatusRequestTimeout:
			return KindTimeout
		case apiErr.StatusCode >= http.StatusInternalServerError:
			return KindServer
		case apiErr.StatusCode >= http.StatusBadRequest:
			return KindInvalidRequest
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "too many requests"):
		return KindRateLimit
	case strings.Contains(msg, "quota") || strings.Contains(msg, "billing"):
		return KindQuotaExceeded
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "api key"):
		return KindAuthentication
	case strings.Contains(msg, "forbidden") || strings.Contains(msg, "permission"):
		return KindPermission
	case strings.Contains(msg, "timeout"):
		return KindTimeout
	case strings.Contains(msg, "502") || strings.Contains(msg, "503") || strings.Contains(msg, "504"):
		return KindServer
	default:
		return KindUnknown
	}
}

// RetryAfter returns the delay requested by a rate limited API response, or zero.
func RetryAfter(err error) time.Duration {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) || apiErr.Response == nil {
		return 0
	}
	header := apiErr.Response.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	if seconds, parseErr := strconv.Atoi(header); parseErr == nil {
		return time.Duration(seconds) * time.Second
	}
	if at, parseErr := http.ParseTime(header); parseErr == nil {
		return max(time.Until(at), 0)
	}
	return 0
}
