// Package errors annotates errors with structured slog attributes and the source location where they were wrapped.
//
// It re-exports the standard library helpers so that callers only need to import one errors package.
package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"strings"
)

// annotatedError carries a message, slog attributes, and the source location of the Wrap call.
type annotatedError struct {
	msg         string
	cause       error
	annotations []slog.Attr
	file        string
	line        int
}

func (e *annotatedError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *annotatedError) Unwrap() error {
	return e.cause
}

// NewSentinel creates an error meant to be declared on package level and compared with [Is].
//
// Sentinels carry no source location since they are created at init time.
func NewSentinel(msg string) error {
	return errors.New(msg) //nolint:err113 // this is the sentinel constructor.
}

// New creates a new error annotated with the caller's source location and the given attributes.
func New(msg string, attrs ...slog.Attr) error {
	return newAnnotated(msg, nil, attrs)
}

// Wrap adds context msg and slog attributes to err. The source location of the caller is recorded so that it shows
// up in [SlogError].
func Wrap(err error, msg string, attrs ...slog.Attr) error {
	return newAnnotated(msg, err, attrs)
}

func newAnnotated(msg string, cause error, attrs []slog.Attr) *annotatedError {
	const skip = 2 // newAnnotated, New/Wrap.
	_, file, line, _ := runtime.Caller(skip)
	return &annotatedError{
		msg:         msg,
		cause:       cause,
		annotations: attrs,
		file:        file,
		line:        line,
	}
}

// DecoratePanic converts a recovered panic value into an error pointing at the panicking line.
//
// Returns nil if excp is nil.
func DecoratePanic(excp any) error {
	if excp == nil {
		return nil
	}
	const maxDepth = 32
	pcs := make([]uintptr, maxDepth)
	n := runtime.Callers(1, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	var (
		file          string
		line          int
		passedGopanic bool
	)
	for {
		frame, more := frames.Next()
		if passedGopanic && !strings.HasPrefix(frame.Function, "runtime.") {
			file, line = frame.File, frame.Line
			break
		}
		if frame.Function == "runtime.gopanic" {
			passedGopanic = true
		}
		if !more {
			break
		}
	}
	var cause error
	if err, ok := excp.(error); ok {
		cause = err
	} else {
		cause = NewSentinel(fmt.Sprint(excp))
	}
	return &annotatedError{
		msg:         "panic",
		cause:       cause,
		annotations: nil,
		file:        file,
		line:        line,
	}
}

// SlogError flattens err into a slog group with the error message, all annotations found in the chain, and the
// source location of the outermost annotated error.
func SlogError(err error) slog.Attr {
	if err == nil {
		return slog.Attr{Key: "error", Value: slog.StringValue("<nil>")}
	}
	attrs := []slog.Attr{slog.String("message", err.Error())}
	var (
		annotations []slog.Attr
		source      string
	)
	walk(err, func(ae *annotatedError) {
		annotations = append(annotations, ae.annotations...)
		if source == "" && ae.file != "" {
			source = ae.file + ":" + strconv.Itoa(ae.line)
		}
	})
	if len(annotations) > 0 {
		attrs = append(attrs, slog.Attr{Key: "annotations", Value: slog.GroupValue(annotations...)})
	}
	if source != "" {
		attrs = append(attrs, slog.String("source", source))
	}
	return slog.Attr{Key: "error", Value: slog.GroupValue(attrs...)}
}

// walk visits every annotatedError in the tree rooted at err, including joined errors.
func walk(err error, visit func(*annotatedError)) {
	if err == nil {
		return
	}
	if ae, ok := err.(*annotatedError); ok { //nolint:errorlint // we walk the chain manually.
		visit(ae)
	}
	switch u := err.(type) { //nolint:errorlint // we walk the chain manually.
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			walk(inner, visit)
		}
	case interface{ Unwrap() error }:
		walk(u.Unwrap(), visit)
	}
}

// Is reports whether any error in err's tree matches target. See [errors.Is].
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target. See [errors.As].
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Unwrap returns the result of calling the Unwrap method on err. See [errors.Unwrap].
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join returns an error that wraps the given errors. See [errors.Join].
func Join(errs ...error) error {
	return errors.Join(errs...)
}
