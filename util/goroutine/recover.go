package goroutine

import (
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"
)

const (
	// StackTraceBufferSize is the buffer size for stack trace collection
	StackTraceBufferSize = 4096
)

// PanicHook is notified after a panic has been recovered and logged.
type PanicHook func(name string, value interface{})

// RecoverWithHook recovers from a panic, logs it with a stack trace and then
// calls hook with the panic value. If logger is nil, falls back to stderr so the
// panic is still recorded. Must be called directly by defer.
func RecoverWithHook(name string, logger *zap.SugaredLogger, hook PanicHook) {
	if r := recover(); r != nil {
		report(name, r, logger, hook)
	}
}

// Safe runs fn and converts a panic into a logged event. It reports whether
// fn returned normally.
func Safe(name string, logger *zap.SugaredLogger, hook PanicHook, fn func()) (ok bool) {
	defer RecoverWithHook(name, logger, hook)
	fn()
	return true
}

func report(name string, r interface{}, logger *zap.SugaredLogger, hook PanicHook) {
	buf := make([]byte, StackTraceBufferSize)
	n := runtime.Stack(buf, false)

	if logger != nil {
		logger.Errorw("Goroutine panic recovered",
			"goroutine", name,
			"panic", r,
			"stack", string(buf[:n]))
	} else {
		fmt.Fprintf(os.Stderr, "PANIC in goroutine %s (no logger): %v\n%s\n",
			name, r, string(buf[:n]))
	}

	if hook != nil {
		hook(name, r)
	}
}
