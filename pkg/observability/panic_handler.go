package observability

import (
	"runtime/debug"
)

// RecoverPanic recovers a panic in a defer and logs it with the stack.
// The panic is not re-raised; background jobs use this so a single bad run
// does not take the process down.
func RecoverPanic(logger *Logger, context string) {
	if r := recover(); r != nil {
		logger.WithField("panic", r).
			WithField("stack", string(debug.Stack())).
			WithField("context", context).
			Error("PANIC recovered")
	}
}
