package logging

import (
	"fmt"
	"runtime/debug"
)

// Recover logs a panic with its stack instead of letting it crash the process.
// Use as `defer logger.Recover("op")` at the top of goroutines that must not
// take the window down with them.
func (l *Logger) Recover(op string) {
	if r := recover(); r != nil {
		l.Error("panic recovered",
			"op", op,
			"panic", fmt.Sprintf("%v", r),
			"stack", string(debug.Stack()),
		)
	}
}
