// Package shutdown maps platform termination signals onto a context.
package shutdown

import (
	"context"
	"os"
	"os/signal"
)

// Context is canceled on the first termination signal or when stop is
// called.
func Context(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, signals...)
}

// Signals lists the signals treated as a request to exit.
func Signals() []os.Signal {
	return append([]os.Signal(nil), signals...)
}
