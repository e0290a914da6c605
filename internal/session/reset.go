// Package session implements the confirmed "clear everything" action.
package session

import (
	"context"
	"log/slog"
)

// Texts shown by the reset flow.
const (
	Prompt    = "Clear all documents and chat?"
	AlertText = "Error"
)

// Clearer drops the backend session.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Outcome tells the caller what to do after a reset attempt.
type Outcome struct {
	Declined bool
	Navigate bool   // discard controllers and return to the root screen
	Alert    string // blocking alert text, empty when none
	Busy     bool   // refused because a reset is already in flight
}

// Reset guards the clear request with a busy flag.
type Reset struct {
	busy bool
}

// Busy reports whether a clear request is in flight.
func (r *Reset) Busy() bool { return r.busy }

// Begin marks a clear request in flight. It reports false when one already
// is.
func (r *Reset) Begin() bool {
	if r.busy {
		return false
	}
	r.busy = true
	return true
}

// Finish records the result of the clear request.
func (r *Reset) Finish(err error) Outcome {
	r.busy = false
	if err != nil {
		slog.Warn("Session reset failed", "error", err)
		return Outcome{Alert: AlertText}
	}
	slog.Info("Session cleared")
	return Outcome{Navigate: true}
}

// Execute issues the clear request without asking for confirmation.
func (r *Reset) Execute(ctx context.Context, c Clearer) Outcome {
	if !r.Begin() {
		return Outcome{Busy: true}
	}
	return r.Finish(c.Clear(ctx))
}

// Run asks for confirmation and, when given, clears the session.
func (r *Reset) Run(ctx context.Context, conf Confirmer, c Clearer) Outcome {
	if r.busy {
		return Outcome{Busy: true}
	}
	if !conf.Confirm(Prompt) {
		return Outcome{Declined: true}
	}
	return r.Execute(ctx, c)
}
