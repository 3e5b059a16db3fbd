package orchestrator

import "context"

// ProgressSurface is the live channel showing in-progress agent work.
// The frontend renders it as a collapsible step.
type ProgressSurface interface {
	StreamToken(ctx context.Context, token string) error
	SetLabel(ctx context.Context, label string) error
	Close(ctx context.Context) error
}

// FinalSurface is the live channel carrying the authoritative answer.
// Send delivers the completed message; it must be called exactly once,
// even when no content was produced.
type FinalSurface interface {
	StreamToken(ctx context.Context, token string) error
	Notify(ctx context.Context, message string) error
	Send(ctx context.Context) error
}
