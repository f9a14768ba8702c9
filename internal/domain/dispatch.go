package domain

import "context"

// TaskDispatcher runs work in the background, detached from the caller.
// Submit must not block; it fails when the task cannot be queued.
type TaskDispatcher interface {
	Submit(name string, task func(ctx context.Context) error) error
}
