// File: internal/domain/ports/adapter/background.go
package adapter

import "context"

// BackgroundRunner hands a task to a worker pool. Submit returns an error
// when the pool is saturated; callers treat that as a dropped task, not a
// reason to block the handler.
type BackgroundRunner interface {
	Submit(task func(ctx context.Context) error) error
}
