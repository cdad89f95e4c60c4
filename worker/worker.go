// Package worker runs long-lived jobs under a single supervisor.
package worker

import "context"

// Worker runs until ctx is cancelled. A returned error is reported by the
// Manager once every worker has stopped.
type Worker interface {
	Start(ctx context.Context) error
}
