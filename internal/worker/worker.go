// Package worker runs background tasks: live vehicle polling for the
// active route and cache prefetching for configured routes.
package worker

import (
	"context"
)

// Worker is the contract for all background workers.
type Worker interface {
	// Start runs the worker until its context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop signals the worker to shut down.
	Stop() error

	// Name returns the worker's name for logging.
	Name() string
}
