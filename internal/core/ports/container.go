package ports

import (
	"context"
	"errors"

	"github.com/melih/unbound-panel/internal/core/domain"
)

var (
	// ErrContainerNotFound is returned when the resolver container does not exist.
	ErrContainerNotFound = errors.New("resolver container not found")
	// ErrRuntimeUnavailable is returned when no container runtime client could be created.
	ErrRuntimeUnavailable = errors.New("docker socket not available")
)

// ResolverService controls the container the resolver runs in.
// Implementations talk to Docker today, but the handlers only see this interface.
type ResolverService interface {
	// Status never fails: any lookup problem yields a stopped snapshot.
	Status(ctx context.Context) domain.Status
	Restart(ctx context.Context) error
}

// Prober performs a cheap liveness check before the runtime is consulted.
type Prober interface {
	Probe(ctx context.Context) error
}
