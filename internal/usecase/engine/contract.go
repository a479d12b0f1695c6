package engine

import (
	"context"

	"github.com/kailas-cloud/ekn/internal/usecase/resolver"
)

// Builder creates the resolver for one content domain.
type Builder interface {
	Build(ctx context.Context, name string) (*resolver.Domain, error)
}
