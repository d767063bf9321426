package ingest

import (
	"context"

	"github.com/sig-0/cdtrates/storage/types"
)

// Provider is a single deposit-rate source
type Provider interface {
	// ID returns the canonical source identifier (bank code)
	ID() string

	// Name returns the human-readable name of the source
	Name() string

	// Produce runs the source once. It never returns nil, and reports
	// failures through the result's success flag and error message
	Produce(context.Context) *types.SourceResult
}
