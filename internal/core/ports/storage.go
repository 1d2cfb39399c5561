package ports

import (
	"context"

	"github.com/vrk-kpa/eidas-bridge/internal/core/domain"
)

// LightStorage is the port interface for the shared cache holding light
// requests and responses, keyed by token id. The backend may be remote;
// all calls are bounded by the caller's context.
//
// Absent keys are reported as (nil, nil). Backend failures are reported
// as storage errors and are never retried by the core.
type LightStorage interface {
	// PutLightRequest stores a light request under a token id.
	// Overwrites are idempotent.
	PutLightRequest(ctx context.Context, id string, request *domain.LightRequest) error

	// GetLightRequest looks up a light request. The read is
	// non-destructive: the request may be read again for pairing.
	GetLightRequest(ctx context.Context, id string) (*domain.LightRequest, error)

	// PutLightResponse stores a light response under a token id.
	PutLightResponse(ctx context.Context, id string, response *domain.LightResponse) error

	// PopLightResponse atomically retrieves and deletes a light
	// response. Two concurrent pops of the same key never both succeed;
	// this is what guarantees a token cannot be redeemed twice.
	PopLightResponse(ctx context.Context, id string) (*domain.LightResponse, error)
}
