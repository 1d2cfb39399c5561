//go:build unit

package httpserver

import (
	"context"
	"errors"

	"github.com/vrk-kpa/eidas-bridge/internal/core/domain"
)

var errCacheDown = errors.New("connection refused")

// failingStore reports a storage error on every call.
type failingStore struct{}

func (failingStore) PutLightRequest(context.Context, string, *domain.LightRequest) error {
	return domain.StorageError(errCacheDown, "cache unavailable")
}

func (failingStore) GetLightRequest(context.Context, string) (*domain.LightRequest, error) {
	return nil, domain.StorageError(errCacheDown, "cache unavailable")
}

func (failingStore) PutLightResponse(context.Context, string, *domain.LightResponse) error {
	return domain.StorageError(errCacheDown, "cache unavailable")
}

func (failingStore) PopLightResponse(context.Context, string) (*domain.LightResponse, error) {
	return nil, domain.StorageError(errCacheDown, "cache unavailable")
}
