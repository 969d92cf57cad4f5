package lookup

import (
	"context"
	"errors"
	"fmt"

	"parksmart_backend/internal/geo"
	"parksmart_backend/platform/cache"
)

// StringStore is the subset of cache.Store the address cache needs.
type StringStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// StoreAddressCache keys addresses by coordinate rounded to four decimals,
// roughly 11 m at the equator.
type StoreAddressCache struct {
	store StringStore
}

func NewStoreAddressCache(store StringStore) *StoreAddressCache {
	return &StoreAddressCache{store: store}
}

func addressKey(c geo.Coordinate) string {
	return fmt.Sprintf("parksmart:address:%.4f:%.4f", c.Latitude, c.Longitude)
}

func (a *StoreAddressCache) GetAddress(ctx context.Context, c geo.Coordinate) (string, bool, error) {
	val, err := a.store.Get(ctx, addressKey(c))
	if errors.Is(err, cache.ErrMiss) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (a *StoreAddressCache) SetAddress(ctx context.Context, c geo.Coordinate, address string) error {
	return a.store.Set(ctx, addressKey(c), address)
}

var _ AddressCache = (*StoreAddressCache)(nil)
