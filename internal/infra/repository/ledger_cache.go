package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/zeebo/xxh3"

	"github.com/totegamma/cardfeed/internal/usecase"
)

const ledgerCacheTTL = 60 * 60 // seconds

type cacheClient interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
}

// CachedLedgerRepository remembers positive ledger hits in memcached.
// Ledger rows are never updated, so a cached hit stays valid until the
// uri is deleted. Cache failures fall through to the inner repository.
type CachedLedgerRepository struct {
	inner usecase.LedgerRepository
	mc    cacheClient
}

func NewCachedLedgerRepository(inner usecase.LedgerRepository, mc *memcache.Client) *CachedLedgerRepository {
	return &CachedLedgerRepository{inner: inner, mc: mc}
}

// ledgerKey hashes the pair since memcached keys are limited to 250 bytes.
func ledgerKey(uri, cid string) string {
	h := xxh3.HashString128(uri + "|" + cid)
	return fmt.Sprintf("ledger:%016x%016x", h.Hi, h.Lo)
}

func (r *CachedLedgerRepository) Exists(ctx context.Context, uri, cid string) (bool, error) {
	key := ledgerKey(uri, cid)
	if _, err := r.mc.Get(key); err == nil {
		return true, nil
	}

	exists, err := r.inner.Exists(ctx, uri, cid)
	if err != nil {
		return false, err
	}
	if exists {
		r.remember(key)
	}
	return exists, nil
}

func (r *CachedLedgerRepository) Record(ctx context.Context, uri, cid string) error {
	if err := r.inner.Record(ctx, uri, cid); err != nil {
		return err
	}
	r.remember(ledgerKey(uri, cid))
	return nil
}

func (r *CachedLedgerRepository) DeleteByURI(ctx context.Context, uri string) ([]string, error) {
	cids, err := r.inner.DeleteByURI(ctx, uri)
	if err != nil {
		return nil, err
	}
	var evictErr error
	for _, cid := range cids {
		if err := r.mc.Delete(ledgerKey(uri, cid)); err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
			evictErr = errors.Join(evictErr, err)
		}
	}
	return cids, evictErr
}

func (r *CachedLedgerRepository) remember(key string) {
	_ = r.mc.Set(&memcache.Item{Key: key, Value: []byte{1}, Expiration: ledgerCacheTTL})
}

var _ usecase.LedgerRepository = (*CachedLedgerRepository)(nil)
