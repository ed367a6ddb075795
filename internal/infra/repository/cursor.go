package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/totegamma/cardfeed/internal/usecase"
)

const DefaultCursorKey = "cardfeed:cursor"

// CursorRepository keeps the subscription cursor in redis.
type CursorRepository struct {
	rdb *redis.Client
	key string
}

func NewCursorRepository(rdb *redis.Client, key string) *CursorRepository {
	if key == "" {
		key = DefaultCursorKey
	}
	return &CursorRepository{rdb: rdb, key: key}
}

func (r *CursorRepository) Load(ctx context.Context) (int64, bool, error) {
	cursor, err := r.rdb.Get(ctx, r.key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return cursor, true, nil
}

func (r *CursorRepository) Save(ctx context.Context, cursor int64) error {
	return r.rdb.Set(ctx, r.key, cursor, 0).Err()
}

// MemoryCursorRepository is used when no redis is configured; the cursor
// does not survive a restart.
type MemoryCursorRepository struct {
	mu     sync.Mutex
	cursor int64
	saved  bool
}

func NewMemoryCursorRepository() *MemoryCursorRepository {
	return &MemoryCursorRepository{}
}

func (r *MemoryCursorRepository) Load(ctx context.Context) (int64, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cursor, r.saved, nil
}

func (r *MemoryCursorRepository) Save(ctx context.Context, cursor int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursor = cursor
	r.saved = true
	return nil
}

var (
	_ usecase.CursorRepository = (*CursorRepository)(nil)
	_ usecase.CursorRepository = (*MemoryCursorRepository)(nil)
)
