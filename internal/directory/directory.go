// Package directory is a read-through cache of participant profiles used to
// hydrate listings. It is never consulted inside a booking transaction.
package directory

import (
	"context"
	"time"

	"github.com/example/slot-scheduler/internal/domain/user"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

type Source interface {
	Participant(ctx context.Context, id string) (user.User, error)
}

type Directory struct {
	src   Source
	cache *expirable.LRU[string, user.User]
}

func New(src Source, size int, ttl time.Duration) *Directory {
	if size <= 0 {
		size = 1024
	}
	return &Directory{
		src:   src,
		cache: expirable.NewLRU[string, user.User](size, nil, ttl),
	}
}

// Resolve returns the cached profile or loads it from the source. Misses
// are not cached.
func (d *Directory) Resolve(ctx context.Context, id string) (user.User, error) {
	if u, ok := d.cache.Get(id); ok {
		return u, nil
	}
	u, err := d.src.Participant(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	d.cache.Add(id, u)
	return u, nil
}

func (d *Directory) Forget(id string) {
	d.cache.Remove(id)
}

func (d *Directory) Len() int { return d.cache.Len() }
