// Package memory - локальный LRU-кэш определений промокодов с TTL.
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/Gunvolt24/shop_pricing/internal/domain"
	"github.com/Gunvolt24/shop_pricing/internal/ports"
	"github.com/Gunvolt24/shop_pricing/pkg/metrics"
)

var _ ports.DiscountCache = (*LRUCacheTTL)(nil)

type entry struct {
	code      string
	discount  *domain.DiscountCode
	expiresAt time.Time
}

// LRUCacheTTL - кэш промокодов по нормализованному коду.
// TTL отсчитывается от момента записи и не продлевается при чтении:
// определение не должно жить в кэше дольше ttl без перечитывания из хранилища.
type LRUCacheTTL struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time

	ll    *list.List
	index map[string]*list.Element

	mu sync.Mutex
}

// NewLRUCacheTTL - конструктор. capacity <= 0 трактуется как 1, ttl <= 0 - без истечения.
func NewLRUCacheTTL(capacity int, ttl time.Duration) *LRUCacheTTL {
	if capacity <= 0 {
		capacity = 1
	}
	return &LRUCacheTTL{
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
		ll:       list.New(),
		index:    make(map[string]*list.Element),
	}
}

func (c *LRUCacheTTL) Get(_ context.Context, code string) (*domain.DiscountCode, bool) {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[code]
	if !ok {
		metrics.CacheOps.WithLabelValues("miss").Inc()
		return nil, false
	}
	ent := elem.Value.(*entry)
	if c.isExpired(ent, now) {
		metrics.CacheOps.WithLabelValues("expired").Inc()
		c.removeElement(elem)
		metrics.CacheSize.Set(float64(c.ll.Len()))
		return nil, false
	}
	c.ll.MoveToFront(elem)

	metrics.CacheOps.WithLabelValues("hit").Inc()
	return ent.discount.Clone(), true
}

func (c *LRUCacheTTL) Set(_ context.Context, discount *domain.DiscountCode) error {
	if discount == nil || discount.Code == "" {
		return nil
	}
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.index[discount.Code]; ok {
		ent := elem.Value.(*entry)
		ent.discount = discount.Clone()
		ent.expiresAt = c.expiryFrom(now)
		c.ll.MoveToFront(elem)
		return nil
	}

	c.pruneExpiredFromBack(now)

	elem := c.ll.PushFront(&entry{
		code:      discount.Code,
		discount:  discount.Clone(),
		expiresAt: c.expiryFrom(now),
	})
	c.index[discount.Code] = elem
	metrics.CacheSize.Set(float64(c.ll.Len()))

	if c.ll.Len() > c.capacity {
		c.evictLRU()
	}
	return nil
}

// Invalidate - удаляет код из кэша; отсутствие записи не ошибка.
func (c *LRUCacheTTL) Invalidate(_ context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.index[code]
	if !ok {
		return nil
	}
	c.removeElement(elem)
	metrics.CacheOps.WithLabelValues("invalidated").Inc()
	metrics.CacheSize.Set(float64(c.ll.Len()))
	return nil
}

// WarmUp - загрузка кодов при старте (например, активных из хранилища).
func (c *LRUCacheTTL) WarmUp(ctx context.Context, discounts []*domain.DiscountCode) error {
	for _, d := range discounts {
		if err := c.Set(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// Len - текущее число записей, включая ещё не вычищенные истёкшие.
func (c *LRUCacheTTL) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
