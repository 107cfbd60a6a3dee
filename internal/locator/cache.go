package locator

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cornelk/hashmap"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srg/imuble/internal/device"
)

type handleMap = hashmap.Map[string, device.Characteristic]

// Cache remembers resolved readable handles per (peripheral address, UUID).
// Call Invalidate with the old address after reconnecting. Failed lookups are
// never cached, so the errors returned are the same ones the wrapped locator
// would produce.
//
// Invalidate replaces the whole map rather than deleting keys: hashmap does
// not support inserting a key again after it was deleted.
type Cache struct {
	next    Locator
	handles atomic.Pointer[handleMap]
	mu      sync.Mutex // serializes Invalidate
	logger  *logrus.Logger
}

// NewCache wraps next with a per-connection handle cache
func NewCache(next Locator, logger *logrus.Logger) *Cache {
	if logger == nil {
		logger = logrus.New()
	}
	c := &Cache{
		next:   next,
		logger: logger,
	}
	c.handles.Store(hashmap.New[string, device.Characteristic]())
	return c
}

func cacheKey(address string, target uuid.UUID) string {
	return address + "/" + target.String()
}

// Locate returns a cached handle or falls through to the wrapped locator
func (c *Cache) Locate(ctx context.Context, p device.Peripheral, target uuid.UUID) (device.Characteristic, error) {
	key := cacheKey(p.Address(), target)
	if char, ok := c.handles.Load().Get(key); ok {
		return char, nil
	}

	char, err := c.next.Locate(ctx, p, target)
	if err != nil {
		return nil, err
	}

	char, _ = c.handles.Load().GetOrInsert(key, char)
	c.logger.WithFields(logrus.Fields{
		"address":   p.Address(),
		"char_uuid": device.ShortenUUID(target),
	}).Debug("Cached characteristic handle")
	return char, nil
}

// Invalidate drops every handle cached for address
func (c *Cache) Invalidate(address string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := address + "/"
	kept := hashmap.New[string, device.Characteristic]()
	dropped := 0
	c.handles.Load().Range(func(key string, char device.Characteristic) bool {
		if strings.HasPrefix(key, prefix) {
			dropped++
		} else {
			kept.Set(key, char)
		}
		return true
	})
	c.handles.Store(kept)

	if dropped > 0 {
		c.logger.WithFields(logrus.Fields{
			"address": address,
			"dropped": dropped,
		}).Debug("Invalidated cached characteristic handles")
	}
}

// Len returns the number of cached handles
func (c *Cache) Len() int {
	return c.handles.Load().Len()
}
