// Package roomcache keeps recently read rooms in memory between writes.
package roomcache

import (
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"roombooking-backend/internal/clock"
	"roombooking-backend/internal/model"
)

const listKey = "rooms:list"

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a TTL and capacity bounded room cache. Expiry is judged against
// the injected clock; go-cache's janitor only reclaims memory.
type Cache struct {
	store    *cache.Cache
	ttl      time.Duration
	capacity int
	clock    clock.Clock
}

// New creates a cache holding at most capacity entries for ttl each.
func New(ttl time.Duration, capacity int, clk clock.Clock) *Cache {
	return &Cache{
		store:    cache.New(ttl, 2*ttl),
		ttl:      ttl,
		capacity: capacity,
		clock:    clk,
	}
}

func roomKey(id int64) string {
	return "rooms:" + strconv.FormatInt(id, 10)
}

func (c *Cache) get(key string) (any, bool) {
	raw, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	e := raw.(entry)
	if !c.clock.Now().Before(e.expiresAt) {
		c.store.Delete(key)
		return nil, false
	}
	return e.value, true
}

func (c *Cache) set(key string, v any) {
	if _, exists := c.store.Get(key); !exists && c.store.ItemCount() >= c.capacity {
		c.store.DeleteExpired()
		if c.store.ItemCount() >= c.capacity {
			// Full: serve from the database until entries age out.
			return
		}
	}
	c.store.Set(key, entry{value: v, expiresAt: c.clock.Now().Add(c.ttl)}, c.ttl)
}

// Room returns a cached room.
func (c *Cache) Room(id int64) (model.Room, bool) {
	v, ok := c.get(roomKey(id))
	if !ok {
		return model.Room{}, false
	}
	return v.(model.Room), true
}

// SetRoom caches r under its id.
func (c *Cache) SetRoom(r model.Room) {
	c.set(roomKey(r.ID), r)
}

// Rooms returns the cached active room list.
func (c *Cache) Rooms() ([]model.Room, bool) {
	v, ok := c.get(listKey)
	if !ok {
		return nil, false
	}
	return v.([]model.Room), true
}

// SetRooms caches the active room list.
func (c *Cache) SetRooms(rooms []model.Room) {
	c.set(listKey, rooms)
}

// Invalidate drops every entry. Called after any room or item write.
func (c *Cache) Invalidate() {
	c.store.Flush()
}

// Len returns the number of stored entries, expired or not.
func (c *Cache) Len() int {
	return c.store.ItemCount()
}
