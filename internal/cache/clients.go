// Package cache keeps the client list in the key-value store behind a
// freshness timestamp.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"painel/internal/core"
	"painel/internal/log"
	"painel/internal/storage"
)

// Storage keys shared with older deployments of the dashboard.
const (
	ClientsKey    = "@EvolutionCRM:clients"
	LastUpdateKey = "@EvolutionCRM:clients:lastUpdate"
)

// DefaultTTL is the freshness window used when none is configured.
const DefaultTTL = 5 * time.Minute

// ErrLoad wraps every failure of Load to fetch a fresh list.
var ErrLoad = errors.New("load clients")

// ClientLister is the remote list operation the cache reads through.
type ClientLister interface {
	ListClients(ctx context.Context) ([]core.Client, error)
}

// ClientCache keeps the client list in a Store together with the time it
// was fetched. One mutex orders every read and write of the pair.
type ClientCache struct {
	mu    sync.Mutex
	store storage.Store
	src   ClientLister
	ttl   time.Duration
	now   func() time.Time
}

// Option configures a ClientCache.
type Option func(*ClientCache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *ClientCache) { c.now = now }
}

// NewClientCache returns a cache over store. A non-positive ttl means
// DefaultTTL.
func NewClientCache(store storage.Store, src ClientLister, ttl time.Duration, opts ...Option) *ClientCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &ClientCache{store: store, src: src, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the cached list while it is fresh. Otherwise it fetches once,
// persists the list and a new timestamp, and returns the fetched list. A
// failed fetch leaves the stored entry as it was.
func (c *ClientCache) Load(ctx context.Context) ([]core.Client, error) {
	if clients, ok := c.fresh(ctx); ok {
		slog.DebugContext(ctx, "Client list served from cache",
			log.FieldComponent, log.ComponentCache,
			log.FieldCacheHit, true,
			log.FieldCount, len(clients))
		return clients, nil
	}

	clients, err := c.src.ListClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	if clients == nil {
		clients = []core.Client{}
	}

	if err := c.persist(ctx, clients, true); err != nil {
		slog.WarnContext(ctx, "Failed to persist client list",
			log.FieldComponent, log.ComponentCache,
			log.FieldError, err)
	}
	slog.InfoContext(ctx, "Client list refreshed",
		log.FieldComponent, log.ComponentCache,
		log.FieldCacheHit, false,
		log.FieldCount, len(clients))
	return clients, nil
}

// Cached returns whatever list is stored, fresh or not, without fetching.
func (c *ClientCache) Cached(ctx context.Context) ([]core.Client, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readClients(ctx)
}

// Invalidate drops the list and its timestamp.
func (c *ClientCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Delete(ctx, ClientsKey, LastUpdateKey); err != nil {
		return fmt.Errorf("invalidate client cache: %w", err)
	}
	return nil
}

// WriteThrough replaces the stored list after a successful remote mutation.
// The timestamp is kept, so the freshness window is unchanged.
func (c *ClientCache) WriteThrough(ctx context.Context, clients []core.Client) error {
	if err := c.persist(ctx, clients, false); err != nil {
		return fmt.Errorf("write through client cache: %w", err)
	}
	return nil
}

func (c *ClientCache) fresh(ctx context.Context) ([]core.Client, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok, err := c.store.Get(ctx, LastUpdateKey)
	if err != nil || !ok {
		return nil, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	if c.now().Sub(time.UnixMilli(ms)) >= c.ttl {
		return nil, false
	}
	return c.readClients(ctx)
}

func (c *ClientCache) readClients(ctx context.Context) ([]core.Client, bool) {
	raw, ok, err := c.store.Get(ctx, ClientsKey)
	if err != nil || !ok {
		return nil, false
	}
	var clients []core.Client
	if err := json.Unmarshal([]byte(raw), &clients); err != nil {
		slog.WarnContext(ctx, "Discarding unreadable client cache",
			log.FieldComponent, log.ComponentCache,
			log.FieldError, err)
		return nil, false
	}
	if clients == nil {
		clients = []core.Client{}
	}
	return clients, true
}

func (c *ClientCache) persist(ctx context.Context, clients []core.Client, stamp bool) error {
	data, err := json.Marshal(clients)
	if err != nil {
		return fmt.Errorf("encode clients: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !stamp {
		return c.store.Set(ctx, ClientsKey, string(data))
	}
	return c.store.SetMany(ctx, map[string]string{
		ClientsKey:    string(data),
		LastUpdateKey: strconv.FormatInt(c.now().UnixMilli(), 10),
	})
}
