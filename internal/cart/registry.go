package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/kickfinderz-backend/internal/identity"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/angelmondragon/kickfinderz-backend/pkg/notify"
	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
)

// RegistryConfig wires the shared dependencies handed to every Store.
type RegistryConfig struct {
	Cache       LocalCache
	Remote      RemoteRepository
	Logger      *logger.Logger
	Metrics     SyncRecorder
	SyncTimeout time.Duration
	// NoticeCapacity bounds each store's pending notice buffer.
	NoticeCapacity int
}

// Registry owns one Store per identity for the lifetime of the process. It is
// built once at startup and closed at shutdown.
type Registry struct {
	cfg RegistryConfig

	mu     sync.Mutex
	stores map[string]*Store
	group  singleflight.Group

	unsubscribe func()
}

func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("local cache required")
	}
	if cfg.Remote == nil {
		return nil, fmt.Errorf("remote repository required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Registry{cfg: cfg, stores: map[string]*Store{}}, nil
}

// For returns the loaded store for id, loading it on first use. Concurrent
// first requests for one identity share a single load.
func (r *Registry) For(ctx context.Context, id identity.Identity) (*Store, error) {
	return r.load(ctx, id, nil)
}

func (r *Registry) load(ctx context.Context, id identity.Identity, fallbackKeys []string) (*Store, error) {
	key := id.Key()
	if s := r.lookup(key); s != nil {
		s.touch()
		return s, nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		if s := r.lookup(key); s != nil {
			return s, nil
		}
		s, err := NewStore(StoreConfig{
			Identity:     id,
			Cache:        r.cfg.Cache,
			Remote:       r.cfg.Remote,
			Notifier:     notify.NewBuffer(r.cfg.NoticeCapacity),
			Logger:       r.cfg.Logger,
			Metrics:      r.cfg.Metrics,
			SyncTimeout:  r.cfg.SyncTimeout,
			FallbackKeys: fallbackKeys,
		})
		if err != nil {
			return nil, err
		}
		s.Load(context.WithoutCancel(ctx))

		r.mu.Lock()
		r.stores[key] = s
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

func (r *Registry) lookup(key string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stores[key]
}

func (r *Registry) remove(key string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.stores[key]
	delete(r.stores, key)
	return s
}

// Attach subscribes the registry to auth-state changes.
func (r *Registry) Attach(hub *identity.Hub) {
	r.unsubscribe = hub.Subscribe(r.handleChange)
}

func (r *Registry) handleChange(ctx context.Context, change identity.Change) {
	switch change.Kind {
	case identity.SignedIn:
		if _, err := r.Promote(ctx, change.Previous, change.Current); err != nil {
			r.cfg.Logger.Error(ctx, "failed to load cart after sign-in", err)
		}
	case identity.SignedOut:
		if err := r.Evict(ctx, change.Previous); err != nil {
			r.cfg.Logger.Error(ctx, "failed to flush cart after sign-out", err)
		}
	}
}

// Promote loads the signed-in user's cart, falling back to the guest cart the
// browser held before. Any cached in-memory store for either identity is
// dropped so the load protocol runs fresh.
func (r *Registry) Promote(ctx context.Context, previous, current identity.Identity) (*Store, error) {
	if !current.IsAuthenticated() {
		return nil, fmt.Errorf("promote requires a signed-in identity")
	}
	var fallback []string
	if !previous.IsAuthenticated() && !previous.IsAnonymous() {
		fallback = append(fallback, r.cfg.Cache.KeyFor(previous))
		if s := r.remove(previous.Key()); s != nil {
			_ = s.Flush(ctx)
		}
	}
	if s := r.remove(current.Key()); s != nil {
		if err := s.Flush(ctx); err != nil {
			return nil, err
		}
	}
	return r.load(ctx, current, fallback)
}

// Evict waits for the identity's pending syncs and forgets its store.
func (r *Registry) Evict(ctx context.Context, id identity.Identity) error {
	s := r.remove(id.Key())
	if s == nil {
		return nil
	}
	return s.Flush(ctx)
}

// EvictIdle drops stores untouched for longer than maxIdle. Their state is
// already in the local cache and, for users, the remote table.
func (r *Registry) EvictIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	r.mu.Lock()
	var idle []*Store
	for key, s := range r.stores {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
			delete(r.stores, key)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		if err := s.Flush(ctx); err != nil {
			r.cfg.Logger.Warn(r.cfg.Logger.WithCartKey(ctx, s.CacheKey()), "evicted cart still syncing")
		}
	}
	return len(idle)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

// Close detaches from the identity hub and waits for all pending syncs.
func (r *Registry) Close(ctx context.Context) error {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
	r.mu.Lock()
	stores := make([]*Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.mu.Unlock()

	var err error
	for _, s := range stores {
		if flushErr := s.Flush(ctx); flushErr != nil {
			err = multierr.Append(err, fmt.Errorf("flush %s: %w", s.CacheKey(), flushErr))
		}
	}
	return err
}
