package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/angelmondragon/kickfinderz-backend/internal/identity"
	"github.com/angelmondragon/kickfinderz-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kickfinderz-backend/pkg/errors"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/angelmondragon/kickfinderz-backend/pkg/metrics"
	"github.com/angelmondragon/kickfinderz-backend/pkg/notify"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultSyncTimeout = 10 * time.Second

// SyncRecorder receives remote sync and local cache outcomes.
type SyncRecorder interface {
	ObserveSync(outcome string, took time.Duration)
	IncCacheError(op string)
}

// StoreConfig wires a Store. Identity must be a user or a guest. Remote is
// ignored for guests; their carts live in the local cache only.
type StoreConfig struct {
	Identity    identity.Identity
	Cache       LocalCache
	Remote      RemoteRepository
	Notifier    notify.Notifier
	Logger      *logger.Logger
	Metrics     SyncRecorder
	SyncTimeout time.Duration
	// FallbackKeys are cache keys consulted by Load after the store's own key,
	// typically the guest cart the shopper built before signing in.
	FallbackKeys []string
}

// Store is the authoritative in-process cart for one identity. Mutations are
// applied in memory first, written to the local cache, and then replicated to
// the remote table in the background with replace-all semantics.
type Store struct {
	id           identity.Identity
	key          string
	fallbackKeys []string
	cache        LocalCache
	remote       RemoteRepository
	notifier     notify.Notifier
	logg         *logger.Logger
	metrics      SyncRecorder
	syncTimeout  time.Duration

	mu       sync.RWMutex
	lines    []Line
	version  uint64
	lastUsed time.Time

	// cacheMu serialises local cache writes; cached is the newest version
	// written to or purged from the cache key.
	cacheMu sync.Mutex
	cached  uint64

	// syncMu serialises remote writes; synced is the newest version that
	// reached the remote table.
	syncMu   sync.Mutex
	synced   uint64
	inflight sync.WaitGroup
}

func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.Cache == nil {
		return nil, fmt.Errorf("local cache required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Identity.IsAnonymous() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "a guest token or sign-in is required to keep a cart")
	}
	s := &Store{
		id:           cfg.Identity,
		key:          cfg.Cache.KeyFor(cfg.Identity),
		fallbackKeys: cfg.FallbackKeys,
		cache:        cfg.Cache,
		notifier:     cfg.Notifier,
		logg:         cfg.Logger,
		metrics:      cfg.Metrics,
		syncTimeout:  cfg.SyncTimeout,
		lines:        []Line{},
		lastUsed:     time.Now(),
	}
	if cfg.Identity.IsAuthenticated() {
		s.remote = cfg.Remote
	}
	if s.notifier == nil {
		s.notifier = notify.Discard{}
	}
	if s.metrics == nil {
		s.metrics = metrics.NewCartMetrics(nil)
	}
	if s.syncTimeout <= 0 {
		s.syncTimeout = defaultSyncTimeout
	}
	return s, nil
}

func (s *Store) Identity() identity.Identity { return s.id }

// CacheKey is the local cache key the store mirrors to.
func (s *Store) CacheKey() string { return s.key }

// Lines returns a copy of the current lines.
func (s *Store) Lines() []Line {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneLines(s.lines)
}

// Total is recomputed from the current lines on every call.
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Total(s.lines)
}

func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Count(s.lines)
}

func (s *Store) IsEmpty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.lines) == 0
}

func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Notices drains pending user-facing messages when the notifier buffers them.
func (s *Store) Notices() []notify.Notice {
	if drainer, ok := s.notifier.(interface{ Drain() []notify.Notice }); ok {
		return drainer.Drain()
	}
	return []notify.Notice{}
}

// AddToCart merges quantity into the line keyed by (product, size, color) or
// appends a new line.
func (s *Store) AddToCart(ctx context.Context, product models.Product, quantity int, size, color string) error {
	size = strings.TrimSpace(size)
	color = strings.TrimSpace(color)
	if err := validateAdd(product, quantity, size, color); err != nil {
		s.notifier.Notify(notify.LevelError, pkgerrors.UserMessage(err))
		return err
	}

	s.mu.Lock()
	next := cloneLines(s.lines)
	merged := false
	for i := range next {
		if next[i].matches(product.ID, size, color) {
			next[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		next = append(next, Line{
			ID:        uuid.New(),
			ProductID: product.ID,
			Product:   product.Snapshot(),
			Quantity:  quantity,
			Size:      size,
			Color:     color,
		})
	}
	snap := s.commitLocked(next)
	s.mu.Unlock()

	s.persist(ctx, snap)
	notify.Notifyf(s.notifier, notify.LevelSuccess, "Added %s to cart", product.Name)
	return nil
}

func validateAdd(product models.Product, quantity int, size, color string) error {
	switch {
	case product.ID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "product is required")
	case quantity < 1:
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	case size == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "please select a size")
	case color == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "please select a color")
	}
	return nil
}

// UpdateLine sets the quantity of a line. A quantity of zero or less removes
// the line. The store enforces no stock ceiling.
func (s *Store) UpdateLine(ctx context.Context, lineID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return s.RemoveLine(ctx, lineID)
	}

	s.mu.Lock()
	idx := indexOf(s.lines, lineID)
	if idx < 0 {
		s.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	next := cloneLines(s.lines)
	next[idx].Quantity = quantity
	snap := s.commitLocked(next)
	s.mu.Unlock()

	s.persist(ctx, snap)
	return nil
}

// RemoveLine deletes a line and tells the user which product went away.
func (s *Store) RemoveLine(ctx context.Context, lineID uuid.UUID) error {
	s.mu.Lock()
	idx := indexOf(s.lines, lineID)
	if idx < 0 {
		s.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	removed := s.lines[idx]
	next := make([]Line, 0, len(s.lines)-1)
	next = append(next, s.lines[:idx]...)
	next = append(next, s.lines[idx+1:]...)
	snap := s.commitLocked(next)
	s.mu.Unlock()

	s.persist(ctx, snap)
	notify.Notifyf(s.notifier, notify.LevelInfo, "Removed %s from cart", removed.Product.Name)
	return nil
}

// Clear empties the cart, deletes the local cache entry and replaces the
// remote rows with nothing. The in-memory cart is empty even when the cache
// purge fails; that failure is returned and surfaced as a notice.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	snap := s.commitLocked([]Line{})
	s.mu.Unlock()

	return s.purge(ctx, snap)
}

// RemoveOrdered takes the given lines out of the cart after they were turned
// into an order. Quantities are subtracted line by line, so anything added to
// the cart after the lines were read stays in it. When nothing is left the
// cart is cleared.
func (s *Store) RemoveOrdered(ctx context.Context, ordered []Line) error {
	taken := make(map[uuid.UUID]int, len(ordered))
	for _, l := range ordered {
		taken[l.ID] += l.Quantity
	}

	s.mu.Lock()
	next := make([]Line, 0, len(s.lines))
	for _, l := range cloneLines(s.lines) {
		qty, ok := taken[l.ID]
		if !ok {
			next = append(next, l)
			continue
		}
		if l.Quantity > qty {
			l.Quantity -= qty
			next = append(next, l)
		}
	}
	snap := s.commitLocked(next)
	s.mu.Unlock()

	if len(snap.Lines) == 0 {
		return s.purge(ctx, snap)
	}
	s.persist(ctx, snap)
	return nil
}

func (s *Store) purge(ctx context.Context, snap Snapshot) error {
	ctx = s.logg.WithCartKey(ctx, s.key)
	err := s.writeCache(snap, func() error { return s.cache.Delete(ctx, s.key) })
	if err != nil {
		s.metrics.IncCacheError("delete")
		s.logg.Error(ctx, "failed to purge local cart cache", err)
		s.notifier.Notify(notify.LevelWarning, "Your cart was emptied but this device may still show old items")
		err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to purge local cart cache")
	}
	s.replicate(ctx, snap)
	return err
}

// writeCache runs write unless a newer snapshot already reached the cache.
func (s *Store) writeCache(snap Snapshot, write func() error) error {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if snap.Version < s.cached {
		return nil
	}
	if err := write(); err != nil {
		return err
	}
	s.cached = snap.Version
	return nil
}

func (s *Store) commitLocked(next []Line) Snapshot {
	s.version++
	s.lines = next
	s.lastUsed = time.Now()
	return Snapshot{Version: s.version, Lines: cloneLines(next), SavedAt: time.Now().UTC()}
}

// persist writes the snapshot to the local cache synchronously and schedules
// the remote replace-all.
func (s *Store) persist(ctx context.Context, snap Snapshot) {
	ctx = s.logg.WithCartKey(ctx, s.key)
	if err := s.writeCache(snap, func() error { return s.cache.Save(ctx, s.key, snap) }); err != nil {
		s.metrics.IncCacheError("save")
		s.logg.Error(ctx, "failed to write cart to local cache", err)
		s.notifier.Notify(notify.LevelWarning, "We couldn't save your cart on this device")
	}
	s.replicate(ctx, snap)
}

func (s *Store) replicate(ctx context.Context, snap Snapshot) {
	if s.remote == nil {
		return
	}
	s.inflight.Add(1)
	go s.syncRemote(context.WithoutCancel(ctx), snap)
}

func (s *Store) syncRemote(ctx context.Context, snap Snapshot) {
	defer s.inflight.Done()

	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	if snap.Version <= s.synced {
		s.metrics.ObserveSync(metrics.SyncStale, 0)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.syncTimeout)
	defer cancel()

	started := time.Now()
	err := s.remote.Replace(ctx, s.id.UserID, toRows(s.id.UserID, snap.Lines))
	if err != nil {
		s.metrics.ObserveSync(metrics.SyncFailure, time.Since(started))
		s.logg.Error(s.logg.WithField(ctx, "cart_version", snap.Version), "failed to sync cart to remote", err)
		s.notifier.Notify(notify.LevelWarning, "We couldn't sync your cart. It is still saved on this device.")
		return
	}
	s.synced = snap.Version
	s.metrics.ObserveSync(metrics.SyncSuccess, time.Since(started))
}

// Load populates the store for its identity. Remote rows win when present
// and refresh the local cache; otherwise the local cache (own key first, then
// fallbacks) is adopted and pushed to the remote table.
func (s *Store) Load(ctx context.Context) {
	ctx = s.logg.WithCartKey(ctx, s.key)

	if s.remote != nil {
		rows, err := s.remote.List(ctx, s.id.UserID)
		switch {
		case err != nil:
			s.logg.Error(ctx, "failed to load remote cart", err)
			s.notifier.Notify(notify.LevelWarning, "We couldn't load your saved cart. Showing the copy on this device.")
		case len(rows) > 0:
			s.adoptRemote(ctx, fromRows(rows))
			return
		}
	}

	for _, key := range append([]string{s.key}, s.fallbackKeys...) {
		snap, err := s.cache.Load(ctx, key)
		if errors.Is(err, ErrCacheMiss) {
			continue
		}
		if err != nil {
			s.metrics.IncCacheError("load")
			s.logg.Error(s.logg.WithField(ctx, "source_key", key), "failed to read local cart", err)
			continue
		}
		if len(snap.Lines) == 0 {
			continue
		}

		s.mu.Lock()
		adopted := s.commitLocked(cloneLines(snap.Lines))
		s.mu.Unlock()

		if key != s.key {
			if err := s.cache.Delete(ctx, key); err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "source_key", key), "failed to remove merged guest cart")
			}
		}
		s.persist(ctx, adopted)
		return
	}
}

func (s *Store) adoptRemote(ctx context.Context, lines []Line) {
	s.mu.Lock()
	snap := s.commitLocked(lines)
	s.mu.Unlock()

	s.syncMu.Lock()
	if snap.Version > s.synced {
		s.synced = snap.Version
	}
	s.syncMu.Unlock()

	if err := s.writeCache(snap, func() error { return s.cache.Save(ctx, s.key, snap) }); err != nil {
		s.metrics.IncCacheError("save")
		s.logg.Error(ctx, "failed to refresh local cart cache", err)
	}
}

// Flush blocks until background remote syncs finish or ctx is done.
func (s *Store) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUsed
}

func (s *Store) touch() {
	s.mu.Lock()
	s.lastUsed = time.Now()
	s.mu.Unlock()
}
