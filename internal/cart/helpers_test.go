package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/kickfinderz-backend/internal/identity"
	"github.com/angelmondragon/kickfinderz-backend/pkg/db/models"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/angelmondragon/kickfinderz-backend/pkg/notify"
	pkgredis "github.com/angelmondragon/kickfinderz-backend/pkg/redis"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func sneaker(name, price string, sale ...string) models.Product {
	p := models.Product{
		ID:    uuid.New(),
		SKU:   "KF-" + name,
		Name:  name,
		Brand: "Jordan",
		Price: decimal.RequireFromString(price),
		Stock: 10,
	}
	if len(sale) > 0 {
		s := decimal.RequireFromString(sale[0])
		p.SalePrice = &s
	}
	return p
}

type fakeRemote struct {
	mu           sync.Mutex
	rows         map[uuid.UUID][]models.CartRow
	replaceCalls int
	listErr      error
	replaceErr   error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{rows: map[uuid.UUID][]models.CartRow{}}
}

func (f *fakeRemote) List(_ context.Context, userID uuid.UUID) ([]models.CartRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.CartRow(nil), f.rows[userID]...), nil
}

func (f *fakeRemote) Replace(_ context.Context, userID uuid.UUID, rows []models.CartRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replaceCalls++
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.rows[userID] = append([]models.CartRow(nil), rows...)
	return nil
}

func (f *fakeRemote) snapshot(userID uuid.UUID) []models.CartRow {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CartRow(nil), f.rows[userID]...)
}

func (f *fakeRemote) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replaceCalls
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return NewRedisCache(pkgredis.NewFromRaw(raw), 0), mr
}

type storeFixture struct {
	store   *Store
	cache   LocalCache
	remote  *fakeRemote
	notices *notify.Buffer
}

func newStoreFixture(t *testing.T, id identity.Identity, cache LocalCache, remote *fakeRemote, fallback ...string) storeFixture {
	t.Helper()
	if cache == nil {
		cache = NewMemoryCache()
	}
	if remote == nil {
		remote = newFakeRemote()
	}
	buf := notify.NewBuffer(50)
	s, err := NewStore(StoreConfig{
		Identity:     id,
		Cache:        cache,
		Remote:       remote,
		Notifier:     buf,
		Logger:       logger.Nop(),
		FallbackKeys: fallback,
	})
	require.NoError(t, err)
	return storeFixture{store: s, cache: cache, remote: remote, notices: buf}
}

func flush(t *testing.T, s *Store) {
	t.Helper()
	require.NoError(t, s.Flush(context.Background()))
}

func messages(notices []notify.Notice) []string {
	out := make([]string, 0, len(notices))
	for _, n := range notices {
		out = append(out, n.Message)
	}
	return out
}

// gatedCache blocks the save of one snapshot version until release is closed.
type gatedCache struct {
	*MemoryCache
	gateVersion uint64
	entered     chan struct{}
	release     chan struct{}
}

func (g *gatedCache) Save(ctx context.Context, key string, snap Snapshot) error {
	if snap.Version == g.gateVersion {
		close(g.entered)
		<-g.release
	}
	return g.MemoryCache.Save(ctx, key, snap)
}

type failingDeleteCache struct {
	*MemoryCache
	err error
}

func (f *failingDeleteCache) Delete(context.Context, string) error {
	return f.err
}
