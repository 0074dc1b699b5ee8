package cart

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/kickfinderz-backend/internal/identity"
	pkgerrors "github.com/angelmondragon/kickfinderz-backend/pkg/errors"
	"github.com/angelmondragon/kickfinderz-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *fakeRemote, *MemoryCache) {
	t.Helper()
	remote := newFakeRemote()
	cache := NewMemoryCache()
	reg, err := NewRegistry(RegistryConfig{Cache: cache, Remote: remote, Logger: logger.Nop()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close(context.Background()) })
	return reg, remote, cache
}

func TestRegistryReturnsSameStorePerIdentity(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()
	id := identity.User(uuid.New(), "sam@example.com")

	var wg sync.WaitGroup
	got := make([]*Store, 10)
	for i := range got {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := reg.For(ctx, id)
			assert.NoError(t, err)
			got[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range got[1:] {
		assert.Same(t, got[0], s)
	}
	assert.Equal(t, 1, reg.Len())

	other, err := reg.For(ctx, identity.Guest("g-1"))
	require.NoError(t, err)
	assert.NotSame(t, got[0], other)
}

func TestRegistrySignInPromotesGuestCart(t *testing.T) {
	reg, remote, cache := newTestRegistry(t)
	hub := identity.NewHub()
	reg.Attach(hub)
	ctx := context.Background()

	guest := identity.Guest("g-7")
	guestStore, err := reg.For(ctx, guest)
	require.NoError(t, err)
	require.NoError(t, guestStore.AddToCart(ctx, sneaker("Air Jordan 1", "199.99"), 1, "US 9", "Black"))

	userID := uuid.New()
	user := identity.User(userID, "sam@example.com")
	hub.Publish(ctx, identity.Change{Kind: identity.SignedIn, Previous: guest, Current: user})

	userStore, err := reg.For(ctx, user)
	require.NoError(t, err)
	flush(t, userStore)
	assert.Equal(t, 1, userStore.Count())
	assert.Len(t, remote.snapshot(userID), 1)

	_, err = cache.Load(ctx, cache.KeyFor(guest))
	assert.ErrorIs(t, err, ErrCacheMiss)

	fresh, err := reg.For(ctx, guest)
	require.NoError(t, err)
	assert.True(t, fresh.IsEmpty(), "the guest cart moved to the user")
}

func TestRegistrySignOutEvictsStore(t *testing.T) {
	reg, remote, _ := newTestRegistry(t)
	hub := identity.NewHub()
	reg.Attach(hub)
	ctx := context.Background()

	userID := uuid.New()
	user := identity.User(userID, "sam@example.com")
	s, err := reg.For(ctx, user)
	require.NoError(t, err)
	require.NoError(t, s.AddToCart(ctx, sneaker("Air Jordan 1", "199.99"), 3, "US 9", "Black"))

	hub.Publish(ctx, identity.Change{Kind: identity.SignedOut, Previous: user, Current: identity.Anonymous()})
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 3, remote.snapshot(userID)[0].Quantity, "eviction waits for pending syncs")

	again, err := reg.For(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Count(), "signing back in reloads from the remote table")
}

func TestRegistryEvictIdle(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	ctx := context.Background()

	s, err := reg.For(ctx, identity.Guest("g-1"))
	require.NoError(t, err)
	s.mu.Lock()
	s.lastUsed = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()
	_, err = reg.For(ctx, identity.Guest("g-2"))
	require.NoError(t, err)

	assert.Equal(t, 1, reg.EvictIdle(ctx, time.Hour))
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryPromoteRequiresUser(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	_, err := reg.Promote(context.Background(), identity.Anonymous(), identity.Guest("g-1"))
	assert.Error(t, err)
}

func TestRegistryRefusesAnonymousIdentity(t *testing.T) {
	reg, _, _ := newTestRegistry(t)
	_, err := reg.For(context.Background(), identity.Anonymous())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.Zero(t, reg.Len())
}

func TestNewRegistryValidates(t *testing.T) {
	_, err := NewRegistry(RegistryConfig{})
	assert.Error(t, err)
	_, err = NewRegistry(RegistryConfig{Cache: NewMemoryCache(), Remote: newFakeRemote()})
	assert.Error(t, err)
}
