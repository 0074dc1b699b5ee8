package identity

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityKinds(t *testing.T) {
	uid := uuid.New()
	user := User(uid, "sam@example.com")
	assert.True(t, user.IsAuthenticated())
	assert.False(t, user.IsAnonymous())
	assert.Equal(t, "user:"+uid.String(), user.Key())

	guest := Guest("g-123")
	assert.False(t, guest.IsAuthenticated())
	assert.False(t, guest.IsAnonymous())
	assert.Equal(t, "guest:g-123", guest.Key())

	anon := Anonymous()
	assert.True(t, anon.IsAnonymous())
	assert.Equal(t, "anonymous", anon.Key())
}

func TestContextRoundTrip(t *testing.T) {
	assert.True(t, FromContext(context.Background()).IsAnonymous())

	id := User(uuid.New(), "sam@example.com")
	ctx := WithContext(context.Background(), id)
	assert.Equal(t, id, FromContext(ctx))
}

func TestHubPublishOrderAndUnsubscribe(t *testing.T) {
	hub := NewHub()
	var calls []string

	hub.Subscribe(func(_ context.Context, c Change) { calls = append(calls, "a:"+string(c.Kind)) })
	cancel := hub.Subscribe(func(_ context.Context, c Change) { calls = append(calls, "b:"+string(c.Kind)) })
	hub.Subscribe(func(_ context.Context, c Change) { calls = append(calls, "c:"+string(c.Kind)) })

	hub.Publish(context.Background(), Change{Kind: SignedIn})
	require.Equal(t, []string{"a:signed_in", "b:signed_in", "c:signed_in"}, calls)

	cancel()
	calls = nil
	hub.Publish(context.Background(), Change{Kind: SignedOut})
	assert.Equal(t, []string{"a:signed_out", "c:signed_out"}, calls)
}
