package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferDrainOrderAndReset(t *testing.T) {
	buf := NewBuffer(5)
	buf.Notify(LevelSuccess, "Added Air Jordan 1 to cart")
	Notifyf(buf, LevelWarning, "Removed %s from cart", "Ultraboost 22")

	got := buf.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "Added Air Jordan 1 to cart", got[0].Message)
	assert.Equal(t, LevelWarning, got[1].Level)
	assert.Equal(t, "Removed Ultraboost 22 from cart", got[1].Message)

	assert.Empty(t, buf.Drain())
	assert.NotNil(t, buf.Drain(), "drain should return an empty slice, not nil")
}

func TestBufferKeepsMostRecent(t *testing.T) {
	buf := NewBuffer(2)
	buf.Notify(LevelInfo, "one")
	buf.Notify(LevelInfo, "two")
	buf.Notify(LevelInfo, "three")

	got := buf.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[0].Message)
	assert.Equal(t, "three", got[1].Message)
}

func TestBufferConcurrentNotify(t *testing.T) {
	buf := NewBuffer(1000)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf.Notify(LevelError, "sync failed")
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, buf.Len())
}

func TestNotifyfNilNotifier(t *testing.T) {
	Notifyf(nil, LevelInfo, "ignored %d", 1)
	Discard{}.Notify(LevelInfo, "ignored")
}

func TestContextNotifier(t *testing.T) {
	assert.IsType(t, Discard{}, FromContext(context.Background()))

	buf := NewBuffer(0)
	ctx := WithNotifier(context.Background(), buf)
	FromContext(ctx).Notify(LevelError, "We couldn't load your orders")
	require.Equal(t, 1, buf.Len())
}
