package cart

import (
	"context"
	"testing"
	"time"

	slotrepo "storefront/internal/repository/slot"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_StorePerSession(t *testing.T) {
	ctx := context.Background()
	root := slotrepo.NewMemory()
	reg := NewRegistry(root, nil, "shop.example.com", zerolog.Nop())

	a, err := reg.Store(ctx, "session-a")
	require.NoError(t, err)
	b, err := reg.Store(ctx, "session-b")
	require.NoError(t, err)
	require.NotSame(t, a, b)

	again, err := reg.Store(ctx, "session-a")
	require.NoError(t, err)
	assert.Same(t, a, again)
	assert.Equal(t, 2, reg.Len())

	require.NoError(t, a.AddItem(ctx, item("A", "1", 1)))
	assert.Empty(t, b.Items())

	_, found, err := root.Get(ctx, "session-a:cart_items")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRegistry_RehydratesFromSlot(t *testing.T) {
	ctx := context.Background()
	root := slotrepo.NewMemory()
	first := NewRegistry(root, nil, "", zerolog.Nop())
	s, err := first.Store(ctx, "s1")
	require.NoError(t, err)
	require.NoError(t, s.AddItem(ctx, item("A", "3.25", 4)))

	second := NewRegistry(root, nil, "", zerolog.Nop())
	restored, err := second.Store(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, restored.ItemCount())
	assert.Equal(t, "13.00", restored.TotalPrice().StringFixed(2))
}

func TestRegistry_RequiresSession(t *testing.T) {
	reg := NewRegistry(slotrepo.NewMemory(), nil, "", zerolog.Nop())
	_, err := reg.Store(context.Background(), "  ")
	require.ErrorIs(t, err, ErrNoSession)
	assert.Zero(t, reg.Len())
}

func TestRegistry_EvictsIdleStores(t *testing.T) {
	ctx := context.Background()
	root := slotrepo.NewMemory()
	reg := NewRegistry(root, nil, "", zerolog.Nop())
	clock := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return clock }

	idle, err := reg.Store(ctx, "idle")
	require.NoError(t, err)
	require.NoError(t, idle.AddItem(ctx, item("A", "2.50", 3)))

	clock = clock.Add(20 * time.Minute)
	_, err = reg.Store(ctx, "active")
	require.NoError(t, err)

	clock = clock.Add(15 * time.Minute)
	assert.Equal(t, 1, reg.Evict(30*time.Minute))
	assert.Equal(t, 1, reg.Len())

	restored, err := reg.Store(ctx, "idle")
	require.NoError(t, err)
	assert.NotSame(t, idle, restored)
	assert.Equal(t, 3, restored.ItemCount(), "evicted cart rehydrates from the slot")
}

func TestRegistry_KeepsStoreWithCheckoutInFlight(t *testing.T) {
	ctx := context.Background()
	remote := &stubRemote{
		checkoutURL: "https://x.example/c/1",
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	reg := NewRegistry(slotrepo.NewMemory(), remote, "shop.example.com", zerolog.Nop())
	clock := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return clock }

	s, err := reg.Store(ctx, "buyer")
	require.NoError(t, err)
	require.NoError(t, s.AddItem(ctx, item("A", "1", 1)))

	done := make(chan error, 1)
	go func() {
		_, err := s.Checkout(ctx)
		done <- err
	}()
	<-remote.entered

	clock = clock.Add(time.Hour)
	assert.Zero(t, reg.Evict(time.Minute))
	assert.Equal(t, 1, reg.Len())

	close(remote.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, reg.Evict(time.Minute))
	assert.Zero(t, reg.Len())
}

func TestRegistry_RunStopsWithContext(t *testing.T) {
	reg := NewRegistry(slotrepo.NewMemory(), nil, "", zerolog.Nop())
	_, err := reg.Store(context.Background(), "s1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reg.Run(ctx, time.Millisecond, 0)
		close(done)
	}()
	require.Eventually(t, func() bool { return reg.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	<-done
}
