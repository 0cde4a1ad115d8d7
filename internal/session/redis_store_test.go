package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantumsport/internal/cart"
)

func setupRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	c := cart.New()
	_, err := c.ToggleBookingItem(courtItem("A", "08:00"))
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, &Session{ID: "s1", CustomerID: "cust-1", Cart: c}, time.Hour))
	assert.True(t, mr.Exists("session:s1"))
	assert.Equal(t, time.Hour, mr.TTL("session:s1"))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "cust-1", loaded.CustomerID)
	require.Len(t, loaded.Cart.Bookings, 1)
	assert.Equal(t, "A", loaded.Cart.Bookings[0].ResourceID)
}

func TestRedisStore_LoadMissing(t *testing.T) {
	store, _ := setupRedisStore(t)

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Expires(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "s1", Cart: cart.New()}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Load(ctx, "s1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, &Session{ID: "s1", Cart: cart.New()}, time.Minute))
	require.NoError(t, store.Delete(ctx, "s1"))

	assert.False(t, mr.Exists("session:s1"))
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	store, mr := setupRedisStore(t)
	require.NoError(t, mr.Set("session:bad", "{not json"))

	_, err := store.Load(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestManager_WithRedisStore(t *testing.T) {
	store, _ := setupRedisStore(t)
	m := NewManager(store, time.Hour)
	ctx := context.Background()

	s, err := m.Create(ctx, "cust-1")
	require.NoError(t, err)

	_, err = m.Mutate(ctx, s.ID, "cust-1", func(c *cart.Cart) error {
		_, err := c.ToggleBookingItem(courtItem("A", "08:00"))
		return err
	})
	require.NoError(t, err)

	got, err := m.Get(ctx, s.ID, "cust-1")
	require.NoError(t, err)
	assert.Len(t, got.Cart.Bookings, 1)
}

func TestRedisStore_UpdateAcrossManagers(t *testing.T) {
	store, mr := setupRedisStore(t)
	ctx := context.Background()

	// two managers stand in for two replicas: their stripe locks are not shared
	first := NewManager(store, time.Hour)
	second := NewManager(store, time.Hour)
	s, err := first.Create(ctx, "cust-1")
	require.NoError(t, err)

	hours := []string{"06:00", "07:00", "08:00", "09:00", "10:00", "11:00"}
	var wg sync.WaitGroup
	for i, hhmm := range hours {
		m := first
		if i%2 == 1 {
			m = second
		}
		wg.Add(1)
		go func(m *Manager, hhmm string) {
			defer wg.Done()
			for {
				_, err := m.Mutate(ctx, s.ID, "cust-1", func(c *cart.Cart) error {
					_, err := c.ToggleBookingItem(courtItem("A", hhmm))
					return err
				})
				if errors.Is(err, ErrBusy) {
					continue
				}
				assert.NoError(t, err)
				return
			}
		}(m, hhmm)
	}
	wg.Wait()

	got, err := first.Get(ctx, s.ID, "cust-1")
	require.NoError(t, err)
	assert.Len(t, got.Cart.Bookings, len(hours))
	assert.Equal(t, time.Hour, mr.TTL("session:"+s.ID))
}

func TestRedisStore_UpdateMissing(t *testing.T) {
	store, _ := setupRedisStore(t)

	_, err := store.Update(context.Background(), "nope", time.Minute, func(*Session) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}
