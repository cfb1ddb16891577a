package handoff

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/loan-origination/pkg/loans"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeContract runs the behaviour every Store implementation must share.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	session := uuid.NewString()

	t.Run("load from empty slot", func(t *testing.T) {
		_, err := store.Load(ctx, session)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save then load", func(t *testing.T) {
		quote := loans.CalculateQuote(25000, 3, 28.75)
		require.NoError(t, store.Save(ctx, session, quote))

		loaded, err := store.Load(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, quote, loaded)
	})

	t.Run("save overwrites", func(t *testing.T) {
		first := loans.CalculateQuote(10000, 6, 28.75)
		second := loans.CalculateQuote(50000, 12, 28.75)
		require.NoError(t, store.Save(ctx, session, first))
		require.NoError(t, store.Save(ctx, session, second))

		loaded, err := store.Load(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, second, loaded)
	})

	t.Run("sessions are isolated", func(t *testing.T) {
		_, err := store.Load(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("clear", func(t *testing.T) {
		require.NoError(t, store.Clear(ctx, session))
		_, err := store.Load(ctx, session)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, store.Clear(ctx, session), "clearing an empty slot")
	})

	t.Run("empty session rejected", func(t *testing.T) {
		err := store.Save(ctx, "", loans.CalculateQuote(1000, 1, 28.75))
		assert.ErrorIs(t, err, ErrEmptySession)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore())
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			session := fmt.Sprintf("session-%d", i%4)
			_ = store.Save(ctx, session, loans.CalculateQuote(float64(1000+i), 3, 28.75))
			_, _ = store.Load(ctx, session)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 4; i++ {
		_, err := store.Load(ctx, fmt.Sprintf("session-%d", i))
		assert.NoError(t, err)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := Dial(ctx, addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	prefix := "loan:handoff:test:" + uuid.NewString() + ":"
	storeContract(t, NewRedisStore(client, prefix, time.Minute))

	t.Run("ttl applied", func(t *testing.T) {
		store := NewRedisStore(client, prefix, time.Minute)
		session := uuid.NewString()
		require.NoError(t, store.Save(ctx, session, loans.CalculateQuote(25000, 3, 28.75)))

		ttl, err := client.TTL(ctx, prefix+session).Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
		assert.LessOrEqual(t, ttl, time.Minute)
	})
}
