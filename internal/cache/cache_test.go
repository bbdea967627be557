package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nyx/internal/observability"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestAsideLoadsOnceThenHits(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	var calls int32
	fetch := func(context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return []string{"o1", "o2"}, nil
	}

	got, err := Aside(ctx, s, PublicOwnersKey, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"o1", "o2"}, got)

	got, err = Aside(ctx, s, PublicOwnersKey, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"o1", "o2"}, got)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	assert.True(t, mr.Exists(PublicOwnersKey))
	assert.Equal(t, time.Minute, mr.TTL(PublicOwnersKey))

	s.InvalidatePublicOwners(ctx)
	assert.False(t, mr.Exists(PublicOwnersKey))

	_, err = Aside(ctx, s, PublicOwnersKey, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAsideExpires(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	n := 0
	fetch := func(context.Context) (int, error) { n++; return n, nil }

	v, err := Aside(ctx, s, "counter", time.Second, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	mr.FastForward(2 * time.Second)
	v, err = Aside(ctx, s, "counter", time.Second, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestAsideFetchErrorIsNotCached(t *testing.T) {
	s, mr := newTestStore(t)
	boom := errors.New("db down")

	_, err := Aside(context.Background(), s, "k", time.Minute, func(context.Context) ([]string, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestAsideCorruptPayloadRefetches(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set("k", "{not json"))

	got, err := Aside(context.Background(), s, "k", time.Minute, func(context.Context) ([]string, error) {
		return []string{"fresh"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, got)
}

func TestAsideRedisDownFallsBackToFetch(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	before := testutil.ToFloat64(observability.CacheErrors.WithLabelValues("get"))
	got, err := Aside(context.Background(), s, "k", time.Minute, func(context.Context) (string, error) {
		return "live", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "live", got)
	assert.Greater(t, testutil.ToFloat64(observability.CacheErrors.WithLabelValues("get")), before)
}

func TestAsideCollapsesConcurrentMisses(t *testing.T) {
	s, _ := newTestStore(t)

	var calls int32
	release := make(chan struct{})
	fetch := func(context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Aside(context.Background(), s, "shared", time.Minute, fetch)
			assert.NoError(t, err)
			assert.Equal(t, "v", v)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(5))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}

func TestAsideFetchOutlivesCallerCancel(t *testing.T) {
	s, mr := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fetch := func(fctx context.Context) ([]string, error) {
		cancel()
		if err := fctx.Err(); err != nil {
			return nil, err
		}
		return []string{"o1"}, nil
	}

	got, err := Aside(ctx, s, PublicOwnersKey, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"o1"}, got)
	assert.True(t, mr.Exists(PublicOwnersKey))
}

func TestNilStoreIsSafe(t *testing.T) {
	var s *Store
	s.InvalidatePublicOwners(context.Background())
	assert.Nil(t, s.Client())
	assert.NoError(t, s.Close())

	v, err := Aside(context.Background(), s, "k", time.Minute, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	s := Connect(mr.Addr())
	require.NotNil(t, s)
	defer s.Close()

	s = Connect("redis://" + mr.Addr() + "/0")
	require.NotNil(t, s)
	defer s.Close()

	assert.Nil(t, Connect(""))
	assert.Nil(t, Connect("redis://%zz"))
}
