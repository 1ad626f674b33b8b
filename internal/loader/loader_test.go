package loader

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"shipdesk/internal/models"
)

func TestLoader_LoadMany_OneFetchPerDistinctKeySet(t *testing.T) {
	var calls atomic.Int64
	l := New(func(ctx context.Context, keys []uint64) (map[uint64]string, error) {
		calls.Add(1)
		out := make(map[uint64]string, len(keys))
		for _, k := range keys {
			out[k] = "v"
		}
		return out, nil
	})

	got, err := l.LoadMany(context.Background(), []uint64{1, 2, 3, 2, 1})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, int64(1), calls.Load())
}

func TestLoader_Load_Memoized(t *testing.T) {
	var calls atomic.Int64
	l := New(func(ctx context.Context, keys []uint64) (map[uint64]string, error) {
		calls.Add(1)
		return map[uint64]string{7: "seven"}, nil
	})

	v1, ok, err := l.Load(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "seven", v1)

	v2, ok, err := l.Load(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, v1, v2)
	require.Equal(t, int64(1), calls.Load())
}

func TestLoader_ConcurrentLoads_Coalesced(t *testing.T) {
	var calls atomic.Int64
	l := New(func(ctx context.Context, keys []uint64) (map[uint64]string, error) {
		calls.Add(1)
		out := make(map[uint64]string, len(keys))
		for _, k := range keys {
			out[k] = "v"
		}
		return out, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(k uint64) {
			defer wg.Done()
			_, ok, err := l.Load(context.Background(), k%3)
			require.NoError(t, err)
			require.True(t, ok)
		}(uint64(i))
	}
	wg.Wait()

	// All ten loads land in the batching window; one round trip.
	require.Equal(t, int64(1), calls.Load())
}

func TestLoader_MissingKeyIsNotFoundNotError(t *testing.T) {
	l := New(func(ctx context.Context, keys []uint64) (map[uint64]string, error) {
		return map[uint64]string{}, nil
	})

	v, ok, err := l.Load(context.Background(), 42)
	require.NoError(t, err)
	require.False(t, ok)
	require.Zero(t, v)

	got, err := l.LoadMany(context.Background(), []uint64{42, 43})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestLoader_FetchErrorPropagates(t *testing.T) {
	want := errors.New("db down")
	l := New(func(ctx context.Context, keys []uint64) (map[uint64]string, error) {
		return nil, want
	})

	_, _, err := l.Load(context.Background(), 1)
	require.ErrorIs(t, err, want)
}

func TestLoader_MaxBatchFiresEarly(t *testing.T) {
	var sizes []int
	var mu sync.Mutex
	l := New(func(ctx context.Context, keys []uint64) (map[uint64]string, error) {
		mu.Lock()
		sizes = append(sizes, len(keys))
		mu.Unlock()
		out := make(map[uint64]string, len(keys))
		for _, k := range keys {
			out[k] = "v"
		}
		return out, nil
	})
	l.maxBatch = 2

	keys := make([]uint64, 5)
	for i := range keys {
		keys[i] = uint64(i)
	}
	got, err := l.LoadMany(context.Background(), keys)
	require.NoError(t, err)
	require.Len(t, got, 5)

	mu.Lock()
	defer mu.Unlock()
	for _, n := range sizes {
		require.LessOrEqual(t, n, 2)
	}
}

type fakeSource struct {
	locCalls  atomic.Int64
	userCalls atomic.Int64
}

func (f *fakeSource) GetLocationsByIDs(ctx context.Context, ids []uint64) ([]*models.Location, error) {
	f.locCalls.Add(1)
	out := make([]*models.Location, 0, len(ids))
	for _, id := range ids {
		out = append(out, &models.Location{ID: id, City: "NYC"})
	}
	return out, nil
}

func (f *fakeSource) GetUsersByIDs(ctx context.Context, ids []uint64) ([]*models.User, error) {
	f.userCalls.Add(1)
	out := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, &models.User{ID: id})
	}
	return out, nil
}

func TestNewLoaders_BatchesPerEntityType(t *testing.T) {
	src := &fakeSource{}
	ls := NewLoaders(src)

	locs, err := ls.Locations.LoadMany(context.Background(), []uint64{1, 2, 1})
	require.NoError(t, err)
	require.Len(t, locs, 2)
	require.Equal(t, "NYC", locs[1].City)

	users, err := ls.Users.LoadMany(context.Background(), []uint64{5})
	require.NoError(t, err)
	require.Len(t, users, 1)

	// Memoized keys never hit the source again.
	_, ok, err := ls.Locations.Load(context.Background(), 2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), src.locCalls.Load())
	require.Equal(t, int64(1), src.userCalls.Load())
}
