package loader

import (
	"context"
	"sync"
	"time"
)

const (
	defaultWait     = 2 * time.Millisecond
	defaultMaxBatch = 100
)

// BatchFunc resolves a set of keys in one round trip. Keys with no match are
// simply absent from the returned map.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) (map[K]V, error)

// Loader coalesces Load calls issued before the batch fires into one BatchFunc
// invocation and memoizes results for its lifetime. One Loader serves exactly
// one request; it must not be shared across requests or reused after one.
type Loader[K comparable, V any] struct {
	fetch    BatchFunc[K, V]
	wait     time.Duration
	maxBatch int

	mu    sync.Mutex
	cache map[K]*thunk[V]
	cur   *batch[K, V]
}

type thunk[V any] struct {
	done chan struct{}
	val  V
	ok   bool
	err  error
}

type batch[K comparable, V any] struct {
	ctx    context.Context
	keys   []K
	thunks []*thunk[V]
	timer  *time.Timer
	fired  bool
}

func New[K comparable, V any](fetch BatchFunc[K, V]) *Loader[K, V] {
	return &Loader[K, V]{
		fetch:    fetch,
		wait:     defaultWait,
		maxBatch: defaultMaxBatch,
		cache:    make(map[K]*thunk[V]),
	}
}

// Load resolves one key. A key with no matching row yields (zero, false, nil),
// distinguishable from "not yet requested" which never escapes the loader.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, bool, error) {
	l.mu.Lock()
	t, full := l.enqueue(ctx, key)
	var b *batch[K, V]
	if full {
		b = l.cur
		l.cur = nil
	}
	l.mu.Unlock()

	if b != nil {
		b.timer.Stop()
		l.fire(b)
	}
	return t.await(ctx)
}

// LoadMany resolves a key set, firing the pending batch immediately instead of
// waiting out the batching window. The result map contains found keys only.
func (l *Loader[K, V]) LoadMany(ctx context.Context, keys []K) (map[K]V, error) {
	thunks := make(map[K]*thunk[V], len(keys))

	l.mu.Lock()
	for _, key := range keys {
		if _, seen := thunks[key]; seen {
			continue
		}
		t, _ := l.enqueue(ctx, key)
		thunks[key] = t
	}
	b := l.cur
	l.cur = nil
	l.mu.Unlock()

	if b != nil {
		b.timer.Stop()
		l.fire(b)
	}

	out := make(map[K]V, len(thunks))
	for key, t := range thunks {
		v, ok, err := t.await(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			out[key] = v
		}
	}
	return out, nil
}

// enqueue returns the thunk for key, creating it and adding it to the current
// batch on a miss. Must be called with l.mu held. The second return reports
// that the batch hit maxBatch and should fire now.
func (l *Loader[K, V]) enqueue(ctx context.Context, key K) (*thunk[V], bool) {
	if t, hit := l.cache[key]; hit {
		return t, false
	}

	t := &thunk[V]{done: make(chan struct{})}
	l.cache[key] = t

	if l.cur == nil {
		b := &batch[K, V]{ctx: ctx}
		b.timer = time.AfterFunc(l.wait, func() {
			l.mu.Lock()
			if l.cur == b {
				l.cur = nil
			}
			l.mu.Unlock()
			l.fire(b)
		})
		l.cur = b
	}
	l.cur.keys = append(l.cur.keys, key)
	l.cur.thunks = append(l.cur.thunks, t)

	return t, len(l.cur.keys) >= l.maxBatch
}

func (l *Loader[K, V]) fire(b *batch[K, V]) {
	l.mu.Lock()
	if b.fired {
		l.mu.Unlock()
		return
	}
	b.fired = true
	l.mu.Unlock()

	if len(b.keys) == 0 {
		return
	}

	res, err := l.fetch(b.ctx, b.keys)
	for i, t := range b.thunks {
		if err != nil {
			t.err = err
		} else {
			t.val, t.ok = res[b.keys[i]]
		}
		close(t.done)
	}
}

func (t *thunk[V]) await(ctx context.Context) (V, bool, error) {
	select {
	case <-t.done:
		return t.val, t.ok, t.err
	case <-ctx.Done():
		var zero V
		return zero, false, ctx.Err()
	}
}
