package item

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/kailas-cloud/lostfound/internal/db"
)

// fakeStore is an in-memory implementation of the consumer interface.
type fakeStore struct {
	hashes   map[string]map[string]string
	counters map[string]int64
	zsets    map[string]map[string]float64

	hsetErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		hashes:   map[string]map[string]string{},
		counters: map[string]int64{},
		zsets:    map[string]map[string]float64{},
	}
}

func (f *fakeStore) HSet(_ context.Context, key string, fields map[string]string) error {
	if f.hsetErr != nil {
		return f.hsetErr
	}
	h, ok := f.hashes[key]
	if !ok {
		h = map[string]string{}
		f.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (f *fakeStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	h, ok := f.hashes[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		if h, err := f.HGetAll(ctx, k); err == nil {
			out[i] = h
		}
	}
	return out, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.hashes, k)
	}
	return nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.hashes[key]
	return ok, nil
}

func (f *fakeStore) Incr(_ context.Context, key string) (int64, error) {
	f.counters[key]++
	return f.counters[key], nil
}

func (f *fakeStore) ZAdd(_ context.Context, key string, score float64, member string) error {
	z, ok := f.zsets[key]
	if !ok {
		z = map[string]float64{}
		f.zsets[key] = z
	}
	z[member] = score
	return nil
}

func (f *fakeStore) ZRem(_ context.Context, key string, members ...string) error {
	for _, m := range members {
		delete(f.zsets[key], m)
	}
	return nil
}

// ZRevRange orders by score desc, then member desc, matching Redis.
func (f *fakeStore) ZRevRange(_ context.Context, key string) ([]string, error) {
	z := f.zsets[key]
	out := make([]string, 0, len(z))
	for m := range z {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if z[out[i]] != z[out[j]] {
			return z[out[i]] > z[out[j]]
		}
		return out[i] > out[j]
	})
	return out, nil
}

func (f *fakeStore) ZCard(_ context.Context, key string) (int64, error) {
	return int64(len(f.zsets[key])), nil
}

// steppingClock returns a clock advancing one second per call.
func steppingClock() func() time.Time {
	t := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestRepo() (*Repo, *fakeStore) {
	s := newFakeStore()
	r := New(s, "lostfound:")
	r.now = steppingClock()
	return r, s
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
