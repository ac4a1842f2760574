package item

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/lostfound/internal/db"
	"github.com/kailas-cloud/lostfound/internal/domain"
	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
)

// store is the consumer interface for items (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Incr(ctx context.Context, key string) (int64, error)
	ZAdd(ctx context.Context, key string, score float64, member string) error
	ZRem(ctx context.Context, key string, members ...string) error
	ZRevRange(ctx context.Context, key string) ([]string, error)
	ZCard(ctx context.Context, key string) (int64, error)
}

// Repo stores items as hashes with an id-scored sorted set for newest-first listing.
// Implements usecase/item.Repository and usecase/search.CandidateLister.
type Repo struct {
	store  store
	prefix string
	now    func() time.Time
}

// New creates an item repository. keyPrefix namespaces every key, e.g. "lostfound:".
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix, now: time.Now}
}

func (r *Repo) itemKey(id int64) string { return r.prefix + "item:" + formatID(id) }
func (r *Repo) seqKey() string          { return r.prefix + "item:seq" }
func (r *Repo) indexKey() string        { return r.prefix + "items" }

// Create assigns an ID and creation time and stores the item.
func (r *Repo) Create(ctx context.Context, it *domitem.Item) error {
	id, err := r.store.Incr(ctx, r.seqKey())
	if err != nil {
		return fmt.Errorf("allocate item id: %w", err)
	}
	it.Assign(id, r.now())

	fields, err := buildHashFields(it)
	if err != nil {
		return fmt.Errorf("item %d: %w", id, err)
	}
	key := r.itemKey(id)
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	// ids grow with creation order; creation times can collide within a millisecond
	if err := r.store.ZAdd(ctx, r.indexKey(), float64(id), formatID(id)); err != nil {
		return fmt.Errorf("index item %d: %w", id, err)
	}
	return nil
}

// Get returns an item by ID.
func (r *Repo) Get(ctx context.Context, id int64) (domitem.Item, error) {
	key := r.itemKey(id)
	m, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domitem.Item{}, fmt.Errorf("item %d: %w", id, domain.ErrItemNotFound)
		}
		return domitem.Item{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	st, err := parseHashFields(id, m)
	if err != nil {
		return domitem.Item{}, err
	}
	return st.Item, nil
}

// List returns items matching f, newest first.
func (r *Repo) List(ctx context.Context, f domitem.Filter) ([]domitem.Item, error) {
	stored, err := r.scan(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]domitem.Item, len(stored))
	for i := range stored {
		out[i] = stored[i].Item
	}
	return out, nil
}

// ListCandidates returns items with the given status and their raw stored vectors.
func (r *Repo) ListCandidates(ctx context.Context, status domitem.Status) ([]domitem.Stored, error) {
	return r.scan(ctx, domitem.Filter{Status: status})
}

// UpdateStatus changes an item's status and returns the updated item.
func (r *Repo) UpdateStatus(ctx context.Context, id int64, status domitem.Status) (domitem.Item, error) {
	key := r.itemKey(id)
	if err := r.mustExist(ctx, id); err != nil {
		return domitem.Item{}, err
	}
	if err := r.store.HSet(ctx, key, map[string]string{fieldStatus: string(status)}); err != nil {
		return domitem.Item{}, fmt.Errorf("hset %s: %w", key, err)
	}
	return r.Get(ctx, id)
}

// Delete removes an item and its index entry.
func (r *Repo) Delete(ctx context.Context, id int64) error {
	if err := r.mustExist(ctx, id); err != nil {
		return err
	}
	key := r.itemKey(id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	if err := r.store.ZRem(ctx, r.indexKey(), formatID(id)); err != nil {
		return fmt.Errorf("unindex item %d: %w", id, err)
	}
	return nil
}

// Count returns the number of stored items.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.ZCard(ctx, r.indexKey())
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return int(n), nil
}

func (r *Repo) mustExist(ctx context.Context, id int64) error {
	key := r.itemKey(id)
	ok, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("exists %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("item %d: %w", id, domain.ErrItemNotFound)
	}
	return nil
}

// scan loads every indexed item newest first and applies f. Index entries whose
// hash is gone are skipped.
func (r *Repo) scan(ctx context.Context, f domitem.Filter) ([]domitem.Stored, error) {
	members, err := r.store.ZRevRange(ctx, r.indexKey())
	if err != nil {
		return nil, fmt.Errorf("list item ids: %w", err)
	}
	if len(members) == 0 {
		return []domitem.Stored{}, nil
	}

	ids := make([]int64, 0, len(members))
	keys := make([]string, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
		keys = append(keys, r.itemKey(id))
	}

	hashes, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}

	out := make([]domitem.Stored, 0, len(hashes))
	for i, h := range hashes {
		if h == nil {
			continue
		}
		st, err := parseHashFields(ids[i], h)
		if err != nil {
			return nil, err
		}
		if !f.Matches(&st.Item) {
			continue
		}
		out = append(out, st)
	}
	return out, nil
}
