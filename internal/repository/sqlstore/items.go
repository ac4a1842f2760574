package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/lostfound/internal/domain"
	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	"github.com/kailas-cloud/lostfound/internal/domain/vector"
)

const itemColumns = `id, type, title, description, location, date, contact, photo, status, owner, created_at, embedding`

// Create assigns an ID and creation time and stores the item.
func (s *Store) Create(ctx context.Context, it *domitem.Item) error {
	emb, err := vector.Encode(it.Embedding())
	if err != nil {
		return err //nolint:wrapcheck // already carries "encode vector"
	}
	createdAt := s.now().UTC()

	var id int64
	err = s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO items (type, title, description, location, date, contact, photo, status, owner, created_at, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		string(it.Type()), it.Title(), it.Description(), it.Location(), it.Date(), it.Contact(),
		it.PhotoRef(), string(it.Status()), it.Owner(), toNanos(createdAt), emb,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	it.Assign(id, createdAt)
	return nil
}

// Get returns an item by ID.
func (s *Store) Get(ctx context.Context, id int64) (domitem.Item, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+itemColumns+` FROM items WHERE id = ?`), id)
	st, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domitem.Item{}, fmt.Errorf("item %d: %w", id, domain.ErrItemNotFound)
	}
	if err != nil {
		return domitem.Item{}, fmt.Errorf("get item %d: %w", id, err)
	}
	return st.Item, nil
}

// List returns items matching f, newest first.
func (s *Store) List(ctx context.Context, f domitem.Filter) ([]domitem.Item, error) {
	stored, err := s.query(ctx, f)
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
func (s *Store) ListCandidates(ctx context.Context, status domitem.Status) ([]domitem.Stored, error) {
	return s.query(ctx, domitem.Filter{Status: status})
}

// UpdateStatus changes an item's status and returns the updated item.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status domitem.Status) (domitem.Item, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE items SET status = ? WHERE id = ?`), string(status), id)
	if err != nil {
		return domitem.Item{}, fmt.Errorf("update item %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domitem.Item{}, fmt.Errorf("item %d: %w", id, domain.ErrItemNotFound)
	}
	return s.Get(ctx, id)
}

// Delete removes an item.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM items WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("item %d: %w", id, domain.ErrItemNotFound)
	}
	return nil
}

// Count returns the number of stored items.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}

func (s *Store) query(ctx context.Context, f domitem.Filter) ([]domitem.Stored, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Owner != "" {
		where = append(where, "owner = ?")
		args = append(args, f.Owner)
	}

	q := `SELECT ` + itemColumns + ` FROM items`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []domitem.Stored{}
	for rows.Next() {
		st, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanItem reads one row. A NULL or malformed embedding leaves the item without a vector.
func scanItem(sc scanner) (domitem.Stored, error) {
	var (
		id                                              int64
		typ, title, desc, loc, date, contact, photo, st string
		owner                                           string
		createdAt                                       int64
		emb                                             sql.NullString
	)
	if err := sc.Scan(&id, &typ, &title, &desc, &loc, &date, &contact, &photo, &st, &owner, &createdAt, &emb); err != nil {
		return domitem.Stored{}, err //nolint:wrapcheck // callers wrap
	}
	raw := ""
	if emb.Valid {
		raw = emb.String
	}
	v, err := vector.Decode(raw)
	if err != nil {
		v = nil
	}
	it := domitem.Reconstruct(id, domitem.Type(typ), title, desc, loc, date, contact, photo,
		domitem.Status(st), owner, fromNanos(createdAt), v)
	return domitem.Stored{Item: it, RawEmbedding: raw}, nil
}
