package item

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/lostfound/internal/domain"
	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	"github.com/kailas-cloud/lostfound/internal/usecase/embedding"
)

// --- Mocks ---

type memRepo struct {
	items     map[int64]domitem.Item
	seq       int64
	createErr error
	countErr  error
	updates   int
}

func newMemRepo() *memRepo { return &memRepo{items: map[int64]domitem.Item{}} }

func (m *memRepo) Create(_ context.Context, it *domitem.Item) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.seq++
	it.Assign(m.seq, time.Date(2026, 5, 1, 9, 0, int(m.seq), 0, time.UTC))
	m.items[m.seq] = *it
	return nil
}

func (m *memRepo) Get(_ context.Context, id int64) (domitem.Item, error) {
	it, ok := m.items[id]
	if !ok {
		return domitem.Item{}, fmt.Errorf("item %d: %w", id, domain.ErrItemNotFound)
	}
	return it, nil
}

func (m *memRepo) List(_ context.Context, f domitem.Filter) ([]domitem.Item, error) {
	out := []domitem.Item{}
	for id := m.seq; id > 0; id-- {
		it, ok := m.items[id]
		if ok && f.Matches(&it) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memRepo) UpdateStatus(_ context.Context, id int64, status domitem.Status) (domitem.Item, error) {
	m.updates++
	it, ok := m.items[id]
	if !ok {
		return domitem.Item{}, domain.ErrItemNotFound
	}
	it = it.WithStatus(status)
	m.items[id] = it
	return it, nil
}

func (m *memRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memRepo) Count(_ context.Context) (int, error) {
	return len(m.items), m.countErr
}

type mockPhotos struct {
	saved     map[string]string
	deleted   []string
	saveErr   error
	deleteErr error
}

func newMockPhotos() *mockPhotos { return &mockPhotos{saved: map[string]string{}} }

func (m *mockPhotos) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	data, _ := io.ReadAll(r)
	ref := fmt.Sprintf("photo%d-%s", len(m.saved)+1, filename)
	m.saved[ref] = string(data)
	return ref, nil
}

func (m *mockPhotos) Delete(_ context.Context, ref string) error {
	m.deleted = append(m.deleted, ref)
	return m.deleteErr
}

type mockEmbedder struct {
	vec   []float32
	err   error
	texts []string
}

func (m *mockEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	m.texts = append(m.texts, text)
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec}, nil
}

func strPtr(s string) *string { return &s }

func backpack() domitem.Fields {
	return domitem.Fields{
		Title:       "Blue backpack",
		Description: strPtr("Navy, laptop sleeve"),
		Location:    strPtr("Library"),
	}
}

func photo() *Photo {
	return &Photo{Filename: "bag.jpg", Body: strings.NewReader("jpeg")}
}

// --- Tests ---

func TestCreate_EmbedsAndPersists(t *testing.T) {
	repo, photos := newMemRepo(), newMockPhotos()
	emb := &mockEmbedder{vec: []float32{0.6, 0.8}}
	svc := New(repo, photos, emb)

	it, err := svc.Create(context.Background(), "a@x.io", backpack(), photo())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if it.ID() != 1 || it.Type() != domitem.Found || it.Status() != domitem.Open {
		t.Errorf("item = %+v", it)
	}
	if len(emb.texts) != 1 || emb.texts[0] != "Blue backpack. Navy, laptop sleeve. Found at Library" {
		t.Errorf("embedded texts = %q", emb.texts)
	}
	stored := repo.items[1]
	if e := stored.Embedding(); len(e) != 2 {
		t.Errorf("stored embedding = %v", e)
	}
	if it.PhotoRef() == "" || photos.saved[it.PhotoRef()] != "jpeg" {
		t.Errorf("photo ref = %q, saved = %v", it.PhotoRef(), photos.saved)
	}
}

func TestCreate_EmptyDescriptionStillEmbedded(t *testing.T) {
	hashing, err := embedding.NewHashingEmbedder(embedding.DefaultHashingDimensions)
	if err != nil {
		t.Fatalf("NewHashingEmbedder: %v", err)
	}
	repo := newMemRepo()
	svc := New(repo, nil, hashing)

	it, err := svc.Create(context.Background(), "a@x.io", domitem.Fields{Title: "Keys"}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if it.Description() != "" || it.Location() != "" {
		t.Errorf("optional fields not defaulted: %+v", it)
	}
	if len(it.Embedding()) != embedding.DefaultHashingDimensions {
		t.Errorf("embedding length = %d", len(it.Embedding()))
	}
}

func TestCreate_ValidationTouchesNothing(t *testing.T) {
	repo, photos := newMemRepo(), newMockPhotos()
	emb := &mockEmbedder{}
	svc := New(repo, photos, emb)

	_, err := svc.Create(context.Background(), "a@x.io", domitem.Fields{Title: "  "}, photo())
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
	if len(photos.saved) != 0 || len(emb.texts) != 0 || len(repo.items) != 0 {
		t.Error("validation failure must not save, embed or persist")
	}
}

func TestCreate_EmbedFailureRemovesPhoto(t *testing.T) {
	repo, photos := newMemRepo(), newMockPhotos()
	svc := New(repo, photos, &mockEmbedder{err: domain.ErrEmbedderUnavailable})

	_, err := svc.Create(context.Background(), "a@x.io", backpack(), photo())
	if !errors.Is(err, domain.ErrEmbedderUnavailable) {
		t.Fatalf("err = %v, want ErrEmbedderUnavailable", err)
	}
	if len(repo.items) != 0 {
		t.Error("item persisted despite embed failure")
	}
	if len(photos.deleted) != 1 {
		t.Errorf("deleted photos = %v, want the saved one", photos.deleted)
	}
}

func TestCreate_PersistFailureRemovesPhoto(t *testing.T) {
	repo, photos := newMemRepo(), newMockPhotos()
	repo.createErr = errors.New("connection reset")
	svc := New(repo, photos, &mockEmbedder{vec: []float32{1}})

	if _, err := svc.Create(context.Background(), "a@x.io", backpack(), photo()); err == nil {
		t.Fatal("expected error")
	}
	if len(photos.deleted) != 1 {
		t.Errorf("deleted photos = %v, want the saved one", photos.deleted)
	}
}

func TestCreate_PhotoWithoutStore(t *testing.T) {
	svc := New(newMemRepo(), nil, &mockEmbedder{})
	_, err := svc.Create(context.Background(), "a@x.io", backpack(), photo())
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestUpdateStatus_OwnerOnly(t *testing.T) {
	repo := newMemRepo()
	svc := New(repo, nil, &mockEmbedder{vec: []float32{1}})
	ctx := context.Background()
	it, _ := svc.Create(ctx, "a@x.io", backpack(), nil)

	_, err := svc.UpdateStatus(ctx, "b@x.io", it.ID(), domitem.Closed)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if repo.updates != 0 {
		t.Error("repository updated by non-owner")
	}

	got, err := svc.UpdateStatus(ctx, "a@x.io", it.ID(), domitem.Closed)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if got.Status() != domitem.Closed {
		t.Errorf("status = %s", got.Status())
	}

	if _, err := svc.UpdateStatus(ctx, "a@x.io", 99, domitem.Closed); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("missing item err = %v", err)
	}
}

func TestDelete(t *testing.T) {
	repo, photos := newMemRepo(), newMockPhotos()
	svc := New(repo, photos, &mockEmbedder{vec: []float32{1}})
	ctx := context.Background()
	it, _ := svc.Create(ctx, "a@x.io", backpack(), photo())

	if err := svc.Delete(ctx, "b@x.io", it.ID()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("non-owner err = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(ctx, "", it.ID()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("anonymous err = %v, want ErrForbidden", err)
	}

	photos.deleteErr = errors.New("disk gone")
	if err := svc.Delete(ctx, "a@x.io", it.ID()); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(repo.items) != 0 {
		t.Error("item not deleted")
	}
	if len(photos.deleted) != 1 || photos.deleted[0] != it.PhotoRef() {
		t.Errorf("deleted photos = %v", photos.deleted)
	}
	if err := svc.Delete(ctx, "a@x.io", it.ID()); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

func TestListAndGet(t *testing.T) {
	svc := New(newMemRepo(), nil, &mockEmbedder{vec: []float32{1}})
	ctx := context.Background()
	lost := strPtr("lost")
	if _, err := svc.Create(ctx, "a@x.io", backpack(), nil); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx, "b@x.io", domitem.Fields{Type: lost, Title: "Wallet"}, nil); err != nil {
		t.Fatal(err)
	}

	all, err := svc.List(ctx, domitem.Filter{})
	if err != nil || len(all) != 2 || all[0].Title() != "Wallet" {
		t.Fatalf("List = %d items, %v", len(all), err)
	}
	only, _ := svc.List(ctx, domitem.Filter{Type: domitem.Lost})
	if len(only) != 1 {
		t.Errorf("lost = %d, want 1", len(only))
	}
	if _, err := svc.Get(ctx, 42); !errors.Is(err, domain.ErrItemNotFound) {
		t.Errorf("Get missing = %v", err)
	}
}

func TestSeed(t *testing.T) {
	repo := newMemRepo()
	svc := New(repo, nil, &mockEmbedder{vec: []float32{1, 0}})
	ctx := context.Background()

	created, existing, err := svc.Seed(ctx)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if created != len(seedCatalog) || existing != 0 {
		t.Errorf("created/existing = %d/%d", created, existing)
	}
	for _, it := range repo.items {
		if it.Owner() != SeedOwner {
			t.Errorf("owner = %s", it.Owner())
		}
	}

	created, existing, err = svc.Seed(ctx)
	if err != nil {
		t.Fatalf("second Seed: %v", err)
	}
	if created != 0 || existing != len(seedCatalog) {
		t.Errorf("second seed created/existing = %d/%d", created, existing)
	}
}

func TestSeed_CountError(t *testing.T) {
	repo := newMemRepo()
	repo.countErr = errors.New("down")
	if _, _, err := New(repo, nil, &mockEmbedder{}).Seed(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
