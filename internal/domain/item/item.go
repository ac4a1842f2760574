// Package item holds the lost/found report aggregate.
package item

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kailas-cloud/lostfound/internal/domain"
)

// Type says whether the report is about something lost or something found.
type Type string

const (
	// Lost is a report by the owner of a missing item.
	Lost Type = "lost"
	// Found is a report by someone who picked an item up.
	Found Type = "found"
)

// Status is the lifecycle state of a report.
type Status string

const (
	// Open reports participate in search.
	Open Status = "open"
	// Closed reports are resolved and hidden from search.
	Closed Status = "closed"
)

const (
	// MaxTitleLen is the maximum title length in characters.
	MaxTitleLen = 200
	// MaxFieldLen is the maximum length of the other free-text fields.
	MaxFieldLen = 2000
)

// ParseType validates a type value. Empty means Found.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case "", Found:
		return Found, nil
	case Lost:
		return Lost, nil
	default:
		return "", fmt.Errorf("unknown item type %q: %w", s, domain.ErrInvalidInput)
	}
}

// ParseStatus validates a status value. Empty means Open.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "", Open:
		return Open, nil
	case Closed:
		return Closed, nil
	default:
		return "", fmt.Errorf("unknown item status %q: %w", s, domain.ErrInvalidInput)
	}
}

// Fields is the user-supplied part of a report. Absent optional fields are nil and
// default to the empty string; an absent type defaults to Found.
type Fields struct {
	Type        *string
	Title       string
	Description *string
	Location    *string
	Date        *string
	Contact     *string
}

// Item is the report aggregate. The embedding is set once at creation and never recomputed.
type Item struct {
	id          int64
	itemType    Type
	title       string
	description string
	location    string
	date        string
	contact     string
	photoRef    string
	status      Status
	owner       string
	createdAt   time.Time
	embedding   []float32
}

// New validates fields and creates an open Item owned by owner.
// ID and creation time are assigned by the repository.
func New(owner string, f Fields) (Item, error) {
	if owner == "" {
		return Item{}, fmt.Errorf("owner is required: %w", domain.ErrInvalidInput)
	}

	t, err := ParseType(deref(f.Type))
	if err != nil {
		return Item{}, err
	}

	title := strings.TrimSpace(f.Title)
	if title == "" {
		return Item{}, fmt.Errorf("title is required: %w", domain.ErrInvalidInput)
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return Item{}, fmt.Errorf("title too long (max %d): %w", MaxTitleLen, domain.ErrInvalidInput)
	}

	it := Item{
		itemType:    t,
		title:       title,
		description: deref(f.Description),
		location:    deref(f.Location),
		date:        deref(f.Date),
		contact:     deref(f.Contact),
		status:      Open,
		owner:       owner,
	}
	for _, fld := range []struct{ name, value string }{
		{"description", it.description},
		{"location", it.location},
		{"date", it.date},
		{"contact", it.contact},
	} {
		if utf8.RuneCountInString(fld.value) > MaxFieldLen {
			return Item{}, fmt.Errorf("%s too long (max %d): %w", fld.name, MaxFieldLen, domain.ErrInvalidInput)
		}
	}
	return it, nil
}

// Reconstruct creates an Item without validation (storage hydration).
func Reconstruct(
	id int64, itemType Type, title, description, location, date, contact, photoRef string,
	status Status, owner string, createdAt time.Time, embedding []float32,
) Item {
	return Item{
		id: id, itemType: itemType, title: title, description: description,
		location: location, date: date, contact: contact, photoRef: photoRef,
		status: status, owner: owner, createdAt: createdAt, embedding: embedding,
	}
}

// ID returns the repository-assigned identifier (0 before creation).
func (i *Item) ID() int64 { return i.id }

// Type returns lost or found.
func (i *Item) Type() Type { return i.itemType }

// Title returns the report title.
func (i *Item) Title() string { return i.title }

// Description returns the free-text description.
func (i *Item) Description() string { return i.description }

// Location returns where the item was lost or found.
func (i *Item) Location() string { return i.location }

// Date returns the free-text date.
func (i *Item) Date() string { return i.date }

// Contact returns the reporter's contact details.
func (i *Item) Contact() string { return i.contact }

// PhotoRef returns the photo storage reference, empty when there is no photo.
func (i *Item) PhotoRef() string { return i.photoRef }

// Status returns open or closed.
func (i *Item) Status() Status { return i.status }

// Owner returns the identity of the reporting user.
func (i *Item) Owner() string { return i.owner }

// CreatedAt returns the creation timestamp.
func (i *Item) CreatedAt() time.Time { return i.createdAt }

// Embedding returns the stored embedding vector.
func (i *Item) Embedding() []float32 { return i.embedding }

// OwnedBy reports whether identity owns the item.
func (i *Item) OwnedBy(identity string) bool { return identity != "" && i.owner == identity }

// EmbeddingText is the text the embedding is computed from.
func (i *Item) EmbeddingText() string {
	return fmt.Sprintf("%s. %s. Found at %s", i.title, i.description, i.location)
}

// SetPhotoRef attaches a stored photo before creation.
func (i *Item) SetPhotoRef(ref string) { i.photoRef = ref }

// SetEmbedding sets the vector. It is a no-op once a vector is present.
func (i *Item) SetEmbedding(v []float32) {
	if i.embedding != nil {
		return
	}
	if v == nil {
		v = []float32{}
	}
	i.embedding = v
}

// Assign sets the repository-assigned identity fields.
func (i *Item) Assign(id int64, createdAt time.Time) {
	i.id = id
	i.createdAt = createdAt.UTC()
}

// WithStatus returns a copy with the status changed.
func (i *Item) WithStatus(s Status) Item {
	c := *i
	c.status = s
	return c
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Type   Type
	Status Status
	Owner  string
}

// Matches reports whether it passes the filter.
func (f Filter) Matches(it *Item) bool {
	if f.Type != "" && it.Type() != f.Type {
		return false
	}
	if f.Status != "" && it.Status() != f.Status {
		return false
	}
	if f.Owner != "" && it.Owner() != f.Owner {
		return false
	}
	return true
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
