package item

import (
	"context"
	"fmt"

	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
)

// SeedOwner owns the sample catalog.
const SeedOwner = "seed@lostfound.local"

var seedCatalog = []struct {
	typ, title, description, location, date, contact string
}{
	{"found", "Blue backpack", "Navy blue backpack with a laptop sleeve and a keychain", "Central Library, 2nd floor", "2026-05-02", "desk@library.example"},
	{"lost", "Black leather wallet", "Slim wallet with student ID and bank cards", "Bus 42", "2026-05-03", "owner@example.com"},
	{"found", "Set of keys", "Three keys on a red carabiner", "Main Street parking lot", "2026-05-04", "security@example.com"},
	{"lost", "Silver laptop", "13 inch laptop with stickers on the lid", "Cafeteria", "2026-05-05", "student@example.com"},
	{"found", "Green umbrella", "", "Train station entrance", "2026-05-06", "info@station.example"},
	{"lost", "Wireless earbuds", "White earbuds in a charging case", "Gym locker room", "2026-05-07", "runner@example.com"},
}

// Seed fills an empty store with a small sample catalog. When items already exist
// nothing is created and the existing count is returned.
func (s *Service) Seed(ctx context.Context) (created, existing int, err error) {
	existing, err = s.Count(ctx)
	if err != nil {
		return 0, 0, err
	}
	if existing > 0 {
		return 0, existing, nil
	}

	for _, e := range seedCatalog {
		typ, desc, loc, date, contact := e.typ, e.description, e.location, e.date, e.contact
		_, err := s.Create(ctx, SeedOwner, domitem.Fields{
			Type:        &typ,
			Title:       e.title,
			Description: &desc,
			Location:    &loc,
			Date:        &date,
			Contact:     &contact,
		}, nil)
		if err != nil {
			return created, 0, fmt.Errorf("seed %q: %w", e.title, err)
		}
		created++
	}
	return created, 0, nil
}
