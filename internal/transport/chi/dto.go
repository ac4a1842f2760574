package chi

import (
	"time"

	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	"github.com/kailas-cloud/lostfound/internal/domain/search/result"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	User        string `json:"user"`
}

type statusRequest struct {
	Status *string `json:"status"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// itemResponse is the public JSON shape of an item. photo_url and similarity are
// null when absent.
type itemResponse struct {
	ID          int64    `json:"id"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Date        string   `json:"date"`
	Contact     string   `json:"contact"`
	PhotoURL    *string  `json:"photo_url"`
	Status      string   `json:"status"`
	User        string   `json:"user"`
	CreatedAt   string   `json:"created_at"`
	Similarity  *float64 `json:"similarity"`
}

// createItemForm is bound from the multipart or urlencoded item form.
type createItemForm struct {
	Type        *string `form:"type"`
	Title       string  `form:"title"`
	Description *string `form:"description"`
	Location    *string `form:"location"`
	Date        *string `form:"date"`
	Contact     *string `form:"contact"`
}

func (f *createItemForm) fields() domitem.Fields {
	return domitem.Fields{
		Type:        f.Type,
		Title:       f.Title,
		Description: f.Description,
		Location:    f.Location,
		Date:        f.Date,
		Contact:     f.Contact,
	}
}

func (s *Server) itemToResponse(it *domitem.Item) itemResponse {
	return itemResponse{
		ID:          it.ID(),
		Type:        string(it.Type()),
		Title:       it.Title(),
		Description: it.Description(),
		Location:    it.Location(),
		Date:        it.Date(),
		Contact:     it.Contact(),
		PhotoURL:    s.photoURL(it.PhotoRef()),
		Status:      string(it.Status()),
		User:        it.Owner(),
		CreatedAt:   it.CreatedAt().UTC().Format(time.RFC3339Nano),
	}
}

func (s *Server) itemsToResponse(items []domitem.Item) []itemResponse {
	out := make([]itemResponse, len(items))
	for i := range items {
		out[i] = s.itemToResponse(&items[i])
	}
	return out
}

func (s *Server) hitsToResponse(hits []result.Scored) []itemResponse {
	out := make([]itemResponse, len(hits))
	for i := range hits {
		it := hits[i].Item()
		resp := s.itemToResponse(&it)
		score := hits[i].Score()
		resp.Similarity = &score
		out[i] = resp
	}
	return out
}

func (s *Server) photoURL(ref string) *string {
	if ref == "" {
		return nil
	}
	u := s.opts.PublicBaseURL + "/uploads/" + ref
	return &u
}
