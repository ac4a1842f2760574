// Package chi exposes the lostfound HTTP API on a go-chi router.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/oapi-codegen/runtime/types"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/lostfound/internal/domain"
	domitem "github.com/kailas-cloud/lostfound/internal/domain/item"
	logpkg "github.com/kailas-cloud/lostfound/internal/logger"
	authuc "github.com/kailas-cloud/lostfound/internal/usecase/auth"
	healthuc "github.com/kailas-cloud/lostfound/internal/usecase/health"
	itemuc "github.com/kailas-cloud/lostfound/internal/usecase/item"
	searchuc "github.com/kailas-cloud/lostfound/internal/usecase/search"
)

// multipartMemory is how much of a multipart body is kept in memory before spilling to disk.
const multipartMemory = 8 << 20

// PhotoOpener serves stored photos.
type PhotoOpener interface {
	Open(ref string) (*os.File, error)
}

// Options tune the HTTP surface.
type Options struct {
	PublicBaseURL  string // prefix of photo_url, without trailing slash
	MaxUploadBytes int64  // request body limit for item creation; 0 disables it
	EnableSeed     bool   // exposes POST /seed
}

// Server holds the HTTP handlers.
type Server struct {
	items         *itemuc.Service
	search        *searchuc.Service
	auth          *authuc.Service
	health        *healthuc.Service
	photos        PhotoOpener
	opts          Options
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. photos may be nil when uploads are disabled.
func NewServer(
	items *itemuc.Service,
	search *searchuc.Service,
	auth *authuc.Service,
	health *healthuc.Service,
	photos PhotoOpener,
	opts Options,
) *Server {
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Server{
		items:         items,
		search:        search,
		auth:          auth,
		health:        health,
		photos:        photos,
		opts:          opts,
		errorHandlers: defaultErrorHandlers(),
	}
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	requireAuth := BearerAuthMiddleware(s.auth)

	r.Post("/auth/register", s.Register)
	r.Post("/auth/login", s.Login)

	r.Route("/items", func(r chi.Router) {
		r.Get("/", s.ListItems)
		r.With(requireAuth).Post("/", s.CreateItem)
		r.Get("/{id}", s.GetItem)
		r.With(requireAuth).Put("/{id}/status", s.UpdateItemStatus)
		r.With(requireAuth).Delete("/{id}", s.DeleteItem)
	})

	r.Get("/search", s.Search)
	r.Get("/search/", s.Search)
	r.Get("/uploads/{ref}", s.ServePhoto)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	if s.opts.EnableSeed {
		r.Post("/seed", s.Seed)
	}
}

// Register handles POST /auth/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.auth.Register(r.Context(), req.Email, req.Password); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "User registered successfully")
}

// Login handles POST /auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	sess, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Message:     "Login successful",
		AccessToken: sess.Token,
		User:        sess.Email,
	})
}

// CreateItem handles POST /items/.
func (s *Server) CreateItem(w http.ResponseWriter, r *http.Request) {
	if s.opts.MaxUploadBytes > 0 {
		// form fields ride along with the photo
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+multipartMemory)
	}

	var form createItemForm
	photo, cleanup, err := parseItemForm(r, &form)
	defer cleanup()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codePayloadTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid form: "+err.Error())
		return
	}
	it, err := s.items.Create(r.Context(), IdentityFromContext(r.Context()), form.fields(), photo)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.itemToResponse(&it))
}

// parseItemForm binds the text fields and opens the optional photo part.
// cleanup is never nil and releases the photo and any spooled multipart files.
func parseItemForm(r *http.Request, form *createItemForm) (photo *itemuc.Photo, cleanup func(), err error) {
	cleanup = func() {}
	var files map[string][]*multipart.FileHeader
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, cleanup, fmt.Errorf("parse multipart form: %w", err)
		}
		mf := r.MultipartForm
		cleanup = func() { _ = mf.RemoveAll() }
		files = mf.File
	} else if err := r.ParseForm(); err != nil {
		return nil, cleanup, fmt.Errorf("parse form: %w", err)
	}

	if err := runtime.BindForm(form, r.PostForm, nil, nil); err != nil {
		return nil, cleanup, fmt.Errorf("bind form: %w", err)
	}

	headers := files["photo"]
	if len(headers) == 0 || headers[0].Filename == "" {
		return nil, cleanup, nil
	}
	var file types.File
	file.InitFromMultipart(headers[0])
	body, err := file.Reader()
	if err != nil {
		return nil, cleanup, fmt.Errorf("open photo: %w", err)
	}
	removeAll := cleanup
	cleanup = func() {
		_ = body.Close()
		removeAll()
	}
	return &itemuc.Photo{Filename: file.Filename(), Body: body}, cleanup, nil
}

// ListItems handles GET /items/.
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request) {
	var params struct {
		Type   *string
		Status *string
		User   *string
	}
	q := r.URL.Query()
	for name, dest := range map[string]**string{"type": &params.Type, "status": &params.Status, "user": &params.User} {
		if err := runtime.BindQueryParameter("form", true, false, name, q, dest); err != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("Invalid format for parameter %s", name))
			return
		}
	}

	var f domitem.Filter
	if params.Type != nil && *params.Type != "" {
		t, err := domitem.ParseType(*params.Type)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		f.Type = t
	}
	if params.Status != nil && *params.Status != "" {
		st, err := domitem.ParseStatus(*params.Status)
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		f.Status = st
	}
	if params.User != nil {
		f.Owner = *params.User
	}

	items, err := s.items.List(r.Context(), f)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.itemsToResponse(items))
}

// GetItem handles GET /items/{id}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := bindItemID(w, r)
	if !ok {
		return
	}
	it, err := s.items.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.itemToResponse(&it))
}

// UpdateItemStatus handles PUT /items/{id}/status. A missing status means "open".
func (s *Server) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := bindItemID(w, r)
	if !ok {
		return
	}
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	raw := ""
	if req.Status != nil {
		raw = *req.Status
	}
	status, err := domitem.ParseStatus(raw)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	if _, err := s.items.UpdateStatus(r.Context(), IdentityFromContext(r.Context()), id, status); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, fmt.Sprintf("Item status updated to '%s'", status))
}

// DeleteItem handles DELETE /items/{id}.
func (s *Server) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := bindItemID(w, r)
	if !ok {
		return
	}
	if err := s.items.Delete(r.Context(), IdentityFromContext(r.Context()), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Item deleted")
}

// Search handles GET /search/?query=.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var query string
	if err := runtime.BindQueryParameter("form", true, false, "query", r.URL.Query(), &query); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid format for parameter query")
		return
	}
	hits, err := s.search.Search(r.Context(), query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.hitsToResponse(hits))
}

// ServePhoto handles GET /uploads/{ref}.
func (s *Server) ServePhoto(w http.ResponseWriter, r *http.Request) {
	if s.photos == nil {
		writeError(w, http.StatusNotFound, codeNotFound, "photo not found")
		return
	}
	ref := chi.URLParam(r, "ref")
	f, err := s.photos.Open(ref)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) || errors.Is(err, domain.ErrInvalidInput) {
			writeError(w, http.StatusNotFound, codeNotFound, "photo not found")
			return
		}
		s.handleDomainError(w, r, err)
		return
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("stat photo: %w", err))
		return
	}
	h := w.Header()
	h.Set("Content-Type", photoContentType(ref))
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Content-Security-Policy", "default-src 'none'")
	http.ServeContent(w, r, ref, info.ModTime(), f)
}

// photoContentType maps a stored photo to a raster image type. Anything a
// browser could execute is served as opaque bytes.
func photoContentType(ref string) string {
	ctype := mime.TypeByExtension(filepath.Ext(ref))
	if !strings.HasPrefix(ctype, "image/") || strings.HasPrefix(ctype, "image/svg") {
		return "application/octet-stream"
	}
	return ctype
}

// Seed handles POST /seed. Only registered when seeding is enabled.
func (s *Server) Seed(w http.ResponseWriter, r *http.Request) {
	created, existing, err := s.items.Seed(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if existing > 0 {
		writeMessage(w, http.StatusOK, fmt.Sprintf("Database already has %d items. Skipping seed.", existing))
		return
	}
	logpkg.FromContext(r.Context()).Info("Seeded sample items", zap.Int("count", created))
	writeMessage(w, http.StatusCreated, fmt.Sprintf("Seeded %d items", created))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// bindItemID binds the {id} path parameter, answering 400 itself on failure.
func bindItemID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid format for parameter id")
		return 0, false
	}
	return id, true
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
