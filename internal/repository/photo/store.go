// Package photo keeps uploaded item photos on the local filesystem.
package photo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/kailas-cloud/lostfound/internal/domain"
)

// DefaultExt is used when the uploaded filename carries no image extension.
const DefaultExt = ".jpg"

// imageExts are the extensions kept from uploaded filenames. Anything else,
// .svg included, is stored under DefaultExt so it is never served as active content.
var imageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".bmp":  {},
	".heic": {},
	".avif": {},
}

// Store writes photos under a single directory with generated names.
// Implements usecase/item.PhotoStore.
type Store struct {
	dir     string
	maxSize int64
}

// New creates the upload directory if needed. maxSize <= 0 disables the limit.
func New(dir string, maxSize int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, maxSize: maxSize}, nil
}

// Save stores r as <uuid-hex><ext> and returns the reference.
func (s *Store) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("save photo: %w", err)
	}
	ref := newRef(filename)
	path := filepath.Join(s.dir, ref)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return "", fmt.Errorf("create photo: %w", err)
	}

	src := r
	if s.maxSize > 0 {
		// one extra byte tells "exactly at the limit" from "over it"
		src = io.LimitReader(r, s.maxSize+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxSize > 0 && n > s.maxSize {
		err = fmt.Errorf("photo exceeds %d bytes: %w", s.maxSize, domain.ErrInvalidInput)
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, domain.ErrInvalidInput) {
			return "", err
		}
		return "", fmt.Errorf("write photo: %w", err)
	}
	return ref, nil
}

// Open returns the photo for reading. Unknown refs yield domain.ErrItemNotFound.
func (s *Store) Open(ref string) (*os.File, error) {
	if err := validateRef(ref); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, ref))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("photo %s: %w", ref, domain.ErrItemNotFound)
		}
		return nil, fmt.Errorf("open photo: %w", err)
	}
	return f, nil
}

// Delete removes a photo. Missing photos are not an error.
func (s *Store) Delete(_ context.Context, ref string) error {
	if err := validateRef(ref); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, ref))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete photo: %w", err)
	}
	return nil
}

func newRef(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if _, ok := imageExts[ext]; !ok {
		ext = DefaultExt
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "") + ext
}

func validateRef(ref string) error {
	if ref == "" || strings.ContainsAny(ref, `/\`) || strings.Contains(ref, "..") {
		return fmt.Errorf("invalid photo reference %q: %w", ref, domain.ErrInvalidInput)
	}
	return nil
}
