// Package uploads owns the scratch directory that holds uploaded images
// while they are being classified.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrInvalidExtension = errors.New("invalid file format")
	ErrNotImage         = errors.New("uploaded content is not a supported image")
)

var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
}

var allowedMIMEs = []string{"image/png", "image/jpeg"}

// AllowedFile reports whether the extension after the last dot is png, jpg or jpeg.
func AllowedFile(name string) bool {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return false
	}
	_, ok := allowedExtensions[strings.ToLower(name[i+1:])]
	return ok
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SanitizeFilename strips directories and anything outside [A-Za-z0-9_.-],
// so the result is always a plain name inside the scratch dir.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, "._")
	if name == "" || name == "." {
		return "upload"
	}
	return name
}

// Store writes uploads into dir under unique sanitized names.
type Store struct {
	dir string
}

// NewStore creates dir if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create uploads dir %q: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string { return s.dir }

// Save copies r into the scratch dir and checks that the content really is
// PNG or JPEG. The returned path must be passed to Remove by the caller; on
// error nothing is left behind.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	if !AllowedFile(name) {
		return "", ErrInvalidExtension
	}
	path := filepath.Join(s.dir, uuid.NewString()+"_"+SanitizeFilename(name))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("detect upload type: %w", err)
	}
	if !mimetype.EqualsAny(mt.String(), allowedMIMEs...) {
		_ = os.Remove(path)
		return "", fmt.Errorf("%w: %s", ErrNotImage, mt.String())
	}
	return path, nil
}

// Remove deletes a file previously returned by Save. Missing files are ignored.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload %q: %w", path, err)
	}
	return nil
}

// Sweep removes regular files older than maxAge and returns how many went.
func (s *Store) Sweep(maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("read uploads dir: %w", err)
	}
	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// raced with a request that already removed it
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := s.Remove(filepath.Join(s.dir, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
