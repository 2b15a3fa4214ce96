// Package upload stores logo and banner images on local disk.
package upload

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/duynhne/company-service/internal/core/domain"
)

// allowedTypes are the image formats accepted for logos and banners.
var allowedTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// Store writes uploads under dir and serves them under urlPrefix.
type Store struct {
	dir       string
	urlPrefix string
	maxBytes  int64
}

// NewStore creates the upload directory if needed.
func NewStore(dir, urlPrefix string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", dir, err)
	}
	return &Store{
		dir:       dir,
		urlPrefix: "/" + strings.Trim(urlPrefix, "/"),
		maxBytes:  maxBytes,
	}, nil
}

// Dir is the directory files are written to.
func (s *Store) Dir() string { return s.dir }

// URLPrefix is the public path files are served under.
func (s *Store) URLPrefix() string { return s.urlPrefix }

// MaxBytes is the largest accepted file.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// Save validates the uploaded image and writes it under a random name.
// It returns the public URL of the stored file.
func (s *Store) Save(kind domain.ImageKind, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", domain.ErrFileMissing
	}
	if fh.Size > s.maxBytes {
		return "", fmt.Errorf("%s is %d bytes: %w", kind, fh.Size, domain.ErrFileTooLarge)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return "", fmt.Errorf("%s content type %s: %w", kind, mtype.String(), domain.ErrUnsupportedFileType)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	name := fmt.Sprintf("%s-%s%s", kind, uuid.NewString(), mtype.Extension())
	dstPath := filepath.Join(s.dir, name)

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	// The header size comes from the client; enforce the limit on the bytes actually copied.
	n, copyErr := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	closeErr := dst.Close()
	switch {
	case copyErr != nil:
		err = fmt.Errorf("write %s: %w", name, copyErr)
	case n > s.maxBytes:
		err = fmt.Errorf("%s exceeds %d bytes: %w", kind, s.maxBytes, domain.ErrFileTooLarge)
	case closeErr != nil:
		err = fmt.Errorf("close %s: %w", name, closeErr)
	}
	if err != nil {
		_ = os.Remove(dstPath)
		return "", err
	}

	return path.Join(s.urlPrefix, name), nil
}

// Remove deletes a file previously returned by Save. Missing files are ignored.
func (s *Store) Remove(url string) error {
	name, ok := strings.CutPrefix(url, s.urlPrefix+"/")
	if !ok || name == "" || name != filepath.Base(name) {
		return fmt.Errorf("remove upload: %q is not a stored file", url)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload %s: %w", name, err)
	}
	return nil
}
