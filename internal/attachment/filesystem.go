// Package attachment stores receipt files on the local filesystem.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FilesystemStore keeps attachments as flat files under a single directory.
// References are store-generated file names, opaque to callers.
type FilesystemStore struct {
	dir     string
	baseURL string
}

// NewFilesystemStore creates the backing directory if needed. baseURL is the
// URL prefix under which the files are served (e.g. "/receipts").
func NewFilesystemStore(dir, baseURL string) (*FilesystemStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("attachment directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create attachment directory: %w", err)
	}
	return &FilesystemStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Upload writes the file and returns its reference. The original filename
// contributes only its extension; the name itself is a fresh UUID so
// uploads can never collide or traverse paths.
func (s *FilesystemStore) Upload(_ context.Context, filename string, r io.Reader, _ string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	ref := uuid.New().String() + ext

	f, err := os.OpenFile(filepath.Join(s.dir, ref), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640)
	if err != nil {
		return "", fmt.Errorf("failed to create attachment file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close attachment file: %w", err)
	}
	return ref, nil
}

// Delete removes a stored file. A reference that is already gone is not an
// error; delete is used for best-effort cleanup.
func (s *FilesystemStore) Delete(_ context.Context, ref string) error {
	path, err := s.Path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}

// URLFor returns the servable URL for a reference.
func (s *FilesystemStore) URLFor(ref string) string {
	return s.baseURL + "/" + ref
}

// Path resolves a reference to its on-disk location, rejecting anything
// that would escape the attachment directory.
func (s *FilesystemStore) Path(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", fmt.Errorf("invalid attachment reference %q", ref)
	}
	return filepath.Join(s.dir, ref), nil
}

// Dir returns the backing directory, for static file serving.
func (s *FilesystemStore) Dir() string {
	return s.dir
}
