package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxImageSize bounds a single download.
const MaxImageSize = 20 << 20

// ErrInvalidRef is returned for references that do not stay under the media root.
var ErrInvalidRef = errors.New("invalid media reference")

// Store downloads remote images and keeps them under a local media root.
type Store struct {
	root    string
	baseURL string
	client  *http.Client
}

func NewStore(root, baseURL string, timeout time.Duration) *Store {
	return &Store{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// Fetch downloads sourceURL and stores it as images/YYYY/MM/DD/<name>-<id>.<ext>.
// The returned reference is relative to the media root.
func (s *Store) Fetch(ctx context.Context, sourceURL, name, ext string) (string, error) {
	if name == "" {
		name = "image"
	}
	if !plainSegment(name) || !plainSegment(ext) {
		return "", fmt.Errorf("%w: name %q ext %q", ErrInvalidRef, name, ext)
	}
	ref := path.Join("images", time.Now().Format("2006/01/02"),
		fmt.Sprintf("%s-%s.%s", name, uuid.NewString()[:8], ext))
	dest, err := s.resolve(ref)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build image request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download image: unexpected status %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, io.LimitReader(resp.Body, MaxImageSize+1))
	if err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	if n > MaxImageSize {
		os.Remove(dest)
		return "", fmt.Errorf("image exceeds %d bytes", MaxImageSize)
	}

	return ref, nil
}

// Remove deletes a stored file; a missing file is not an error.
func (s *Store) Remove(ref string) error {
	if ref == "" {
		return nil
	}
	dest, err := s.resolve(ref)
	if err != nil {
		return err
	}
	err = os.Remove(dest)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func plainSegment(s string) bool {
	return s != "" && !strings.ContainsAny(s, `/\`) && !strings.Contains(s, "..")
}

// resolve maps ref to a path under the media root and refuses anything that
// would land outside it.
func (s *Store) resolve(ref string) (string, error) {
	if strings.ContainsRune(ref, '\\') || path.Clean(ref) != ref {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	root := filepath.Clean(s.root)
	dest := filepath.Join(root, filepath.FromSlash(ref))
	rel, err := filepath.Rel(root, dest)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return dest, nil
}

// URL is the public address of a stored reference.
func (s *Store) URL(ref string) string {
	if ref == "" {
		return ""
	}
	return s.baseURL + "/" + ref
}
