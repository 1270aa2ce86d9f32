// Package media stores chat images and serves them back by generated name.
package media

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"portalchat/internal/common"
)

var (
	ErrImageNotFound = errors.New("image not found")
	ErrInvalidName   = errors.New("invalid image name")
)

// ImageStore persists uploaded images under generated names.
type ImageStore interface {
	// Save stores the content of r and returns the generated name.
	Save(ctx context.Context, ext common.ImageExt, r io.Reader) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Remove(ctx context.Context, name string) error
}

// NewName returns a short random name such as "3f2a9c1d.png".
func NewName(ext common.ImageExt) string {
	return uuid.NewString()[:8] + "." + ext.String()
}

// CheckName rejects names that could escape the upload directory or carry a
// non-image extension.
func CheckName(name string) error {
	if name == "" || filepath.Base(name) != name || strings.HasPrefix(name, ".") {
		return ErrInvalidName
	}
	if !common.ImageExtOf(name).IsValid() {
		return ErrInvalidName
	}
	return nil
}
