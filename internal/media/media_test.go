package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portalchat/internal/common"
)

var namePattern = regexp.MustCompile(`^[0-9a-f]{8}\.png$`)

func TestNewName(t *testing.T) {
	name := NewName(common.ImageExtPNG)
	assert.Regexp(t, namePattern, name)
	assert.NotEqual(t, name, NewName(common.ImageExtPNG))
}

func TestCheckName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"ab12cd34.png", true},
		{"ab12cd34.JPEG", true},
		{"", false},
		{"../secret.png", false},
		{"dir/ab12cd34.png", false},
		{".png", false},
		{"ab12cd34.exe", false},
		{"noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckName(tt.name)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidName)
			}
		})
	}
}

func TestDiskStore_SaveOpenRemove(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewDiskStore(dir)
	require.NoError(t, err)

	name, err := store.Save(ctx, common.ImageExtPNG, strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Regexp(t, namePattern, name)

	_, err = os.Stat(filepath.Join(dir, name))
	require.NoError(t, err)

	rc, err := store.Open(ctx, name)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, store.Remove(ctx, name))
	assert.ErrorIs(t, store.Remove(ctx, name), ErrImageNotFound)
	_, err = store.Open(ctx, name)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestDiskStore_RejectsUnsupportedExt(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), common.ImageExt("exe"), strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestHTTPServer_ServeFile(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)
	name, err := store.Save(ctx, common.ImageExtGIF, strings.NewReader("GIF89a"))
	require.NoError(t, err)

	r := mux.NewRouter()
	NewHTTPServer(store).RegisterRoutes(r)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantType   string
	}{
		{"existing image", "/chat_uploads/" + name, http.StatusOK, "image/gif"},
		{"unknown image", "/chat_uploads/00000000.gif", http.StatusNotFound, ""},
		{"bad extension", "/chat_uploads/00000000.txt", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
				assert.Equal(t, "GIF89a", rec.Body.String())
			}
		})
	}
}
