package media

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"portalchat/internal/common"
	"portalchat/internal/logging"
)

// HTTPServer serves stored chat images at /chat_uploads/{name}.
type HTTPServer struct {
	storage ImageStore
}

func NewHTTPServer(storage ImageStore) *HTTPServer {
	return &HTTPServer{storage: storage}
}

func (s *HTTPServer) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat_uploads/{name}", s.serveFile).Methods(http.MethodGet)
}

func (s *HTTPServer) serveFile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	file, err := s.storage.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, ErrImageNotFound) || errors.Is(err, ErrInvalidName) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		logging.Error().Err(err).Str("image", name).Msg("open image failed")
		http.Error(w, "File not available", http.StatusInternalServerError)
		return
	}
	defer file.Close()

	w.Header().Set("Content-Type", common.ImageExtOf(name).ContentType())
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, file); err != nil {
		logging.Debug().Err(err).Str("image", name).Msg("streaming image interrupted")
	}
}
