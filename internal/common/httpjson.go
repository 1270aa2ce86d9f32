package common

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
)

// StatusOf maps an error Kind to its HTTP status.
func StatusOf(err error) int {
	switch KindOf(err) {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteOK writes {"ok":true} merged with the given fields.
func WriteOK(w http.ResponseWriter, fields map[string]interface{}) {
	body := map[string]interface{}{"ok": true}
	for k, v := range fields {
		body[k] = v
	}
	WriteJSON(w, http.StatusOK, body)
}

// WriteError writes {"ok":false,"error":...,"code":...}. Resource failures
// hide the underlying cause from the client.
func WriteError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	msg := err.Error()
	var e *Error
	if errors.As(err, &e) {
		msg = e.Msg
	} else if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	WriteJSON(w, status, map[string]interface{}{
		"ok":    false,
		"error": msg,
		"code":  CodeOf(err),
	})
}

// DecodeJSON reads a JSON body into v, reporting malformed input as a validation error.
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return Invalid("bad_request", "malformed JSON body")
	}
	return nil
}
