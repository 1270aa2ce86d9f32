package user

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"portalchat/internal/common"
)

// Handler serves account registration and session endpoints.
type Handler struct {
	userService UserService
	sessionTTL  time.Duration
	secure      bool
	validate    *validator.Validate
}

func NewHandler(userService UserService, sessionTTL time.Duration, secureCookies bool) *Handler {
	return &Handler{
		userService: userService,
		sessionTTL:  sessionTTL,
		secure:      secureCookies,
		validate:    validator.New(),
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/admin/login", h.AdminLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/logout", h.Logout).Methods(http.MethodPost)
}

type credentials struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=128"`
}

func (h *Handler) credentials(r *http.Request) (credentials, error) {
	var req credentials
	if err := common.DecodeJSON(r, &req); err != nil {
		return req, err
	}
	if err := h.validate.Struct(req); err != nil {
		return req, common.Invalid("missing_fields", "username and password are required")
	}
	return req, nil
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	req, err := h.credentials(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	user, token, err := h.userService.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.setSession(w, token)
	common.WriteOK(w, map[string]interface{}{"username": user.Username, "token": token})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := h.credentials(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	user, token, err := h.userService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.setSession(w, token)
	common.WriteOK(w, map[string]interface{}{"username": user.Username, "token": token})
}

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	req, err := h.credentials(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	token, err := h.userService.AdminLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	h.setSession(w, token)
	common.WriteOK(w, map[string]interface{}{"username": req.Username, "token": token, "admin": true})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	common.WriteOK(w, nil)
}

func (h *Handler) setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.sessionTTL / time.Second),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
