package notif

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"portalchat/internal/common"
	"portalchat/internal/dbmysql"
	"portalchat/internal/logging"
	"portalchat/internal/metrics"
	"portalchat/internal/sse"
)

type NotificationHandler struct {
	service   NotificationService
	registry  *Registry
	keepalive time.Duration
	validate  *validator.Validate
}

func NewNotificationHandler(service NotificationService, registry *Registry, keepalive time.Duration) *NotificationHandler {
	return &NotificationHandler{
		service:   service,
		registry:  registry,
		keepalive: keepalive,
		validate:  validator.New(),
	}
}

func (h *NotificationHandler) RegisterRoutes(r *mux.Router, auth *common.Authenticator) {
	r.Handle("/api/sse", auth.RequireIdentity(http.HandlerFunc(h.Stream))).Methods(http.MethodGet)

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(auth.RequireAdmin)
	admin.HandleFunc("/send_message", h.SendMessage).Methods(http.MethodPost)
	admin.HandleFunc("/kick", h.Kick).Methods(http.MethodPost)
	admin.HandleFunc("/unban", h.Unban).Methods(http.MethodPost)
	admin.HandleFunc("/delete_user", h.DeleteUser).Methods(http.MethodPost)
	admin.HandleFunc("/users", h.Users).Methods(http.MethodGet)
}

type sendMessageRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Text     string `json:"text" validate:"required,max=2000"`
}

type userRequest struct {
	Username string `json:"username" validate:"required,max=64"`
}

func (h *NotificationHandler) decode(r *http.Request, v interface{}) error {
	if err := common.DecodeJSON(r, v); err != nil {
		return err
	}
	if err := h.validate.Struct(v); err != nil {
		return common.Invalid("missing_fields", "incomplete request")
	}
	return nil
}

func (h *NotificationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := h.decode(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.service.SendMessage(r.Context(), req.Username, req.Text); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteOK(w, nil)
}

func (h *NotificationHandler) Kick(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.service.Kick)
}

func (h *NotificationHandler) Unban(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.service.Unban)
}

func (h *NotificationHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, h.service.DeleteUser)
}

func (h *NotificationHandler) userAction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, username string) error) {
	var req userRequest
	if err := h.decode(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := action(r.Context(), req.Username); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteOK(w, nil)
}

func (h *NotificationHandler) Users(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.Users(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if users == nil {
		users = []*dbmysql.User{}
	}
	common.WriteOK(w, map[string]interface{}{"users": users})
}

// Stream forwards the caller's direct notifications until the client disconnects.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	id, _ := common.IdentityFrom(r.Context())
	mb := h.registry.Mailbox(id.Username)

	gauge := metrics.OpenStreams.WithLabelValues(metrics.ChannelNotify)
	gauge.Inc()
	defer gauge.Dec()

	logging.Info().Str("user", id.Username).Msg("notification stream opened")
	err := sse.Serve(r.Context(), w, mb, h.keepalive, Ping)
	if errors.Is(err, sse.ErrStreamingUnsupported) {
		common.WriteError(w, common.ResourceFailure("streaming unsupported", err))
		return
	}
	logging.Info().Err(err).Str("user", id.Username).Msg("notification stream closed")
}
