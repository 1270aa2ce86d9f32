// Package handler exposes the chat over HTTP: history, send/edit/delete/read and the event stream.
package handler

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"portalchat/internal/chat/broadcast"
	"portalchat/internal/chat/models"
	"portalchat/internal/chat/service"
	"portalchat/internal/common"
	"portalchat/internal/config"
	"portalchat/internal/logging"
	"portalchat/internal/sse"
)

//go:generate mockgen -destination=mocks/mock_chat_service.go -package=mocks portalchat/internal/chat/service ChatService

// multipart overhead allowed on top of the image itself
const formSlack = 1 << 20

// Sweeper runs the weekly purge when a boundary has passed.
type Sweeper interface {
	MaybeSweep(ctx context.Context) (bool, error)
}

type ChatHandler struct {
	chatService   service.ChatService
	hub           *broadcast.Hub
	sweeper       Sweeper
	keepalive     time.Duration
	maxImageBytes int64
	limiters      *sendLimiters
}

func NewChatHandler(chatService service.ChatService, hub *broadcast.Hub, sweeper Sweeper, cfg *config.Config) *ChatHandler {
	return &ChatHandler{
		chatService:   chatService,
		hub:           hub,
		sweeper:       sweeper,
		keepalive:     cfg.Keepalive(),
		maxImageBytes: cfg.Chat.MaxImageBytes,
		limiters:      newSendLimiters(cfg.Chat.SendRatePerSecond, cfg.Chat.SendBurst),
	}
}

func (h *ChatHandler) RegisterRoutes(r *mux.Router, auth *common.Authenticator) {
	api := r.PathPrefix("/api/chat").Subrouter()
	api.Use(auth.RequireIdentity)

	api.HandleFunc("/messages", h.History).Methods(http.MethodGet)
	api.HandleFunc("/send", h.Send).Methods(http.MethodPost)
	api.HandleFunc("/edit/{id}", h.Edit).Methods(http.MethodPost)
	api.HandleFunc("/delete/{id}", h.Delete).Methods(http.MethodPost)
	api.HandleFunc("/read/{id}", h.MarkRead).Methods(http.MethodPost)
	api.HandleFunc("/stream", h.Stream).Methods(http.MethodGet)
}

func (h *ChatHandler) sweep(ctx context.Context) {
	if h.sweeper == nil {
		return
	}
	// a failed purge is retried on the next request; the request itself goes on
	_, _ = h.sweeper.MaybeSweep(ctx)
}

func identity(r *http.Request) common.Identity {
	id, _ := common.IdentityFrom(r.Context())
	return id
}

// History returns the whole ordered history, tombstones included, as a JSON array.
func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	h.sweep(r.Context())

	msgs, err := h.chatService.History(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	common.WriteJSON(w, http.StatusOK, msgs)
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	if !h.limiters.allow(id.Username) {
		common.WriteJSON(w, http.StatusTooManyRequests, map[string]interface{}{
			"ok": false, "error": "too many messages, slow down", "code": "rate_limited",
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+formSlack)
	if err := r.ParseMultipartForm(formSlack); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			common.WriteError(w, common.Invalid("image_too_large", "image is too large"))
			return
		case errors.Is(err, http.ErrNotMultipart):
			if err := r.ParseForm(); err != nil {
				common.WriteError(w, common.Invalid("bad_request", "malformed form"))
				return
			}
		default:
			common.WriteError(w, common.Invalid("bad_request", "malformed form"))
			return
		}
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	var upload *service.Upload
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		if header.Filename != "" {
			upload = &service.Upload{Filename: header.Filename, Content: file}
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		common.WriteError(w, common.Invalid("bad_request", "unreadable image"))
		return
	}

	msg, err := h.chatService.Send(r.Context(), id, r.FormValue("text"), upload)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteOK(w, map[string]interface{}{"msg": msg})
}

type editRequest struct {
	Text string `json:"text"`
}

func (h *ChatHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}

	msg, err := h.chatService.Edit(r.Context(), identity(r), mux.Vars(r)["id"], req.Text)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteOK(w, map[string]interface{}{"msg": msg})
}

func (h *ChatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.chatService.Delete(r.Context(), identity(r), mux.Vars(r)["id"]); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteOK(w, nil)
}

func (h *ChatHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.chatService.MarkRead(r.Context(), identity(r), mux.Vars(r)["id"]); err != nil {
		common.WriteError(w, err)
		return
	}
	common.WriteOK(w, nil)
}

// Stream holds the connection open and forwards every chat event published after it subscribed.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	h.sweep(r.Context())

	id := identity(r)
	sub := h.hub.Subscribe()
	defer h.hub.Unsubscribe(sub)

	logging.Info().Str("user", id.Username).Uint64("subscriber", sub.ID).Int("subscribers", h.hub.Size()).Msg("chat stream opened")
	err := sse.Serve(r.Context(), w, sub.Mailbox, h.keepalive, models.Ping)
	if errors.Is(err, sse.ErrStreamingUnsupported) {
		common.WriteError(w, common.ResourceFailure("streaming unsupported", err))
		return
	}
	logging.Info().Err(err).Str("user", id.Username).Uint64("subscriber", sub.ID).Msg("chat stream closed")
}

// sendLimiters keeps one token bucket per user. A zero rate disables limiting.
type sendLimiters struct {
	limit rate.Limit
	burst int

	mu    sync.Mutex
	users map[string]*rate.Limiter
}

func newSendLimiters(perSecond float64, burst int) *sendLimiters {
	if burst <= 0 {
		burst = 1
	}
	return &sendLimiters{
		limit: rate.Limit(perSecond),
		burst: burst,
		users: make(map[string]*rate.Limiter),
	}
}

func (l *sendLimiters) allow(user string) bool {
	if l.limit <= 0 {
		return true
	}
	l.mu.Lock()
	lim, ok := l.users[user]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.users[user] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}
