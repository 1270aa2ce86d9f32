package service

//go:generate mockgen -destination=mocks/mock_message_store.go -package=mocks portalchat/internal/chat/repository MessageStore
//go:generate mockgen -destination=mocks/mock_image_store.go -package=mocks portalchat/internal/media ImageStore

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"portalchat/internal/chat/models"
	"portalchat/internal/chat/repository"
	"portalchat/internal/common"
	"portalchat/internal/logging"
	"portalchat/internal/media"
	"portalchat/internal/metrics"
)

// Upload is an image attached to a sent message.
type Upload struct {
	Filename string
	Content  io.Reader
}

// Publisher receives every event produced by a successful store write.
type Publisher interface {
	Publish(ev models.Event)
}

// ChatService defines the interface exposed to the handler layer
type ChatService interface {
	History(ctx context.Context) ([]*models.Message, error)
	Send(ctx context.Context, author common.Identity, text string, image *Upload) (*models.Message, error)
	Edit(ctx context.Context, actor common.Identity, id, text string) (*models.Message, error)
	Delete(ctx context.Context, actor common.Identity, id string) error
	MarkRead(ctx context.Context, actor common.Identity, id string) error
	// Purge empties the history and reports how many messages were removed.
	Purge(ctx context.Context) (int, error)
}

// chatService funnels every store mutation through mu, so each
// load-mutate-save cycle and the event it publishes happen as one step.
type chatService struct {
	store  repository.MessageStore
	images media.ImageStore
	hub    Publisher

	mu    sync.Mutex
	now   func() time.Time
	newID func() string
}

// Constructor used in DI/wire
func NewChatService(store repository.MessageStore, images media.ImageStore, hub Publisher) ChatService {
	return &chatService{
		store:  store,
		images: images,
		hub:    hub,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

func storeFailure(op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return common.NotFound("message not found")
	}
	metrics.StoreErrors.WithLabelValues(op).Inc()
	logging.Error().Err(err).Str("op", op).Msg("message store failure")
	return common.ResourceFailure("message store unavailable", err)
}

func (s *chatService) History(ctx context.Context) ([]*models.Message, error) {
	msgs, err := s.store.List(ctx)
	if err != nil {
		return nil, storeFailure("list", err)
	}
	return msgs, nil
}

// Send stores the image (if any) before taking the lock, then appends and publishes.
func (s *chatService) Send(ctx context.Context, author common.Identity, text string, image *Upload) (*models.Message, error) {
	if author.Anonymous() {
		return nil, common.Unauthorized("login required")
	}
	text = strings.TrimSpace(text)
	if text == "" && image == nil {
		return nil, common.Invalid("empty_message", "message needs text or an image")
	}

	var imageRef string
	if image != nil {
		ext := common.ImageExtOf(image.Filename)
		if !ext.IsValid() {
			return nil, common.Invalid("unsupported_image", "unsupported image type")
		}
		name, err := s.images.Save(ctx, ext, image.Content)
		if err != nil {
			logging.Error().Err(err).Str("user", author.Username).Msg("storing chat image failed")
			return nil, common.ResourceFailure("image storage unavailable", err)
		}
		imageRef = name
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg := &models.Message{
		ID:        s.newID(),
		Author:    author.Username,
		Text:      text,
		ImageRef:  imageRef,
		CreatedAt: s.now(),
		ReadBy:    []string{author.Username},
	}
	if err := s.store.Append(ctx, msg); err != nil {
		if imageRef != "" {
			s.releaseImage(ctx, imageRef)
		}
		return nil, storeFailure("append", err)
	}

	s.hub.Publish(models.NewMessageEvent(msg))
	logging.Debug().Str("id", msg.ID).Str("user", author.Username).Bool("image", imageRef != "").Msg("chat message sent")
	return msg, nil
}

// Edit is reserved to the author, admin included: the admin may delete other
// users' messages but never rewrite them.
func (s *chatService) Edit(ctx context.Context, actor common.Identity, id, text string) (*models.Message, error) {
	if actor.Anonymous() {
		return nil, common.Unauthorized("login required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, common.Invalid("empty_message", "message text is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, storeFailure("find", err)
	}
	if msg.Deleted {
		return nil, common.Forbidden("message was deleted")
	}
	if msg.Author != actor.Username {
		return nil, common.Forbidden("only the author can edit a message")
	}

	msg.Text = text
	msg.Edited = true
	if err := s.store.Update(ctx, msg); err != nil {
		return nil, storeFailure("update", err)
	}

	s.hub.Publish(models.EditEvent(msg))
	return msg, nil
}

func (s *chatService) Delete(ctx context.Context, actor common.Identity, id string) error {
	if actor.Anonymous() {
		return common.Unauthorized("login required")
	}

	imageRef, err := s.tombstone(ctx, actor, id)
	if err != nil {
		return err
	}
	if imageRef != "" {
		s.releaseImage(ctx, imageRef)
	}
	logging.Info().Str("id", id).Str("user", actor.Username).Bool("admin", actor.Admin).Msg("chat message deleted")
	return nil
}

// tombstone marks the message deleted and returns the image it referenced.
func (s *chatService) tombstone(ctx context.Context, actor common.Identity, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := s.store.Find(ctx, id)
	if err != nil {
		return "", storeFailure("find", err)
	}
	if msg.Deleted {
		return "", common.Forbidden("message already deleted")
	}
	if msg.Author != actor.Username && !actor.Admin {
		return "", common.Forbidden("only the author or an admin can delete a message")
	}

	imageRef := msg.ImageRef
	msg.Tombstone()
	if err := s.store.Update(ctx, msg); err != nil {
		return "", storeFailure("update", err)
	}

	s.hub.Publish(models.DeleteEvent(msg.ID))
	return imageRef, nil
}

func (s *chatService) MarkRead(ctx context.Context, actor common.Identity, id string) error {
	if actor.Anonymous() {
		return common.Unauthorized("login required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := s.store.Find(ctx, id)
	if err != nil {
		return storeFailure("find", err)
	}
	if !msg.MarkReadBy(actor.Username) {
		return nil
	}
	if err := s.store.Update(ctx, msg); err != nil {
		return storeFailure("update", err)
	}

	s.hub.Publish(models.ReadEvent(msg.ID, actor.Username))
	return nil
}

func (s *chatService) Purge(ctx context.Context) (int, error) {
	s.mu.Lock()
	msgs, err := s.store.List(ctx)
	if err != nil {
		s.mu.Unlock()
		return 0, storeFailure("list", err)
	}
	if err := s.store.ReplaceAll(ctx, nil); err != nil {
		s.mu.Unlock()
		return 0, storeFailure("replace_all", err)
	}
	s.mu.Unlock()

	for _, m := range msgs {
		if m.ImageRef != "" {
			s.releaseImage(ctx, m.ImageRef)
		}
	}
	return len(msgs), nil
}

// releaseImage removes a stored image. Failures are logged and otherwise ignored.
func (s *chatService) releaseImage(ctx context.Context, name string) {
	if err := s.images.Remove(ctx, name); err != nil && !errors.Is(err, media.ErrImageNotFound) {
		logging.Warn().Err(err).Str("image", name).Msg("removing chat image failed")
	}
}
