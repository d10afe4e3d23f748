package notify

import (
	"context"
	"encoding/json"

	"lessonbook/internal/domain"

	"go.uber.org/zap"
)

type inboxStore interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByUserID(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkAsRead(ctx context.Context, id, userID int64) error
	MarkAllAsRead(ctx context.Context, userID int64) error
}

// Service is the EventEmitter the core calls synchronously. Emit persists an
// inbox row and pushes it over the hub; it sits outside the consistency
// boundary, so an emit failure is logged, never propagated into a booking or
// payment transaction.
type Service struct {
	repo   inboxStore
	hub    *Hub
	logger *zap.Logger
}

func NewService(repo inboxStore, hub *Hub, logger *zap.Logger) *Service {
	return &Service{repo: repo, hub: hub, logger: logger}
}

func (s *Service) Emit(ctx context.Context, ev domain.Event) error {
	var raw json.RawMessage
	if ev.Data != nil {
		b, err := json.Marshal(ev.Data)
		if err != nil {
			return err
		}
		raw = b
	}

	n := &domain.Notification{
		UserID: ev.RecipientID,
		Type:   ev.Type,
		Title:  ev.Title,
		Body:   ev.Body,
		Data:   raw,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Error("failed to store notification",
			zap.String("type", string(ev.Type)),
			zap.Int64("user_id", ev.RecipientID),
			zap.Error(err),
		)
		return err
	}

	if s.hub != nil {
		s.hub.Push(ev.RecipientID, n)
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID int64, limit, offset int) ([]domain.Notification, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	list, err := s.repo.GetByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		unread = 0
	}
	return list, unread, nil
}

func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	return s.repo.MarkAsRead(ctx, id, userID)
}

func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}
