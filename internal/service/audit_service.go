package service

import (
	"context"
	"encoding/json"

	"dentalcare/internal/model"
	"dentalcare/internal/repository"
	"dentalcare/internal/websocket"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuditLogResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Details   string `json:"details"`
	CreatedAt string `json:"created_at"`
}

// AuditRecorder is the structured-event sink consumed by the auth subsystem.
// Recording is best-effort: a sink failure is logged and never fails the
// operation that produced the event.
type AuditRecorder interface {
	Record(ctx context.Context, userID *uuid.UUID, username, action string, details map[string]interface{})
}

// AuditService exposes recorded events to the admin endpoints
type AuditService interface {
	AuditRecorder
	GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo   repository.AuditRepository
	hub    *websocket.Hub
	logger *zap.Logger
}

// NewAuditService creates a new AuditService instance. hub may be nil when no
// live broadcast is wanted (tests, batch tools).
func NewAuditService(repo repository.AuditRepository, hub *websocket.Hub, logger *zap.Logger) AuditService {
	return &auditService{repo: repo, hub: hub, logger: logger}
}

// Record writes the event to the structured log, persists it, and broadcasts
// it to connected dashboards.
func (s *auditService) Record(ctx context.Context, userID *uuid.UUID, username, action string, details map[string]interface{}) {
	fields := []zap.Field{
		zap.String("action", action),
		zap.String("username", username),
	}
	if userID != nil {
		fields = append(fields, zap.String("user_id", userID.String()))
	}
	for k, v := range details {
		fields = append(fields, zap.Any(k, v))
	}
	s.logger.Info("security event", fields...)

	payload, err := json.Marshal(details)
	if err != nil {
		payload = []byte("{}")
	}

	entry := &model.AuditLog{
		UserID:   userID,
		Username: username,
		Action:   action,
		Details:  string(payload),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Warn("audit entry not persisted", zap.String("action", action), zap.Error(err))
	}

	if s.hub != nil {
		event, err := json.Marshal(map[string]interface{}{
			"action":   action,
			"username": username,
			"details":  details,
		})
		if err == nil {
			s.hub.Publish(event)
		}
	}
}

func (s *auditService) GetAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error) {
	logs, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		userID := ""
		if l.UserID != nil {
			userID = l.UserID.String()
		}
		res = append(res, AuditLogResponse{
			ID:        l.ID.String(),
			UserID:    userID,
			Username:  l.Username,
			Action:    l.Action,
			Details:   l.Details,
			CreatedAt: l.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return res, total, nil
}
