package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type sessionFinder interface {
	FindByID(ctx context.Context, id string) (*models.SessionDetail, error)
}

type changeLister interface {
	ListBySession(ctx context.Context, sessionID string) ([]models.ScheduleChange, error)
}

// SessionHistoryService reads the audit trail left by moves, substitutions
// and bulk updates.
type SessionHistoryService struct {
	sessions sessionFinder
	changes  changeLister
}

// NewSessionHistoryService constructs the service.
func NewSessionHistoryService(sessions sessionFinder, changes changeLister) *SessionHistoryService {
	return &SessionHistoryService{sessions: sessions, changes: changes}
}

// History returns the changes of a session, newest first.
func (s *SessionHistoryService) History(ctx context.Context, sessionID string) ([]models.ScheduleChange, error) {
	if _, err := s.sessions.FindByID(ctx, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	changes, err := s.changes.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session history")
	}
	if changes == nil {
		changes = []models.ScheduleChange{}
	}
	return changes, nil
}
