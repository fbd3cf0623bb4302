package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
	"github.com/noah-isme/campus-timetable-api/pkg/jobs"
)

const jobTypeSessionNotice = "session_notice"

type enrolledStudentLister interface {
	ListStudentUserIDs(ctx context.Context, groupID string) ([]string, error)
}

type teacherBatchFinder interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Teacher, error)
}

type notificationWriter interface {
	CreateBatch(ctx context.Context, items []models.Notification) error
}

type jobQueue interface {
	Start(ctx context.Context)
	Stop()
	Enqueue(job jobs.Job) error
}

// SessionNotice describes a session change that affected parties hear about.
type SessionNotice struct {
	SessionID  string
	GroupID    string
	TeacherIDs []string
	Title      string
	Body       string
}

// NotificationService fans session changes out to students and teachers in
// the background.
type NotificationService struct {
	groups   enrolledStudentLister
	teachers teacherBatchFinder
	store    notificationWriter
	queue    jobQueue
	logger   *zap.Logger
}

// NewNotificationService builds the service and its worker queue. Call Start
// before enqueuing.
func NewNotificationService(groups enrolledStudentLister, teachers teacherBatchFinder, store notificationWriter, cfg config.NotificationsConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &NotificationService{groups: groups, teachers: teachers, store: store, logger: logger}
	svc.queue = jobs.NewQueue("notifications", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		Logger:     logger,
	})
	return svc
}

// Start launches the workers.
func (s *NotificationService) Start(ctx context.Context) { s.queue.Start(ctx) }

// Stop drains pending notices.
func (s *NotificationService) Stop() { s.queue.Stop() }

// Notify queues a notice. It never blocks on delivery.
func (s *NotificationService) Notify(ctx context.Context, notice SessionNotice) error {
	if s == nil {
		return nil
	}
	return s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobTypeSessionNotice, Payload: notice})
}

func (s *NotificationService) handle(ctx context.Context, job jobs.Job) error {
	notice, ok := job.Payload.(SessionNotice)
	if !ok {
		s.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}

	recipients, err := s.recipients(ctx, notice)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}
	items := lo.Map(recipients, func(userID string, _ int) models.Notification {
		return models.Notification{UserID: userID, Title: notice.Title, Body: notice.Body}
	})
	if err := s.store.CreateBatch(ctx, items); err != nil {
		return fmt.Errorf("store notifications: %w", err)
	}
	s.logger.Debug("session notice delivered", zap.String("session_id", notice.SessionID), zap.Int("recipients", len(items)))
	return nil
}

func (s *NotificationService) recipients(ctx context.Context, notice SessionNotice) ([]string, error) {
	var users []string
	if notice.GroupID != "" {
		students, err := s.groups.ListStudentUserIDs(ctx, notice.GroupID)
		if err != nil {
			return nil, fmt.Errorf("list enrolled students: %w", err)
		}
		users = append(users, students...)
	}
	teacherIDs := lo.Compact(lo.Uniq(notice.TeacherIDs))
	if len(teacherIDs) > 0 {
		teachers, err := s.teachers.FindByIDs(ctx, teacherIDs)
		if err != nil {
			return nil, fmt.Errorf("find teachers: %w", err)
		}
		for _, t := range teachers {
			if t.UserID != nil && *t.UserID != "" {
				users = append(users, *t.UserID)
			}
		}
	}
	return lo.Uniq(users), nil
}
