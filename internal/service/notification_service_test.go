package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/pkg/config"
)

type notificationStoreStub struct {
	mu    sync.Mutex
	items []models.Notification
}

func (s *notificationStoreStub) CreateBatch(ctx context.Context, items []models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, items...)
	return nil
}

func (s *notificationStoreStub) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.items))
	for i, n := range s.items {
		out[i] = n.UserID
	}
	return out
}

func TestNotificationServiceFansOutToStudentsAndTeachers(t *testing.T) {
	groups := &groupStoreStub{students: map[string][]string{"g1": {"stu-1", "stu-2", "user-t1"}}}
	teachers := &teacherStoreStub{teachers: []models.Teacher{
		teacher("t1", "Ana Rivera", "Mathematics", 20),
		teacher("t2", "Ben Ortiz", "Physics", 20),
	}}
	store := &notificationStoreStub{}
	svc := NewNotificationService(groups, teachers, store, config.NotificationsConfig{Workers: 1}, zap.NewNop())
	svc.Start(context.Background())

	require.NoError(t, svc.Notify(context.Background(), SessionNotice{
		SessionID:  "s1",
		GroupID:    "g1",
		TeacherIDs: []string{"t1", "", "t2", "t1"},
		Title:      "Session moved",
		Body:       "MAT101 T moved to Monday",
	}))
	svc.Stop()

	assert.ElementsMatch(t, []string{"stu-1", "stu-2", "user-t1", "user-t2"}, store.recipients())
}

func TestNotificationServiceNilIsNoop(t *testing.T) {
	var svc *NotificationService
	assert.NoError(t, svc.Notify(context.Background(), SessionNotice{SessionID: "s1"}))
}

func TestNotificationServiceRejectsAfterStop(t *testing.T) {
	svc := NewNotificationService(&groupStoreStub{}, &teacherStoreStub{}, &notificationStoreStub{}, config.NotificationsConfig{Workers: 1}, nil)
	svc.Start(context.Background())
	svc.Stop()

	assert.Error(t, svc.Notify(context.Background(), SessionNotice{SessionID: "s1"}))
}
