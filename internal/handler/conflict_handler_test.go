package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type conflictManagerMock struct {
	query      dto.ConflictQuery
	resolveID  string
	resolveReq dto.ResolveConflictRequest
	resolveErr error
}

func (m *conflictManagerMock) Detect(ctx context.Context, req dto.DetectConflictsRequest) (*dto.DetectConflictsResponse, error) {
	return &dto.DetectConflictsResponse{Conflicts: []dto.DetectedConflict{{Kind: models.ConflictKindTeacher, SessionA: "s1", SessionB: "s2"}}}, nil
}

func (m *conflictManagerMock) List(ctx context.Context, query dto.ConflictQuery) ([]models.ConflictRecord, *models.Pagination, error) {
	m.query = query
	return []models.ConflictRecord{{ID: "c1"}}, &models.Pagination{Page: 2, PageSize: 5, TotalCount: 6}, nil
}

func (m *conflictManagerMock) Resolve(ctx context.Context, id string, req dto.ResolveConflictRequest) (*models.ConflictRecord, error) {
	m.resolveID = id
	m.resolveReq = req
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	return &models.ConflictRecord{ID: id, Resolved: true, Note: req.Note}, nil
}

func TestConflictHandlerDetect(t *testing.T) {
	h := &ConflictHandler{service: &conflictManagerMock{}}

	w, env := serve(t, http.MethodPost, "/detect", "/detect", `{"periodId":"per-1"}`, managerClaims(), h.Detect)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"sessionA":"s1"`)
}

func TestConflictHandlerListBindsQuery(t *testing.T) {
	mock := &conflictManagerMock{}
	h := &ConflictHandler{service: mock}

	w, env := serve(t, http.MethodGet, "/conflicts", "/conflicts?kind=room&resolved=false&page=2&pageSize=5", "", managerClaims(), h.List)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "room", mock.query.Kind)
	require.NotNil(t, mock.query.Resolved)
	assert.False(t, *mock.query.Resolved)
	assert.Equal(t, 2, mock.query.Page)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 6, env.Pagination.TotalCount)
}

func TestConflictHandlerResolve(t *testing.T) {
	mock := &conflictManagerMock{}
	h := &ConflictHandler{service: mock}

	w, _ := serve(t, http.MethodPost, "/conflicts/:id/resolve", "/conflicts/c7/resolve", `{"note":"moved lab"}`, managerClaims(), h.Resolve)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c7", mock.resolveID)
	assert.Equal(t, "moved lab", mock.resolveReq.Note)
}

func TestConflictHandlerResolveWithoutBody(t *testing.T) {
	mock := &conflictManagerMock{resolveErr: appErrors.Clone(appErrors.ErrNotFound, "conflict not found")}
	h := &ConflictHandler{service: mock}

	w, env := serve(t, http.MethodPost, "/conflicts/:id/resolve", "/conflicts/c7/resolve", "", managerClaims(), h.Resolve)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "conflict not found", env.Error.Message)
}
