package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/scheduling"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
)

type proposerMock struct {
	teacherReq dto.TeacherProposalRequest
	sessionReq dto.SessionProposalRequest
	err        error
}

func (m *proposerMock) ProposeTeachers(ctx context.Context, req dto.TeacherProposalRequest) (*dto.TeacherProposalResponse, error) {
	m.teacherReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.TeacherProposalResponse{Persisted: req.Persist, Suggestions: []dto.TeacherSuggestion{{GroupID: "g1", Status: "SUGGESTED"}}}, nil
}

func (m *proposerMock) ProposeSessions(ctx context.Context, req dto.SessionProposalRequest) (*dto.SessionProposalResponse, error) {
	m.sessionReq = req
	if m.err != nil {
		return nil, m.err
	}
	return &dto.SessionProposalResponse{
		Preview:    []scheduling.Draft{},
		Omitted:    []string{},
		Shortfalls: []scheduling.Shortfall{},
	}, nil
}

func TestProposalHandlerTeacherProposals(t *testing.T) {
	mock := &proposerMock{}
	h := &ProposalHandler{teachers: mock, sessions: mock}

	w, env := serve(t, http.MethodPost, "/tp", "/tp", `{"periodId":"per-1","calendarId":"cal-1","preferSpecialty":false}`, managerClaims(), h.TeacherProposals)

	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, mock.teacherReq.PrefersSpecialty())
	var body dto.TeacherProposalResponse
	require.NoError(t, json.Unmarshal(env.Data, &body))
	require.Len(t, body.Suggestions, 1)
	assert.Equal(t, "g1", body.Suggestions[0].GroupID)
}

func TestProposalHandlerTeacherProposalsPersistIsCreated(t *testing.T) {
	mock := &proposerMock{}
	h := &ProposalHandler{teachers: mock}

	w, _ := serve(t, http.MethodPost, "/tp", "/tp", `{"periodId":"per-1","calendarId":"cal-1","persist":true}`, managerClaims(), h.TeacherProposals)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestProposalHandlerSessionProposals(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{name: "preview", body: `{"periodId":"per-1","calendarId":"cal-1"}`, status: http.StatusOK},
		{name: "persist", body: `{"periodId":"per-1","calendarId":"cal-1","persist":true}`, status: http.StatusCreated},
		{name: "malformed", body: `[`, status: http.StatusBadRequest},
		{name: "service error", body: `{"periodId":"per-1","calendarId":"nope"}`, err: appErrors.Clone(appErrors.ErrNotFound, "calendar not found"), status: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mock := &proposerMock{err: tc.err}
			h := &ProposalHandler{sessions: mock}

			w, _ := serve(t, http.MethodPost, "/sp", "/sp", tc.body, managerClaims(), h.SessionProposals)

			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestProposalHandlerSessionProposalsDefaultsReuse(t *testing.T) {
	mock := &proposerMock{}
	h := &ProposalHandler{sessions: mock}

	_, _ = serve(t, http.MethodPost, "/sp", "/sp", `{"periodId":"per-1","calendarId":"cal-1","maxBlocksPerSession":3}`, managerClaims(), h.SessionProposals)

	assert.True(t, mock.sessionReq.ReusesGroupTeacher())
	assert.Equal(t, 3, mock.sessionReq.MaxBlocksPerSession)
}
