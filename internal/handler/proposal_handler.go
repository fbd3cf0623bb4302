package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/response"
)

type teacherProposer interface {
	ProposeTeachers(ctx context.Context, req dto.TeacherProposalRequest) (*dto.TeacherProposalResponse, error)
}

type sessionProposer interface {
	ProposeSessions(ctx context.Context, req dto.SessionProposalRequest) (*dto.SessionProposalResponse, error)
}

// ProposalHandler exposes the teacher optimizer and session planner.
type ProposalHandler struct {
	teachers teacherProposer
	sessions sessionProposer
}

// NewProposalHandler constructs the handler.
func NewProposalHandler(teachers *service.TeacherProposalService, sessions *service.SessionPlannerService) *ProposalHandler {
	return &ProposalHandler{teachers: teachers, sessions: sessions}
}

// TeacherProposals godoc
// @Summary Suggest teachers for groups
// @Description Runs the branch-and-bound optimizer over the filtered groups. With persist=true changed assignments are written.
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.TeacherProposalRequest true "Teacher proposal payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scheduling/teacher-proposals [post]
func (h *ProposalHandler) TeacherProposals(c *gin.Context) {
	var req dto.TeacherProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher proposal payload"))
		return
	}
	result, err := h.teachers.ProposeTeachers(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if result.Persisted {
		status = http.StatusCreated
	}
	response.JSON(c, status, result, nil)
}

// SessionProposals godoc
// @Summary Place sessions for groups
// @Description Places the required weekly blocks of every filtered group inside teacher availability.
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.SessionProposalRequest true "Session proposal payload"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scheduling/session-proposals [post]
func (h *ProposalHandler) SessionProposals(c *gin.Context) {
	var req dto.SessionProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session proposal payload"))
		return
	}
	result, err := h.sessions.ProposeSessions(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if req.Persist {
		status = http.StatusCreated
	}
	response.JSON(c, status, result, nil)
}
