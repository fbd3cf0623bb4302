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

type teacherLoadReporter interface {
	TeacherLoads(ctx context.Context, query dto.TeacherLoadQuery) ([]dto.TeacherLoad, error)
}

type weeklyGridBuilder interface {
	WeeklyGrid(ctx context.Context, req dto.WeeklyGridRequest) (*dto.WeeklyGridResponse, error)
}

// TimetableHandler serves read-only timetable views.
type TimetableHandler struct {
	loads teacherLoadReporter
	grid  weeklyGridBuilder
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(loads *service.TeacherLoadService, grid *service.WeeklyGridService) *TimetableHandler {
	return &TimetableHandler{loads: loads, grid: grid}
}

// TeacherLoads godoc
// @Summary Weekly load per teacher
// @Tags Scheduling
// @Produce json
// @Param periodId query string true "Period ID"
// @Param calendarId query string true "Calendar ID"
// @Success 200 {object} response.Envelope
// @Router /scheduling/teacher-loads [get]
func (h *TimetableHandler) TeacherLoads(c *gin.Context) {
	var query dto.TeacherLoadQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	loads, err := h.loads.TeacherLoads(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, loads, nil)
}

// WeeklyGrid godoc
// @Summary Weekly timetable grid
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.WeeklyGridRequest true "Grid filters"
// @Success 200 {object} response.Envelope
// @Router /scheduling/grid [post]
func (h *TimetableHandler) WeeklyGrid(c *gin.Context) {
	var req dto.WeeklyGridRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid grid payload"))
		return
	}
	grid, err := h.grid.WeeklyGrid(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}
