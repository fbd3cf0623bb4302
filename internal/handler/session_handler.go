package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-timetable-api/internal/dto"
	"github.com/noah-isme/campus-timetable-api/internal/models"
	"github.com/noah-isme/campus-timetable-api/internal/service"
	appErrors "github.com/noah-isme/campus-timetable-api/pkg/errors"
	"github.com/noah-isme/campus-timetable-api/pkg/response"
)

type sessionChanger interface {
	Move(ctx context.Context, actorID string, req dto.MoveSessionRequest) (*dto.MoveSessionResponse, error)
	SetSubstitute(ctx context.Context, actorID, sessionID string, req dto.SubstituteRequest) (*models.SessionDetail, error)
}

type sessionHistoryReader interface {
	History(ctx context.Context, sessionID string) ([]models.ScheduleChange, error)
}

type bulkSessionWriter interface {
	BulkCreate(ctx context.Context, req dto.BulkCreateSessionsRequest) (*dto.BulkResult, error)
	BulkUpdate(ctx context.Context, actorID string, req dto.BulkUpdateSessionsRequest) (*dto.BulkResult, error)
	BulkDelete(ctx context.Context, req dto.BulkDeleteSessionsRequest) (*dto.BulkDeleteResult, error)
}

// SessionHandler exposes session moves, substitutes and bulk maintenance.
type SessionHandler struct {
	changes sessionChanger
	history sessionHistoryReader
	bulk    bulkSessionWriter
}

// NewSessionHandler constructs the handler.
func NewSessionHandler(changes *service.SessionChangeService, history *service.SessionHistoryService, bulk *service.BulkSessionService) *SessionHandler {
	return &SessionHandler{changes: changes, history: history, bulk: bulk}
}

// Move godoc
// @Summary Move a session
// @Description Validates the target slot against group, teacher and room occupancy. Collisions answer 409 with the conflicting sessions in meta.conflicts; dryRun only reports them.
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.MoveSessionRequest true "Move payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scheduling/sessions/move [post]
func (h *SessionHandler) Move(c *gin.Context) {
	var req dto.MoveSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid move payload"))
		return
	}
	result, err := h.changes.Move(c.Request.Context(), actorID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Substitute godoc
// @Summary Set or clear a session substitute
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SubstituteRequest true "Substitute payload"
// @Success 200 {object} response.Envelope
// @Router /scheduling/sessions/{id}/substitute [patch]
func (h *SessionHandler) Substitute(c *gin.Context) {
	var req dto.SubstituteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid substitute payload"))
		return
	}
	session, err := h.changes.SetSubstitute(c.Request.Context(), actorID(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// History godoc
// @Summary List the change history of a session
// @Tags Scheduling
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /scheduling/sessions/{id}/changes [get]
func (h *SessionHandler) History(c *gin.Context) {
	changes, err := h.history.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, changes, nil)
}

// BulkCreate godoc
// @Summary Create sessions in bulk
// @Description Each item is validated and placed independently. Answers 409 with the itemized result when no item was created.
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.BulkCreateSessionsRequest true "Sessions"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scheduling/sessions/bulk [post]
func (h *SessionHandler) BulkCreate(c *gin.Context) {
	var req dto.BulkCreateSessionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk create payload"))
		return
	}
	result, err := h.bulk.BulkCreate(c.Request.Context(), req)
	if err != nil {
		if result != nil {
			response.Itemized(c, err, result)
			return
		}
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// BulkUpdate godoc
// @Summary Update sessions in bulk
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.BulkUpdateSessionsRequest true "Updates"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scheduling/sessions/bulk [put]
func (h *SessionHandler) BulkUpdate(c *gin.Context) {
	var req dto.BulkUpdateSessionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk update payload"))
		return
	}
	result, err := h.bulk.BulkUpdate(c.Request.Context(), actorID(c), req)
	if err != nil {
		if result != nil {
			response.Itemized(c, err, result)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// BulkDelete godoc
// @Summary Delete sessions in bulk
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.BulkDeleteSessionsRequest true "Session IDs"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /scheduling/sessions/bulk-delete [post]
func (h *SessionHandler) BulkDelete(c *gin.Context) {
	var req dto.BulkDeleteSessionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid bulk delete payload"))
		return
	}
	result, err := h.bulk.BulkDelete(c.Request.Context(), req)
	if err != nil {
		if result != nil {
			response.Itemized(c, err, result)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
