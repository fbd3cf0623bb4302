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

type roomAssigner interface {
	AssignRooms(ctx context.Context, req dto.AssignRoomsRequest) (*dto.AssignRoomsResponse, error)
}

// RoomHandler exposes automatic room assignment.
type RoomHandler struct {
	service roomAssigner
}

// NewRoomHandler constructs the handler.
func NewRoomHandler(svc *service.RoomAssignmentService) *RoomHandler {
	return &RoomHandler{service: svc}
}

// Assign godoc
// @Summary Assign rooms to sessions
// @Description Picks the smallest free room of the required type for each session.
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.AssignRoomsRequest true "Room assignment payload"
// @Success 200 {object} response.Envelope
// @Router /scheduling/rooms/assign [post]
func (h *RoomHandler) Assign(c *gin.Context) {
	var req dto.AssignRoomsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid room assignment payload"))
		return
	}
	result, err := h.service.AssignRooms(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
