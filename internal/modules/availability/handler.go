package availability

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"lessonbook/internal/middleware"
	"lessonbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes: availability listing is readable without a token.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/teachers/:id/availability", h.ListAvailability)
}

// RegisterTeacherRoutes: slot management, teacher/admin only (role-checked
// by middleware at mount time).
func (h *Handler) RegisterTeacherRoutes(rg *gin.RouterGroup) {
	rg.POST("/slots", h.PublishSlots)
	rg.GET("/teachers/:id/schedule", h.ListSchedule)
	rg.PATCH("/slots/:id/withdraw", h.Withdraw)
}

func (h *Handler) PublishSlots(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)

	var req PublishSlotsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	slots, err := h.service.PublishSlots(c.Request.Context(), actor, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid slot definition")
		case errors.Is(err, ErrForbidden):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Cannot publish slots for another teacher")
		case errors.Is(err, ErrSlotExists):
			response.Error(c, http.StatusConflict, "SLOT_EXISTS", "A slot already exists for this time window")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to publish slots")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"slots": slots})
}

func (h *Handler) ListAvailability(c *gin.Context) {
	teacherID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid teacher id")
		return
	}
	from, to, err := dateRange(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid date range")
		return
	}

	slots, err := h.service.ListAvailability(c.Request.Context(), teacherID, from, to)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid date range")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list availability")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"slots": slots})
}

func (h *Handler) ListSchedule(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	teacherID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid teacher id")
		return
	}
	from, to, err := dateRange(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid date range")
		return
	}

	slots, err := h.service.ListSchedule(c.Request.Context(), actor, teacherID, from, to)
	if err != nil {
		switch {
		case errors.Is(err, ErrForbidden):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Cannot view another teacher's schedule")
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid date range")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list schedule")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"slots": slots})
}

func (h *Handler) Withdraw(c *gin.Context) {
	actor, _ := middleware.ActorFrom(c)
	slotID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid slot id")
		return
	}

	if err := h.service.Withdraw(c.Request.Context(), actor, slotID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Slot not found")
		case errors.Is(err, ErrForbidden):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Cannot withdraw another teacher's slot")
		case errors.Is(err, ErrValidation):
			response.Error(c, http.StatusConflict, "SLOT_BOOKED", "Slot is booked; cancel the booking first")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to withdraw slot")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"id": slotID, "status": "unavailable"})
}

func dateRange(c *gin.Context) (time.Time, time.Time, error) {
	fromStr := c.DefaultQuery("from", time.Now().UTC().Format("2006-01-02"))
	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	toStr := c.DefaultQuery("to", from.AddDate(0, 0, 7).Format("2006-01-02"))
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}
