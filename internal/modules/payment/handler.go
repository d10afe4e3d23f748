package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"lessonbook/internal/gateway"
	"lessonbook/internal/middleware"
	"lessonbook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service       *Service
	webhookSecret string
}

func NewHandler(service *Service, webhookSecret string) *Handler {
	return &Handler{service: service, webhookSecret: webhookSecret}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments", h.open)
	rg.POST("/payments/:id/submit", h.submit)
	rg.GET("/payments/:id", h.get)
	rg.PATCH("/payments/:id/cancel", h.cancel)
	rg.GET("/bookings/:id/payment", h.forBooking)
}

// RegisterWebhook mounts the gateway callback outside the auth middleware;
// the gateway signs the raw body instead of carrying a user token.
func (h *Handler) RegisterWebhook(rg *gin.RouterGroup) {
	rg.POST("/payments/webhook", h.webhook)
}

func (h *Handler) open(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}

	var req OpenPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	p, err := h.service.Open(c.Request.Context(), actor, req.BookingID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, p)
}

func (h *Handler) submit(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	id, err := pathID(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid payment id")
		return
	}

	p, err := h.service.Submit(c.Request.Context(), actor, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

func (h *Handler) get(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	id, err := pathID(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid payment id")
		return
	}

	p, err := h.service.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

func (h *Handler) cancel(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	id, err := pathID(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid payment id")
		return
	}

	p, err := h.service.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

func (h *Handler) forBooking(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	id, err := pathID(c)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid booking id")
		return
	}

	p, err := h.service.GetForBooking(c.Request.Context(), actor, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p)
}

// webhook settles a payment from a gateway callback. The signature covers
// the raw body. Redeliveries answer 200 with applied=false so the gateway
// stops retrying.
func (h *Handler) webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "unreadable body")
		return
	}
	if !gateway.VerifySignature([]byte(h.webhookSecret), body, c.GetHeader("X-Signature")) {
		response.Error(c, http.StatusUnauthorized, "BAD_SIGNATURE", ErrBadSignature.Error())
		return
	}

	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if payload.TransactionID == "" || (payload.Status != "succeeded" && payload.Status != "failed") {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	p, applied, err := h.service.HandleGatewayResult(
		c.Request.Context(),
		payload.TransactionID,
		payload.Status == "succeeded",
		string(body),
		payload.Reason,
	)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, WebhookAck{
		TransactionID: payload.TransactionID,
		Applied:       applied,
		Status:        string(p.Status),
	})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrUnknownTransaction):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "you cannot act on this payment")
	case errors.Is(err, ErrActivePaymentExists):
		response.Error(c, http.StatusConflict, "ACTIVE_PAYMENT_EXISTS", "booking already has an open payment")
	case errors.Is(err, ErrAlreadySettled):
		response.Error(c, http.StatusConflict, "ALREADY_SETTLED", "booking already has a settled payment")
	case errors.Is(err, ErrBookingNotPayable), errors.Is(err, ErrInvalidState):
		response.Error(c, http.StatusConflict, "INVALID_STATE", err.Error())
	case errors.Is(err, ErrGateway):
		response.Error(c, http.StatusBadGateway, "GATEWAY_ERROR", "payment gateway unavailable, try again")
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid payment request")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "something went wrong")
	}
}

func pathID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
