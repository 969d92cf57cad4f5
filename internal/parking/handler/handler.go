package handler

import (
	"context"
	"errors"
	"net/http"

	"parksmart_backend/internal/events"
	"parksmart_backend/internal/locator"
	"parksmart_backend/internal/notification"
	"parksmart_backend/internal/notification/sse"
	"parksmart_backend/internal/parking/transport"
	"parksmart_backend/internal/tracking"
	"parksmart_backend/platform/apperr"
	"parksmart_backend/platform/httpkit"
	"parksmart_backend/platform/logger"
	"parksmart_backend/platform/metrics"
	"parksmart_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgNotWatching      = "location tracking is not active"
)

// Session is the orchestrator surface used by the handlers.
type Session interface {
	Snapshot() tracking.State
	Refresh(ctx context.Context) error
	RetryTracking(ctx context.Context) error
	SetVisible(ctx context.Context, visible bool) error
	Directions(id string) (string, error)
}

// ReadingSink accepts readings from the device.
type ReadingSink interface {
	Push(ctx context.Context, r locator.Reading) error
}

// Handler serves the parking API.
type Handler struct {
	session Session
	sink    ReadingSink
	sse     *sse.Service
	val     *validator.Validator
	log     *logger.Logger
	metrics *metrics.Recorder
}

func New(session Session, sink ReadingSink, sseSvc *sse.Service, val *validator.Validator, log *logger.Logger, rec *metrics.Recorder) *Handler {
	return &Handler{session: session, sink: sink, sse: sseSvc, val: val, log: log, metrics: rec}
}

// GetState handles GET /api/v1/parking/state
func (h *Handler) GetState(c *gin.Context) {
	httpkit.OK(c, transport.NewStateResponse(h.session.Snapshot()))
}

// Events handles GET /api/v1/parking/events
func (h *Handler) Events(c *gin.Context) {
	h.sse.Handler(func() sse.Event {
		return notification.StateEvent(events.StateChanged{
			BaseEvent: events.NewBaseEvent(),
			State:     h.session.Snapshot(),
		})
	})(c)
}

// ReportLocation handles POST /api/v1/parking/location
func (h *Handler) ReportLocation(c *gin.Context) {
	var req transport.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	if err := h.push(c.Request.Context(), req.Reading()); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Accepted(c, gin.H{"status": "accepted"})
}

// ReportSensorError handles POST /api/v1/parking/location/error
func (h *Handler) ReportSensorError(c *gin.Context) {
	var req transport.SensorErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	if err := h.push(c.Request.Context(), req.Reading()); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Accepted(c, gin.H{"status": "accepted"})
}

// Refresh handles POST /api/v1/parking/refresh
func (h *Handler) Refresh(c *gin.Context) {
	if err := h.session.Refresh(c.Request.Context()); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.Accepted(c, transport.NewStateResponse(h.session.Snapshot()))
}

// RetryTracking handles POST /api/v1/parking/tracking/retry
func (h *Handler) RetryTracking(c *gin.Context) {
	if err := h.session.RetryTracking(c.Request.Context()); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.NewStateResponse(h.session.Snapshot()))
}

// SetVisibility handles PUT /api/v1/parking/visibility
func (h *Handler) SetVisibility(c *gin.Context) {
	var req transport.VisibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}

	if err := h.session.SetVisible(c.Request.Context(), *req.Visible); err != nil {
		httpkit.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Directions handles GET /api/v1/parking/slots/:id/directions
func (h *Handler) Directions(c *gin.Context) {
	url, err := h.session.Directions(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, transport.DirectionsResponse{URL: url})
}

func (h *Handler) push(ctx context.Context, r locator.Reading) error {
	err := h.sink.Push(ctx, r)
	if errors.Is(err, locator.ErrNotWatching) {
		return apperr.Wrap(apperr.KindConflict, msgNotWatching, err)
	}
	return err
}
