// Package parking exposes the parking-finder session over HTTP: device
// location input, session commands, state and event streams.
package parking

import (
	apphttp "parksmart_backend/internal/http"
	"parksmart_backend/internal/notification/sse"
	"parksmart_backend/internal/parking/handler"
	"parksmart_backend/platform/logger"
	"parksmart_backend/platform/metrics"
	"parksmart_backend/platform/validator"
)

// Module wires the parking HTTP routes.
type Module struct {
	handler *handler.Handler
}

func NewModule(session handler.Session, sink handler.ReadingSink, sseSvc *sse.Service, val *validator.Validator, log *logger.Logger, rec *metrics.Recorder) *Module {
	return &Module{handler: handler.New(session, sink, sseSvc, val, log, rec)}
}

func (m *Module) Name() string {
	return "parking"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/parking")
	group.GET("/state", m.handler.GetState)
	group.POST("/location", m.handler.ReportLocation)
	group.POST("/location/error", m.handler.ReportSensorError)
	group.POST("/refresh", m.handler.Refresh)
	group.POST("/tracking/retry", m.handler.RetryTracking)
	group.PUT("/visibility", m.handler.SetVisibility)
	group.GET("/slots/:id/directions", m.handler.Directions)

	streams := ctx.Streams.Group("/parking")
	streams.GET("/events", m.handler.Events)
	streams.GET("/location/stream", m.handler.LocationStream)
}

var _ apphttp.Module = (*Module)(nil)
