package http

import (
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"

	"github.com/flight-fares/fare-harvester/internal/adapter/http/response"
	"github.com/flight-fares/fare-harvester/internal/infrastructure/timeutil"
	"github.com/flight-fares/fare-harvester/internal/usecase"
)

// StatusSource exposes the live counters of a run.
type StatusSource interface {
	Status() usecase.Status
}

// StatusHandler handles the status API endpoints.
type StatusHandler struct {
	source  StatusSource
	runID   string
	clock   timeutil.Clock
	started time.Time
}

// NewStatusHandler creates a StatusHandler. A nil clock uses the real clock.
func NewStatusHandler(source StatusSource, runID string, clock timeutil.Clock) *StatusHandler {
	if clock == nil {
		clock = timeutil.NewRealClock()
	}
	return &StatusHandler{
		source:  source,
		runID:   runID,
		clock:   clock,
		started: clock.Now(),
	}
}

// Health handles GET /health
func (h *StatusHandler) Health(c echo.Context) error {
	return response.Health(c, h.runID, strings.TrimSpace(humanize.RelTime(h.started, h.clock.Now(), "", "")))
}

// Progress handles GET /api/v1/progress
// It answers 503 until the run has planned its work.
func (h *StatusHandler) Progress(c echo.Context) error {
	s := h.source.Status()
	if s.Progress.Total == 0 && s.Pairs == 0 {
		return response.NotStarted(c)
	}
	return response.OK(c, ToProgressResponse(s))
}

// Ignored handles GET /api/v1/ignored
func (h *StatusHandler) Ignored(c echo.Context) error {
	return response.OK(c, ToIgnoredResponse(h.source.Status()))
}
