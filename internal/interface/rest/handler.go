package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/cardfeed"
	"github.com/totegamma/cardfeed/internal/domain"
	"github.com/totegamma/cardfeed/internal/usecase"
)

type StatsSource interface {
	Stats() usecase.IngestStats
}

type QueueStatus interface {
	Len() int
}

type SessionStatus interface {
	Connected() bool
	Cursor() int64
}

type Handler struct {
	collections domain.CollectionConfig
	resolution  *usecase.ResolutionService
	ingest      StatsSource
	queue       QueueStatus
	session     SessionStatus
}

func NewHandler(
	collections domain.CollectionConfig,
	resolution *usecase.ResolutionService,
	ingest StatsSource,
	queue QueueStatus,
	session SessionStatus,
) *Handler {
	return &Handler{
		collections: collections,
		resolution:  resolution,
		ingest:      ingest,
		queue:       queue,
		session:     session,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.handleHealth)
	e.GET("/stats", h.handleStats)
	e.GET("/resolve", h.handleResolve)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "ok",
		"connected": h.session.Connected(),
	})
}

type statsResponse struct {
	Ingest     usecase.IngestStats `json:"ingest"`
	QueueDepth int                 `json:"queueDepth"`
	Connected  bool                `json:"connected"`
	Cursor     int64               `json:"cursor"`
}

func (h *Handler) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, statsResponse{
		Ingest:     h.ingest.Stats(),
		QueueDepth: h.queue.Len(),
		Connected:  h.session.Connected(),
		Cursor:     h.session.Cursor(),
	})
}

func (h *Handler) handleResolve(c echo.Context) error {
	ctx := c.Request().Context()

	raw := c.QueryParam("uri")
	if raw == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "uri is required"})
	}

	uri, err := cardfeed.ParseATURI(raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	kind, ok := h.collections.KindOf(uri.Collection)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "untracked collection"})
	}

	localID, err := h.resolution.Resolve(ctx, kind, uri.String())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	if localID == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"uri":     uri.String(),
		"kind":    kind,
		"localId": *localID,
	})
}
