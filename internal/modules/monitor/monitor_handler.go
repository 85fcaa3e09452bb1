package monitor

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"geo-alert/internal/models"
	"geo-alert/pkg/utils"

	"github.com/labstack/echo/v4"
)

const defaultCheckLimit = 50

// Handler exposes the scheduler over HTTP.
type Handler struct {
	svc ServiceInterface
}

// NewHandler constructs a Handler with the provided service.
func NewHandler(svc ServiceInterface) *Handler {
	return &Handler{svc: svc}
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	State     string               `json:"state"`
	LastSweep *models.SweepSummary `json:"last_sweep,omitempty"`
}

// Health reports the scheduler state and the last sweep. It returns 503
// until the first sweep has completed.
func (h *Handler) Health(c echo.Context) error {
	resp := HealthResponse{State: h.svc.State().String(), LastSweep: h.svc.LastSweep()}
	if resp.LastSweep == nil {
		return utils.RespondWithJSON(c, http.StatusServiceUnavailable, resp)
	}
	return utils.RespondWithJSON(c, http.StatusOK, resp)
}

// ListWorkers handles GET /workers: the latest check of every worker.
func (h *Handler) ListWorkers(c echo.Context) error {
	checks, err := h.svc.LatestChecks(c.Request().Context())
	if err != nil {
		return utils.RespondWithError(c, http.StatusInternalServerError, "Failed to list worker checks")
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"workers": checks})
}

// ListWorkerChecks handles GET /workers/:workerId/checks.
func (h *Handler) ListWorkerChecks(c echo.Context) error {
	workerID, err := strconv.Atoi(c.Param("workerId"))
	if err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid worker ID")
	}

	var q models.CheckListQuery
	if err := c.Bind(&q); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, "Invalid query parameters")
	}
	if err := utils.GetValidator().Validate(q); err != nil {
		return utils.RespondWithError(c, http.StatusBadRequest, err.Error())
	}
	if q.Limit == 0 {
		q.Limit = defaultCheckLimit
	}

	checks, err := h.svc.WorkerChecks(c.Request().Context(), workerID, q.Limit)
	if err != nil {
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, map[string]interface{}{"worker_id": workerID, "checks": checks})
}

// TriggerSweep handles POST /sweeps: run a sweep now and return its summary.
func (h *Handler) TriggerSweep(c echo.Context) error {
	operatorID, _, err := utils.ExtractOperatorInfo(c)
	if err != nil {
		return err
	}
	c.Logger().Infof("manual sweep requested by operator %s", operatorID)

	// The sweep finishes even if the client disconnects.
	summary, err := h.svc.Sweep(context.WithoutCancel(c.Request().Context()))
	if err != nil {
		if errors.Is(err, models.ErrSweepInProgress) {
			return utils.RespondWithError(c, http.StatusConflict, err.Error())
		}
		return utils.HandleServiceError(c, err)
	}
	return utils.RespondWithJSON(c, http.StatusOK, summary)
}

// RegisterRoutes attaches the operator routes to the provided Echo group.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/workers", h.ListWorkers)
	g.GET("/workers/:workerId/checks", h.ListWorkerChecks)
	g.POST("/sweeps", h.TriggerSweep)
}
