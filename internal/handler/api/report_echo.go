package api

import (
	"errors"
	"fmt"
	"net/http"

	models "StoreMonitor/internal/domain/models"
	domrepo "StoreMonitor/internal/domain/repository"
	"StoreMonitor/internal/repository"
	"StoreMonitor/internal/service/ratelimit"
	"StoreMonitor/internal/usecase"
	xhttp "StoreMonitor/pkg/http"
	xlogger "StoreMonitor/pkg/logger"

	"github.com/labstack/echo/v4"
)

const welcomeMessage = "Welcome to Store Monitoring API"

// ReportEchoHandler serves the store monitoring endpoints.
type ReportEchoHandler struct {
	logger   *xlogger.Logger
	reports  *usecase.ReportService
	importer *usecase.DataImporter
	diag     *usecase.Diagnostics
	health   domrepo.StoreDataSource
	limiter  *ratelimit.Limiter
}

// NewReportEchoHandler creates a new ReportEchoHandler instance.
func NewReportEchoHandler(
	logger *xlogger.Logger,
	reports *usecase.ReportService,
	importer *usecase.DataImporter,
	diag *usecase.Diagnostics,
	health domrepo.StoreDataSource,
	limiter *ratelimit.Limiter,
) *ReportEchoHandler {
	return &ReportEchoHandler{
		logger:   logger,
		reports:  reports,
		importer: importer,
		diag:     diag,
		health:   health,
		limiter:  limiter,
	}
}

func (h *ReportEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/import_data", h.ImportData)
	e.GET("/debug_data", h.DebugData)
	e.POST("/trigger_report", h.TriggerReport)
	e.GET("/get_report", h.GetReport)
	e.GET("/healthz", h.Health)
}

func (h *ReportEchoHandler) Root(c echo.Context) error {
	return xhttp.MessageResponse(c, welcomeMessage)
}

// ImportData reloads the datasets and only answers once the import is done.
func (h *ReportEchoHandler) ImportData(c echo.Context) error {
	summary, err := h.importer.Import(c.Request().Context())
	if err != nil {
		h.logger.Error("data import failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("data import failed").WithError(err))
	}
	h.logger.Info("data import summary", xlogger.Any("datasets", summary.Datasets))
	return xhttp.MessageResponse(c, "Data import finished")
}

func (h *ReportEchoHandler) DebugData(c echo.Context) error {
	return c.JSON(http.StatusOK, h.diag.Inspect(c.Request().Context()))
}

func (h *ReportEchoHandler) TriggerReport(c echo.Context) error {
	if !h.limiter.Allow(c.RealIP()) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many report triggers, retry later"))
	}

	id, err := h.reports.Trigger(c.Request().Context())
	if err != nil {
		h.logger.Error("trigger report failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("report could not be scheduled").WithError(err))
	}
	return c.JSON(http.StatusOK, models.TriggerReportResponse{ReportID: id})
}

func (h *ReportEchoHandler) GetReport(c echo.Context) error {
	req := &models.GetReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	view, err := h.reports.Query(c.Request().Context(), req.ReportID)
	if errors.Is(err, domrepo.ErrReportNotFound) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("report %s not found", req.ReportID))
	}
	if err != nil {
		h.logger.Error("get report failed", xlogger.String("report_id", req.ReportID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("report could not be read").WithError(err))
	}

	switch view.Job.Status {
	case models.ReportRunning:
		return c.JSON(http.StatusOK, models.ReportStatusResponse{Status: models.ReportRunning})
	case models.ReportError:
		return c.JSON(http.StatusOK, models.ReportStatusResponse{Status: models.ReportError, Message: view.Job.Message})
	}

	defer view.Artifact.Close()
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", repository.ArtifactName(req.ReportID)))
	return c.Stream(http.StatusOK, "text/csv; charset=utf-8", view.Artifact)
}

func (h *ReportEchoHandler) Health(c echo.Context) error {
	if err := h.health.Health(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("data source unavailable"))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

var _ xhttp.Handler = (*ReportEchoHandler)(nil)
