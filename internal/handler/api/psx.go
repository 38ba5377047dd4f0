package api

import (
	"errors"

	"github.com/BurhanCantCode/BaqiAI/internal/usecase/predictor"
	xhttp "github.com/BurhanCantCode/BaqiAI/pkg/http"
	xlogger "github.com/BurhanCantCode/BaqiAI/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PSXHandler exposes the prediction pipeline over HTTP.
type PSXHandler struct {
	logger *xlogger.Logger
	batch  *predictor.Orchestrator
	query  *predictor.Query
}

// NewPSXHandler creates the PSX API handler.
func NewPSXHandler(logger *xlogger.Logger, batch *predictor.Orchestrator, query *predictor.Query) *PSXHandler {
	return &PSXHandler{logger: logger, batch: batch, query: query}
}

// RegisterRoutes registers the PSX API routes.
func (h *PSXHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/psx")
	g.POST("/run-predictions", h.RunPredictions)
	g.GET("/status", h.Status)
	g.GET("/cache-info", h.CacheInfo)
	g.GET("/predictions", h.Predictions)
	g.GET("/predictions/:symbol", h.Prediction)
	g.GET("/predictions/:symbol/adjusted", h.AdjustedPrediction)
	g.GET("/sentiment/:symbol", h.Sentiment)
}

type runPredictionsRequest struct {
	Force bool `query:"force"`
}

type symbolRequest struct {
	Symbol string `param:"symbol" validate:"required,alphanum,min=2,max=10"`
}

// RunPredictions starts a batch asynchronously. The caller gets the run ID
// immediately and polls /status; a second start while one is running is a
// conflict, never a queue.
func (h *PSXHandler) RunPredictions(c echo.Context) error {
	req := &runPredictionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	mode := predictor.ModeResume
	if req.Force {
		mode = predictor.ModeForce
	}

	runID, err := h.batch.Start(mode)
	if err != nil {
		if errors.Is(err, predictor.ErrBatchRunning) {
			return xhttp.ConflictResponse(c, []*xhttp.AppError{
				xhttp.ConflictError("a prediction batch is already running"),
			})
		}
		h.logger.Error("batch start error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	h.logger.Info("prediction batch accepted",
		xlogger.String("run_id", runID),
		xlogger.String("mode", string(mode)),
	)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"run_id": runID,
		"mode":   string(mode),
		"status": "accepted",
	})
}

// Status returns a snapshot of the batch job state.
func (h *PSXHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.batch.Status())
}

// CacheInfo reports which tier is serving predictions and its freshness.
func (h *PSXHandler) CacheInfo(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.query.Info(c.Request().Context()))
}

// Predictions returns the full cache document across all tiers.
func (h *PSXHandler) Predictions(c echo.Context) error {
	doc, err := h.query.Predictions(c.Request().Context())
	if err != nil {
		if errors.Is(err, predictor.ErrNotFound) {
			return xhttp.NotFoundResponse(c, []*xhttp.AppError{
				xhttp.NotFoundError("no predictions available"),
			})
		}
		h.logger.Error("predictions query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, doc)
}

// Prediction returns the cached forecast for one symbol.
func (h *PSXHandler) Prediction(c echo.Context) error {
	req := &symbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rec, err := h.query.Prediction(c.Request().Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, predictor.ErrNotFound) {
			return xhttp.NotFoundResponse(c, []*xhttp.AppError{
				xhttp.NotFoundErrorf("no prediction for %s", req.Symbol),
			})
		}
		h.logger.Error("prediction query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, rec)
}

// AdjustedPrediction returns the forecast with sentiment adjustments applied.
func (h *PSXHandler) AdjustedPrediction(c echo.Context) error {
	req := &symbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.query.AdjustedPrediction(c.Request().Context(), req.Symbol)
	if err != nil {
		if errors.Is(err, predictor.ErrNotFound) {
			return xhttp.NotFoundResponse(c, []*xhttp.AppError{
				xhttp.NotFoundErrorf("no prediction for %s", req.Symbol),
			})
		}
		h.logger.Error("adjusted prediction query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Sentiment returns the cached classifier output for a symbol. A miss is
// a neutral placeholder, never an error.
func (h *PSXHandler) Sentiment(c echo.Context) error {
	req := &symbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.query.Sentiment(c.Request().Context(), req.Symbol))
}
