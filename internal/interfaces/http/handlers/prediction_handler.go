package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolProp-Intelligence/internal/application/prediction"
	"github.com/turtacn/MolProp-Intelligence/internal/domain/property"
	"github.com/turtacn/MolProp-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolProp-Intelligence/internal/interfaces/http/middleware"
	"github.com/turtacn/MolProp-Intelligence/pkg/errors"
	ptypes "github.com/turtacn/MolProp-Intelligence/pkg/types/prediction"
)

// HistoryReader lists stored predictions.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]*property.Record, error)
}

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 500
)

// PredictionHandler serves /predict, /predict/batch, /properties and
// /predictions/recent.
type PredictionHandler struct {
	svc     prediction.Service
	history HistoryReader
	logger  logging.Logger
}

// NewPredictionHandler creates a handler. history may be nil.
func NewPredictionHandler(svc prediction.Service, history HistoryReader, logger logging.Logger) *PredictionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PredictionHandler{svc: svc, history: history, logger: logger}
}

// RegisterRoutes mounts the prediction endpoints on r.
func (h *PredictionHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/properties", h.Properties)
	r.POST("/predict", h.Predict)
	r.POST("/predict/batch", h.PredictBatch)
	r.GET("/predictions/recent", h.Recent)
}

// Predict handles POST /predict. Pipeline failures are reported in the
// response body with status 200; the code goes in X-Error-Code.
func (h *PredictionHandler) Predict(c *gin.Context) {
	var req ptypes.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeDetail(c, http.StatusBadRequest, errors.ErrCodeValidation, "invalid request body: "+err.Error())
		return
	}
	res, err := h.svc.Predict(c.Request.Context(), req.SMILES)
	resp := prediction.ToResponse(req.SMILES, res, err)
	if !resp.Success {
		c.Header(middleware.HeaderErrorCode, resp.ErrorCode)
	}
	c.JSON(http.StatusOK, resp)
}

// PredictBatch handles POST /predict/batch.
func (h *PredictionHandler) PredictBatch(c *gin.Context) {
	var req ptypes.BatchPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeDetail(c, http.StatusBadRequest, errors.ErrCodeValidation, "invalid request body: "+err.Error())
		return
	}
	items, err := h.svc.PredictBatch(c.Request.Context(), req.SMILES)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, prediction.ToBatchResponse(items))
}

// Properties handles GET /properties.
func (h *PredictionHandler) Properties(c *gin.Context) {
	props, err := h.svc.Properties()
	if err != nil {
		writeDetail(c, http.StatusInternalServerError, errors.GetCode(err), prediction.ErrorMessage(err))
		return
	}
	c.JSON(http.StatusOK, prediction.ToPropertiesResponse(props))
}

// Recent handles GET /predictions/recent?limit=n.
func (h *PredictionHandler) Recent(c *gin.Context) {
	if h.history == nil {
		writeDetail(c, http.StatusNotFound, errors.ErrCodeNotFound, "prediction history is disabled")
		return
	}
	limit := defaultRecentLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRecentLimit {
			writeDetail(c, http.StatusBadRequest, errors.ErrCodeValidation, "limit must be an integer in [1, 500]")
			return
		}
		limit = n
	}
	records, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Warn("history query failed", logging.Err(err))
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, prediction.ToRecentResponse(records))
}

//Personal.AI order the ending
