package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/neighborrank/internal/models"
)

// EdgeHandler serves graph loading endpoints.
type EdgeHandler struct {
	svc EdgeService
	log *logrus.Logger
}

// NewEdgeHandler creates an EdgeHandler with the given service and logger.
func NewEdgeHandler(svc EdgeService, log *logrus.Logger) *EdgeHandler {
	return &EdgeHandler{svc: svc, log: log}
}

// Upsert handles POST /api/v1/graph/edges.
func (h *EdgeHandler) Upsert(c *gin.Context) {
	var req models.UpsertEdgesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)

		return
	}

	if err := req.Validate(); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

		return
	}

	tenantID := getTenantID(c)
	if tenantID == "" {
		return
	}

	res, err := h.svc.UpsertEdges(c.Request.Context(), tenantID, req)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())

			return
		}

		h.log.WithError(err).Error("upserting edges")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")

		return
	}

	c.JSON(http.StatusOK, res)
}
