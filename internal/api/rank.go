package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/neighborrank/internal/models"
)

// Response headers carrying run metadata next to the hop array.
const (
	HeaderRankState   = "X-Rank-State"
	HeaderRankVisited = "X-Rank-Visited"
)

// RankHandler serves the NeighborRank endpoint.
type RankHandler struct {
	svc RankService
	log *logrus.Logger
}

// NewRankHandler creates a RankHandler.
func NewRankHandler(svc RankService, log *logrus.Logger) *RankHandler {
	return &RankHandler{svc: svc, log: log}
}

// NeighborRank handles POST /api/v1/graph/neighborrank.
func (h *RankHandler) NeighborRank(c *gin.Context) {
	var req models.RankRequest
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

	res, err := h.svc.NeighborRank(c.Request.Context(), tenantID, req)
	if err != nil {
		h.respondRankError(c, err)

		return
	}

	c.Header(HeaderRankState, res.State.String())
	c.Header(HeaderRankVisited, strconv.FormatInt(res.Visited, 10))
	c.JSON(http.StatusOK, res.Hops)
}

func (h *RankHandler) respondRankError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		respondError(c, http.StatusBadRequest, ErrCodeValidationError, err.Error())
	case errors.Is(err, models.ErrVertexNotFound), errors.Is(err, models.ErrLabelNotFound):
		respondError(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		h.log.WithError(err).Warn("neighborrank timed out")
		respondError(c, http.StatusGatewayTimeout, ErrCodeTimeout, "rank request timed out")
	default:
		h.log.WithError(err).Error("running neighborrank")
		respondError(c, http.StatusInternalServerError, ErrCodeInternalError, "internal server error")
	}
}
