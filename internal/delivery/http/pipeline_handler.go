package http

import (
	"errors"
	"net/http"

	"github.com/shab2022/Investing-Assistant/internal/dto"
	"github.com/shab2022/Investing-Assistant/internal/service"
	"github.com/shab2022/Investing-Assistant/pkg/logger"

	"github.com/labstack/echo/v4"
)

// PipelineHandler exposes the three digest pipeline stages and digest reads.
type PipelineHandler struct {
	priceFetcher service.PriceFetcher
	newsFetcher  service.NewsFetcher
	digestSvc    service.DigestService
	logger       *logger.Logger
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(priceFetcher service.PriceFetcher, newsFetcher service.NewsFetcher, digestSvc service.DigestService, logger *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		priceFetcher: priceFetcher,
		newsFetcher:  newsFetcher,
		digestSvc:    digestSvc,
		logger:       logger,
	}
}

// RegisterRoutes registers the pipeline routes to the Echo group.
func (h *PipelineHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/prices/fetch", h.FetchPrices)
	g.POST("/news/fetch", h.FetchNews)
	g.POST("/digests/generate", h.GenerateDigest)
	g.GET("/digests", h.ListDigests)
}

// FetchPrices godoc
// @Summary Ingest daily prices
// @Description Fetches the latest daily close for every held symbol and upserts the batch for today
// @Tags pipeline
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.FetchPricesResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /prices/fetch [post]
func (h *PipelineHandler) FetchPrices(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
	}

	result, err := h.priceFetcher.FetchPrices(c.Request().Context(), user.ID)
	if err != nil {
		return h.stageError(c, err, "price ingestion")
	}
	return c.JSON(http.StatusOK, result)
}

// FetchNews godoc
// @Summary Ingest and match news
// @Description Pulls candidate headlines, matches them to held symbols, scores sentiment, and upserts by canonical URL
// @Tags pipeline
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.FetchNewsResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /news/fetch [post]
func (h *PipelineHandler) FetchNews(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
	}

	result, err := h.newsFetcher.FetchNews(c.Request().Context(), user.ID)
	if err != nil {
		return h.stageError(c, err, "news ingestion")
	}
	return c.JSON(http.StatusOK, result)
}

// GenerateDigest godoc
// @Summary Generate the daily digest
// @Description Aggregates positions, prices, and scored news into today's digest for the user
// @Tags pipeline
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.GenerateDigestResult
// @Failure 400 {object} dto.ErrorResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /digests/generate [post]
func (h *PipelineHandler) GenerateDigest(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
	}

	result, err := h.digestSvc.GenerateDigest(c.Request().Context(), user.ID)
	if err != nil {
		return h.stageError(c, err, "digest generation")
	}
	return c.JSON(http.StatusOK, result)
}

// ListDigests godoc
// @Summary List digests
// @Description Lists the user's digests, newest first
// @Tags digests
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.DigestResponse
// @Failure 401 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /digests [get]
func (h *PipelineHandler) ListDigests(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
	}

	digests, err := h.digestSvc.ListDigests(c.Request().Context(), user.ID)
	if err != nil {
		h.logger.Error("Failed to list digests", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, digests)
}

func (h *PipelineHandler) stageError(c echo.Context, err error, stage string) error {
	if errors.Is(err, service.ErrNoPositions) {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "No positions found"})
	}
	h.logger.Error("Pipeline stage failed",
		logger.ErrorField(err), logger.StringField("stage", stage))
	return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
}
