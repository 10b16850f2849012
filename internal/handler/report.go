package handler

import (
	"errors"
	"net/http"
	"strconv"

	"hodl-digest/internal/domain"
	"hodl-digest/internal/provider"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultHoldersLimit = 120
	maxHoldersLimit     = 500
)

// PreviewResponse is a rendered, unpublished digest.
type PreviewResponse struct {
	RunID   string                       `json:"run_id"`
	Title   string                       `json:"title"`
	Content string                       `json:"content"`
	Charts  map[string]domain.ChartImage `json:"charts"`
}

// PreviewReport godoc
// @Summary      Preview the daily digest
// @Description  Renders the digest for the most recent sampling day without publishing it. Use format=markdown for the raw document.
// @Tags         report
// @Produce      json
// @Produce      text/markdown
// @Param        format  query     string  false  "json (default) or markdown"
// @Success      200     {object}  PreviewResponse
// @Failure      503     {object}  map[string]string
// @Failure      500     {object}  map[string]string
// @Router       /api/report/preview [get]
func (h *Handler) PreviewReport(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.preview-report")
	defer span.End()

	report, err := h.reports.Generate(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	span.SetAttributes(attribute.String("run.id", report.RunID))

	if c.Query("format") == "markdown" {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(report.Article.Content))
		return
	}

	charts := make(map[string]domain.ChartImage, len(report.Charts))
	for kind, img := range report.Charts {
		charts[string(kind)] = img
	}
	c.JSON(http.StatusOK, PreviewResponse{
		RunID:   report.RunID,
		Title:   report.Article.Title,
		Content: report.Article.Content,
		Charts:  charts,
	})
}

// PublishReport godoc
// @Summary      Publish the daily digest now
// @Description  Generates the digest and posts it to Planet immediately
// @Tags         report
// @Produce      json
// @Success      200  {object}  domain.ReportRunResult
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Security     ApiKeyAuth
// @Router       /api/report/publish [post]
func (h *Handler) PublishReport(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.publish-report")
	defer span.End()

	result, err := h.reports.Publish(ctx)
	if err != nil {
		var perr *provider.PublishError
		switch {
		case errors.Is(err, provider.ErrPlanetNotConfigured):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		case errors.As(err, &perr):
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "upstream_status": perr.StatusCode})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetHolders godoc
// @Summary      Current holder ranking
// @Description  Returns the most recent day of the holder ranking
// @Tags         holders
// @Produce      json
// @Param        limit  query     int     false  "Number of rows (default 120, max 500)"
// @Param        owner  query     string  false  "Only rows for this owner address"
// @Success      200    {array}   domain.HolderRecord
// @Failure      400    {object}  map[string]string
// @Failure      503    {object}  map[string]string
// @Failure      500    {object}  map[string]string
// @Router       /api/holders [get]
func (h *Handler) GetHolders(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report service unavailable"})
		return
	}

	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-holders")
	defer span.End()

	limit := defaultHoldersLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		if n > maxHoldersLimit {
			n = maxHoldersLimit
		}
		limit = n
	}

	owner := c.Query("owner")
	if owner != "" && !domain.ValidOwnerAddress(owner) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner must be a base58 Solana address"})
		return
	}
	if owner != "" {
		limit = 0
	}

	holders, err := h.reports.Holders(ctx, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if owner != "" {
		holders = filterOwner(holders, owner)
	}
	if holders == nil {
		holders = []domain.HolderRecord{}
	}
	c.JSON(http.StatusOK, holders)
}

func filterOwner(holders []domain.HolderRecord, owner string) []domain.HolderRecord {
	var out []domain.HolderRecord
	for _, h := range holders {
		if h.OwnerAddress == owner {
			out = append(out, h)
		}
	}
	return out
}
