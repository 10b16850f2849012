package handler

import (
	"context"

	"hodl-digest/internal/domain"
	"hodl-digest/internal/service"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// ReportService is the subset of *service.ReportService the HTTP surface uses.
type ReportService interface {
	Generate(ctx context.Context) (*service.Report, error)
	Publish(ctx context.Context) (*domain.ReportRunResult, error)
	Holders(ctx context.Context, limit int) ([]domain.HolderRecord, error)
}

type Handler struct {
	tracer  trace.Tracer
	reports ReportService
	apiKey  string
	checks  map[string]HealthCheck
}

func New(tracer trace.Tracer, reports ReportService, apiKey string) *Handler {
	return &Handler{
		tracer:  tracer,
		reports: reports,
		apiKey:  apiKey,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.GET("/report/preview", h.PreviewReport)
	api.POST("/report/publish", APIKeyAuth(h.apiKey), h.PublishReport)
	api.GET("/holders", h.GetHolders)
}
