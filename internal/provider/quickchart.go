package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hodl-digest/internal/chart"
	"hodl-digest/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const quickChartBaseURL = "https://quickchart.io"

type createChartRequest struct {
	Chart           chart.Config `json:"chart"`
	Width           int          `json:"width"`
	Height          int          `json:"height"`
	BackgroundColor string       `json:"backgroundColor"`
	Version         string       `json:"version"`
}

type createChartResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

// QuickChartRenderer turns chart specs into image URLs via the QuickChart short-URL API.
type QuickChartRenderer struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewQuickChartRenderer creates a renderer against baseURL, or the public
// service when empty. Requests are limited to 4 per second.
func NewQuickChartRenderer(tracer trace.Tracer, baseURL string) *QuickChartRenderer {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = quickChartBaseURL
	}
	return &QuickChartRenderer{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(4, 250*time.Millisecond),
	}
}

// Render never fails: when the service is unreachable or answers without a URL
// the returned image embeds the config in a GET URL and is marked Degraded.
func (p *QuickChartRenderer) Render(ctx context.Context, spec chart.Spec) domain.ChartImage {
	ctx, span := p.tracer.Start(ctx, "quickchart.render")
	defer span.End()
	span.SetAttributes(attribute.String("chart.kind", string(spec.Kind())))

	cfg := spec.Config()
	shortURL, err := p.create(ctx, cfg)
	if err == nil {
		return domain.ChartImage{URL: shortURL}
	}

	log.Printf("quickchart create failed kind=%s: %v", spec.Kind(), err)
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("chart.degraded", true))

	fallback, ferr := p.FallbackURL(cfg)
	if ferr != nil {
		log.Printf("quickchart fallback encode failed kind=%s: %v", spec.Kind(), ferr)
	}
	return domain.ChartImage{URL: fallback, Degraded: true}
}

func (p *QuickChartRenderer) create(ctx context.Context, cfg chart.Config) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(createChartRequest{
		Chart:           cfg,
		Width:           chart.Width,
		Height:          chart.Height,
		BackgroundColor: chart.Background,
		Version:         chart.Version,
	})
	if err != nil {
		return "", fmt.Errorf("encode chart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chart/create", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("quickchart API error %d: %s", resp.StatusCode, string(body))
	}

	var out createChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("parse quickchart response: %w", err)
	}
	if out.URL == "" {
		return "", errors.New("quickchart response missing url")
	}
	return out.URL, nil
}

// FallbackURL encodes cfg into a direct render URL.
func (p *QuickChartRenderer) FallbackURL(cfg chart.Config) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	q := url.Values{}
	q.Set("c", string(data))
	q.Set("backgroundColor", chart.Background)
	q.Set("width", strconv.Itoa(chart.Width))
	q.Set("height", strconv.Itoa(chart.Height))
	q.Set("version", chart.Version)
	return p.baseURL + "/chart?" + q.Encode(), nil
}
