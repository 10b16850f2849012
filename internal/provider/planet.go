package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"hodl-digest/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrPlanetNotConfigured is returned before any request when a credential is missing.
var ErrPlanetNotConfigured = errors.New("planet publisher not configured")

// PublishError is a non-2xx answer from the Planet backend.
type PublishError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("planet publish failed: %d %s - %s", e.StatusCode, e.Status, e.Body)
}

// PlanetPublisher creates articles on a Planet backend. Attachments are not supported.
type PlanetPublisher struct {
	client    *http.Client
	baseURL   string
	authBasic string
	planetID  string
	tracer    trace.Tracer
}

func NewPlanetPublisher(tracer trace.Tracer, baseURL, authBasic, planetID string) *PlanetPublisher {
	return &PlanetPublisher{
		client:    &http.Client{Timeout: 30 * time.Second},
		baseURL:   strings.TrimRight(baseURL, "/"),
		authBasic: authBasic,
		planetID:  planetID,
		tracer:    tracer,
	}
}

func (p *PlanetPublisher) configured() error {
	var missing []string
	if p.baseURL == "" {
		missing = append(missing, "PLANET_BASE_URL")
	}
	if p.authBasic == "" {
		missing = append(missing, "PLANET_AUTH_BASIC")
	}
	if p.planetID == "" {
		missing = append(missing, "PLANET_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrPlanetNotConfigured, strings.Join(missing, ", "))
	}
	return nil
}

// Publish posts the article once and returns the response body verbatim.
func (p *PlanetPublisher) Publish(ctx context.Context, article domain.Article) (string, error) {
	ctx, span := p.tracer.Start(ctx, "planet.publish")
	defer span.End()

	if err := p.configured(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for _, field := range [][2]string{
		{"title", article.Title},
		{"content", article.Content},
		{"articleType", "0"},
	} {
		if err := form.WriteField(field[0], field[1]); err != nil {
			return "", fmt.Errorf("encode %s: %w", field[0], err)
		}
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("encode form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v0/planets/my/%s/articles", p.baseURL, p.planetID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Authorization", p.authBasic)

	resp, err := p.client.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("planet publish: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read planet response: %w", err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := &PublishError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       string(body),
		}
		span.RecordError(perr)
		return "", perr
	}
	return string(body), nil
}
