package provider

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"hodl-digest/internal/domain"
)

func TestPlanetPublishSendsMultipartForm(t *testing.T) {
	t.Parallel()

	p := NewPlanetPublisher(testTracer, "http://planet.local/", "Basic dXNlcjpwYXNz", "planet-1")
	p.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.Method != http.MethodPost || req.URL.String() != "http://planet.local/v0/planets/my/planet-1/articles" {
				t.Fatalf("unexpected request: %s %s", req.Method, req.URL)
			}
			if req.Header.Get("Authorization") != "Basic dXNlcjpwYXNz" || req.Header.Get("Accept") != "*/*" {
				t.Fatalf("unexpected headers: %v", req.Header)
			}
			if !strings.HasPrefix(req.Header.Get("Content-Type"), "multipart/form-data; boundary=") {
				t.Fatalf("unexpected content type %s", req.Header.Get("Content-Type"))
			}
			if err := req.ParseMultipartForm(1 << 20); err != nil {
				t.Fatalf("parse form: %v", err)
			}
			if req.FormValue("title") != "$V2EX日报(2025-3-1)" || req.FormValue("content") != "# body" || req.FormValue("articleType") != "0" {
				t.Fatalf("unexpected form: %v", req.MultipartForm.Value)
			}
			return jsonResponse(http.StatusCreated, `{"id":"a1"}`), nil
		}),
	}

	body, err := p.Publish(context.Background(), domain.Article{Title: "$V2EX日报(2025-3-1)", Content: "# body"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body != `{"id":"a1"}` {
		t.Fatalf("expected body verbatim, got %q", body)
	}
}

func TestPlanetPublishReturnsPublishError(t *testing.T) {
	t.Parallel()

	calls := 0
	p := NewPlanetPublisher(testTracer, "http://planet.local", "Basic x", "p")
	p.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			calls++
			return jsonResponse(http.StatusUnauthorized, "bad credentials"), nil
		}),
	}

	_, err := p.Publish(context.Background(), domain.Article{Title: "t", Content: "c"})
	var perr *PublishError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PublishError, got %v", err)
	}
	if perr.StatusCode != 401 || perr.Status != "Unauthorized" || perr.Body != "bad credentials" {
		t.Fatalf("unexpected publish error: %+v", perr)
	}
	if calls != 1 {
		t.Fatalf("publish must not retry, got %d calls", calls)
	}
}

func TestPlanetPublishRequiresConfig(t *testing.T) {
	t.Parallel()

	p := NewPlanetPublisher(testTracer, "http://planet.local", "", "")
	p.client = &http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			t.Fatal("no request expected without configuration")
			return nil, nil
		}),
	}

	_, err := p.Publish(context.Background(), domain.Article{})
	if !errors.Is(err, ErrPlanetNotConfigured) {
		t.Fatalf("expected ErrPlanetNotConfigured, got %v", err)
	}
	if !strings.Contains(err.Error(), "PLANET_AUTH_BASIC") || !strings.Contains(err.Error(), "PLANET_ID") {
		t.Fatalf("error should name missing settings: %v", err)
	}
}
