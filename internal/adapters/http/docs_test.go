package http_test

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/routeboard/internal/adapters/http"
)

func TestDocs_ServesReferenceAndDocument(t *testing.T) {
	app := fiber.New()
	handler.SetupDocs(app, findOpenAPISpec(t))

	resp, err := app.Test(httptest.NewRequest("GET", "/docs", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html, got %q", ct)
	}
	page := string(readBody(t, resp.Body))
	if !strings.Contains(page, "routeboard Time-Space API") || !strings.Contains(page, `spec-url="/docs/openapi.json"`) {
		t.Errorf("reference page missing title or document link:\n%s", page)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/docs/openapi.json", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		OpenAPI string                     `json:"openapi"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode openapi.json: %v", err)
	}
	if doc.OpenAPI != "3.0.3" {
		t.Errorf("expected openapi 3.0.3, got %q", doc.OpenAPI)
	}
	if _, ok := doc.Paths["/v1/routes/{id}/time-space"]; !ok {
		t.Error("openapi.json missing time-space path")
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/docs/openapi.yaml", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Header.Get("Content-Type") != "application/yaml" {
		t.Errorf("expected application/yaml, got %q", resp.Header.Get("Content-Type"))
	}
	if !strings.HasPrefix(string(readBody(t, resp.Body)), "openapi: 3.0.3") {
		t.Error("yaml document not served verbatim")
	}
}

func TestDocs_MissingDocumentIsNotFound(t *testing.T) {
	app := fiber.New()
	handler.SetupDocs(app, filepath.Join(t.TempDir(), "missing.yaml"))

	for _, path := range []string{"/docs", "/docs/openapi.yaml", "/docs/openapi.json"} {
		resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != 404 {
			t.Errorf("%s: expected 404, got %d", path, resp.StatusCode)
		}
		if e := decodeError(t, resp.Body); e.Code != "not_found" {
			t.Errorf("%s: expected not_found, got %q", path, e.Code)
		}
	}
}
