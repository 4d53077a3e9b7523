package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"os"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gofiber/fiber/v2"
)

const defaultOpenAPIPath = "api/openapi.yaml"

// apiDocs is the OpenAPI document, validated once at startup.
type apiDocs struct {
	yaml []byte
	json []byte
	page string
}

func loadDocs(path string) (*apiDocs, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read openapi document: %w", err)
	}

	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if err := doc.Validate(context.Background()); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}

	js, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode openapi document: %w", err)
	}

	title, version := "routeboard API", ""
	if doc.Info != nil {
		title, version = doc.Info.Title, doc.Info.Version
	}
	return &apiDocs{yaml: raw, json: js, page: referencePage(title, version)}, nil
}

// referencePage renders a read-only Redoc reference for the JSON document.
func referencePage(title, version string) string {
	t, v := html.EscapeString(title), html.EscapeString(version)
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>%[1]s %[2]s</title>
  <style>
    body{margin:0}
    header{padding:10px 16px;font:14px system-ui,sans-serif;background:#0b3954;color:#fff}
    header a{color:#bfd7ea;margin-left:14px}
  </style>
</head>
<body>
  <header><strong>%[1]s</strong> v%[2]s<a href="/docs/openapi.yaml">openapi.yaml</a><a href="/docs/openapi.json">openapi.json</a></header>
  <redoc spec-url="/docs/openapi.json" hide-download-button></redoc>
  <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`, t, v)
}

// SetupDocs serves the API reference at /docs and the OpenAPI document at
// /docs/openapi.yaml and /docs/openapi.json. When the document at path cannot
// be loaded the docs routes answer 404 and the API itself is unaffected.
func SetupDocs(app *fiber.App, path string) {
	if path == "" {
		path = defaultOpenAPIPath
	}

	docs, err := loadDocs(path)
	if err != nil {
		slog.Warn("api docs disabled", "path", path, "error", err)
		app.Get("/docs*", func(c *fiber.Ctx) error {
			return errNotFound(c, "api docs not available")
		})
		return
	}

	app.Get("/docs", func(c *fiber.Ctx) error {
		c.Type("html", "utf-8")
		return c.SendString(docs.page)
	})
	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.Send(docs.yaml)
	})
	app.Get("/docs/openapi.json", func(c *fiber.Ctx) error {
		c.Type("json")
		return c.Send(docs.json)
	})
}
