package api

import (
	"context"
	"encoding/json/v2"
	"log/slog"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectionsmith/sectionsmith-server/internal/analyzer"
	"github.com/sectionsmith/sectionsmith-server/internal/convert"
	"github.com/sectionsmith/sectionsmith-server/internal/domain"
	apperrors "github.com/sectionsmith/sectionsmith-server/internal/errors"
	"github.com/sectionsmith/sectionsmith-server/internal/search"
	"github.com/sectionsmith/sectionsmith-server/internal/service"
	"github.com/sectionsmith/sectionsmith-server/internal/store"
)

const fencedResponse = "```liquid\n<section>{{ section.settings.heading }}</section>\n```\n\n" +
	"```json\n{\"name\": \"Hero\"}\n```\n"

// stubConverter lets tests script the conversion outcome.
type stubConverter struct {
	method   domain.ConversionMethod
	response string
	err      error
}

func (c *stubConverter) Method() domain.ConversionMethod { return c.method }

func (c *stubConverter) Convert(_ context.Context, _ convert.Request) (*domain.ConversionResult, error) {
	if c.err != nil {
		return nil, c.err
	}
	result := convert.ParseResponse(c.response)
	return &result, nil
}

// testServer wraps the API server for handler testing.
type testServer struct {
	*Server
	api humatest.TestAPI
	st  *store.Store
}

func setupTestServer(t *testing.T, converters ...convert.Converter) *testServer {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })
	st.SetSearchIndexer(index)

	an, err := analyzer.New(16)
	require.NoError(t, err)

	logger := slog.New(slog.DiscardHandler)

	services := &Services{
		Capture: service.NewCaptureService(st, an, nil, converters, nil, logger),
		Library: service.NewLibraryService(st, index, logger),
	}

	s := NewServer(st, services, nil, logger)

	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
		st:     st,
	}
}

// envelopeData decodes the response envelope and returns the data payload.
func envelopeData(t *testing.T, body []byte) map[string]any {
	t.Helper()

	var env map[string]any
	require.NoError(t, json.Unmarshal(body, &env))
	require.Equal(t, true, env["success"], "expected success envelope, got %s", body)

	data, _ := env["data"].(map[string]any)
	return data
}

func captureBody() map[string]any {
	return map[string]any{
		"markup":      `<section class="hero hero-banner"><h1>Welcome</h1><a class="btn">Shop now</a></section>`,
		"source_url":  "https://demo.example.com/collections/all",
		"tag_name":    "section",
		"class_names": "hero hero-banner",
	}
}

func ingestSection(t *testing.T, ts *testServer, name string) string {
	t.Helper()

	resp := ts.api.Post("/api/v1/capture/ingest", map[string]any{
		"capture":  captureBody(),
		"response": fencedResponse,
		"name":     name,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	data := envelopeData(t, resp.Body.Bytes())
	id, _ := data["id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	data := envelopeData(t, resp.Body.Bytes())
	assert.Contains(t, []any{"healthy", "degraded"}, data["status"])
	assert.NotEmpty(t, data["server_id"])
}

func TestAnalyzeCapture(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/capture/analyze", captureBody())
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	data := envelopeData(t, resp.Body.Bytes())
	classification, _ := data["classification"].(map[string]any)
	require.NotNil(t, classification)
	assert.Equal(t, "hero", classification["type"])
	assert.NotEmpty(t, data["prompt"])
}

func TestAnalyzeCapture_MissingMarkup(t *testing.T) {
	ts := setupTestServer(t)

	// Huma rejects the body against the schema before the handler runs.
	resp := ts.api.Post("/api/v1/capture/analyze", map[string]any{
		"source_url": "https://example.com",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code, resp.Body.String())
}

func TestConvertCapture_Success(t *testing.T) {
	ts := setupTestServer(t, &stubConverter{method: domain.MethodAPI, response: fencedResponse})

	resp := ts.api.Post("/api/v1/capture/convert", map[string]any{
		"capture": captureBody(),
		"method":  "api",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	data := envelopeData(t, resp.Body.Bytes())
	section, _ := data["section"].(map[string]any)
	require.NotNil(t, section)
	assert.Equal(t, "api", section["conversion_method"])
}

func TestConvertCapture_FallbackOnFailure(t *testing.T) {
	ts := setupTestServer(t, &stubConverter{
		method: domain.MethodAPI,
		err:    apperrors.CredentialMissing("llm api key not configured"),
	})

	resp := ts.api.Post("/api/v1/capture/convert", map[string]any{
		"capture": captureBody(),
		"method":  "api",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	data := envelopeData(t, resp.Body.Bytes())
	assert.Nil(t, data["section"])
	assert.NotEmpty(t, data["fallback_prompt"])
	assert.NotEmpty(t, data["failure_reason"])
}

func TestIngestAndGetSection(t *testing.T) {
	ts := setupTestServer(t)
	id := ingestSection(t, ts, "Landing hero")

	resp := ts.api.Get("/api/v1/sections/" + id)
	require.Equal(t, http.StatusOK, resp.Code)

	data := envelopeData(t, resp.Body.Bytes())
	assert.Equal(t, "Landing hero", data["name"])
	assert.Equal(t, "manual", data["conversion_method"])
}

func TestGetSection_NotFound(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/sections/sec-missing")
	require.Equal(t, http.StatusNotFound, resp.Code)

	var env map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	assert.Equal(t, false, env["success"])
	assert.Equal(t, string(apperrors.CodeNotFound), env["code"])
}

func TestListSections_FilterByQuery(t *testing.T) {
	ts := setupTestServer(t)
	ingestSection(t, ts, "Aurora hero")
	ingestSection(t, ts, "Plain banner")

	resp := ts.api.Get("/api/v1/sections?q=aurora")
	require.Equal(t, http.StatusOK, resp.Code)

	data := envelopeData(t, resp.Body.Bytes())
	assert.EqualValues(t, 1, data["total"])
}

func TestListSections_RejectsUnknownBlockType(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/sections?block_type=sidebar")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateSection(t *testing.T) {
	ts := setupTestServer(t)
	id := ingestSection(t, ts, "Old name")

	resp := ts.api.Patch("/api/v1/sections/"+id, map[string]any{
		"name": "New name",
		"tags": []string{"updated"},
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	data := envelopeData(t, resp.Body.Bytes())
	assert.Equal(t, "New name", data["name"])
}

func TestDeleteSection_Idempotent(t *testing.T) {
	ts := setupTestServer(t)
	id := ingestSection(t, ts, "Doomed")

	resp := ts.api.Delete("/api/v1/sections/" + id)
	require.Equal(t, http.StatusNoContent, resp.Code)

	// Deleting again is still a success.
	resp = ts.api.Delete("/api/v1/sections/" + id)
	assert.Equal(t, http.StatusNoContent, resp.Code)
}

func TestRateAndUseSection(t *testing.T) {
	ts := setupTestServer(t)
	id := ingestSection(t, ts, "Rated")

	resp := ts.api.Post("/api/v1/sections/" + id + "/use")
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Post("/api/v1/sections/"+id+"/rate", map[string]any{"rating": 5})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	data := envelopeData(t, resp.Body.Bytes())
	assert.EqualValues(t, 5, data["rating"])
	assert.EqualValues(t, 1, data["usage_count"])
}

func TestRateSection_OutOfRange(t *testing.T) {
	ts := setupTestServer(t)
	id := ingestSection(t, ts, "Rated")

	resp := ts.api.Post("/api/v1/sections/"+id+"/rate", map[string]any{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestExportImportRoundTrip(t *testing.T) {
	source := setupTestServer(t)
	ingestSection(t, source, "Exported hero")

	resp := source.api.Get("/api/v1/library/export")
	require.Equal(t, http.StatusOK, resp.Code)
	exported := envelopeData(t, resp.Body.Bytes())
	serialized, _ := exported["library"].(string)
	require.NotEmpty(t, serialized)

	filename, _ := exported["filename"].(string)
	assert.Regexp(t, `^sectionsmith-library-\d{4}-\d{2}-\d{2}\.json$`, filename)

	target := setupTestServer(t)
	resp = target.api.Post("/api/v1/library/import", map[string]any{"library": serialized})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.EqualValues(t, 1, envelopeData(t, resp.Body.Bytes())["added"])
}

func TestLibraryStats(t *testing.T) {
	ts := setupTestServer(t)
	ingestSection(t, ts, "Stats hero")

	resp := ts.api.Get("/api/v1/library/stats")
	require.Equal(t, http.StatusOK, resp.Code)

	data := envelopeData(t, resp.Body.Bytes())
	assert.EqualValues(t, 1, data["total_sections"])
}

func TestSearchSections_Ranked(t *testing.T) {
	ts := setupTestServer(t)
	ingestSection(t, ts, "Aurora hero banner")

	resp := ts.api.Get("/api/v1/search?q=aurora")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	data := envelopeData(t, resp.Body.Bytes())
	assert.EqualValues(t, 1, data["total"])
}

func TestCredentialLifecycle(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/credentials")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, false, envelopeData(t, resp.Body.Bytes())["configured"])

	resp = ts.api.Put("/api/v1/credentials", map[string]any{"api_key": "pplx-test-key"})
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/credentials")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, true, envelopeData(t, resp.Body.Bytes())["configured"])

	resp = ts.api.Delete("/api/v1/credentials")
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.api.Get("/api/v1/credentials")
	assert.Equal(t, false, envelopeData(t, resp.Body.Bytes())["configured"])
}

func TestCredential_RejectsShortKey(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Put("/api/v1/credentials", map[string]any{"api_key": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestTestConnection_Unconfigured(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/capture/test-connection")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
