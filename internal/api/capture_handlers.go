package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
	"github.com/sectionsmith/sectionsmith-server/internal/service"
)

func (s *Server) registerCaptureRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "analyzeCapture",
		Method:      http.MethodPost,
		Path:        "/api/v1/capture/analyze",
		Summary:     "Analyze capture",
		Description: "Classifies a captured element, scores its complexity and returns the conversion prompt",
		Tags:        []string{"Capture"},
	}, s.handleAnalyzeCapture)

	huma.Register(s.api, huma.Operation{
		OperationID: "convertCapture",
		Method:      http.MethodPost,
		Path:        "/api/v1/capture/convert",
		Summary:     "Convert capture",
		Description: "Runs a conversion strategy end to end and saves the resulting section",
		Tags:        []string{"Capture"},
	}, s.handleConvertCapture)

	huma.Register(s.api, huma.Operation{
		OperationID: "ingestResponse",
		Method:      http.MethodPost,
		Path:        "/api/v1/capture/ingest",
		Summary:     "Ingest pasted response",
		Description: "Parses an assistant response the user collected manually and saves the section",
		Tags:        []string{"Capture"},
	}, s.handleIngestResponse)

	huma.Register(s.api, huma.Operation{
		OperationID: "testConnection",
		Method:      http.MethodPost,
		Path:        "/api/v1/capture/test-connection",
		Summary:     "Test LLM connection",
		Description: "Verifies the direct API strategy can reach its endpoint with the stored key",
		Tags:        []string{"Capture"},
	}, s.handleTestConnection)
}

// === DTOs ===

// CaptureBody mirrors what the extension's content script collects.
type CaptureBody struct {
	Markup        string             `json:"markup" validate:"required" doc:"Captured element outerHTML"`
	SourceURL     string             `json:"source_url,omitempty" validate:"omitempty,url" doc:"Page the element was captured from"`
	TagName       string             `json:"tag_name,omitempty" doc:"Element tag name"`
	ClassNames    any                `json:"class_names,omitempty" doc:"Element class list; string or SVG animated-string wrapper"`
	ElementID     string             `json:"element_id,omitempty" doc:"Element id attribute"`
	BoundingBox   domain.BoundingBox `json:"bounding_box,omitzero" doc:"Layout rectangle at capture time"`
	StyleSnapshot map[string]string  `json:"style_snapshot,omitempty" doc:"Computed styles captured alongside the element"`
	Screenshot    *domain.Screenshot `json:"screenshot,omitempty" doc:"Cropped screenshot of the element"`
	CapturedAtMs  int64              `json:"captured_at_ms,omitempty" doc:"Capture timestamp in Unix milliseconds"`
}

// descriptor converts the wire capture into the domain form.
func (b *CaptureBody) descriptor() *domain.CaptureDescriptor {
	return &domain.CaptureDescriptor{
		Markup:        b.Markup,
		SourceURL:     b.SourceURL,
		TagName:       b.TagName,
		ClassNames:    domain.NormalizeClassList(b.ClassNames),
		ElementID:     b.ElementID,
		BoundingBox:   b.BoundingBox,
		StyleSnapshot: b.StyleSnapshot,
		Screenshot:    b.Screenshot,
		CapturedAt:    b.CapturedAtMs,
	}
}

// AnalyzeCaptureInput wraps the analyze request for Huma.
type AnalyzeCaptureInput struct {
	Body CaptureBody
}

// AnalyzeCaptureOutput wraps the analyze response for Huma.
type AnalyzeCaptureOutput struct {
	Body service.AnalyzeResponse
}

// ConvertCaptureRequest is the request body for a full conversion.
type ConvertCaptureRequest struct {
	Capture     CaptureBody `json:"capture"`
	Method      string      `json:"method,omitempty" validate:"convmethod" doc:"Conversion strategy: manual, automated, or api"`
	Name        string      `json:"name,omitempty" validate:"omitempty,max=120" doc:"Section name; derived when empty"`
	Description string      `json:"description,omitempty" validate:"omitempty,max=1000" doc:"Section description; derived when empty"`
	Tags        []string    `json:"tags,omitempty" doc:"Tags for the saved section"`
}

// ConvertCaptureInput wraps the convert request for Huma.
type ConvertCaptureInput struct {
	Body ConvertCaptureRequest
}

// ConvertCaptureOutput wraps the convert outcome for Huma.
type ConvertCaptureOutput struct {
	Body service.ConvertOutcome
}

// IngestResponseRequest is the request body for saving a pasted response.
type IngestResponseRequest struct {
	Capture     CaptureBody `json:"capture"`
	Response    string      `json:"response" validate:"required" doc:"Raw assistant response containing labeled code fences"`
	Name        string      `json:"name,omitempty" validate:"omitempty,max=120" doc:"Section name; derived when empty"`
	Description string      `json:"description,omitempty" validate:"omitempty,max=1000" doc:"Section description; derived when empty"`
	Tags        []string    `json:"tags,omitempty" doc:"Tags for the saved section"`
}

// IngestResponseInput wraps the ingest request for Huma.
type IngestResponseInput struct {
	Body IngestResponseRequest
}

// SectionOutput wraps a single section for Huma.
type SectionOutput struct {
	Body domain.Section
}

// TestConnectionResponse reports the credential check result.
type TestConnectionResponse struct {
	Connected bool `json:"connected" doc:"Whether the endpoint accepted the stored key"`
}

// TestConnectionOutput wraps the connection test response for Huma.
type TestConnectionOutput struct {
	Body TestConnectionResponse
}

// === Handlers ===

func (s *Server) handleAnalyzeCapture(ctx context.Context, input *AnalyzeCaptureInput) (*AnalyzeCaptureOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	resp, err := s.services.Capture.Analyze(ctx, input.Body.descriptor())
	if err != nil {
		return nil, err
	}

	return &AnalyzeCaptureOutput{Body: *resp}, nil
}

func (s *Server) handleConvertCapture(ctx context.Context, input *ConvertCaptureInput) (*ConvertCaptureOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	outcome, err := s.services.Capture.Convert(ctx, service.ConvertRequest{
		Descriptor:  input.Body.Capture.descriptor(),
		Method:      domain.NormalizeConversionMethod(input.Body.Method),
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Tags:        input.Body.Tags,
	})
	if err != nil {
		return nil, err
	}

	return &ConvertCaptureOutput{Body: *outcome}, nil
}

func (s *Server) handleIngestResponse(ctx context.Context, input *IngestResponseInput) (*SectionOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	section, err := s.services.Capture.Ingest(ctx, service.IngestRequest{
		Descriptor:  input.Body.Capture.descriptor(),
		RawResponse: input.Body.Response,
		Name:        input.Body.Name,
		Description: input.Body.Description,
		Tags:        input.Body.Tags,
	})
	if err != nil {
		return nil, err
	}

	return &SectionOutput{Body: *section}, nil
}

func (s *Server) handleTestConnection(ctx context.Context, _ *struct{}) (*TestConnectionOutput, error) {
	if err := s.services.Capture.TestConnection(ctx); err != nil {
		return nil, err
	}
	return &TestConnectionOutput{Body: TestConnectionResponse{Connected: true}}, nil
}
