// Package service implements the business logic on top of the store,
// analyzer and conversion strategies.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sectionsmith/sectionsmith-server/internal/analyzer"
	"github.com/sectionsmith/sectionsmith-server/internal/convert"
	"github.com/sectionsmith/sectionsmith-server/internal/domain"
	apperrors "github.com/sectionsmith/sectionsmith-server/internal/errors"
	"github.com/sectionsmith/sectionsmith-server/internal/media/thumbs"
	"github.com/sectionsmith/sectionsmith-server/internal/metrics"
	"github.com/sectionsmith/sectionsmith-server/internal/prompt"
	"github.com/sectionsmith/sectionsmith-server/internal/store"
	"github.com/sectionsmith/sectionsmith-server/internal/util"
)

// CaptureService runs the capture pipeline: analyze a snapshot of a page
// element, build a conversion prompt, drive one of the conversion
// strategies and persist the resulting section.
type CaptureService struct {
	store      *store.Store
	analyzer   *analyzer.Analyzer
	thumbs     *thumbs.Processor
	converters map[domain.ConversionMethod]convert.Converter
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewCaptureService creates a capture service. Converters are registered
// by their Method; a nil metrics bundle gets a private registry.
func NewCaptureService(
	st *store.Store,
	an *analyzer.Analyzer,
	proc *thumbs.Processor,
	converters []convert.Converter,
	m *metrics.Metrics,
	logger *slog.Logger,
) *CaptureService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if m == nil {
		m = metrics.New()
	}
	byMethod := make(map[domain.ConversionMethod]convert.Converter, len(converters))
	for _, c := range converters {
		byMethod[c.Method()] = c
	}
	return &CaptureService{
		store:      st,
		analyzer:   an,
		thumbs:     proc,
		converters: byMethod,
		metrics:    m,
		logger:     logger,
	}
}

// AnalyzeResponse is what the extension gets back from a capture before
// any conversion is attempted.
type AnalyzeResponse struct {
	Classification domain.ClassificationResult `json:"classification"`
	Complexity     domain.ComplexityResult     `json:"complexity"`
	Prompt         string                      `json:"prompt"`
}

// Analyze classifies a captured element and returns the prompt the user
// would paste into a chat session. Captures with a screenshot get the
// screenshot-aware prompt variant.
func (s *CaptureService) Analyze(ctx context.Context, desc *domain.CaptureDescriptor) (*AnalyzeResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if desc == nil || desc.Markup == "" {
		return nil, apperrors.InvalidArgument("capture markup is required")
	}

	desc.Normalize()
	analysis := s.analyzer.Analyze(desc)
	s.metrics.CapturesTotal.WithLabelValues(string(analysis.Classification.Type)).Inc()

	in := prompt.Input{
		Descriptor:     desc,
		Classification: analysis.Classification,
		Complexity:     analysis.Complexity,
	}
	text := prompt.Build(in)
	if desc.HasScreenshot() {
		text = prompt.BuildWithScreenshot(in)
	}

	s.logger.Info("capture analyzed",
		"block_type", analysis.Classification.Type,
		"confidence", analysis.Classification.Confidence,
		"complexity", analysis.Complexity.Score,
		"source_url", desc.SourceURL)

	return &AnalyzeResponse{
		Classification: analysis.Classification,
		Complexity:     analysis.Complexity,
		Prompt:         text,
	}, nil
}

// ConvertRequest drives a full capture-to-section conversion.
type ConvertRequest struct {
	Descriptor  *domain.CaptureDescriptor
	Method      domain.ConversionMethod // empty defaults to manual
	Name        string
	Description string
	Tags        []string
}

// ConvertOutcome reports either a persisted section or, when an automated
// strategy failed in a way the user can recover from, a prompt for the
// manual path.
type ConvertOutcome struct {
	Section        *domain.Section         `json:"section,omitempty"`
	Method         domain.ConversionMethod `json:"method"`
	FallbackPrompt string                  `json:"fallback_prompt,omitempty"`
	FailureReason  string                  `json:"failure_reason,omitempty"`
}

// Converted reports whether the conversion produced a saved section.
func (o *ConvertOutcome) Converted() bool {
	return o.Section != nil
}

// Convert runs the requested strategy end to end. A conversion whose
// response contains neither a template nor a schema fence counts as
// failed. When the API or chat-page strategy fails with a conversion or
// credential error, nothing is persisted and the outcome carries the
// screenshot-aware prompt so the extension can offer the manual path
// instead; other errors propagate as-is.
func (s *CaptureService) Convert(ctx context.Context, req ConvertRequest) (*ConvertOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Descriptor == nil || req.Descriptor.Markup == "" {
		return nil, apperrors.InvalidArgument("capture markup is required")
	}

	method := req.Method
	if method == "" {
		method = domain.MethodManual
	}
	converter, ok := s.converters[method]
	if !ok {
		return nil, apperrors.InvalidArgumentf("conversion method %q is not configured", method)
	}

	desc := req.Descriptor
	desc.Normalize()
	analysis := s.analyzer.Analyze(desc)
	s.metrics.CapturesTotal.WithLabelValues(string(analysis.Classification.Type)).Inc()

	in := prompt.Input{
		Descriptor:     desc,
		Classification: analysis.Classification,
		Complexity:     analysis.Complexity,
	}

	// The direct API takes the lean text prompt; the manual and
	// chat-page paths get the screenshot-aware variant.
	text := prompt.BuildWithScreenshot(in)
	if method == domain.MethodAPI {
		text = prompt.Build(in)
	}

	start := time.Now()
	result, err := converter.Convert(ctx, convert.Request{
		Prompt:     text,
		Screenshot: desc.Screenshot,
	})
	s.metrics.ConversionDuration.Observe(time.Since(start).Seconds())

	if err == nil && !result.Usable() {
		err = apperrors.ConversionFailed("no recognizable output blocks found in response")
	}
	if err != nil {
		return s.convertFailed(ctx, method, in, err)
	}

	section, err := s.saveConverted(ctx, desc, analysis, result, method, req)
	if err != nil {
		return nil, err
	}

	s.metrics.ConversionsTotal.WithLabelValues(string(method), "success").Inc()
	s.logger.Info("conversion succeeded",
		"method", method,
		"section_id", section.ID,
		"block_type", section.BlockType,
		"duration", time.Since(start))

	return &ConvertOutcome{Section: section, Method: method}, nil
}

func (s *CaptureService) convertFailed(ctx context.Context, method domain.ConversionMethod, in prompt.Input, err error) (*ConvertOutcome, error) {
	s.metrics.ConversionsTotal.WithLabelValues(string(method), "failed").Inc()
	s.logger.Warn("conversion failed", "method", method, "error", err)

	recoverable := errors.Is(err, apperrors.ErrConversionFailed) || errors.Is(err, apperrors.ErrCredentialMissing)
	if method == domain.MethodManual || !recoverable {
		return nil, err
	}

	// Automated strategies degrade to the manual path. Nothing has been
	// persisted at this point; honor the context before handing back.
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	return &ConvertOutcome{
		Method:         method,
		FallbackPrompt: prompt.BuildWithScreenshot(in),
		FailureReason:  err.Error(),
	}, nil
}

// IngestRequest saves a section from a response the user collected
// themselves, typically by pasting the prompt into a chat session.
type IngestRequest struct {
	Descriptor  *domain.CaptureDescriptor
	RawResponse string
	Name        string
	Description string
	Tags        []string
}

// Ingest parses a pasted assistant response and persists the section.
func (s *CaptureService) Ingest(ctx context.Context, req IngestRequest) (*domain.Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Descriptor == nil || req.Descriptor.Markup == "" {
		return nil, apperrors.InvalidArgument("capture markup is required")
	}
	if req.RawResponse == "" {
		return nil, apperrors.InvalidArgument("response text is required")
	}

	desc := req.Descriptor
	desc.Normalize()
	analysis := s.analyzer.Analyze(desc)

	result := convert.ParseResponse(req.RawResponse)
	if !result.Usable() {
		s.metrics.ConversionsTotal.WithLabelValues(string(domain.MethodManual), "failed").Inc()
		return nil, apperrors.ConversionFailed("no recognizable output blocks found in response")
	}

	section, err := s.saveConverted(ctx, desc, analysis, &result, domain.MethodManual, ConvertRequest{
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ConversionsTotal.WithLabelValues(string(domain.MethodManual), "success").Inc()
	return section, nil
}

func (s *CaptureService) saveConverted(
	ctx context.Context,
	desc *domain.CaptureDescriptor,
	analysis analyzer.Analysis,
	result *domain.ConversionResult,
	method domain.ConversionMethod,
	req ConvertRequest,
) (*domain.Section, error) {
	name := req.Name
	if name == "" {
		name = defaultSectionName(analysis.Classification.Type, util.ExtractDomain(desc.SourceURL))
	}
	description := req.Description
	if description == "" {
		description = util.MarkdownDigest(desc.Markup, 280)
	}

	draft := &domain.Section{
		Name:            name,
		Description:     description,
		Tags:            req.Tags,
		SourceURL:       desc.SourceURL,
		CapturedAt:      desc.CapturedAt,
		BlockType:       analysis.Classification.Type,
		ComplexityScore: analysis.Complexity.Score,
		Files: domain.SectionFiles{
			Template: result.Template,
			Schema:   result.Schema,
			Style:    result.Style,
			Script:   result.Script,
		},
		ConversionMethod: method,
	}

	// Thumbnail generation must not block the save.
	if s.thumbs != nil && desc.HasScreenshot() {
		thumb, hash, err := s.thumbs.Process(desc.Screenshot)
		if err != nil {
			s.logger.Warn("thumbnail generation failed", "error", err)
		} else {
			draft.Thumbnail = thumb
			draft.ThumbnailHash = hash
		}
	}

	section, err := s.store.SaveSection(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("saving converted section: %w", err)
	}
	return section, nil
}

func defaultSectionName(blockType domain.BlockType, sourceDomain string) string {
	if blockType == "" {
		blockType = domain.BlockTypeGeneric
	}
	if sourceDomain == "" {
		return fmt.Sprintf("%s section", blockType)
	}
	return fmt.Sprintf("%s section from %s", blockType, sourceDomain)
}

// TestConnection verifies the configured API strategy can reach its
// endpoint with the stored credentials.
func (s *CaptureService) TestConnection(ctx context.Context) error {
	c, ok := s.converters[domain.MethodAPI]
	if !ok {
		return apperrors.InvalidArgument("api conversion method is not configured")
	}
	tester, ok := c.(interface{ TestConnection(context.Context) error })
	if !ok {
		return apperrors.InvalidArgument("api conversion method does not support connection tests")
	}
	return tester.TestConnection(ctx)
}
