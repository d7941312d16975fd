// Package convert turns a rendered prompt into section code through one of
// three strategies: a direct LLM API call, an automated chat page session,
// or a manual bridge the user drives by hand.
package convert

import (
	"context"

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
)

// Request is the strategy-independent conversion input. The prompt is fully
// rendered; the screenshot rides along for strategies that can attach it.
type Request struct {
	Prompt     string
	Screenshot *domain.Screenshot
}

// Converter executes one conversion strategy. Implementations return a
// parsed result even when some output blocks are missing; deciding whether
// the result is usable is the orchestrator's call.
type Converter interface {
	Method() domain.ConversionMethod
	Convert(ctx context.Context, req Request) (*domain.ConversionResult, error)
}
