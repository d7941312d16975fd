package convert

import (
	"context"

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
	"github.com/sectionsmith/sectionsmith-server/internal/errors"
)

// Bridge is a user-facing surface that shows the rendered prompt (and
// screenshot, when available) and hands back whatever response text the
// user pastes in.
type Bridge interface {
	Deliver(ctx context.Context, req Request) (string, error)
}

// ManualConverter is the manual strategy: it delegates to a Bridge and
// parses whatever came back. Nothing is persisted here; an empty paste
// simply yields an unusable result the orchestrator will reject.
type ManualConverter struct {
	bridge Bridge
}

func NewManualConverter(bridge Bridge) *ManualConverter {
	return &ManualConverter{bridge: bridge}
}

func (c *ManualConverter) Method() domain.ConversionMethod {
	return domain.MethodManual
}

func (c *ManualConverter) Convert(ctx context.Context, req Request) (*domain.ConversionResult, error) {
	content, err := c.bridge.Deliver(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConversionFailed, "manual bridge delivery failed")
	}

	result := ParseResponse(content)
	return &result, nil
}
