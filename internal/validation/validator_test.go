package validation_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sectionsmith/sectionsmith-server/internal/errors"
	"github.com/sectionsmith/sectionsmith-server/internal/validation"
)

type captureRequest struct {
	Markup    string `json:"markup" validate:"required"`
	SourceURL string `json:"source_url" validate:"omitempty,url"`
	Method    string `json:"method" validate:"convmethod"`
	BlockType string `json:"block_type" validate:"omitempty,blocktype"`
	Rating    int    `json:"rating" validate:"omitempty,gte=1,lte=5"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	req := captureRequest{
		Markup:    `<section class="hero"></section>`,
		SourceURL: "https://example.com/page",
		Method:    "api",
		BlockType: "hero",
		Rating:    4,
	}

	err := v.Validate(req)
	assert.NoError(t, err)
}

func TestValidator_EmptyMethodIsAllowed(t *testing.T) {
	v := validation.New()

	err := v.Validate(captureRequest{Markup: "<div></div>"})
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name       string
		req        captureRequest
		wantErrMsg string
	}{
		{
			name:       "missing markup",
			req:        captureRequest{Method: "manual"},
			wantErrMsg: "markup",
		},
		{
			name: "bad source url",
			req: captureRequest{
				Markup:    "<div></div>",
				SourceURL: "not a url",
			},
			wantErrMsg: "source_url",
		},
		{
			name: "unknown conversion method",
			req: captureRequest{
				Markup: "<div></div>",
				Method: "telepathy",
			},
			wantErrMsg: "method",
		},
		{
			name: "unknown block type",
			req: captureRequest{
				Markup:    "<div></div>",
				BlockType: "sidebar",
			},
			wantErrMsg: "block_type",
		},
		{
			name: "rating out of range",
			req: captureRequest{
				Markup: "<div></div>",
				Rating: 6,
			},
			wantErrMsg: "rating",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

			var domainErr *apperrors.Error
			require.True(t, errors.As(err, &domainErr))
			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Contains(t, details, tt.wantErrMsg)
		})
	}
}
