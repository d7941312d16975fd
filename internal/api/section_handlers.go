package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
	apperrors "github.com/sectionsmith/sectionsmith-server/internal/errors"
	"github.com/sectionsmith/sectionsmith-server/internal/store"
)

func (s *Server) registerSectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listSections",
		Method:      http.MethodGet,
		Path:        "/api/v1/sections",
		Summary:     "List sections",
		Description: "Returns library sections, optionally filtered and sorted",
		Tags:        []string{"Sections"},
	}, s.handleListSections)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSection",
		Method:      http.MethodGet,
		Path:        "/api/v1/sections/{id}",
		Summary:     "Get section",
		Description: "Returns a section by ID",
		Tags:        []string{"Sections"},
	}, s.handleGetSection)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateSection",
		Method:      http.MethodPatch,
		Path:        "/api/v1/sections/{id}",
		Summary:     "Update section",
		Description: "Applies a partial update to a section's metadata",
		Tags:        []string{"Sections"},
	}, s.handleUpdateSection)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteSection",
		Method:      http.MethodDelete,
		Path:        "/api/v1/sections/{id}",
		Summary:     "Delete section",
		Description: "Deletes a section; unknown IDs are a no-op",
		Tags:        []string{"Sections"},
	}, s.handleDeleteSection)

	huma.Register(s.api, huma.Operation{
		OperationID: "recordSectionUsage",
		Method:      http.MethodPost,
		Path:        "/api/v1/sections/{id}/use",
		Summary:     "Record usage",
		Description: "Bumps a section's usage counter",
		Tags:        []string{"Sections"},
	}, s.handleRecordUsage)

	huma.Register(s.api, huma.Operation{
		OperationID: "rateSection",
		Method:      http.MethodPost,
		Path:        "/api/v1/sections/{id}/rate",
		Summary:     "Rate section",
		Description: "Records a 1-5 star rating",
		Tags:        []string{"Sections"},
	}, s.handleRateSection)
}

// === DTOs ===

// ListSectionsInput contains filter parameters for listing sections.
type ListSectionsInput struct {
	Query         string `query:"q" doc:"Substring match against name, description and tags"`
	BlockType     string `query:"block_type" doc:"Exact block type filter"`
	MinComplexity int    `query:"min_complexity" doc:"Inclusive lower complexity bound"`
	MaxComplexity int    `query:"max_complexity" doc:"Inclusive upper complexity bound"`
	Tags          string `query:"tags" doc:"Comma-separated tags; any match qualifies"`
	SortBy        string `query:"sort" doc:"Sort order: date-desc, date-asc, name-asc, name-desc, complexity-desc, complexity-asc, used-desc"`
}

// SectionListResponse contains a list of sections.
type SectionListResponse struct {
	Sections []domain.Section `json:"sections" doc:"Matching sections"`
	Total    int              `json:"total" doc:"Number of matches"`
}

// SectionListOutput wraps the section list for Huma.
type SectionListOutput struct {
	Body SectionListResponse
}

// SectionIDInput identifies a section by path parameter.
type SectionIDInput struct {
	ID string `path:"id" doc:"Section ID"`
}

// UpdateSectionRequest is the request body for a partial section update.
type UpdateSectionRequest struct {
	Name             *string              `json:"name,omitempty" validate:"omitempty,min=1,max=120" doc:"Section name"`
	Description      *string              `json:"description,omitempty" validate:"omitempty,max=1000" doc:"Section description"`
	Tags             *[]string            `json:"tags,omitempty" doc:"Replacement tag list"`
	BlockType        *string              `json:"block_type,omitempty" validate:"omitempty,blocktype" doc:"Block type override"`
	ComplexityScore  *int                 `json:"complexity_score,omitempty" validate:"omitempty,gte=0,lte=10" doc:"Complexity override"`
	Files            *domain.SectionFiles `json:"files,omitempty" doc:"Replacement section files"`
	ConversionMethod *string              `json:"conversion_method,omitempty" validate:"omitempty,convmethod" doc:"Conversion method override"`
}

// UpdateSectionInput wraps the update request for Huma.
type UpdateSectionInput struct {
	ID   string `path:"id" doc:"Section ID"`
	Body UpdateSectionRequest
}

// RateSectionRequest is the request body for rating a section.
type RateSectionRequest struct {
	Rating int `json:"rating" validate:"gte=1,lte=5" doc:"Star rating from 1 to 5"`
}

// RateSectionInput wraps the rating request for Huma.
type RateSectionInput struct {
	ID   string `path:"id" doc:"Section ID"`
	Body RateSectionRequest
}

// === Handlers ===

func (s *Server) handleListSections(ctx context.Context, input *ListSectionsInput) (*SectionListOutput, error) {
	filter := store.SearchFilter{
		Query:     input.Query,
		BlockType: domain.BlockType(input.BlockType),
		SortBy:    store.SortOrder(input.SortBy),
	}
	if input.BlockType != "" && !filter.BlockType.Valid() {
		return nil, apperrors.InvalidArgumentf("unknown block type %q", input.BlockType)
	}
	if input.MinComplexity > 0 {
		v := input.MinComplexity
		filter.MinComplexity = &v
	}
	if input.MaxComplexity > 0 {
		v := input.MaxComplexity
		filter.MaxComplexity = &v
	}
	if input.Tags != "" {
		for _, tag := range strings.Split(input.Tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}

	sections, err := s.services.Library.FilterSections(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &SectionListOutput{Body: SectionListResponse{
		Sections: sections,
		Total:    len(sections),
	}}, nil
}

func (s *Server) handleGetSection(ctx context.Context, input *SectionIDInput) (*SectionOutput, error) {
	section, err := s.services.Library.Section(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &SectionOutput{Body: *section}, nil
}

func (s *Server) handleUpdateSection(ctx context.Context, input *UpdateSectionInput) (*SectionOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	update := store.SectionUpdate{
		Name:            input.Body.Name,
		Description:     input.Body.Description,
		Tags:            input.Body.Tags,
		ComplexityScore: input.Body.ComplexityScore,
		Files:           input.Body.Files,
	}
	if input.Body.BlockType != nil {
		bt := domain.BlockType(*input.Body.BlockType)
		update.BlockType = &bt
	}
	if input.Body.ConversionMethod != nil {
		cm := domain.NormalizeConversionMethod(*input.Body.ConversionMethod)
		update.ConversionMethod = &cm
	}

	section, err := s.services.Library.UpdateSection(ctx, input.ID, update)
	if err != nil {
		return nil, err
	}
	return &SectionOutput{Body: *section}, nil
}

func (s *Server) handleDeleteSection(ctx context.Context, input *SectionIDInput) (*struct{}, error) {
	if err := s.services.Library.DeleteSection(ctx, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) handleRecordUsage(ctx context.Context, input *SectionIDInput) (*struct{}, error) {
	if err := s.services.Library.RecordUsage(ctx, input.ID); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}

func (s *Server) handleRateSection(ctx context.Context, input *RateSectionInput) (*SectionOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	section, err := s.services.Library.RateSection(ctx, input.ID, input.Body.Rating)
	if err != nil {
		return nil, err
	}
	return &SectionOutput{Body: *section}, nil
}
