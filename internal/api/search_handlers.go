package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sectionsmith/sectionsmith-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchSections",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search sections",
		Description: "Runs a ranked full-text query against the section index",
		Tags:        []string{"Search"},
	}, s.handleSearchSections)
}

// SearchSectionsInput contains ranked search parameters.
type SearchSectionsInput struct {
	Query         string `query:"q" doc:"Search query; empty matches everything"`
	BlockTypes    string `query:"block_types" doc:"Comma-separated block type filter"`
	SourceDomain  string `query:"source_domain" doc:"Exact source domain filter"`
	MinComplexity int    `query:"min_complexity" doc:"Inclusive lower complexity bound"`
	MaxComplexity int    `query:"max_complexity" doc:"Inclusive upper complexity bound"`
	Limit         int    `query:"limit" doc:"Page size, default 20"`
	Offset        int    `query:"offset" doc:"Pagination offset"`
	Highlight     bool   `query:"highlight" doc:"Include match highlights"`
}

// SearchSectionsOutput wraps the ranked result for Huma.
type SearchSectionsOutput struct {
	Body search.SearchResult
}

func (s *Server) handleSearchSections(ctx context.Context, input *SearchSectionsInput) (*SearchSectionsOutput, error) {
	params := search.SearchParams{
		Query:         input.Query,
		SourceDomain:  input.SourceDomain,
		MinComplexity: input.MinComplexity,
		MaxComplexity: input.MaxComplexity,
		Limit:         input.Limit,
		Offset:        input.Offset,
		Highlight:     input.Highlight,
	}
	if input.BlockTypes != "" {
		for _, bt := range strings.Split(input.BlockTypes, ",") {
			if bt = strings.TrimSpace(bt); bt != "" {
				params.BlockTypes = append(params.BlockTypes, bt)
			}
		}
	}

	result, err := s.services.Library.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return &SearchSectionsOutput{Body: *result}, nil
}
