package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/sectionsmith/sectionsmith-server/internal/store"
	"github.com/sectionsmith/sectionsmith-server/internal/util"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "exportLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/export",
		Summary:     "Export library",
		Description: "Serializes the whole library to its portable JSON form",
		Tags:        []string{"Library"},
	}, s.handleExportLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "importLibrary",
		Method:      http.MethodPost,
		Path:        "/api/v1/library/import",
		Summary:     "Import library",
		Description: "Merges a previously exported library, skipping sections that already exist",
		Tags:        []string{"Library"},
	}, s.handleImportLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "libraryStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/library/stats",
		Summary:     "Library statistics",
		Description: "Returns aggregate statistics about the section library",
		Tags:        []string{"Library"},
	}, s.handleLibraryStats)

	huma.Register(s.api, huma.Operation{
		OperationID: "cleanLibrary",
		Method:      http.MethodPost,
		Path:        "/api/v1/library/clean",
		Summary:     "Clean old sections",
		Description: "Removes never-used sections older than the given age",
		Tags:        []string{"Library"},
	}, s.handleCleanLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "rebuildSearchIndex",
		Method:      http.MethodPost,
		Path:        "/api/v1/library/reindex",
		Summary:     "Rebuild search index",
		Description: "Drops and repopulates the full-text index from the store",
		Tags:        []string{"Library"},
	}, s.handleRebuildIndex)
}

// === DTOs ===

// ExportLibraryResponse carries the serialized library.
type ExportLibraryResponse struct {
	Library  string `json:"library" doc:"Portable JSON serialization of the library"`
	Filename string `json:"filename" doc:"Suggested download filename for the snapshot"`
}

// ExportLibraryOutput wraps the export response for Huma.
type ExportLibraryOutput struct {
	Body ExportLibraryResponse
}

// ImportLibraryRequest is the request body for a library import.
type ImportLibraryRequest struct {
	Library string `json:"library" validate:"required" doc:"Serialized library produced by an export"`
}

// ImportLibraryInput wraps the import request for Huma.
type ImportLibraryInput struct {
	Body ImportLibraryRequest
}

// ImportLibraryResponse reports how many sections were merged in.
type ImportLibraryResponse struct {
	Added int `json:"added" doc:"Number of sections added"`
}

// ImportLibraryOutput wraps the import response for Huma.
type ImportLibraryOutput struct {
	Body ImportLibraryResponse
}

// LibraryStatsOutput wraps the stats response for Huma.
type LibraryStatsOutput struct {
	Body store.LibraryStats
}

// CleanLibraryRequest is the request body for cleaning old sections.
type CleanLibraryRequest struct {
	MaxAgeDays int `json:"max_age_days" validate:"gte=1" doc:"Sections older than this many days are candidates"`
}

// CleanLibraryInput wraps the clean request for Huma.
type CleanLibraryInput struct {
	Body CleanLibraryRequest
}

// CleanLibraryResponse reports how many sections were removed.
type CleanLibraryResponse struct {
	Removed int `json:"removed" doc:"Number of sections removed"`
}

// CleanLibraryOutput wraps the clean response for Huma.
type CleanLibraryOutput struct {
	Body CleanLibraryResponse
}

// === Handlers ===

func (s *Server) handleExportLibrary(ctx context.Context, _ *struct{}) (*ExportLibraryOutput, error) {
	serialized, err := s.services.Library.Export(ctx)
	if err != nil {
		return nil, err
	}

	filename := util.SanitizeFilename("sectionsmith-library-"+time.Now().Format("2006-01-02")) + ".json"
	return &ExportLibraryOutput{Body: ExportLibraryResponse{
		Library:  serialized,
		Filename: filename,
	}}, nil
}

func (s *Server) handleImportLibrary(ctx context.Context, input *ImportLibraryInput) (*ImportLibraryOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	added, err := s.services.Library.Import(ctx, input.Body.Library)
	if err != nil {
		return nil, err
	}
	return &ImportLibraryOutput{Body: ImportLibraryResponse{Added: added}}, nil
}

func (s *Server) handleLibraryStats(ctx context.Context, _ *struct{}) (*LibraryStatsOutput, error) {
	stats, err := s.services.Library.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return &LibraryStatsOutput{Body: *stats}, nil
}

func (s *Server) handleCleanLibrary(ctx context.Context, input *CleanLibraryInput) (*CleanLibraryOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	removed, err := s.services.Library.Clean(ctx, input.Body.MaxAgeDays)
	if err != nil {
		return nil, err
	}
	return &CleanLibraryOutput{Body: CleanLibraryResponse{Removed: removed}}, nil
}

func (s *Server) handleRebuildIndex(ctx context.Context, _ *struct{}) (*struct{}, error) {
	if err := s.services.Library.RebuildIndex(ctx); err != nil {
		return nil, err
	}
	return &struct{}{}, nil
}
