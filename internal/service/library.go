package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
	apperrors "github.com/sectionsmith/sectionsmith-server/internal/errors"
	"github.com/sectionsmith/sectionsmith-server/internal/search"
	"github.com/sectionsmith/sectionsmith-server/internal/store"
)

// LibraryService exposes the section library: CRUD, filtering, ranked
// search, usage tracking, import/export and maintenance.
type LibraryService struct {
	store  *store.Store
	index  *search.SearchIndex // nil when full-text search is disabled
	logger *slog.Logger
}

func NewLibraryService(st *store.Store, index *search.SearchIndex, logger *slog.Logger) *LibraryService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LibraryService{store: st, index: index, logger: logger}
}

// Library returns the whole section library.
func (s *LibraryService) Library(ctx context.Context) (*domain.Library, error) {
	return s.store.GetLibrary(ctx)
}

// Section returns a single section by id.
func (s *LibraryService) Section(ctx context.Context, id string) (*domain.Section, error) {
	return s.store.GetSection(ctx, id)
}

// UpdateSection applies a partial update to a section's metadata.
func (s *LibraryService) UpdateSection(ctx context.Context, id string, update store.SectionUpdate) (*domain.Section, error) {
	section, err := s.store.UpdateSection(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.logger.Info("section updated", "section_id", id)
	return section, nil
}

// DeleteSection removes a section. Deleting an unknown id is a no-op.
func (s *LibraryService) DeleteSection(ctx context.Context, id string) error {
	if err := s.store.DeleteSection(ctx, id); err != nil {
		return err
	}
	s.logger.Info("section deleted", "section_id", id)
	return nil
}

// FilterSections runs the store's substring filter and sort. This is the
// cheap path the extension popup uses for incremental narrowing.
func (s *LibraryService) FilterSections(ctx context.Context, filter store.SearchFilter) ([]domain.Section, error) {
	return s.store.SearchSections(ctx, filter)
}

// Search runs a ranked full-text query against the bleve index.
func (s *LibraryService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if s.index == nil {
		return nil, apperrors.InvalidArgument("full-text search is not enabled")
	}
	return s.index.Search(ctx, params)
}

// IndexedSectionCount reports how many sections the search index holds,
// or -1 when full-text search is disabled.
func (s *LibraryService) IndexedSectionCount(ctx context.Context) (int64, error) {
	if s.index == nil {
		return -1, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	count, err := s.index.DocumentCount()
	if err != nil {
		return 0, err
	}
	return int64(count), nil
}

// RecordUsage bumps a section's usage counter.
func (s *LibraryService) RecordUsage(ctx context.Context, id string) error {
	return s.store.IncrementUsage(ctx, id)
}

// RateSection records a 1-5 star rating.
func (s *LibraryService) RateSection(ctx context.Context, id string, rating int) (*domain.Section, error) {
	return s.store.RateSection(ctx, id, rating)
}

// Export serializes the library to its portable JSON form.
func (s *LibraryService) Export(ctx context.Context) (string, error) {
	return s.store.ExportLibrary(ctx)
}

// Import merges a previously exported library, skipping sections whose
// ids already exist, and reindexes when anything changed.
func (s *LibraryService) Import(ctx context.Context, serialized string) (int, error) {
	added, err := s.store.ImportLibrary(ctx, serialized)
	if err != nil {
		return 0, err
	}
	if added > 0 {
		if err := s.RebuildIndex(ctx); err != nil {
			s.logger.Warn("reindex after import failed", "error", err)
		}
	}
	s.logger.Info("library imported", "added", added)
	return added, nil
}

// Stats returns aggregate library statistics.
func (s *LibraryService) Stats(ctx context.Context) (*store.LibraryStats, error) {
	return s.store.GetLibraryStats(ctx)
}

// Clean removes sections older than maxAgeDays that were never used, and
// reindexes when anything was removed.
func (s *LibraryService) Clean(ctx context.Context, maxAgeDays int) (int, error) {
	removed, err := s.store.CleanOldSections(ctx, maxAgeDays)
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		if err := s.RebuildIndex(ctx); err != nil {
			s.logger.Warn("reindex after clean failed", "error", err)
		}
		s.logger.Info("old sections cleaned", "removed", removed, "max_age_days", maxAgeDays)
	}
	return removed, nil
}

// RebuildIndex drops and repopulates the search index from the store.
func (s *LibraryService) RebuildIndex(ctx context.Context) error {
	if s.index == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	lib, err := s.store.GetLibrary(ctx)
	if err != nil {
		return fmt.Errorf("loading library for reindex: %w", err)
	}
	if err := s.index.Rebuild(lib.Sections); err != nil {
		return fmt.Errorf("rebuilding search index: %w", err)
	}
	s.logger.Info("search index rebuilt", "sections", len(lib.Sections))
	return nil
}
