package store

import (
	"context"
	"encoding/json/v2"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
	"github.com/sectionsmith/sectionsmith-server/internal/errors"
	"github.com/sectionsmith/sectionsmith-server/internal/id"
	"github.com/sectionsmith/sectionsmith-server/internal/util"
)

const keyLibrary = "library:sections"

// SortOrder selects how search results are ordered. The zero value keeps
// library storage order.
type SortOrder string

// Supported sort orders.
const (
	SortNone           SortOrder = ""
	SortDateDesc       SortOrder = "date-desc"
	SortDateAsc        SortOrder = "date-asc"
	SortNameAsc        SortOrder = "name-asc"
	SortNameDesc       SortOrder = "name-desc"
	SortComplexityDesc SortOrder = "complexity-desc"
	SortComplexityAsc  SortOrder = "complexity-asc"
	SortUsedDesc       SortOrder = "used-desc"
)

// Valid reports whether o is a recognized sort order.
func (o SortOrder) Valid() bool {
	switch o {
	case SortNone, SortDateDesc, SortDateAsc, SortNameAsc, SortNameDesc,
		SortComplexityDesc, SortComplexityAsc, SortUsedDesc:
		return true
	}
	return false
}

// SearchFilter narrows and orders searchSections results. Zero-valued
// fields are ignored.
type SearchFilter struct {
	Query         string
	BlockType     domain.BlockType
	MinComplexity *int
	MaxComplexity *int
	Tags          []string
	SortBy        SortOrder
}

// SectionUpdate is a partial-field merge for updateSection. Nil fields are
// left untouched.
type SectionUpdate struct {
	Name             *string
	Description      *string
	Tags             *[]string
	BlockType        *domain.BlockType
	ComplexityScore  *int
	Files            *domain.SectionFiles
	ConversionMethod *domain.ConversionMethod
	Rating           *int
}

// LibraryStats summarizes the library for dashboards.
type LibraryStats struct {
	TotalSections     int                      `json:"total_sections"`
	TypeDistribution  map[domain.BlockType]int `json:"type_distribution"`
	TotalUsage        int                      `json:"total_usage"`
	AverageComplexity float64                  `json:"average_complexity"`
	MostUsed          []domain.Section         `json:"most_used"`
	RecentlyCaptured  []domain.Section         `json:"recently_captured"`
}

// loadLibrary reads the persisted aggregate, returning a fresh empty one
// when nothing has been stored yet. Callers must hold libMu when they
// intend to write the aggregate back.
func (s *Store) loadLibrary() (*domain.Library, error) {
	var lib domain.Library
	err := s.get([]byte(keyLibrary), &lib)
	if isNotFound(err) {
		return domain.NewLibrary(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "load library")
	}
	if lib.Sections == nil {
		lib.Sections = []domain.Section{}
	}
	return &lib, nil
}

// saveLibrary writes the aggregate back in full.
func (s *Store) saveLibrary(lib *domain.Library) error {
	if err := s.set([]byte(keyLibrary), lib); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "persist library")
	}
	return nil
}

// SaveSection appends a newly converted section to the library. The draft's
// ID, source domain, timestamps and counters are filled in here; everything
// else is stored as given.
func (s *Store) SaveSection(ctx context.Context, draft *domain.Section) (*domain.Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.libMu.Lock()
	defer s.libMu.Unlock()

	lib, err := s.loadLibrary()
	if err != nil {
		return nil, err
	}

	section := *draft
	section.ID, err = id.Generate("sec")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate section id")
	}
	section.SourceDomain = util.ExtractDomain(section.SourceURL)
	if section.CapturedAt == 0 {
		section.CapturedAt = time.Now().UnixMilli()
	}
	if section.BlockType == "" {
		section.BlockType = domain.BlockTypeGeneric
	}
	if !section.ConversionMethod.Valid() {
		section.ConversionMethod = domain.NormalizeConversionMethod(string(section.ConversionMethod))
	}
	section.UsageCount = 0
	section.Rating = 0
	section.UpdatedAt = 0
	if section.Tags == nil {
		section.Tags = []string{}
	}

	lib.Sections = append(lib.Sections, section)
	lib.Touch()

	if err := s.saveLibrary(lib); err != nil {
		return nil, err
	}

	s.indexSection(ctx, &section)
	s.logger.Info("section saved",
		"section_id", section.ID,
		"block_type", section.BlockType,
		"source_domain", section.SourceDomain,
	)
	return &section, nil
}

// GetLibrary returns the full aggregate, or an empty one if nothing has
// been saved yet.
func (s *Store) GetLibrary(ctx context.Context) (*domain.Library, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.loadLibrary()
}

// GetSection returns the section with the given id.
func (s *Store) GetSection(ctx context.Context, sectionID string) (*domain.Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lib, err := s.loadLibrary()
	if err != nil {
		return nil, err
	}
	idx := lib.FindSection(sectionID)
	if idx < 0 {
		return nil, errors.NotFoundf("section %s not found", sectionID)
	}
	section := lib.Sections[idx]
	return &section, nil
}

// UpdateSection merges non-nil fields of update into the matching section
// and bumps its UpdatedAt.
func (s *Store) UpdateSection(ctx context.Context, sectionID string, update SectionUpdate) (*domain.Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.libMu.Lock()
	defer s.libMu.Unlock()

	lib, err := s.loadLibrary()
	if err != nil {
		return nil, err
	}
	idx := lib.FindSection(sectionID)
	if idx < 0 {
		return nil, errors.NotFoundf("section %s not found", sectionID)
	}

	section := &lib.Sections[idx]
	if update.Name != nil {
		section.Name = *update.Name
	}
	if update.Description != nil {
		section.Description = *update.Description
	}
	if update.Tags != nil {
		section.Tags = *update.Tags
	}
	if update.BlockType != nil {
		section.BlockType = *update.BlockType
	}
	if update.ComplexityScore != nil {
		section.ComplexityScore = *update.ComplexityScore
	}
	if update.Files != nil {
		section.Files = *update.Files
	}
	if update.ConversionMethod != nil {
		section.ConversionMethod = *update.ConversionMethod
	}
	if update.Rating != nil {
		section.Rating = *update.Rating
	}
	section.Touch()
	lib.Touch()

	if err := s.saveLibrary(lib); err != nil {
		return nil, err
	}

	s.indexSection(ctx, section)
	updated := *section
	return &updated, nil
}

// DeleteSection removes the section if present. Deleting a missing id is
// not an error.
func (s *Store) DeleteSection(ctx context.Context, sectionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.libMu.Lock()
	defer s.libMu.Unlock()

	lib, err := s.loadLibrary()
	if err != nil {
		return err
	}
	idx := lib.FindSection(sectionID)
	if idx < 0 {
		return nil
	}

	lib.Sections = append(lib.Sections[:idx], lib.Sections[idx+1:]...)
	lib.Touch()

	if err := s.saveLibrary(lib); err != nil {
		return err
	}

	if err := s.searchIndexer.DeleteSection(ctx, sectionID); err != nil {
		s.logger.Warn("search index delete failed", "section_id", sectionID, "error", err)
	}
	return nil
}

// SearchSections filters the library and orders the result. An empty filter
// returns every section in storage order.
func (s *Store) SearchSections(ctx context.Context, filter SearchFilter) ([]domain.Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !filter.SortBy.Valid() {
		return nil, errors.InvalidArgumentf("unknown sort order %q", filter.SortBy)
	}

	lib, err := s.loadLibrary()
	if err != nil {
		return nil, err
	}

	results := make([]domain.Section, 0, len(lib.Sections))
	for _, section := range lib.Sections {
		if filter.Query != "" && !section.MatchesQuery(filter.Query) {
			continue
		}
		if filter.BlockType != "" && section.BlockType != filter.BlockType {
			continue
		}
		if filter.MinComplexity != nil && section.ComplexityScore < *filter.MinComplexity {
			continue
		}
		if filter.MaxComplexity != nil && section.ComplexityScore > *filter.MaxComplexity {
			continue
		}
		if len(filter.Tags) > 0 && !hasAnyTag(&section, filter.Tags) {
			continue
		}
		results = append(results, section)
	}

	sortSections(results, filter.SortBy)
	return results, nil
}

func hasAnyTag(section *domain.Section, tags []string) bool {
	for _, tag := range tags {
		if section.HasTag(tag) {
			return true
		}
	}
	return false
}

// sortSections applies a stable sort so equal keys keep storage order.
// Name comparisons are collation-aware rather than byte-ordered.
func sortSections(sections []domain.Section, order SortOrder) {
	if order == SortNone {
		return
	}

	var less func(a, b *domain.Section) bool
	switch order {
	case SortDateDesc:
		less = func(a, b *domain.Section) bool { return a.CapturedAt > b.CapturedAt }
	case SortDateAsc:
		less = func(a, b *domain.Section) bool { return a.CapturedAt < b.CapturedAt }
	case SortNameAsc, SortNameDesc:
		coll := collate.New(language.Und, collate.IgnoreCase)
		if order == SortNameAsc {
			less = func(a, b *domain.Section) bool { return coll.CompareString(a.Name, b.Name) < 0 }
		} else {
			less = func(a, b *domain.Section) bool { return coll.CompareString(a.Name, b.Name) > 0 }
		}
	case SortComplexityDesc:
		less = func(a, b *domain.Section) bool { return a.ComplexityScore > b.ComplexityScore }
	case SortComplexityAsc:
		less = func(a, b *domain.Section) bool { return a.ComplexityScore < b.ComplexityScore }
	case SortUsedDesc:
		less = func(a, b *domain.Section) bool { return a.UsageCount > b.UsageCount }
	default:
		return
	}

	sort.SliceStable(sections, func(i, j int) bool {
		return less(&sections[i], &sections[j])
	})
}

// IncrementUsage bumps the usage counter and last-used timestamp. A missing
// id is a no-op, matching the fire-and-forget way usage is reported.
func (s *Store) IncrementUsage(ctx context.Context, sectionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.libMu.Lock()
	defer s.libMu.Unlock()

	lib, err := s.loadLibrary()
	if err != nil {
		return err
	}
	idx := lib.FindSection(sectionID)
	if idx < 0 {
		return nil
	}

	lib.Sections[idx].UsageCount++
	lib.Sections[idx].LastUsedAt = time.Now().UnixMilli()
	lib.Touch()

	return s.saveLibrary(lib)
}

// RateSection validates the rating and delegates to UpdateSection.
func (s *Store) RateSection(ctx context.Context, sectionID string, rating int) (*domain.Section, error) {
	if rating < 1 || rating > 5 {
		return nil, errors.InvalidArgumentf("rating must be between 1 and 5, got %d", rating)
	}
	return s.UpdateSection(ctx, sectionID, SectionUpdate{Rating: &rating})
}

// ExportLibrary returns a serialized snapshot of the full aggregate.
func (s *Store) ExportLibrary(ctx context.Context) (string, error) {
	lib, err := s.GetLibrary(ctx)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(lib)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "serialize library")
	}
	return string(data), nil
}

// ImportLibrary merges sections from a serialized snapshot, skipping ids
// already present (first write wins). Returns the number of sections added.
func (s *Store) ImportLibrary(ctx context.Context, serialized string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var payload struct {
		Sections []domain.Section `json:"sections"`
	}
	if err := json.Unmarshal([]byte(serialized), &payload); err != nil {
		return 0, errors.Wrap(err, errors.CodeInvalidFormat, "parse import payload")
	}
	if payload.Sections == nil {
		return 0, errors.InvalidFormat("import payload has no sections array")
	}

	s.libMu.Lock()
	defer s.libMu.Unlock()

	lib, err := s.loadLibrary()
	if err != nil {
		return 0, err
	}

	existing := make(map[string]struct{}, len(lib.Sections))
	for _, section := range lib.Sections {
		existing[section.ID] = struct{}{}
	}

	added := 0
	for _, section := range payload.Sections {
		if section.ID == "" {
			continue
		}
		if _, dup := existing[section.ID]; dup {
			continue
		}
		existing[section.ID] = struct{}{}
		lib.Sections = append(lib.Sections, section)
		s.indexSection(ctx, &section)
		added++
	}

	if added > 0 {
		lib.Touch()
		if err := s.saveLibrary(lib); err != nil {
			return 0, err
		}
	}

	s.logger.Info("library import finished", "added", added, "offered", len(payload.Sections))
	return added, nil
}

// GetLibraryStats computes summary statistics over the full library.
func (s *Store) GetLibraryStats(ctx context.Context) (*LibraryStats, error) {
	lib, err := s.GetLibrary(ctx)
	if err != nil {
		return nil, err
	}

	stats := &LibraryStats{
		TotalSections:    len(lib.Sections),
		TypeDistribution: make(map[domain.BlockType]int),
	}

	complexitySum := 0
	for _, section := range lib.Sections {
		stats.TypeDistribution[section.BlockType]++
		stats.TotalUsage += section.UsageCount
		complexitySum += section.ComplexityScore
	}
	if len(lib.Sections) > 0 {
		stats.AverageComplexity = float64(complexitySum) / float64(len(lib.Sections))
	}

	stats.MostUsed = topSections(lib.Sections, 5, func(a, b *domain.Section) bool {
		return a.UsageCount > b.UsageCount
	})
	stats.RecentlyCaptured = topSections(lib.Sections, 5, func(a, b *domain.Section) bool {
		return a.CapturedAt > b.CapturedAt
	})

	return stats, nil
}

func topSections(sections []domain.Section, n int, less func(a, b *domain.Section) bool) []domain.Section {
	sorted := make([]domain.Section, len(sections))
	copy(sorted, sections)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(&sorted[i], &sorted[j])
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// CleanOldSections removes sections captured more than maxAgeDays ago that
// were never used. Used sections are kept regardless of age.
func (s *Store) CleanOldSections(ctx context.Context, maxAgeDays int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if maxAgeDays <= 0 {
		return 0, errors.InvalidArgumentf("max age must be positive, got %d days", maxAgeDays)
	}

	s.libMu.Lock()
	defer s.libMu.Unlock()

	lib, err := s.loadLibrary()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().AddDate(0, 0, -maxAgeDays).UnixMilli()
	kept := lib.Sections[:0]
	var removed []string
	for _, section := range lib.Sections {
		if section.CapturedAt < cutoff && section.UsageCount == 0 {
			removed = append(removed, section.ID)
			continue
		}
		kept = append(kept, section)
	}

	if len(removed) == 0 {
		return 0, nil
	}

	lib.Sections = kept
	lib.Touch()
	if err := s.saveLibrary(lib); err != nil {
		return 0, err
	}

	for _, sectionID := range removed {
		if err := s.searchIndexer.DeleteSection(ctx, sectionID); err != nil {
			s.logger.Warn("search index delete failed", "section_id", sectionID, "error", err)
		}
	}
	s.logger.Info("cleaned old sections", "removed", len(removed), "max_age_days", maxAgeDays)
	return len(removed), nil
}

// indexSection updates the search index, logging failures instead of
// propagating them.
func (s *Store) indexSection(ctx context.Context, section *domain.Section) {
	if err := s.searchIndexer.IndexSection(ctx, section); err != nil {
		s.logger.Warn("search index update failed", "section_id", section.ID, "error", err)
	}
}
