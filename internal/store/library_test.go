package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
	"github.com/sectionsmith/sectionsmith-server/internal/errors"
)

// setupTestStore creates a temporary store for testing
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func heroDraft(name string, complexity int) *domain.Section {
	return &domain.Section{
		Name:            name,
		SourceURL:       "https://www.example.com/page",
		BlockType:       domain.BlockTypeHero,
		ComplexityScore: complexity,
		Files: domain.SectionFiles{
			Template: "<section>...</section>",
			Schema:   "{}",
		},
		ConversionMethod: domain.MethodManual,
	}
}

func TestSaveSection_FillsDerivedFields(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	before, err := s.GetLibrary(ctx)
	require.NoError(t, err)

	section, err := s.SaveSection(ctx, heroDraft("Hero A", 7))
	require.NoError(t, err)

	assert.NotEmpty(t, section.ID)
	assert.Contains(t, section.ID, "sec-")
	assert.Equal(t, "example.com", section.SourceDomain)
	assert.Zero(t, section.UsageCount)
	assert.Zero(t, section.Rating)
	assert.NotZero(t, section.CapturedAt)

	after, err := s.GetLibrary(ctx)
	require.NoError(t, err)
	assert.Len(t, after.Sections, 1)
	assert.GreaterOrEqual(t, after.LastUpdatedAt, before.LastUpdatedAt)
}

func TestGetLibrary_EmptyDefault(t *testing.T) {
	s := setupTestStore(t)

	lib, err := s.GetLibrary(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, lib.Sections)
	assert.Empty(t, lib.Sections)
	assert.Equal(t, domain.LibraryVersion, lib.Version)
	assert.NotZero(t, lib.LastUpdatedAt)
}

func TestGetSection_NotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetSection(context.Background(), "sec-missing")

	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestUpdateSection_MergesPartialFields(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveSection(ctx, heroDraft("Hero A", 7))
	require.NoError(t, err)

	name := "Hero A renamed"
	tags := []string{"landing", "dark"}
	updated, err := s.UpdateSection(ctx, saved.ID, SectionUpdate{Name: &name, Tags: &tags})
	require.NoError(t, err)

	assert.Equal(t, "Hero A renamed", updated.Name)
	assert.Equal(t, tags, updated.Tags)
	assert.Equal(t, saved.ComplexityScore, updated.ComplexityScore)
	assert.NotZero(t, updated.UpdatedAt)

	_, err = s.UpdateSection(ctx, "sec-missing", SectionUpdate{Name: &name})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestDeleteSection_Idempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveSection(ctx, heroDraft("Hero A", 7))
	require.NoError(t, err)

	require.NoError(t, s.DeleteSection(ctx, saved.ID))
	require.NoError(t, s.DeleteSection(ctx, saved.ID))

	lib, err := s.GetLibrary(ctx)
	require.NoError(t, err)
	assert.Empty(t, lib.Sections)
}

func TestSearchSections_QueryAndComplexitySort(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.SaveSection(ctx, heroDraft("Hero A", 7))
	require.NoError(t, err)
	_, err = s.SaveSection(ctx, heroDraft("Hero B", 3))
	require.NoError(t, err)
	footer := heroDraft("Footer C", 5)
	footer.BlockType = domain.BlockTypeFooter
	_, err = s.SaveSection(ctx, footer)
	require.NoError(t, err)

	results, err := s.SearchSections(ctx, SearchFilter{Query: "hero", SortBy: SortComplexityDesc})
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, "Hero A", results[0].Name)
	assert.Equal(t, "Hero B", results[1].Name)
}

func TestSearchSections_Filters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	tagged := heroDraft("Hero A", 7)
	tagged.Tags = []string{"landing"}
	_, err := s.SaveSection(ctx, tagged)
	require.NoError(t, err)

	footer := heroDraft("Footer C", 2)
	footer.BlockType = domain.BlockTypeFooter
	_, err = s.SaveSection(ctx, footer)
	require.NoError(t, err)

	byType, err := s.SearchSections(ctx, SearchFilter{BlockType: domain.BlockTypeFooter})
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "Footer C", byType[0].Name)

	minC, maxC := 5, 10
	byRange, err := s.SearchSections(ctx, SearchFilter{MinComplexity: &minC, MaxComplexity: &maxC})
	require.NoError(t, err)
	require.Len(t, byRange, 1)
	assert.Equal(t, "Hero A", byRange[0].Name)

	byTag, err := s.SearchSections(ctx, SearchFilter{Tags: []string{"landing", "unused"}})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, "Hero A", byTag[0].Name)

	_, err = s.SearchSections(ctx, SearchFilter{SortBy: "popularity"})
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestSearchSections_NameSort(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"banner", "Apex", "Café"} {
		_, err := s.SaveSection(ctx, heroDraft(name, 5))
		require.NoError(t, err)
	}

	results, err := s.SearchSections(ctx, SearchFilter{SortBy: SortNameAsc})
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, "Apex", results[0].Name)
	assert.Equal(t, "banner", results[1].Name)
	assert.Equal(t, "Café", results[2].Name)
}

func TestIncrementUsage(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveSection(ctx, heroDraft("Hero A", 7))
	require.NoError(t, err)

	require.NoError(t, s.IncrementUsage(ctx, saved.ID))
	require.NoError(t, s.IncrementUsage(ctx, saved.ID))
	require.NoError(t, s.IncrementUsage(ctx, "sec-missing"))

	got, err := s.GetSection(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)
	assert.NotZero(t, got.LastUsedAt)
}

func TestRateSection(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveSection(ctx, heroDraft("Hero A", 7))
	require.NoError(t, err)

	_, err = s.RateSection(ctx, saved.ID, 6)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = s.RateSection(ctx, saved.ID, 0)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = s.RateSection(ctx, saved.ID, 4)
	require.NoError(t, err)

	got, err := s.GetSection(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Rating)
}

func TestImportLibrary_DedupsByID(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveSection(ctx, heroDraft("Hero A", 7))
	require.NoError(t, err)

	payload := `{"sections":[` +
		`{"id":"` + saved.ID + `","name":"Hero A duplicate","source_url":"https://x.test","block_type":"hero"},` +
		`{"id":"sec-imported-1","name":"Imported","source_url":"https://y.test","block_type":"cta"}` +
		`]}`

	added, err := s.ImportLibrary(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	lib, err := s.GetLibrary(ctx)
	require.NoError(t, err)
	assert.Len(t, lib.Sections, 2)

	// First write wins: the existing section keeps its name.
	got, err := s.GetSection(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hero A", got.Name)
}

func TestImportLibrary_RejectsMalformedPayload(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.ImportLibrary(ctx, "not json at all")
	assert.ErrorIs(t, err, errors.ErrInvalidFormat)

	_, err = s.ImportLibrary(ctx, `{"sections":"nope"}`)
	assert.ErrorIs(t, err, errors.ErrInvalidFormat)

	_, err = s.ImportLibrary(ctx, `{"version":1}`)
	assert.ErrorIs(t, err, errors.ErrInvalidFormat)
}

func TestExportImportRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.SaveSection(ctx, heroDraft("Hero A", 7))
	require.NoError(t, err)

	exported, err := s.ExportLibrary(ctx)
	require.NoError(t, err)

	other := setupTestStore(t)
	added, err := other.ImportLibrary(ctx, exported)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}

func TestGetLibraryStats(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a, err := s.SaveSection(ctx, heroDraft("Hero A", 8))
	require.NoError(t, err)
	footer := heroDraft("Footer C", 2)
	footer.BlockType = domain.BlockTypeFooter
	_, err = s.SaveSection(ctx, footer)
	require.NoError(t, err)

	require.NoError(t, s.IncrementUsage(ctx, a.ID))
	require.NoError(t, s.IncrementUsage(ctx, a.ID))
	require.NoError(t, s.IncrementUsage(ctx, a.ID))

	stats, err := s.GetLibraryStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.TotalSections)
	assert.Equal(t, 1, stats.TypeDistribution[domain.BlockTypeHero])
	assert.Equal(t, 1, stats.TypeDistribution[domain.BlockTypeFooter])
	assert.Equal(t, 3, stats.TotalUsage)
	assert.InDelta(t, 5.0, stats.AverageComplexity, 0.001)
	require.NotEmpty(t, stats.MostUsed)
	assert.Equal(t, a.ID, stats.MostUsed[0].ID)
	assert.Len(t, stats.RecentlyCaptured, 2)
}

func TestGetLibraryStats_EmptyLibrary(t *testing.T) {
	s := setupTestStore(t)

	stats, err := s.GetLibraryStats(context.Background())

	require.NoError(t, err)
	assert.Zero(t, stats.TotalSections)
	assert.Zero(t, stats.AverageComplexity)
}

func TestCleanOldSections_KeepsUsedSections(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	old := time.Now().AddDate(0, 0, -120).UnixMilli()

	stale := heroDraft("Stale", 3)
	stale.CapturedAt = old
	_, err := s.SaveSection(ctx, stale)
	require.NoError(t, err)

	veteran := heroDraft("Veteran", 3)
	veteran.CapturedAt = old
	savedVeteran, err := s.SaveSection(ctx, veteran)
	require.NoError(t, err)
	require.NoError(t, s.IncrementUsage(ctx, savedVeteran.ID))
	require.NoError(t, s.IncrementUsage(ctx, savedVeteran.ID))

	fresh := heroDraft("Fresh", 3)
	_, err = s.SaveSection(ctx, fresh)
	require.NoError(t, err)

	removed, err := s.CleanOldSections(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	lib, err := s.GetLibrary(ctx)
	require.NoError(t, err)
	require.Len(t, lib.Sections, 2)
	names := []string{lib.Sections[0].Name, lib.Sections[1].Name}
	assert.Contains(t, names, "Veteran")
	assert.Contains(t, names, "Fresh")
}

func TestCleanOldSections_NoRemovals(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.SaveSection(ctx, heroDraft("Fresh", 3))
	require.NoError(t, err)

	removed, err := s.CleanOldSections(ctx, 90)
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = s.CleanOldSections(ctx, 0)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestLibraryPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")
	ctx := context.Background()

	s, err := New(path, nil)
	require.NoError(t, err)
	saved, err := s.SaveSection(ctx, heroDraft("Hero A", 7))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := New(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetSection(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hero A", got.Name)
}
