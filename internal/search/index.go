package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
)

// mappingVersion is incremented whenever the index mapping changes, which
// triggers an automatic rebuild on startup.
const mappingVersion = "1"

// SearchIndex wraps a Bleve index with section-specific operations. It
// satisfies the store's SearchIndexer so saves and deletes flow through
// automatically.
//
// All public methods are safe for concurrent use; the mutex guards against
// index swaps during rebuilds.
type SearchIndex struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations (uses discard if nil)
}

// NewSearchIndex opens the index at DataPath, creating or rebuilding it when
// missing, corrupted, or built against an older mapping.
func NewSearchIndex(opts Options) (*SearchIndex, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	needsRebuild := false
	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(existingVersion) != mappingVersion {
			logger.Info("search index mapping outdated, will rebuild",
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		opened, err := bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate",
				"path", indexPath,
				"error", err,
			)
			needsRebuild = true
		} else {
			index = opened
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
		index = nil
	}

	if index == nil {
		created, err := bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		index = created
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0644); err != nil {
			logger.Warn("failed to write search version file", "error", err)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &SearchIndex{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *SearchIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexSection adds or updates one section in the index.
func (s *SearchIndex) IndexSection(_ context.Context, section *domain.Section) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc := FromSection(section)
	return s.index.Index(doc.ID, doc.ToMap())
}

// DeleteSection removes a section from the index.
func (s *SearchIndex) DeleteSection(_ context.Context, sectionID string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Delete(sectionID)
}

// DocumentCount returns the total number of indexed sections.
func (s *SearchIndex) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and reindexes the given sections in batches.
// Acquires an exclusive lock; search is unavailable while it runs.
func (s *SearchIndex) Rebuild(sections []domain.Section) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.index = index

	const batchSize = 500
	for i := 0; i < len(sections); i += batchSize {
		end := min(i+batchSize, len(sections))

		batch := s.index.NewBatch()
		for j := i; j < end; j++ {
			doc := FromSection(&sections[j])
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}

	s.logger.Info("rebuilt search index", "path", s.path, "sections", len(sections))
	return nil
}
