package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/sectionsmith/sectionsmith-server/internal/config"
	"github.com/sectionsmith/sectionsmith-server/internal/logger"
	"github.com/sectionsmith/sectionsmith-server/internal/search"
	"github.com/sectionsmith/sectionsmith-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.SearchIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve search index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	index, err := search.NewSearchIndex(search.Options{
		DataPath: cfg.SearchPath(),
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	// Wire to the store so saves and deletes index automatically.
	storeHandle.SetSearchIndexer(index)

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{SearchIndex: index}, nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index when the store
// already holds sections, which happens after a mapping bump or a restore.
// Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	libraryService := do.MustInvoke[*service.LibraryService](i)
	log := do.MustInvoke[*logger.Logger](i)

	docCount, _ := indexHandle.DocumentCount()
	if docCount > 0 {
		return
	}

	ctx := context.Background()
	lib, err := storeHandle.GetLibrary(ctx)
	if err != nil || len(lib.Sections) == 0 {
		return
	}

	log.Info("Search index is empty but sections exist, triggering initial reindex",
		"section_count", len(lib.Sections),
	)

	go func() {
		if err := libraryService.RebuildIndex(context.Background()); err != nil {
			log.Error("Initial reindex failed", "error", err)
		}
	}()
}
