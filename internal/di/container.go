// Package di provides dependency injection configuration for the SectionSmith server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/sectionsmith/sectionsmith-server/internal/analyzer"
	"github.com/sectionsmith/sectionsmith-server/internal/config"
	"github.com/sectionsmith/sectionsmith-server/internal/di/providers"
	"github.com/sectionsmith/sectionsmith-server/internal/logger"
	"github.com/sectionsmith/sectionsmith-server/internal/media/thumbs"
	"github.com/sectionsmith/sectionsmith-server/internal/metrics"
	"github.com/sectionsmith/sectionsmith-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Capture analysis
	do.Provide(injector, providers.ProvideAnalyzer)
	do.Provide(injector, providers.ProvideThumbsProcessor)

	// Conversion strategies
	do.Provide(injector, providers.ProvideConverters)

	// Business services
	do.Provide(injector, providers.ProvideCaptureService)
	do.Provide(injector, providers.ProvideLibraryService)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*analyzer.Analyzer](injector)
	_ = do.MustInvoke[*thumbs.Processor](injector)
	_ = do.MustInvoke[*providers.ConverterSet](injector)

	// Business services
	_ = do.MustInvoke[*service.CaptureService](injector)
	_ = do.MustInvoke[*service.LibraryService](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	// Trigger search reindex if needed
	providers.TriggerSearchReindexIfNeeded(injector)

	return nil
}
