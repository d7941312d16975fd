package providers

import (
	"github.com/samber/do/v2"

	"github.com/sectionsmith/sectionsmith-server/internal/analyzer"
	"github.com/sectionsmith/sectionsmith-server/internal/config"
	"github.com/sectionsmith/sectionsmith-server/internal/logger"
	"github.com/sectionsmith/sectionsmith-server/internal/media/thumbs"
	"github.com/sectionsmith/sectionsmith-server/internal/metrics"
	"github.com/sectionsmith/sectionsmith-server/internal/service"
)

// ProvideMetrics provides the Prometheus metrics registry.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(), nil
}

// ProvideAnalyzer provides the capture classifier.
func ProvideAnalyzer(i do.Injector) (*analyzer.Analyzer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return analyzer.New(cfg.Analyzer.CacheSize)
}

// ProvideThumbsProcessor provides the screenshot thumbnail processor.
func ProvideThumbsProcessor(i do.Injector) (*thumbs.Processor, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return thumbs.NewProcessor(log.Logger), nil
}

// ProvideCaptureService provides the capture and conversion service.
func ProvideCaptureService(i do.Injector) (*service.CaptureService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	an := do.MustInvoke[*analyzer.Analyzer](i)
	proc := do.MustInvoke[*thumbs.Processor](i)
	converterSet := do.MustInvoke[*ConverterSet](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCaptureService(storeHandle.Store, an, proc, converterSet.Converters, m, log.Logger), nil
}

// ProvideLibraryService provides the section library service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLibraryService(storeHandle.Store, indexHandle.SearchIndex, log.Logger), nil
}
