package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/sectionsmith/sectionsmith-server/internal/bridge"
	"github.com/sectionsmith/sectionsmith-server/internal/config"
	"github.com/sectionsmith/sectionsmith-server/internal/convert"
	"github.com/sectionsmith/sectionsmith-server/internal/logger"
)

// ConverterSet holds the conversion strategies registered at startup. The
// chat-page strategy is only present when enabled in configuration.
type ConverterSet struct {
	Converters []convert.Converter
}

// timeoutBridge bounds how long a manual delivery waits for the user to
// drop a response file.
type timeoutBridge struct {
	inner   convert.Bridge
	timeout time.Duration
}

func (b *timeoutBridge) Deliver(ctx context.Context, req convert.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.inner.Deliver(ctx, req)
}

// ProvideConverters provides the conversion strategies.
func ProvideConverters(i do.Injector) (*ConverterSet, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	apiConverter := convert.NewAPIConverter(storeHandle.Credentials(), log.Logger,
		convert.WithEndpoint(cfg.LLM.Endpoint),
		convert.WithModel(cfg.LLM.Model),
	)

	drop, err := bridge.NewFileDrop(cfg.Bridge.Dir, log.Logger)
	if err != nil {
		return nil, err
	}
	manualConverter := convert.NewManualConverter(&timeoutBridge{
		inner:   drop,
		timeout: cfg.Bridge.ResponseTimeout,
	})
	log.Info("Manual bridge ready", "dir", drop.Dir(), "response_timeout", cfg.Bridge.ResponseTimeout)

	converters := []convert.Converter{apiConverter, manualConverter}

	if cfg.ChatPage.Enabled {
		converters = append(converters, convert.NewChatPageConverter(convert.ChatPageConfig{
			ChatURL:  cfg.ChatPage.URL,
			Headless: cfg.ChatPage.Headless,
		}, log.Logger))
		log.Info("Chat page strategy enabled", "url", cfg.ChatPage.URL, "headless", cfg.ChatPage.Headless)
	}

	return &ConverterSet{Converters: converters}, nil
}
