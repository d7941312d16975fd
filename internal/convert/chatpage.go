package convert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
	"github.com/sectionsmith/sectionsmith-server/internal/errors"
)

// ChatPageConfig drives a headless browser session against the LLM's chat
// UI. Selectors default to the Perplexity web app but are configurable
// since chat frontends change without notice.
type ChatPageConfig struct {
	ChatURL          string
	InputSelector    string
	SubmitSelector   string
	ResponseSelector string

	// Budget bounds the whole session; polling stops when the response
	// text has been stable for StableFor.
	Budget       time.Duration
	PollInterval time.Duration
	StableFor    time.Duration

	Headless bool
}

func (c *ChatPageConfig) applyDefaults() {
	if c.ChatURL == "" {
		c.ChatURL = "https://www.perplexity.ai/"
	}
	if c.InputSelector == "" {
		c.InputSelector = "textarea"
	}
	if c.SubmitSelector == "" {
		c.SubmitSelector = `button[aria-label="Submit"]`
	}
	if c.ResponseSelector == "" {
		c.ResponseSelector = ".prose"
	}
	if c.Budget <= 0 {
		c.Budget = 2 * time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.StableFor <= 0 {
		c.StableFor = 6 * time.Second
	}
}

// ChatPageConverter is the automated strategy: it types the prompt into a
// live chat page, submits it, and watches the page until the streamed
// answer stops changing.
type ChatPageConverter struct {
	cfg    ChatPageConfig
	logger *slog.Logger
}

func NewChatPageConverter(cfg ChatPageConfig, logger *slog.Logger) *ChatPageConverter {
	cfg.applyDefaults()
	return &ChatPageConverter{cfg: cfg, logger: logger}
}

func (c *ChatPageConverter) Method() domain.ConversionMethod {
	return domain.MethodAutomated
}

// Convert runs one full chat session. The screenshot cannot be attached
// through the automated path, so the prompt alone carries the capture.
func (c *ChatPageConverter) Convert(ctx context.Context, req Request) (*domain.ConversionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Budget)
	defer cancel()

	opts := chromedp.DefaultExecAllocatorOptions[:]
	if !c.cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	c.logger.Info("starting chat page session", "url", c.cfg.ChatURL)

	err := chromedp.Run(browserCtx,
		chromedp.Navigate(c.cfg.ChatURL),
		chromedp.WaitVisible(c.cfg.InputSelector, chromedp.ByQuery),
		chromedp.SendKeys(c.cfg.InputSelector, req.Prompt, chromedp.ByQuery),
		c.submitAction(),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConversionFailed, "chat page submission failed")
	}

	content, err := c.awaitResponse(browserCtx)
	if err != nil {
		return nil, err
	}

	result := ParseResponse(content)
	return &result, nil
}

// submitAction clicks the submit button when present, falling back to Enter
// in the input box.
func (c *ChatPageConverter) submitAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		var clickable bool
		script := fmt.Sprintf("document.querySelector(%q) !== null", c.cfg.SubmitSelector)
		if err := chromedp.Evaluate(script, &clickable).Do(ctx); err == nil && clickable {
			return chromedp.Click(c.cfg.SubmitSelector, chromedp.ByQuery).Do(ctx)
		}
		return chromedp.SendKeys(c.cfg.InputSelector, kb.Enter, chromedp.ByQuery).Do(ctx)
	})
}

// awaitResponse polls the response node until its text survives StableFor
// without changing. Streaming answers keep mutating the node, so stability
// is the only reliable completion signal.
func (c *ChatPageConverter) awaitResponse(ctx context.Context) (string, error) {
	script := fmt.Sprintf(
		`(() => { const els = document.querySelectorAll(%q); return els.length ? els[els.length - 1].innerText : ""; })()`,
		c.cfg.ResponseSelector,
	)

	var last string
	stableSince := time.Now()
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", errors.ConversionFailed("timed out waiting for chat response")
		case <-ticker.C:
		}

		var current string
		if err := chromedp.Run(ctx, chromedp.Evaluate(script, &current)); err != nil {
			return "", errors.Wrap(err, errors.CodeConversionFailed, "read chat response")
		}

		if current != last {
			last = current
			stableSince = time.Now()
			continue
		}
		if strings.TrimSpace(last) != "" && time.Since(stableSince) >= c.cfg.StableFor {
			c.logger.Info("chat response stabilized", "length", len(last))
			return last, nil
		}
	}
}
