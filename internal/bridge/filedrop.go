// Package bridge implements the manual conversion path as a file exchange.
// The rendered prompt (and screenshot, when present) is written into an
// exchange directory for the user to paste into their LLM of choice; the
// pasted answer is picked up from a matching response file.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sectionsmith/sectionsmith-server/internal/convert"
	"github.com/sectionsmith/sectionsmith-server/internal/id"
	"github.com/sectionsmith/sectionsmith-server/internal/media/thumbs"
)

const (
	promptSuffix     = ".prompt.md"
	responseSuffix   = ".response.md"
	screenshotSuffix = ".screenshot.png"

	// Editors often fire a create event before the content is flushed;
	// a short settle delay avoids reading half-written responses.
	settleDelay = 200 * time.Millisecond
)

// FileDrop satisfies convert.Bridge through the filesystem. Each delivery
// gets its own exchange token so concurrent captures don't collide.
type FileDrop struct {
	dir    string
	logger *slog.Logger
}

func NewFileDrop(dir string, logger *slog.Logger) (*FileDrop, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create exchange directory: %w", err)
	}
	return &FileDrop{dir: dir, logger: logger}, nil
}

// Dir returns the exchange directory.
func (b *FileDrop) Dir() string {
	return b.dir
}

// Deliver writes the prompt files and blocks until the user drops a
// response file or ctx expires. The prompt file tells the user where to
// put the answer.
func (b *FileDrop) Deliver(ctx context.Context, req convert.Request) (string, error) {
	token, err := id.Generate("xch")
	if err != nil {
		return "", fmt.Errorf("generate exchange token: %w", err)
	}

	responseName := token + responseSuffix
	promptBody := fmt.Sprintf(
		"<!-- Paste the full LLM response into %s in this directory. -->\n\n%s",
		responseName, req.Prompt,
	)
	if err := os.WriteFile(filepath.Join(b.dir, token+promptSuffix), []byte(promptBody), 0o644); err != nil {
		return "", fmt.Errorf("write prompt file: %w", err)
	}

	if req.Screenshot != nil && req.Screenshot.ImageData != "" {
		raw, _, err := thumbs.DecodeDataURL(req.Screenshot.ImageData)
		if err != nil {
			b.logger.Warn("skipping screenshot export", "error", err)
		} else if err := os.WriteFile(filepath.Join(b.dir, token+screenshotSuffix), raw, 0o644); err != nil {
			b.logger.Warn("skipping screenshot export", "error", err)
		}
	}

	b.logger.Info("manual bridge waiting for response",
		"dir", b.dir,
		"response_file", responseName,
	)

	return b.awaitResponse(ctx, responseName)
}

func (b *FileDrop) awaitResponse(ctx context.Context, responseName string) (string, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return "", fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(b.dir); err != nil {
		return "", fmt.Errorf("watch exchange directory: %w", err)
	}

	target := filepath.Join(b.dir, responseName)

	// The file may have landed before the watch was established.
	if content, ok := b.readResponse(target); ok {
		return content, nil
	}

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("waiting for %s: %w", responseName, ctx.Err())
		case event, ok := <-watcher.Events:
			if !ok {
				return "", fmt.Errorf("watcher closed")
			}
			if filepath.Base(event.Name) != responseName {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			time.Sleep(settleDelay)
			if content, ok := b.readResponse(target); ok {
				return content, nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return "", fmt.Errorf("watcher closed")
			}
			b.logger.Warn("exchange watcher error", "error", err)
		}
	}
}

// readResponse returns the file content when it exists and is non-empty.
func (b *FileDrop) readResponse(path string) (string, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	content := string(raw)
	if strings.TrimSpace(content) == "" {
		return "", false
	}
	return content, true
}
