package bridge

import (
	"context"
	"encoding/base64"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sectionsmith/sectionsmith-server/internal/convert"
	"github.com/sectionsmith/sectionsmith-server/internal/domain"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// respondWhenPrompted watches the exchange dir and drops a response file as
// soon as a prompt file shows up, simulating the user's paste.
func respondWhenPrompted(t *testing.T, dir, response string) {
	t.Helper()
	go func() {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			entries, err := os.ReadDir(dir)
			if err == nil {
				for _, e := range entries {
					if strings.HasSuffix(e.Name(), promptSuffix) {
						token := strings.TrimSuffix(e.Name(), promptSuffix)
						path := filepath.Join(dir, token+responseSuffix)
						_ = os.WriteFile(path, []byte(response), 0o644)
						return
					}
				}
			}
			time.Sleep(20 * time.Millisecond)
		}
	}()
}

func TestFileDrop_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileDrop(dir, discard())
	require.NoError(t, err)

	respondWhenPrompted(t, dir, "```liquid\n<p>pasted</p>\n```")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	content, err := b.Deliver(ctx, convert.Request{Prompt: "convert this section"})

	require.NoError(t, err)
	assert.Contains(t, content, "<p>pasted</p>")

	// The prompt file stays behind, carrying instructions and the prompt.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var promptFile string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), promptSuffix) {
			promptFile = filepath.Join(dir, e.Name())
		}
	}
	require.NotEmpty(t, promptFile)
	raw, err := os.ReadFile(promptFile)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "convert this section")
	assert.Contains(t, string(raw), responseSuffix)
}

func TestFileDrop_ExportsScreenshot(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileDrop(dir, discard())
	require.NoError(t, err)

	respondWhenPrompted(t, dir, "```liquid\nx\n```")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = b.Deliver(ctx, convert.Request{
		Prompt: "p",
		Screenshot: &domain.Screenshot{
			ImageData: "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes")),
		},
	})
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var found bool
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), screenshotSuffix) {
			found = true
		}
	}
	assert.True(t, found, "screenshot file should be exported")
}

func TestFileDrop_ContextExpiry(t *testing.T) {
	dir := t.TempDir()
	b, err := NewFileDrop(dir, discard())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	_, err = b.Deliver(ctx, convert.Request{Prompt: "p"})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
