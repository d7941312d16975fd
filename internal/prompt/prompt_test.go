package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
)

func sampleInput(markup string) Input {
	return Input{
		Descriptor: &domain.CaptureDescriptor{
			Markup:     markup,
			SourceURL:  "https://shop.example.com/collections/all",
			TagName:    "SECTION",
			ClassNames: "hero-banner",
		},
		Classification: domain.ClassificationResult{
			Type:       domain.BlockTypeHero,
			Confidence: 0.75,
		},
		Complexity: domain.ComplexityResult{Score: 4},
	}
}

func TestBuild_ContainsContextAndFormat(t *testing.T) {
	out := Build(sampleInput(`<section class="hero-banner">hi</section>`))

	assert.Contains(t, out, "https://shop.example.com/collections/all")
	assert.Contains(t, out, `<section class="hero-banner">`)
	assert.Contains(t, out, "Detected type: hero (confidence: 75%)")
	assert.Contains(t, out, "Complexity: 4/10")
	assert.Contains(t, out, "```liquid")
	assert.Contains(t, out, "```json")
	assert.Contains(t, out, "```css")
	assert.Contains(t, out, "```javascript")
}

func TestBuild_EmbedsMarkupVerbatimUnderCap(t *testing.T) {
	markup := `<div class="cta"><a href="/start">Go</a></div>`
	out := Build(sampleInput(markup))

	assert.Contains(t, out, markup)
	assert.NotContains(t, out, TruncationMarker)
}

func TestBuild_TruncatesWithMarkerOverCap(t *testing.T) {
	markup := "<div>" + strings.Repeat("x", LeanMarkupCap) + "</div>"
	out := Build(sampleInput(markup))

	assert.Contains(t, out, TruncationMarker)
	assert.NotContains(t, out, "</div>\n```")
}

func TestEmbedMarkup_NeverExceedsCapPlusMarker(t *testing.T) {
	markup := strings.Repeat("a", 3*LeanMarkupCap)
	embedded := EmbedMarkup(markup, LeanMarkupCap)

	assert.Len(t, embedded, LeanMarkupCap+len(TruncationMarker))
	assert.True(t, strings.HasSuffix(embedded, TruncationMarker))
}

func TestBuildWithScreenshot_MentionsAttachment(t *testing.T) {
	in := sampleInput(`<section>hi</section>`)
	in.Descriptor.Screenshot = &domain.Screenshot{
		ImageData:     "data:image/png;base64,AAAA",
		NaturalWidth:  1280,
		NaturalHeight: 540,
	}
	in.Descriptor.StyleSnapshot = map[string]string{
		"display":          "flex",
		"background-color": "rgb(12, 14, 20)",
		"box-shadow":       "none",
	}

	out := BuildWithScreenshot(in)

	assert.Contains(t, out, "screenshot of the section is attached")
	assert.Contains(t, out, "Dimensions: 1280x540px")
	assert.Contains(t, out, "display: flex;")
	assert.Contains(t, out, "background-color: rgb(12, 14, 20);")
	assert.NotContains(t, out, "box-shadow")
}

func TestBuildWithScreenshot_WithoutScreenshot(t *testing.T) {
	out := BuildWithScreenshot(sampleInput(`<section>hi</section>`))

	assert.Contains(t, out, "Dimensions: N/A")
	assert.NotContains(t, out, "is attached")
	assert.Contains(t, out, "/* no styles captured */")
}

func TestStyleReference_AllValuesFiltered(t *testing.T) {
	out := StyleReference(map[string]string{"box-shadow": "none", "line-height": "normal"})

	assert.Equal(t, "/* default styles */\n", out)
}
