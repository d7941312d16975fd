// Package prompt renders conversion instructions for the LLM from a capture
// and its analysis. Building a prompt never fails; missing data produces
// sensible placeholder lines instead.
package prompt

import (
	"fmt"
	"math"
	"strings"

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
)

// Markup embedding caps per variant. Truncation appends Marker so a shortened
// payload is never mistaken for the full capture.
const (
	ScreenshotMarkupCap = 8000
	LeanMarkupCap       = 5000
	TruncationMarker    = "\n... (truncated)"
)

// Input carries everything a prompt variant can draw on.
type Input struct {
	Descriptor     *domain.CaptureDescriptor
	Classification domain.ClassificationResult
	Complexity     domain.ComplexityResult
}

// Build renders the lean text-only prompt used by the direct API strategy.
func Build(in Input) string {
	d := in.Descriptor
	var b strings.Builder

	b.WriteString("SHOPIFY SECTION CONVERSION\n\n")
	writeContext(&b, in, false)

	b.WriteString(`
OBJECTIVES:
1. Generate a production-ready Shopify .liquid file
2. Create a complete schema.json with settings and blocks
3. Responsive CSS (Shopify breakpoints: 750px, 990px)
4. Modern JavaScript where needed
`)
	b.WriteString(shopifyRequirements)
	b.WriteString(outputFormat)

	b.WriteString("\nCAPTURED HTML:\n```html\n")
	b.WriteString(EmbedMarkup(d.Markup, LeanMarkupCap))
	b.WriteString("\n```\n\nNow generate the complete Shopify code.\n")

	return b.String()
}

// BuildWithScreenshot renders the screenshot-aware prompt used by the manual
// bridge and chat-page strategies. It references the attached image, embeds a
// style reference block, and allows a larger markup window.
func BuildWithScreenshot(in Input) string {
	d := in.Descriptor
	var b strings.Builder

	b.WriteString("SHOPIFY SECTION CONVERSION WITH SCREENSHOT\n\n")
	if d.HasScreenshot() {
		b.WriteString("A clean screenshot of the section is attached. Use it to reproduce the design exactly.\n\n")
	}
	writeContext(&b, in, true)

	b.WriteString(`
OBJECTIVES:
1. VISUALLY REPRODUCE the section exactly, based on the screenshot
2. Generate a production-ready Shopify .liquid file
3. Create a complete schema.json with settings and blocks
4. Responsive CSS (Shopify breakpoints: 750px, 990px)
5. Modern JavaScript where needed
`)
	b.WriteString(shopifyRequirements)
	b.WriteString(`
VISUAL FIDELITY:
- Reproduce the exact colors, typography and spacing from the screenshot
- Respect the visual hierarchy and proportions
- Handle responsive design sensibly
`)
	b.WriteString(outputFormat)

	b.WriteString("\nAPPLIED CSS STYLES (reference):\n```css\n")
	b.WriteString(StyleReference(d.StyleSnapshot))
	b.WriteString("```\n")

	b.WriteString("\nFULL SECTION HTML:\n```html\n")
	b.WriteString(EmbedMarkup(d.Markup, ScreenshotMarkupCap))
	b.WriteString("\n```\n\nNow generate the Shopify code, matching the attached screenshot.\n")

	return b.String()
}

const shopifyRequirements = `
SHOPIFY REQUIREMENTS:
- Use {{ section.settings.* }} for editable options
- Implement {% for block in section.blocks %} for repeatable elements
- Add {{ block.shopify_attributes }} on every block
- Image filters: {{ 'image.jpg' | image_url: width: 800 }}
- WCAG AA accessibility (aria-labels, alt texts)
- Multilingual support via {{ 'key' | t }}
`

const outputFormat = `
STRICT RESPONSE FORMAT:

` + "```liquid\n[Complete .liquid file]\n```\n\n" +
	"```json\n[Complete, valid schema.json]\n```\n\n" +
	"```css\n[Optimized CSS if needed]\n```\n\n" +
	"```javascript\n[Modern JavaScript if needed]\n```\n"

func writeContext(b *strings.Builder, in Input, withDimensions bool) {
	d := in.Descriptor

	blockType := in.Classification.Type
	if blockType == "" {
		blockType = domain.BlockTypeGeneric
	}
	confidence := int(math.Round(in.Classification.Confidence * 100))

	b.WriteString("CONTEXT:\n")
	fmt.Fprintf(b, "- Source page: %s\n", d.SourceURL)
	fmt.Fprintf(b, "- Element: <%s class=%q>\n", strings.ToLower(d.TagName), d.ClassNames)
	fmt.Fprintf(b, "- Detected type: %s (confidence: %d%%)\n", blockType, confidence)
	fmt.Fprintf(b, "- Complexity: %d/10\n", in.Complexity.Score)
	if withDimensions {
		dims := "N/A"
		if d.HasScreenshot() {
			dims = fmt.Sprintf("%dx%dpx", d.Screenshot.NaturalWidth, d.Screenshot.NaturalHeight)
		}
		fmt.Fprintf(b, "- Dimensions: %s\n", dims)
	}
}

// EmbedMarkup returns the markup verbatim when it fits the cap, otherwise the
// first cap bytes followed by the truncation marker. This is the only place
// captured markup is ever shortened.
func EmbedMarkup(markup string, limit int) string {
	if len(markup) <= limit {
		return markup
	}
	return markup[:limit] + TruncationMarker
}

// styleAllowlist is the ordered set of computed-style properties worth
// forwarding to the LLM as a visual reference.
var styleAllowlist = []string{
	"display", "position", "width", "height", "max-width", "max-height",
	"padding", "margin", "background", "background-color", "color",
	"font-family", "font-size", "font-weight", "line-height",
	"text-align", "border", "border-radius", "box-shadow",
	"flex-direction", "justify-content", "align-items", "gap",
	"grid-template-columns", "grid-gap",
}

// StyleReference renders the captured computed styles as a CSS declaration
// list, keeping only allowlisted properties with meaningful values.
func StyleReference(snapshot map[string]string) string {
	if len(snapshot) == 0 {
		return "/* no styles captured */\n"
	}
	var b strings.Builder
	for _, prop := range styleAllowlist {
		val, ok := snapshot[prop]
		if !ok || val == "" || val == "none" || val == "normal" {
			continue
		}
		fmt.Fprintf(&b, "  %s: %s;\n", prop, val)
	}
	if b.Len() == 0 {
		return "/* default styles */\n"
	}
	return b.String()
}
