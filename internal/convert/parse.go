package convert

import (
	"regexp"
	"strings"

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
)

// One pattern per expected output fence. Matching is case-insensitive and
// takes the first fence of each language, so block order in the response
// does not matter.
var (
	liquidFence = fencePattern("liquid")
	jsonFence   = fencePattern("json")
	cssFence    = fencePattern("css")
	jsFence     = fencePattern("javascript")
)

func fencePattern(lang string) *regexp.Regexp {
	return regexp.MustCompile("(?is)```" + lang + "\\n(.*?)```")
}

// ParseResponse extracts the four labeled code blocks from an LLM response.
// A missing block yields an empty string, never an error; the raw response
// is preserved verbatim for reprocessing.
func ParseResponse(content string) domain.ConversionResult {
	return domain.ConversionResult{
		Template:    extractFence(liquidFence, content),
		Schema:      extractFence(jsonFence, content),
		Style:       extractFence(cssFence, content),
		Script:      extractFence(jsFence, content),
		RawResponse: content,
	}
}

func extractFence(re *regexp.Regexp, content string) string {
	m := re.FindStringSubmatch(content)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
