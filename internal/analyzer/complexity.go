package analyzer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
)

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// AnalyzeComplexity scores how hard the captured markup will be to rebuild
// as a reusable section. When the markup parses, scoring is additive over
// DOM depth, element count, tag diversity and embedded media, clamped to
// [0, 10]. When it does not parse, the score is estimated from the raw tag
// count alone.
func AnalyzeComplexity(markup string) domain.ComplexityResult {
	sel := parseFragment(markup)
	if sel == nil {
		return estimateComplexity(markup)
	}

	node := sel.Get(0)
	depth := domDepth(node, 0)
	descendants := sel.Find("*")
	elementCount := descendants.Length()

	unique := make(map[string]struct{})
	descendants.Each(func(_ int, s *goquery.Selection) {
		unique[goquery.NodeName(s)] = struct{}{}
	})
	uniqueTags := len(unique)

	hasScript := sel.Find("script").Length() > 0
	hasVideo := sel.Find(`video, iframe[src*="youtube"], iframe[src*="vimeo"]`).Length() > 0
	imageCount := sel.Find("img").Length()

	score := 0
	switch {
	case depth > 10:
		score += 3
	case depth > 5:
		score += 2
	default:
		score += 1
	}
	switch {
	case elementCount > 100:
		score += 3
	case elementCount > 50:
		score += 2
	default:
		score += 1
	}
	switch {
	case uniqueTags > 15:
		score += 2
	case uniqueTags > 10:
		score += 1
	}
	if hasScript {
		score += 2
	}
	if hasVideo {
		score += 2
	}
	if imageCount > 10 {
		score += 2
	}
	if score > 10 {
		score = 10
	}

	return domain.ComplexityResult{
		Score:          score,
		Depth:          depth,
		ElementCount:   elementCount,
		UniqueTagCount: uniqueTags,
		ImageCount:     imageCount,
		HasScript:      hasScript,
		HasVideo:       hasVideo,
		Difficulty:     domain.DifficultyForScore(score),
	}
}

// estimateComplexity derives rough numbers from the raw tag count when no
// parsed DOM is available.
func estimateComplexity(markup string) domain.ComplexityResult {
	tagCount := len(tagPattern.FindAllString(markup, -1))
	score := tagCount / 20
	if score > 10 {
		score = 10
	}
	depth := tagCount / 10
	if depth > 15 {
		depth = 15
	}

	return domain.ComplexityResult{
		Score:          score,
		Depth:          depth,
		ElementCount:   tagCount,
		UniqueTagCount: 0,
		ImageCount:     strings.Count(markup, "<img"),
		HasScript:      strings.Contains(markup, "<script"),
		HasVideo: strings.Contains(markup, "<video") ||
			strings.Contains(markup, "youtube") ||
			strings.Contains(markup, "vimeo"),
		Difficulty: domain.DifficultyForScore(score),
	}
}

// domDepth walks element children only; a leaf contributes its own depth.
func domDepth(n *html.Node, current int) int {
	max := current
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != html.ElementNode {
			continue
		}
		if d := domDepth(child, current+1); d > max {
			max = d
		}
	}
	return max
}
