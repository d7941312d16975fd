// Package analyzer classifies captured HTML elements into block types and
// estimates their structural complexity. Classification is keyword driven
// with structural bonuses when the markup parses; complexity falls back to
// tag-count estimates when it does not.
package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strings"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sectionsmith/sectionsmith-server/internal/domain"
)

// Analysis bundles the two heuristic passes over a single capture.
type Analysis struct {
	Classification domain.ClassificationResult
	Complexity     domain.ComplexityResult
}

// Analyzer memoizes analyses by descriptor fingerprint. Captures of the same
// element (same markup, tag, class and id) are common when a user retries a
// conversion, and both passes are pure, so caching is safe.
type Analyzer struct {
	cache *lru.Cache[string, Analysis]
}

func New(cacheSize int) (*Analyzer, error) {
	cache, err := lru.New[string, Analysis](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Analyzer{cache: cache}, nil
}

// Analyze runs classification and complexity scoring, serving repeats from
// the cache. Each call gets its own RawScores map so callers may mutate the
// result freely.
func (a *Analyzer) Analyze(d *domain.CaptureDescriptor) Analysis {
	key := fingerprint(d)
	if cached, ok := a.cache.Get(key); ok {
		return cloneAnalysis(cached)
	}
	result := Analysis{
		Classification: DetectBlockType(d),
		Complexity:     AnalyzeComplexity(d.Markup),
	}
	a.cache.Add(key, result)
	return cloneAnalysis(result)
}

// cloneAnalysis deep-copies the parts of a cached analysis that callers
// could mutate.
func cloneAnalysis(a Analysis) Analysis {
	scores := make(map[domain.BlockType]int, len(a.Classification.RawScores))
	for k, v := range a.Classification.RawScores {
		scores[k] = v
	}
	a.Classification.RawScores = scores
	return a
}

func fingerprint(d *domain.CaptureDescriptor) string {
	h := sha256.New()
	for _, part := range []string{d.TagName, d.ClassNames, d.ElementID, d.Markup} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// DetectBlockType scores the descriptor against every known block pattern
// and returns the winner. Keyword hits in the class list and element id
// weigh heaviest, then hits in the leading markup, then text content. When
// no pattern reaches the minimum score the element is classified generic.
func DetectBlockType(d *domain.CaptureDescriptor) domain.ClassificationResult {
	sel := parseFragment(d.Markup)

	tag := strings.ToLower(d.TagName)
	class := strings.ToLower(d.ClassNames)
	elemID := strings.ToLower(d.ElementID)
	markup := lowerWindow(d.Markup, markupScanWindow)

	var text string
	if sel != nil {
		text = lowerWindow(sel.Text(), textScanWindow)
	}

	scores := make(map[domain.BlockType]int, len(domain.BlockTypes()))
	for _, t := range domain.BlockTypes() {
		scores[t] = 0
	}

	for _, p := range blockPatterns {
		score := 0
		for _, t := range p.Tags {
			if t == tag {
				score += tagWeight
				break
			}
		}
		for _, kw := range p.Keywords {
			if strings.Contains(class, kw) {
				score += classWeight
			}
			if strings.Contains(elemID, kw) {
				score += idWeight
			}
			if strings.Contains(markup, kw) {
				score += markupWeight
			}
			if text != "" && strings.Contains(text, kw) {
				score += textWeight
			}
		}
		if sel != nil {
			score += structuralBonus(p.Type, sel)
		}
		scores[p.Type] = score
	}

	best := domain.BlockTypeGeneric
	max := 0
	for _, p := range blockPatterns {
		if scores[p.Type] > max {
			max = scores[p.Type]
			best = p.Type
		}
	}
	if max < genericFloor {
		best = domain.BlockTypeGeneric
	}

	return domain.ClassificationResult{
		Type:       best,
		Confidence: math.Min(float64(max)/confidenceCap, 1),
		RawScores:  scores,
	}
}

// structuralBonus rewards patterns whose telltale descendants appear in the
// parsed markup. Only a handful of types have a structural signature worth
// checking.
func structuralBonus(t domain.BlockType, sel *goquery.Selection) int {
	switch t {
	case domain.BlockTypeCarousel:
		if sel.Find(".slide, .swiper-slide, .carousel-item").Length() > 0 {
			return carouselBonus
		}
	case domain.BlockTypeGallery:
		if sel.Find("img").Length() > 3 {
			return galleryBonus
		}
	case domain.BlockTypeForm:
		if sel.Find("form").Length() > 0 {
			return formBonus
		}
	case domain.BlockTypeFAQ:
		if sel.Find(".accordion, details, .collapse").Length() > 0 {
			return faqBonus
		}
	}
	return 0
}

// parseFragment parses captured markup and returns a selection rooted at the
// captured element, or nil when the markup is empty or yields no element.
// html.Parse wraps fragments in html/body, so the capture root is the first
// child of body.
func parseFragment(markup string) *goquery.Selection {
	if strings.TrimSpace(markup) == "" {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}
	root := doc.Find("body").Children().First()
	if root.Length() == 0 {
		return nil
	}
	return root
}

func lowerWindow(s string, max int) string {
	if len(s) > max {
		s = s[:max]
	}
	return strings.ToLower(s)
}
