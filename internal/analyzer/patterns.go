package analyzer

import "github.com/sectionsmith/sectionsmith-server/internal/domain"

// blockPattern describes one candidate block type: the keywords that hint at
// it and the tag names it commonly lives in. Patterns are scored in slice
// order and ties resolve to the pattern declared first.
type blockPattern struct {
	Type     domain.BlockType
	Keywords []string
	Tags     []string
}

var blockPatterns = []blockPattern{
	{
		Type:     domain.BlockTypeHero,
		Keywords: []string{"hero", "banner", "jumbotron", "header-image", "masthead"},
		Tags:     []string{"header", "section"},
	},
	{
		Type:     domain.BlockTypeCarousel,
		Keywords: []string{"carousel", "slider", "swiper", "slideshow", "slick"},
		Tags:     []string{"div", "section"},
	},
	{
		Type:     domain.BlockTypeTestimonials,
		Keywords: []string{"testimonial", "review", "quote", "feedback", "customer"},
		Tags:     []string{"section", "div", "article"},
	},
	{
		Type:     domain.BlockTypeFeatures,
		Keywords: []string{"feature", "benefit", "icon-box", "service", "why-us"},
		Tags:     []string{"section", "div"},
	},
	{
		Type:     domain.BlockTypeCTA,
		Keywords: []string{"cta", "call-to-action", "signup", "subscribe", "get-started"},
		Tags:     []string{"section", "div", "aside"},
	},
	{
		Type:     domain.BlockTypeGallery,
		Keywords: []string{"gallery", "grid", "masonry", "portfolio", "showcase"},
		Tags:     []string{"section", "div"},
	},
	{
		Type:     domain.BlockTypeForm,
		Keywords: []string{"form", "contact", "subscribe", "newsletter", "signup"},
		Tags:     []string{"form", "section"},
	},
	{
		Type:     domain.BlockTypeFAQ,
		Keywords: []string{"faq", "accordion", "collapse", "questions", "q-a"},
		Tags:     []string{"section", "div", "dl"},
	},
	{
		Type:     domain.BlockTypePricing,
		Keywords: []string{"pricing", "plan", "package", "tier", "subscription"},
		Tags:     []string{"section", "div"},
	},
	{
		Type:     domain.BlockTypeTeam,
		Keywords: []string{"team", "member", "staff", "about-us", "crew"},
		Tags:     []string{"section", "div"},
	},
	{
		Type:     domain.BlockTypeBlog,
		Keywords: []string{"blog", "article", "post", "news", "updates"},
		Tags:     []string{"article", "section"},
	},
	{
		Type:     domain.BlockTypeFooter,
		Keywords: []string{"footer", "bottom", "copyright", "site-footer"},
		Tags:     []string{"footer", "div"},
	},
}

// Scoring weights. A winning score below genericFloor is overridden to
// generic, and confidence normalizes against confidenceScale.
const (
	tagWeight     = 2
	classWeight   = 5
	idWeight      = 5
	markupWeight  = 3
	textWeight    = 1
	genericFloor  = 5
	confidenceCap = 20.0

	carouselBonus = 10
	galleryBonus  = 8
	formBonus     = 10
	faqBonus      = 10
)

// Substring windows into markup and text content, per the scoring rules.
const (
	markupScanWindow = 500
	textScanWindow   = 200
)
