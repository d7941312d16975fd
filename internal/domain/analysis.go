package domain

// BlockType is the semantic category guessed for a captured section.
type BlockType string

// The fixed candidate set, in declaration order. Declaration order matters:
// the classifier breaks ties in favor of the type enumerated first.
const (
	BlockTypeHero         BlockType = "hero"
	BlockTypeCarousel     BlockType = "carousel"
	BlockTypeTestimonials BlockType = "testimonials"
	BlockTypeFeatures     BlockType = "features"
	BlockTypeCTA          BlockType = "cta"
	BlockTypeGallery      BlockType = "gallery"
	BlockTypeForm         BlockType = "form"
	BlockTypeFAQ          BlockType = "faq"
	BlockTypePricing      BlockType = "pricing"
	BlockTypeTeam         BlockType = "team"
	BlockTypeBlog         BlockType = "blog"
	BlockTypeFooter       BlockType = "footer"
	BlockTypeGeneric      BlockType = "generic"
)

// BlockTypes returns all candidate types in stable declaration order.
func BlockTypes() []BlockType {
	return []BlockType{
		BlockTypeHero,
		BlockTypeCarousel,
		BlockTypeTestimonials,
		BlockTypeFeatures,
		BlockTypeCTA,
		BlockTypeGallery,
		BlockTypeForm,
		BlockTypeFAQ,
		BlockTypePricing,
		BlockTypeTeam,
		BlockTypeBlog,
		BlockTypeFooter,
		BlockTypeGeneric,
	}
}

// Valid reports whether b is a member of the fixed candidate set.
func (b BlockType) Valid() bool {
	for _, t := range BlockTypes() {
		if b == t {
			return true
		}
	}
	return false
}

// ClassificationResult is the classifier's guess for a captured element.
type ClassificationResult struct {
	Type       BlockType         `json:"type"`
	Confidence float64           `json:"confidence"` // in [0,1]
	RawScores  map[BlockType]int `json:"raw_scores"` // every candidate's final score, for diagnostics
}

// Difficulty buckets a complexity score for display.
type Difficulty string

// Difficulty levels.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DifficultyForScore derives the difficulty bucket from a post-clamp
// complexity score: easy below 4, medium below 7, hard otherwise.
func DifficultyForScore(score int) Difficulty {
	switch {
	case score < 4:
		return DifficultyEasy
	case score < 7:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

// ComplexityResult estimates how hard a captured element is to rebuild.
type ComplexityResult struct {
	Score          int        `json:"score"` // in [0,10]
	Depth          int        `json:"depth"`
	ElementCount   int        `json:"element_count"`
	UniqueTagCount int        `json:"unique_tag_count"`
	ImageCount     int        `json:"image_count"`
	HasScript      bool       `json:"has_script"`
	HasVideo       bool       `json:"has_video"`
	Difficulty     Difficulty `json:"difficulty"`
}
