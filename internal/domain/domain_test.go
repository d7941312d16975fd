package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeClassList(t *testing.T) {
	assert.Equal(t, "hero banner", NormalizeClassList("hero banner"))
	assert.Equal(t, "", NormalizeClassList(nil))
	// SVG elements expose className as an animated-string wrapper.
	assert.Equal(t, "icon-large", NormalizeClassList(map[string]any{"baseVal": "icon-large"}))
	assert.Equal(t, "", NormalizeClassList(map[string]any{"other": 1}))
}

func TestCaptureDescriptor_Normalize(t *testing.T) {
	d := &CaptureDescriptor{TagName: " section ", ClassNames: " hero ", ElementID: " main "}
	d.Normalize()
	assert.Equal(t, "SECTION", d.TagName)
	assert.Equal(t, "hero", d.ClassNames)
	assert.Equal(t, "main", d.ElementID)
	assert.NotZero(t, d.CapturedAt)
}

func TestDifficultyForScore(t *testing.T) {
	assert.Equal(t, DifficultyEasy, DifficultyForScore(3))
	assert.Equal(t, DifficultyMedium, DifficultyForScore(4))
	assert.Equal(t, DifficultyMedium, DifficultyForScore(6))
	assert.Equal(t, DifficultyHard, DifficultyForScore(7))
}

func TestNormalizeConversionMethod(t *testing.T) {
	assert.Equal(t, MethodAutomated, NormalizeConversionMethod("auto"))
	assert.Equal(t, MethodAutomated, NormalizeConversionMethod("automated"))
	assert.Equal(t, MethodAPI, NormalizeConversionMethod("api"))
	assert.Equal(t, MethodManual, NormalizeConversionMethod("something-else"))
}

func TestConversionResult_Usable(t *testing.T) {
	assert.False(t, (&ConversionResult{}).Usable())
	assert.True(t, (&ConversionResult{Template: "<section></section>"}).Usable())
	assert.True(t, (&ConversionResult{Schema: "{}"}).Usable())
}

func TestBlockTypes_DeclarationOrder(t *testing.T) {
	types := BlockTypes()
	assert.Equal(t, BlockTypeHero, types[0])
	assert.Equal(t, BlockTypeGeneric, types[len(types)-1])
	assert.Len(t, types, 13)
}

func TestSection_MatchesQuery(t *testing.T) {
	s := Section{
		Name:         "Hero A",
		Description:  "Landing splash",
		Tags:         []string{"landing", "dark"},
		SourceDomain: "example.com",
	}
	assert.True(t, s.MatchesQuery("hero"))
	assert.True(t, s.MatchesQuery("SPLASH"))
	assert.True(t, s.MatchesQuery("dark"))
	assert.True(t, s.MatchesQuery("example"))
	assert.False(t, s.MatchesQuery("pricing"))
}
