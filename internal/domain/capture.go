// Package domain contains the core business entities for the Sectionsmith capture pipeline.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// BoundingBox is the layout rectangle of a captured element at capture time.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
}

// Screenshot is a cropped raster image of exactly the element's bounding box,
// captured with any selection overlay hidden.
type Screenshot struct {
	ImageData     string `json:"image_data"` // data URL, e.g. "data:image/png;base64,..."
	NaturalWidth  int    `json:"natural_width"`
	NaturalHeight int    `json:"natural_height"`
	SizeLabel     string `json:"size_label,omitempty"`
}

// CaptureDescriptor holds the raw facts about a user-selected page element.
//
// Markup is never truncated here; the prompt builder is the only place
// markup is ever shortened, and it marks the truncation explicitly.
type CaptureDescriptor struct {
	Markup        string            `json:"markup"`
	SourceURL     string            `json:"source_url"`
	TagName       string            `json:"tag_name"`
	ClassNames    string            `json:"class_names"`
	ElementID     string            `json:"element_id"`
	BoundingBox   BoundingBox       `json:"bounding_box"`
	StyleSnapshot map[string]string `json:"style_snapshot,omitempty"`
	Screenshot    *Screenshot       `json:"screenshot,omitempty"`
	CapturedAt    int64             `json:"captured_at_ms"`
}

// Normalize canonicalizes boundary-supplied fields in place: the tag name is
// uppercased, class/id strings trimmed, and a missing capture timestamp
// defaulted to now. Downstream analyzers never need defensive type checks.
func (d *CaptureDescriptor) Normalize() {
	d.TagName = strings.ToUpper(strings.TrimSpace(d.TagName))
	d.ClassNames = strings.TrimSpace(d.ClassNames)
	d.ElementID = strings.TrimSpace(d.ElementID)
	if d.CapturedAt == 0 {
		d.CapturedAt = time.Now().UnixMilli()
	}
}

// HasScreenshot reports whether the descriptor carries usable screenshot data.
func (d *CaptureDescriptor) HasScreenshot() bool {
	return d.Screenshot != nil && d.Screenshot.ImageData != ""
}

// NormalizeClassList coerces the browser's class representation into a plain
// space-separated string. DOM bindings may hand over a string, nothing at
// all, or an SVG animated-string wrapper ({"baseVal": "..."}).
func NormalizeClassList(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(c)
	case map[string]any:
		if base, ok := c["baseVal"].(string); ok {
			return strings.TrimSpace(base)
		}
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(c))
	}
}
