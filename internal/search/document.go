// Package search provides full-text search over the section library using
// Bleve. It complements the store's substring search with analyzed matching,
// relevance ranking, and faceted filtering by block type.
package search

import (
	"github.com/sectionsmith/sectionsmith-server/internal/domain"
)

// SearchDocument is the indexed representation of one section. Template and
// script bodies are indexed (searchable by code identifiers) but not stored.
type SearchDocument struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	BlockType        string   `json:"block_type"`
	SourceDomain     string   `json:"source_domain"`
	ConversionMethod string   `json:"conversion_method"`
	Template         string   `json:"template,omitempty"`
	Complexity       int      `json:"complexity"`
	UsageCount       int      `json:"usage_count"`
	CapturedAt       int64    `json:"captured_at"`
}

// FromSection builds the search document for a section.
func FromSection(s *domain.Section) *SearchDocument {
	return &SearchDocument{
		ID:               s.ID,
		Name:             s.Name,
		Description:      s.Description,
		Tags:             s.Tags,
		BlockType:        string(s.BlockType),
		SourceDomain:     s.SourceDomain,
		ConversionMethod: string(s.ConversionMethod),
		Template:         s.Files.Template,
		Complexity:       s.ComplexityScore,
		UsageCount:       s.UsageCount,
		CapturedAt:       s.CapturedAt,
	}
}

// ToMap converts the document to a map with lowercase field names so they
// match the index mapping. Bleve would otherwise index Go's capitalized
// struct field names.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":                d.ID,
		"name":              d.Name,
		"block_type":        d.BlockType,
		"source_domain":     d.SourceDomain,
		"conversion_method": d.ConversionMethod,
		"complexity":        d.Complexity,
		"usage_count":       d.UsageCount,
		"captured_at":       d.CapturedAt,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if d.Template != "" {
		m["template"] = d.Template
	}
	return m
}
