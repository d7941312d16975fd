package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for section documents: English
// analysis on prose fields, keyword matching for filter fields, and numeric
// fields for range queries and sorting.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// Name - primary search target, stored for result display.
	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = en.AnalyzerName
	nameField.Store = true
	nameField.IncludeTermVectors = true // For highlighting
	docMapping.AddFieldMappingsAt("name", nameField)

	// Description - searchable prose.
	descField := bleve.NewTextFieldMapping()
	descField.Analyzer = en.AnalyzerName
	descField.Store = true
	descField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("description", descField)

	// Template code - searchable by identifiers, too large to store.
	templateField := bleve.NewTextFieldMapping()
	templateField.Analyzer = simple.Name
	templateField.Store = false
	docMapping.AddFieldMappingsAt("template", templateField)

	// Tags - simple analysis so multi-word tags still match per word.
	tagsField := bleve.NewTextFieldMapping()
	tagsField.Analyzer = simple.Name
	tagsField.Store = true
	docMapping.AddFieldMappingsAt("tags", tagsField)

	// Exact-match filter fields.
	for _, field := range []string{"block_type", "source_domain", "conversion_method"} {
		keywordField := bleve.NewTextFieldMapping()
		keywordField.Analyzer = keyword.Name
		keywordField.Store = true
		docMapping.AddFieldMappingsAt(field, keywordField)
	}

	// Numeric fields for ranges and sorting.
	for _, field := range []string{"complexity", "usage_count", "captured_at"} {
		numField := bleve.NewNumericFieldMapping()
		numField.Store = true
		docMapping.AddFieldMappingsAt(field, numField)
	}

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
