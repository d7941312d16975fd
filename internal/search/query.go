package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a library search.
type SearchParams struct {
	Query string // User's search query

	// Filters
	BlockTypes    []string // Exact block type filter (empty = all)
	SourceDomain  string   // Exact source domain filter
	MinComplexity int      // Inclusive, 0 = unbounded
	MaxComplexity int      // Inclusive, 0 = unbounded

	// Pagination
	Limit  int
	Offset int

	Highlight bool
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:     20,
		Highlight: true,
	}
}

// SearchResult represents ranked search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// SearchHit is a single ranked result.
type SearchHit struct {
	ID           string            `json:"id"`
	Score        float64           `json:"score"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	BlockType    string            `json:"block_type,omitempty"`
	SourceDomain string            `json:"source_domain,omitempty"`
	Complexity   int               `json:"complexity"`
	Highlights   map[string]string `json:"highlights,omitempty"`
}

// Search executes a ranked query against the index.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	searchQuery := buildSearchQuery(params)
	searchRequest := bleve.NewSearchRequestOptions(searchQuery, params.Limit, params.Offset, false)
	searchRequest.Fields = []string{
		"id", "name", "description", "block_type", "source_domain", "complexity",
	}

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("name")
		searchRequest.Highlight.AddField("description")
	}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if n, ok := hit.Fields["name"].(string); ok {
			searchHit.Name = n
		}
		if d, ok := hit.Fields["description"].(string); ok {
			searchHit.Description = d
		}
		if bt, ok := hit.Fields["block_type"].(string); ok {
			searchHit.BlockType = bt
		}
		if sd, ok := hit.Fields["source_domain"].(string); ok {
			searchHit.SourceDomain = sd
		}
		if c, ok := hit.Fields["complexity"].(float64); ok {
			searchHit.Complexity = int(c)
		}
		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if params.Query != "" {
		textQueries := []query.Query{}

		// Name match with highest boost.
		nameMatch := bleve.NewMatchQuery(params.Query)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)
		textQueries = append(textQueries, nameMatch)

		descMatch := bleve.NewMatchQuery(params.Query)
		descMatch.SetField("description")
		descMatch.SetBoost(1.5)
		textQueries = append(textQueries, descMatch)

		tagMatch := bleve.NewMatchQuery(params.Query)
		tagMatch.SetField("tags")
		tagMatch.SetBoost(2.0)
		textQueries = append(textQueries, tagMatch)

		templateMatch := bleve.NewMatchQuery(params.Query)
		templateMatch.SetField("template")
		templateMatch.SetBoost(0.5)
		textQueries = append(textQueries, templateMatch)

		// Fuzzy matching for typo tolerance on name.
		fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("name")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for autocomplete (minimum 2 chars).
		if len(params.Query) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
			prefixQuery.SetField("name")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if len(params.BlockTypes) > 0 {
		typeQueries := make([]query.Query, 0, len(params.BlockTypes))
		for _, bt := range params.BlockTypes {
			tq := bleve.NewTermQuery(bt)
			tq.SetField("block_type")
			typeQueries = append(typeQueries, tq)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(typeQueries...))
	}

	if params.SourceDomain != "" {
		dq := bleve.NewTermQuery(params.SourceDomain)
		dq.SetField("source_domain")
		queries = append(queries, dq)
	}

	if params.MinComplexity > 0 || params.MaxComplexity > 0 {
		var minVal, maxVal *float64
		inclusive := true
		if params.MinComplexity > 0 {
			v := float64(params.MinComplexity)
			minVal = &v
		}
		if params.MaxComplexity > 0 {
			v := float64(params.MaxComplexity)
			maxVal = &v
		}
		rq := bleve.NewNumericRangeInclusiveQuery(minVal, maxVal, &inclusive, &inclusive)
		rq.SetField("complexity")
		queries = append(queries, rq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
