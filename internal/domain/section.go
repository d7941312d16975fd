package domain

import (
	"strings"
	"time"
)

// LibraryVersion is the current schema version of the persisted Library.
const LibraryVersion = 1

// SectionFiles is the converted template bundle, persisted verbatim.
type SectionFiles struct {
	Template string `json:"template"`
	Schema   string `json:"schema"`
	Style    string `json:"style"`
	Script   string `json:"script"`
}

// Section is a persisted, converted template bundle plus metadata.
// Created exactly once after a successful conversion; mutated only through
// explicit update operations, each of which bumps UpdatedAt.
type Section struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Description      string           `json:"description,omitempty"`
	Tags             []string         `json:"tags,omitempty"`
	SourceURL        string           `json:"source_url"`
	SourceDomain     string           `json:"source_domain"`
	CapturedAt       int64            `json:"captured_at_ms"`
	UpdatedAt        int64            `json:"updated_at_ms,omitempty"`
	BlockType        BlockType        `json:"block_type"`
	ComplexityScore  int              `json:"complexity_score"` // in [0,10]
	Thumbnail        string           `json:"thumbnail,omitempty"`
	ThumbnailHash    string           `json:"thumbnail_hash,omitempty"` // blurhash placeholder
	Files            SectionFiles     `json:"files"`
	ConversionMethod ConversionMethod `json:"conversion_method"`
	UsageCount       int              `json:"usage_count"`
	LastUsedAt       int64            `json:"last_used_at_ms,omitempty"`
	Rating           int              `json:"rating"` // in [0,5], 0 means unrated
}

// Touch updates the UpdatedAt timestamp.
func (s *Section) Touch() {
	s.UpdatedAt = time.Now().UnixMilli()
}

// HasTag reports whether the section carries the given tag, case-insensitively.
func (s *Section) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// MatchesQuery reports whether the section matches a case-insensitive
// substring query against name, description, any tag, or source domain.
func (s *Section) MatchesQuery(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(s.Name), q) ||
		strings.Contains(strings.ToLower(s.Description), q) ||
		strings.Contains(strings.ToLower(s.SourceDomain), q) {
		return true
	}
	for _, t := range s.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// Library is the single aggregate collection of all sections.
// The whole aggregate is the unit of persistence: read, mutate, write back.
type Library struct {
	Sections      []Section `json:"sections"`
	LastUpdatedAt int64     `json:"last_updated_at_ms"`
	Version       int       `json:"version"`
}

// NewLibrary creates an empty library aggregate.
func NewLibrary() *Library {
	return &Library{
		Sections:      []Section{},
		LastUpdatedAt: time.Now().UnixMilli(),
		Version:       LibraryVersion,
	}
}

// Touch updates the aggregate's LastUpdatedAt timestamp.
func (l *Library) Touch() {
	l.LastUpdatedAt = time.Now().UnixMilli()
}

// FindSection returns the index of the section with the given id, or -1.
func (l *Library) FindSection(id string) int {
	for i := range l.Sections {
		if l.Sections[i].ID == id {
			return i
		}
	}
	return -1
}
