// Package util provides common utility functions.
package util

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
)

var (
	// Matches characters that are unsafe in download filenames.
	unsafeFilenameRe = regexp.MustCompile(`[^a-z0-9-_]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)
)

// ExtractDomain returns the host of a URL with any leading "www." stripped.
// Returns "unknown" when the URL cannot be parsed or has no host.
func ExtractDomain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// SanitizeFilename converts a display name into a safe download filename.
//
// Normalization rules:
//  1. Lowercase
//  2. Replace unsafe characters with dashes
//  3. Collapse multiple dashes
//  4. Truncate to 50 characters
func SanitizeFilename(name string) string {
	s := strings.ToLower(name)
	s = unsafeFilenameRe.ReplaceAllString(s, "-")
	s = multipleDashRe.ReplaceAllString(s, "-")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}

// FormatBytes renders a byte count as a human-readable size label ("12.5 KB").
func FormatBytes(bytes int) string {
	if bytes == 0 {
		return "0 Bytes"
	}
	const k = 1024
	sizes := []string{"Bytes", "KB", "MB"}
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	if i >= len(sizes) {
		i = len(sizes) - 1
	}
	v := math.Round(float64(bytes)/math.Pow(k, float64(i))*100) / 100
	return fmt.Sprintf("%v %s", v, sizes[i])
}
