package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	invalidSlugChars = regexp.MustCompile("[^a-z0-9 -]+")
	repeatedHyphens  = regexp.MustCompile("-+")
)

// GenerateSlug converts a string into a URL-friendly slug.
// e.g. "Men's T-Shirt!" -> "mens-t-shirt"
func GenerateSlug(input string) string {
	s := strings.ToLower(input)
	s = invalidSlugChars.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, " ", "-")
	s = repeatedHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// ParseInt parses a string to int with a fallback default value
func ParseInt(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return val
}
