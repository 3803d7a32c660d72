package api

import "strings"

func trim(s string) string {
	return strings.TrimSpace(s)
}

// optional returns nil for blank input.
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
