package mappers

import "time"

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// optionalString maps the empty string to NULL.
func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
