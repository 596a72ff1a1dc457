package model

import (
	"strings"
	"time"
	"unicode"
)

// Tag is a named label with a unique slug
type Tag struct {
	ID          string    `json:"id" toml:"id"`
	Name        string    `json:"name" toml:"name"`
	Slug        string    `json:"slug" toml:"slug"`
	Description string    `json:"description,omitempty" toml:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" toml:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" toml:"updated_at"`
}

// String returns the tag name, falling back to the slug.
func (t Tag) String() string {
	if t.Name != "" {
		return t.Name
	}
	return t.Slug
}

// Slugify derives a URL-safe slug from a tag name: lower case, runs of
// anything other than letters and digits collapsed to a single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
