package concept

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Concept is one generated campaign idea, optionally paired with an image
// rendered as an inline data URI.
type Concept struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	ImageURL string `json:"imageUrl,omitempty"`
}

var itemMarker = regexp.MustCompile(`\d+\.\s+`)

// ParseList splits a numbered-list blob ("1. ...", "2. ...") into ordered
// Concepts with fresh identifiers. Fragments that are empty after trimming
// are dropped; the item count is whatever the text contains.
func ParseList(text string) []Concept {
	parts := itemMarker.Split(text, -1)
	concepts := make([]Concept, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		concepts = append(concepts, Concept{ID: uuid.NewString(), Text: part})
	}
	return concepts
}
