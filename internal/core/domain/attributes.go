package domain

import "errors"

var ErrReferenceUnavailable = errors.New("attribute reference set unavailable")

// AttributeOption is one selectable variant value ("Red", "XL").
type AttributeOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AttributeReferenceSet is the read-mostly snapshot of all known color and
// size options. It is small, changes rarely, and is cached for roughly one
// page view; there is no invalidation guarantee beyond that.
type AttributeReferenceSet struct {
	Colors []AttributeOption `json:"colors"`
	Sizes  []AttributeOption `json:"sizes"`
}

// Color resolves a color id by exact match. A nil or unknown id resolves to
// nil, never an error: unresolved attributes render without a name.
func (s *AttributeReferenceSet) Color(id *string) *AttributeOption {
	return findOption(s.Colors, id)
}

func (s *AttributeReferenceSet) Size(id *string) *AttributeOption {
	return findOption(s.Sizes, id)
}

func findOption(options []AttributeOption, id *string) *AttributeOption {
	if id == nil {
		return nil
	}
	for i := range options {
		if options[i].ID == *id {
			return &options[i]
		}
	}
	return nil
}
