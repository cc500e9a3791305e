// Package catalog holds the immutable, ordered set of careers profiles are
// matched against.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"careermatch/internal/errors"
	"careermatch/internal/types"
)

// ErrCareerNotFound is returned when a title does not match any career.
var ErrCareerNotFound = errors.NewNotFoundError(errors.ErrCodeCareerNotFound, "career not found", nil)

// Catalog is an ordered, read-only list of careers.
type Catalog struct {
	careers []types.Career
}

// New validates careers and returns a catalog holding a copy of them.
func New(careers []types.Career) (*Catalog, error) {
	if len(careers) == 0 {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidCatalog, "catalog has no careers", nil)
	}

	seen := make(map[string]struct{}, len(careers))
	for i, career := range careers {
		title := strings.TrimSpace(career.Title)
		if title == "" {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidCatalog,
				fmt.Sprintf("career #%d has no title", i+1), nil)
		}
		key := strings.ToLower(title)
		if _, dup := seen[key]; dup {
			return nil, errors.NewValidationError(errors.ErrCodeInvalidCatalog,
				fmt.Sprintf("duplicate career title %q", career.Title), nil)
		}
		seen[key] = struct{}{}
	}

	copied := make([]types.Career, len(careers))
	for i, career := range careers {
		career.Technical = slices.Clone(career.Technical)
		career.Behavioral = slices.Clone(career.Behavioral)
		copied[i] = career
	}
	return &Catalog{careers: copied}, nil
}

// Careers returns the careers in catalog order. The returned slice is a copy.
func (c *Catalog) Careers() []types.Career {
	return slices.Clone(c.careers)
}

// Len returns the number of careers.
func (c *Catalog) Len() int {
	return len(c.careers)
}

// Find returns the career whose title matches case-insensitively.
func (c *Catalog) Find(title string) (types.Career, error) {
	title = strings.TrimSpace(title)
	for _, career := range c.careers {
		if strings.EqualFold(career.Title, title) {
			return career, nil
		}
	}
	return types.Career{}, fmt.Errorf("%w: %q", ErrCareerNotFound, title)
}

// Titles returns career titles in catalog order.
func (c *Catalog) Titles() []string {
	titles := make([]string, len(c.careers))
	for i, career := range c.careers {
		titles[i] = career.Title
	}
	return titles
}

// SkillUnion returns the sorted, de-duplicated technical and behavioral skill
// names required across the catalog.
func (c *Catalog) SkillUnion() (technical, behavioral []string) {
	tech := make(map[string]struct{})
	beh := make(map[string]struct{})
	for _, career := range c.careers {
		for _, req := range career.Technical {
			tech[req.Skill] = struct{}{}
		}
		for _, req := range career.Behavioral {
			beh[req.Skill] = struct{}{}
		}
	}
	return sortedKeys(tech), sortedKeys(beh)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
