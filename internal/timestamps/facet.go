package timestamps

import (
	"errors"
	"fmt"
)

var (
	ErrNoFacets        = errors.New("timestamps: at least one facet is required")
	ErrUnknownFacet    = errors.New("timestamps: unknown facet")
	ErrAlreadyDeclared = errors.New("timestamps: already declared")
)

// Facet selects part of the timestamp surface in explicit mode.
type Facet string

const (
	// FacetCreatedAt declares created with its created_at alias.
	FacetCreatedAt Facet = "created_at"
	// FacetCreatedOn is FacetCreatedAt plus the created_on date projection.
	FacetCreatedOn Facet = "created_on"
	FacetUpdatedAt Facet = "updated_at"
	FacetUpdatedOn Facet = "updated_on"
	// FacetDateTime expands to FacetCreatedAt and FacetUpdatedAt.
	FacetDateTime Facet = "datetime"
	// FacetDate expands to FacetCreatedOn and FacetUpdatedOn.
	FacetDate Facet = "date"
)

// Facets lists every recognised facet name.
func Facets() []Facet {
	return []Facet{FacetCreatedAt, FacetCreatedOn, FacetUpdatedAt, FacetUpdatedOn, FacetDateTime, FacetDate}
}

// selection is the resolved set of fields and projections to declare.
type selection struct {
	created, createdOn bool
	updated, updatedOn bool
}

var everything = selection{created: true, createdOn: true, updated: true, updatedOn: true}

func resolve(facets []Facet) (selection, error) {
	var sel selection
	if len(facets) == 0 {
		return sel, ErrNoFacets
	}
	for _, f := range facets {
		switch f {
		case FacetCreatedAt:
			sel.created = true
		case FacetCreatedOn:
			sel.created, sel.createdOn = true, true
		case FacetUpdatedAt:
			sel.updated = true
		case FacetUpdatedOn:
			sel.updated, sel.updatedOn = true, true
		case FacetDateTime:
			sel.created, sel.updated = true, true
		case FacetDate:
			sel = everything
		default:
			return selection{}, fmt.Errorf("%w: %q", ErrUnknownFacet, string(f))
		}
	}
	return sel, nil
}

// ParseFacets converts configuration strings to facets without validating
// them; Declare reports unknown names.
func ParseFacets(names []string) []Facet {
	out := make([]Facet, len(names))
	for i, n := range names {
		out[i] = Facet(n)
	}
	return out
}
