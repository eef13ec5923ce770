package models

import (
	"fmt"

	"github.com/spf13/cast"

	"github.com/starford/tempus/internal/model"
	"github.com/starford/tempus/internal/timestamps"
)

// Note field names.
const (
	FieldTitle = "title"
	FieldTags  = "tags"
	FieldBody  = "body"
)

// Timestamp declaration modes.
const (
	TimestampsImplicit = "implicit"
	TimestampsExplicit = "explicit"
)

// NoteClass is the note schema together with its timestamp policy.
type NoteClass struct {
	Schema     *model.Schema
	Timestamps *timestamps.Policy
}

// NewNoteClass declares the note schema. In implicit mode both timestamps
// and all their accessors are declared and facets must be empty; in
// explicit mode facets selects the surface.
func NewNoteClass(mode string, facets []string, opts ...timestamps.Option) (*NoteClass, error) {
	s := model.NewSchema("note")
	if err := s.Property(FieldTitle, "title", model.Coerce(toString)); err != nil {
		return nil, err
	}
	if err := s.Property(FieldTags, "tags", model.Coerce(toStrings)); err != nil {
		return nil, err
	}
	// The body is not a frontmatter key.
	if err := s.Property(FieldBody, "", model.Coerce(toString)); err != nil {
		return nil, err
	}

	var (
		policy *timestamps.Policy
		err    error
	)
	switch mode {
	case TimestampsImplicit, "":
		if len(facets) > 0 {
			return nil, fmt.Errorf("models: facets %v given in implicit mode", facets)
		}
		policy, err = timestamps.DeclareAll(s, opts...)
	case TimestampsExplicit:
		policy, err = timestamps.Declare(s, timestamps.ParseFacets(facets), opts...)
	default:
		return nil, fmt.Errorf("models: unknown timestamps mode %q", mode)
	}
	if err != nil {
		return nil, fmt.Errorf("models: declare note timestamps: %w", err)
	}
	return &NoteClass{Schema: s, Timestamps: policy}, nil
}

func toString(v any) (any, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidValue, err)
	}
	return s, nil
}

func toStrings(v any) (any, error) {
	s, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidValue, err)
	}
	return s, nil
}
