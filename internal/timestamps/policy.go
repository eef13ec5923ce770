// Package timestamps adds lifecycle timestamps to model schemas: created is
// set once at the first modifying save, updated is refreshed on every
// modifying save, and Touch refreshes updated regardless of changes.
//
// Each timestamp is stored in one canonical field. The "_at" alias and the
// "_on" date projection are views over that field and hold no state of
// their own.
package timestamps

import (
	"context"
	"fmt"
	"time"

	"github.com/starford/tempus/internal/model"
)

// Canonical field names and their external identifiers.
const (
	FieldCreated = "created"
	FieldUpdated = "updated"

	PredicateCreated  = "created"
	PredicateModified = "modified"
)

// Clock returns the current moment.
type Clock func() time.Time

// Option configures a Policy.
type Option func(*Policy)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(p *Policy) {
		p.now = c
	}
}

// Policy decides when created and updated change. It is bound to the schema
// it was declared on and registered there as a before-save hook.
type Policy struct {
	now     Clock
	created bool
	updated bool
}

// Declare adds the timestamp surface selected by facets to s. It fails
// without touching s when facets is empty, names an unknown facet, or
// collides with names s already has.
func Declare(s *model.Schema, facets []Facet, opts ...Option) (*Policy, error) {
	sel, err := resolve(facets)
	if err != nil {
		return nil, err
	}
	return declare(s, sel, opts)
}

// DeclareAll adds both fields with their aliases and date projections.
func DeclareAll(s *model.Schema, opts ...Option) (*Policy, error) {
	return declare(s, everything, opts)
}

func declare(s *model.Schema, sel selection, opts []Option) (*Policy, error) {
	if s.Has(FieldCreated) || s.Has(FieldUpdated) {
		return nil, fmt.Errorf("%w on %s", ErrAlreadyDeclared, s.Name())
	}
	for _, name := range sel.derivedNames() {
		if s.Has(name) {
			return nil, fmt.Errorf("timestamps: %w: %s.%s", model.ErrDuplicateField, s.Name(), name)
		}
	}

	p := &Policy{
		now:     func() time.Time { return time.Now().UTC() },
		created: sel.created,
		updated: sel.updated,
	}
	for _, opt := range opts {
		opt(p)
	}

	if sel.created {
		if err := declareField(s, FieldCreated, PredicateCreated, sel.createdOn); err != nil {
			return nil, err
		}
	}
	if sel.updated {
		if err := declareField(s, FieldUpdated, PredicateModified, sel.updatedOn); err != nil {
			return nil, err
		}
	}
	s.BeforeSave(p.BeforeSave)
	return p, nil
}

func declareField(s *model.Schema, name, predicate string, withDate bool) error {
	if err := s.Property(name, predicate, model.Coerce(coerceMoment)); err != nil {
		return err
	}
	if err := deriveAliases(s, name); err != nil {
		return err
	}
	if withDate {
		return deriveDateProjection(s, name)
	}
	return nil
}

func (s selection) derivedNames() []string {
	var out []string
	if s.created {
		out = append(out, aliasName(FieldCreated))
	}
	if s.createdOn {
		out = append(out, dateName(FieldCreated))
	}
	if s.updated {
		out = append(out, aliasName(FieldUpdated))
	}
	if s.updatedOn {
		out = append(out, dateName(FieldUpdated))
	}
	return out
}

// Tracks reports whether the policy manages the named canonical field.
func (p *Policy) Tracks(field string) bool {
	switch field {
	case FieldCreated:
		return p.created
	case FieldUpdated:
		return p.updated
	}
	return false
}

// BeforeSave stamps inst when it has changed since it was loaded or last
// saved. Clean instances are left untouched.
func (p *Policy) BeforeSave(inst *model.Instance) error {
	if !inst.Changed() {
		return nil
	}
	return p.stamp(inst)
}

// Touch stamps inst whether or not it changed, then saves it.
func (p *Policy) Touch(ctx context.Context, inst *model.Instance) error {
	if err := p.stamp(inst); err != nil {
		return err
	}
	return inst.Save(ctx)
}

func (p *Policy) stamp(inst *model.Instance) error {
	now := p.now().Round(0)
	schema := inst.Schema()

	if p.created && schema.HasField(FieldCreated) {
		v, err := inst.Get(FieldCreated)
		if err != nil {
			return err
		}
		if v == nil {
			if err := inst.Set(FieldCreated, now); err != nil {
				return err
			}
		}
	}
	if p.updated && schema.HasField(FieldUpdated) {
		if err := inst.Set(FieldUpdated, now); err != nil {
			return err
		}
	}
	return nil
}
