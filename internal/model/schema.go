// Package model is a small object-mapping layer: schemas declare named
// fields, aliases and computed accessors, and instances hold field values,
// track changes since the last load or save, and run before-save hooks ahead
// of persistence.
package model

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnknownField   = errors.New("model: unknown field")
	ErrDuplicateField = errors.New("model: duplicate field")
	ErrNoPersister    = errors.New("model: no persister")
	ErrInvalidValue   = errors.New("model: invalid value")
)

// Field is a declared, stored property. Predicate is the external
// identifier used by the serialization layer; it is opaque to the model.
type Field struct {
	Name      string
	Predicate string

	coerce func(any) (any, error)
}

// FieldOption configures a field at declaration time.
type FieldOption func(*Field)

// Coerce installs a conversion applied to every value written into the
// field, including values supplied at load time. Returning an error rejects
// the write.
func Coerce(fn func(any) (any, error)) FieldOption {
	return func(f *Field) {
		f.coerce = fn
	}
}

// Accessor is a named read/write view computed from other fields.
// A nil Set makes the accessor read-only.
type Accessor struct {
	Get func(*Instance) (any, error)
	Set func(*Instance, any) error
}

// Hook runs before an instance is handed to its Persister.
type Hook func(*Instance) error

// Persister writes an instance to durable storage.
type Persister interface {
	Persist(ctx context.Context, inst *Instance) error
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(ctx context.Context, inst *Instance) error

// Persist calls f.
func (f PersisterFunc) Persist(ctx context.Context, inst *Instance) error {
	return f(ctx, inst)
}

// Schema describes a model class. It is configured once, before instances
// are created, and is not safe for concurrent modification.
type Schema struct {
	name      string
	fields    []Field
	byName    map[string]int
	aliases   map[string]string
	accessors map[string]Accessor
	hooks     []Hook
}

// NewSchema creates an empty schema.
func NewSchema(name string) *Schema {
	return &Schema{
		name:      name,
		byName:    make(map[string]int),
		aliases:   make(map[string]string),
		accessors: make(map[string]Accessor),
	}
}

// Name returns the schema name.
func (s *Schema) Name() string {
	return s.name
}

// Property declares a stored field.
func (s *Schema) Property(name, predicate string, opts ...FieldOption) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidValue)
	}
	if s.Has(name) {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateField, s.name, name)
	}
	f := Field{Name: name, Predicate: predicate}
	for _, opt := range opts {
		opt(&f)
	}
	s.byName[name] = len(s.fields)
	s.fields = append(s.fields, f)
	return nil
}

// Alias registers alias as a second name for the stored field.
func (s *Schema) Alias(alias, field string) error {
	if !s.HasField(field) {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, s.name, field)
	}
	if s.Has(alias) {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateField, s.name, alias)
	}
	s.aliases[alias] = field
	return nil
}

// Define registers a computed accessor.
func (s *Schema) Define(name string, a Accessor) error {
	if a.Get == nil {
		return fmt.Errorf("%w: accessor %s has no getter", ErrInvalidValue, name)
	}
	if s.Has(name) {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateField, s.name, name)
	}
	s.accessors[name] = a
	return nil
}

// BeforeSave appends a hook to the save pipeline. Hooks run in
// registration order.
func (s *Schema) BeforeSave(h Hook) {
	s.hooks = append(s.hooks, h)
}

// HasField reports whether name is a stored field (not an alias or accessor).
func (s *Schema) HasField(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Has reports whether name resolves to a field, alias or accessor.
func (s *Schema) Has(name string) bool {
	if s.HasField(name) {
		return true
	}
	if _, ok := s.aliases[name]; ok {
		return true
	}
	_, ok := s.accessors[name]
	return ok
}

// Fields returns the stored fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// FieldByPredicate finds the stored field carrying the given external
// identifier.
func (s *Schema) FieldByPredicate(predicate string) (Field, bool) {
	if predicate == "" {
		return Field{}, false
	}
	for _, f := range s.fields {
		if f.Predicate == predicate {
			return f, true
		}
	}
	return Field{}, false
}

// Resolve maps an alias to its stored field. Field names resolve to
// themselves; accessors and unknown names do not resolve.
func (s *Schema) Resolve(name string) (string, bool) {
	if s.HasField(name) {
		return name, true
	}
	field, ok := s.aliases[name]
	return field, ok
}

func (s *Schema) field(name string) Field {
	return s.fields[s.byName[name]]
}
