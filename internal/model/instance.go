package model

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"time"
)

// Instance is one object of a Schema. A nil value means the field is absent.
// Instances are not safe for concurrent use.
type Instance struct {
	schema    *Schema
	id        string
	persister Persister

	values      map[string]any
	saved       map[string]any
	extras      map[string]any
	savedExtras map[string]any

	persisted bool
}

// New creates an instance that has never been persisted. It reports
// Changed until its first successful Save.
func (s *Schema) New(id string, p Persister) *Instance {
	return &Instance{
		schema:    s,
		id:        id,
		persister: p,
		values:    make(map[string]any),
		saved:     make(map[string]any),
		extras:    make(map[string]any),
	}
}

// Load creates a clean instance from previously persisted values. Keys of
// values must be stored field names; extras carries properties the schema
// does not declare and is kept verbatim.
func (s *Schema) Load(id string, p Persister, values, extras map[string]any) (*Instance, error) {
	inst := s.New(id, p)
	for name, v := range values {
		if !s.HasField(name) {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, s.name, name)
		}
		if err := inst.store(name, v); err != nil {
			return nil, err
		}
	}
	maps.Copy(inst.extras, extras)
	inst.markClean()
	return inst, nil
}

// Schema returns the instance's schema.
func (i *Instance) Schema() *Schema {
	return i.schema
}

// ID returns the identity the instance was created or loaded with.
func (i *Instance) ID() string {
	return i.id
}

// IsNew reports whether the instance has never been loaded or saved.
func (i *Instance) IsNew() bool {
	return !i.persisted
}

// Get reads a field, alias or accessor.
func (i *Instance) Get(name string) (any, error) {
	if field, ok := i.schema.Resolve(name); ok {
		return i.values[field], nil
	}
	if a, ok := i.schema.accessors[name]; ok {
		return a.Get(i)
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, i.schema.name, name)
}

// Set writes a field, alias or accessor. Writing nil to a field makes it
// absent.
func (i *Instance) Set(name string, v any) error {
	if field, ok := i.schema.Resolve(name); ok {
		return i.store(field, v)
	}
	if a, ok := i.schema.accessors[name]; ok {
		if a.Set == nil {
			return fmt.Errorf("%w: %s.%s is read-only", ErrInvalidValue, i.schema.name, name)
		}
		return a.Set(i, v)
	}
	return fmt.Errorf("%w: %s.%s", ErrUnknownField, i.schema.name, name)
}

func (i *Instance) store(field string, v any) error {
	if coerce := i.schema.field(field).coerce; coerce != nil && v != nil {
		cv, err := coerce(v)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", i.schema.name, field, err)
		}
		v = cv
	}
	if v == nil {
		delete(i.values, field)
		return nil
	}
	i.values[field] = v
	return nil
}

// Values returns a copy of the stored field values. Absent fields are
// omitted.
func (i *Instance) Values() map[string]any {
	return maps.Clone(i.values)
}

// Extras returns a copy of the undeclared properties.
func (i *Instance) Extras() map[string]any {
	return maps.Clone(i.extras)
}

// SetExtras replaces the undeclared properties.
func (i *Instance) SetExtras(extras map[string]any) {
	i.extras = maps.Clone(extras)
	if i.extras == nil {
		i.extras = make(map[string]any)
	}
}

// Changed reports whether the instance is new or differs from the state it
// was loaded with or last saved in.
func (i *Instance) Changed() bool {
	if !i.persisted {
		return true
	}
	if len(i.values) != len(i.saved) || !reflect.DeepEqual(i.extras, i.savedExtras) {
		return true
	}
	for name, v := range i.values {
		prev, ok := i.saved[name]
		if !ok || !equal(prev, v) {
			return true
		}
	}
	return false
}

// Save runs the schema's before-save hooks, then persists the instance.
// The first failing hook aborts the save. On success the instance is clean.
func (i *Instance) Save(ctx context.Context) error {
	if i.persister == nil {
		return ErrNoPersister
	}
	for _, h := range i.schema.hooks {
		if err := h(i); err != nil {
			return err
		}
	}
	if err := i.persister.Persist(ctx, i); err != nil {
		return err
	}
	i.markClean()
	return nil
}

func (i *Instance) markClean() {
	i.saved = maps.Clone(i.values)
	i.savedExtras = maps.Clone(i.extras)
	i.persisted = true
}

func equal(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}
