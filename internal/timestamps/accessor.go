package timestamps

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cast"

	"github.com/starford/tempus/internal/model"
)

func aliasName(base string) string { return base + "_at" }
func dateName(base string) string  { return base + "_on" }

// deriveAliases registers base_at as a second name for base.
func deriveAliases(s *model.Schema, base string) error {
	return s.Alias(aliasName(base), base)
}

// deriveDateProjection registers base_on. Reads return the civil date of
// the stored moment; writes store midnight UTC of the given date.
func deriveDateProjection(s *model.Schema, base string) error {
	return s.Define(dateName(base), model.Accessor{
		Get: func(inst *model.Instance) (any, error) {
			v, err := inst.Get(base)
			if err != nil || v == nil {
				return nil, err
			}
			t, ok := v.(time.Time)
			if !ok {
				return nil, fmt.Errorf("%w: %s holds %T", model.ErrInvalidValue, base, v)
			}
			return civil.DateOf(t), nil
		},
		Set: func(inst *model.Instance, v any) error {
			d, ok, err := toDate(v)
			if err != nil {
				return err
			}
			if !ok {
				return inst.Set(base, nil)
			}
			return inst.Set(base, d.In(time.UTC))
		},
	})
}

// ParseMoment converts a stored or serialized value to a moment. It accepts
// time.Time, non-nil *time.Time, RFC 3339 strings (offset kept), date-only
// strings (midnight UTC), and anything else spf13/cast can read as a time.
func ParseMoment(v any) (time.Time, error) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if m, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return m, nil
		}
		if d, err := civil.ParseDate(s); err == nil {
			return d.In(time.UTC), nil
		}
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("%w: nil moment", model.ErrInvalidValue)
		}
		return *t, nil
	case civil.Date:
		return t.In(time.UTC), nil
	}
	t, err := cast.ToTimeE(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", model.ErrInvalidValue, err)
	}
	return t, nil
}

func coerceMoment(v any) (any, error) {
	if p, ok := v.(*time.Time); ok && p == nil {
		return nil, nil
	}
	t, err := ParseMoment(v)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func toDate(v any) (civil.Date, bool, error) {
	switch d := v.(type) {
	case nil:
		return civil.Date{}, false, nil
	case civil.Date:
		return d, true, nil
	case *civil.Date:
		if d == nil {
			return civil.Date{}, false, nil
		}
		return *d, true, nil
	case time.Time:
		return civil.DateOf(d), true, nil
	case string:
		parsed, err := civil.ParseDate(d)
		if err != nil {
			return civil.Date{}, false, fmt.Errorf("%w: %v", model.ErrInvalidValue, err)
		}
		return parsed, true, nil
	}
	return civil.Date{}, false, fmt.Errorf("%w: %T is not a date", model.ErrInvalidValue, v)
}

// Created returns the created moment, if set and declared.
func Created(inst *model.Instance) (time.Time, bool) {
	return moment(inst, FieldCreated)
}

// Updated returns the updated moment, if set and declared.
func Updated(inst *model.Instance) (time.Time, bool) {
	return moment(inst, FieldUpdated)
}

// CreatedOn returns the date of the created moment. It reports false when
// the date projection is not declared or created is absent.
func CreatedOn(inst *model.Instance) (civil.Date, bool) {
	return date(inst, dateName(FieldCreated))
}

// UpdatedOn returns the date of the updated moment.
func UpdatedOn(inst *model.Instance) (civil.Date, bool) {
	return date(inst, dateName(FieldUpdated))
}

// SetCreated assigns created directly, bypassing first-write-wins.
func SetCreated(inst *model.Instance, t time.Time) error {
	return inst.Set(FieldCreated, t)
}

// SetUpdated assigns updated directly.
func SetUpdated(inst *model.Instance, t time.Time) error {
	return inst.Set(FieldUpdated, t)
}

// SetCreatedOn assigns created through its date projection.
func SetCreatedOn(inst *model.Instance, d civil.Date) error {
	return inst.Set(dateName(FieldCreated), d)
}

// SetUpdatedOn assigns updated through its date projection.
func SetUpdatedOn(inst *model.Instance, d civil.Date) error {
	return inst.Set(dateName(FieldUpdated), d)
}

func moment(inst *model.Instance, name string) (time.Time, bool) {
	v, err := inst.Get(name)
	if err != nil || v == nil {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}

func date(inst *model.Instance, name string) (civil.Date, bool) {
	v, err := inst.Get(name)
	if err != nil || v == nil {
		return civil.Date{}, false
	}
	d, ok := v.(civil.Date)
	return d, ok
}

// Stamps is the JSON view of every declared timestamp accessor.
type Stamps struct {
	Created   *time.Time  `json:"created,omitempty"`
	CreatedAt *time.Time  `json:"created_at,omitempty"`
	CreatedOn *civil.Date `json:"created_on,omitempty"`
	Updated   *time.Time  `json:"updated,omitempty"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
	UpdatedOn *civil.Date `json:"updated_on,omitempty"`
}

// View reads all declared timestamp accessors of inst.
func View(inst *model.Instance) Stamps {
	var s Stamps
	if t, ok := moment(inst, FieldCreated); ok {
		s.Created = &t
	}
	if t, ok := moment(inst, aliasName(FieldCreated)); ok {
		s.CreatedAt = &t
	}
	if d, ok := CreatedOn(inst); ok {
		s.CreatedOn = &d
	}
	if t, ok := moment(inst, FieldUpdated); ok {
		s.Updated = &t
	}
	if t, ok := moment(inst, aliasName(FieldUpdated)); ok {
		s.UpdatedAt = &t
	}
	if d, ok := UpdatedOn(inst); ok {
		s.UpdatedOn = &d
	}
	return s
}
