package noteservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"github.com/starford/tempus/internal/apperr"
	"github.com/starford/tempus/internal/checksum"
	"github.com/starford/tempus/internal/index"
	"github.com/starford/tempus/internal/model"
	"github.com/starford/tempus/internal/models"
	"github.com/starford/tempus/internal/parser"
	"github.com/starford/tempus/internal/storage"
	"github.com/starford/tempus/internal/timestamps"
)

// Repository maps note instances to vault files and keeps the index in step.
// It is the model.Persister of every note instance it creates or loads.
type Repository struct {
	store storage.Provider
	db    *index.DB
	class *models.NoteClass
}

var _ model.Persister = (*Repository)(nil)

// NewRepository creates a repository for notes of the given class.
func NewRepository(store storage.Provider, db *index.DB, class *models.NoteClass) *Repository {
	return &Repository{store: store, db: db, class: class}
}

// New returns an unsaved note instance at path.
func (r *Repository) New(path string) *model.Instance {
	return r.class.Schema.New(path, r)
}

// Load reads the note at path and returns a clean instance together with the
// raw file content. Timestamp keys the file holds in an unreadable form are
// loaded as absent, so a touch backfills them.
func (r *Repository) Load(path string) (*model.Instance, []byte, error) {
	data, err := r.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, apperr.ErrNotFound
		}
		return nil, nil, err
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("noteservice: parse %s: %w", path, err)
	}
	values, extras := r.split(res)
	inst, err := r.class.Schema.Load(path, r, values, extras)
	if err != nil {
		return nil, nil, fmt.Errorf("noteservice: load %s: %w: %w", path, apperr.ErrInvalid, err)
	}
	return inst, data, nil
}

// Decode maps parsed content onto declared field values and undeclared
// extras. Submitted timestamp keys must hold moments.
func (r *Repository) Decode(content []byte) (values, extras map[string]any, err error) {
	res, err := parser.Parse(content)
	if err != nil {
		return nil, nil, err
	}
	values, extras = r.split(res)
	if bad := r.declaredInvalid(res); len(bad) > 0 {
		return nil, nil, fmt.Errorf("noteservice: %w: %w: %s is not a moment",
			apperr.ErrInvalid, model.ErrInvalidValue, strings.Join(bad, ", "))
	}
	return values, extras, nil
}

// split maps frontmatter keys onto declared fields; the rest become extras.
// Declared timestamp keys that are not moments are left absent.
func (r *Repository) split(res *parser.Result) (values, extras map[string]any) {
	values = map[string]any{models.FieldBody: res.Body}
	extras = make(map[string]any)
	for key, v := range res.Frontmatter {
		if f, ok := r.class.Schema.FieldByPredicate(key); ok {
			if v != nil && !slices.Contains(res.InvalidMoments, key) {
				values[f.Name] = v
			}
			continue
		}
		extras[key] = v
	}
	return values, extras
}

// declaredInvalid returns the invalid moment keys that map to declared fields.
func (r *Repository) declaredInvalid(res *parser.Result) []string {
	var out []string
	for _, key := range res.InvalidMoments {
		if _, ok := r.class.Schema.FieldByPredicate(key); ok {
			out = append(out, key)
		}
	}
	return out
}

// Render serializes inst: declared properties in schema order, then extras
// sorted by key, then the body.
func (r *Repository) Render(inst *model.Instance) ([]byte, error) {
	values := inst.Values()
	var props []parser.Property
	for _, f := range r.class.Schema.Fields() {
		if f.Predicate == "" {
			continue
		}
		props = append(props, parser.Property{Key: f.Predicate, Value: values[f.Name]})
	}
	extras := inst.Extras()
	keys := make([]string, 0, len(extras))
	for k := range extras {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		props = append(props, parser.Property{Key: k, Value: extras[k]})
	}
	return parser.Render(props, cast.ToString(values[models.FieldBody]))
}

// Persist writes inst to the vault and upserts its index row.
func (r *Repository) Persist(_ context.Context, inst *model.Instance) error {
	data, err := r.Render(inst)
	if err != nil {
		return err
	}
	path := inst.ID()
	if err := r.store.Write(path, data); err != nil {
		return fmt.Errorf("noteservice: write %s: %w", path, err)
	}
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}

	row := index.NoteRow{
		Path:     path,
		Title:    res.Title,
		Checksum: checksum.Sum(data),
		Tags:     nonNilSlice(res.Tags),
	}
	if t, ok := timestamps.Created(inst); ok {
		row.CreatedAt = &t
	}
	if t, ok := timestamps.Updated(inst); ok {
		row.UpdatedAt = &t
	}
	if err := r.db.UpsertNote(row, res.Body, res.Links); err != nil {
		return fmt.Errorf("noteservice: index %s: %w", path, err)
	}
	return nil
}
