// Package noteservice coordinates note persistence, timestamps and the index.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/starford/tempus/internal/apperr"
	"github.com/starford/tempus/internal/checksum"
	"github.com/starford/tempus/internal/index"
	"github.com/starford/tempus/internal/model"
	"github.com/starford/tempus/internal/models"
	"github.com/starford/tempus/internal/parser"
	"github.com/starford/tempus/internal/storage"
	"github.com/starford/tempus/internal/timestamps"
)

// Event kinds emitted after a successful mutation.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventTouched = "touched"
	EventDeleted = "deleted"
)

// Event reports a note mutation made through the service.
type Event struct {
	Kind    string
	Path    string
	Updated *time.Time
}

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Backlinks   []string       `json:"backlinks"`
	timestamps.Stamps
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	Path      string     `json:"path"`
	Title     string     `json:"title"`
	Checksum  string     `json:"checksum"`
	Tags      []string   `json:"tags"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Option configures a Service.
type Option func(*Service)

// WithEvents registers fn to be called after every successful mutation.
func WithEvents(fn func(Event)) Option {
	return func(s *Service) {
		s.events = fn
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// Service coordinates storage and index operations.
type Service struct {
	store  storage.Provider
	db     *index.DB
	class  *models.NoteClass
	repo   *Repository
	events func(Event)
	logger *slog.Logger
}

// NewService creates a new note service for notes of the given class.
func NewService(store storage.Provider, db *index.DB, class *models.NoteClass, opts ...Option) *Service {
	s := &Service{
		store:  store,
		db:     db,
		class:  class,
		repo:   NewRepository(store, db, class),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Class returns the note class the service works with.
func (s *Service) Class() *models.NoteClass {
	return s.class
}

// GetNote reads a note from storage, parses it, and enriches it with
// backlinks and timestamps.
func (s *Service) GetNote(_ context.Context, path string) (*NoteDetail, error) {
	inst, data, err := s.repo.Load(path)
	if err != nil {
		return nil, err
	}
	return s.buildNoteDetail(inst, data)
}

// CreateNote writes a new note and indexes it. Its first save sets created
// and updated; a created value already present in content is kept.
func (s *Service) CreateNote(ctx context.Context, path string, content []byte) (*NoteDetail, error) {
	if _, err := s.store.Stat(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("noteservice: create %s: %w", path, err)
	}
	values, extras, err := s.repo.Decode(content)
	if err != nil {
		return nil, err
	}

	inst := s.repo.New(path)
	for name, v := range values {
		if err := inst.Set(name, v); err != nil {
			return nil, fmt.Errorf("noteservice: create %s: %w: %w", path, apperr.ErrInvalid, err)
		}
	}
	inst.SetExtras(extras)

	if err := inst.Save(ctx); err != nil {
		return nil, fmt.Errorf("noteservice: create %s: %w", path, err)
	}
	return s.afterSave(EventCreated, inst)
}

// UpdateNote replaces the note's fields with those parsed from content, with
// optimistic concurrency on the file checksum. Timestamp keys missing from
// content keep their stored values; present ones are assigned as given.
// Content identical to the stored note leaves the timestamps unchanged.
func (s *Service) UpdateNote(ctx context.Context, path string, content []byte, ifMatch string) (*NoteDetail, error) {
	inst, existing, err := s.repo.Load(path)
	if err != nil {
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	values, extras, err := s.repo.Decode(content)
	if err != nil {
		return nil, err
	}

	for _, f := range s.class.Schema.Fields() {
		v, ok := values[f.Name]
		if !ok && s.class.Timestamps.Tracks(f.Name) {
			continue
		}
		if err := inst.Set(f.Name, v); err != nil {
			return nil, fmt.Errorf("noteservice: update %s: %w: %w", path, apperr.ErrInvalid, err)
		}
	}
	inst.SetExtras(extras)

	changed := inst.Changed()
	if err := inst.Save(ctx); err != nil {
		return nil, fmt.Errorf("noteservice: update %s: %w", path, err)
	}
	if !changed {
		return s.buildNoteDetail(inst, nil)
	}
	return s.afterSave(EventUpdated, inst)
}

// TouchNote refreshes the note's updated timestamp without changing its
// content, setting created as well when it is absent.
func (s *Service) TouchNote(ctx context.Context, path string) (*NoteDetail, error) {
	inst, _, err := s.repo.Load(path)
	if err != nil {
		return nil, err
	}
	if err := s.class.Timestamps.Touch(ctx, inst); err != nil {
		return nil, fmt.Errorf("noteservice: touch %s: %w", path, err)
	}
	return s.afterSave(EventTouched, inst)
}

// DeleteNote removes a note from storage and index.
func (s *Service) DeleteNote(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return apperr.ErrNotFound
		}
		return err
	}
	if err := s.db.DeleteNote(path); err != nil {
		return err
	}
	s.emit(Event{Kind: EventDeleted, Path: path})
	return nil
}

// ListNotes returns paginated notes with optional tag filter.
func (s *Service) ListNotes(_ context.Context, limit, offset int, tag, sort string) ([]NoteListItem, int, error) {
	if !index.ValidSort(sort) {
		return nil, 0, fmt.Errorf("noteservice: sort %q: %w", sort, apperr.ErrInvalid)
	}
	rows, total, err := s.db.ListNotes(limit, offset, tag, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]NoteListItem, len(rows))
	for i, r := range rows {
		items[i] = NoteListItem{
			Path:      r.Path,
			Title:     r.Title,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Graph returns all nodes and links for graph visualization.
func (s *Service) Graph(_ context.Context) ([]index.GraphNode, []index.GraphLink, error) {
	return s.db.Graph()
}

// Backlinks returns all note paths that link to the given target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	return s.db.Backlinks(target)
}

func (s *Service) afterSave(kind string, inst *model.Instance) (*NoteDetail, error) {
	ev := Event{Kind: kind, Path: inst.ID()}
	if t, ok := timestamps.Updated(inst); ok {
		ev.Updated = &t
	}
	s.logger.Debug("note saved", slog.String("path", inst.ID()), slog.String("op", kind))
	s.emit(ev)
	return s.buildNoteDetail(inst, nil)
}

func (s *Service) emit(ev Event) {
	if s.events != nil {
		s.events(ev)
	}
}

// buildNoteDetail renders inst unless data is given, then enriches it with
// backlinks.
func (s *Service) buildNoteDetail(inst *model.Instance, data []byte) (*NoteDetail, error) {
	if data == nil {
		var err error
		if data, err = s.repo.Render(inst); err != nil {
			return nil, err
		}
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(inst.ID())
	if err != nil {
		return nil, err
	}
	return &NoteDetail{
		Path:        inst.ID(),
		Title:       res.Title,
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
		Backlinks:   nonNilSlice(bl),
		Stamps:      timestamps.View(inst),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
