package api

import (
	"time"

	"github.com/starford/tempus/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a note.
type CreateNoteRequest struct {
	Path    string `json:"path" example:"notes/hello.md" validate:"required"`
	Content string `json:"content" example:"# Hello\nWorld" validate:"required"`
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Content string `json:"content" example:"# Updated\nContent" validate:"required"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
// Timestamp keys appear only when the note class declares them and the note
// carries a value.
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path      string     `json:"path" example:"notes/hello.md" validate:"required"`
	Title     string     `json:"title" example:"Hello" validate:"required"`
	Snippet   string     `json:"snippet" example:"...matched text..." validate:"required"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// GraphNode is a node in the knowledge graph.
type GraphNode struct {
	Path  string `json:"path" example:"notes/hello.md" validate:"required"`
	Title string `json:"title,omitempty" example:"Hello"`
}

// GraphLink is an edge in the knowledge graph.
type GraphLink struct {
	Source string `json:"source" example:"notes/hello.md" validate:"required"`
	Target string `json:"target" example:"notes/world.md" validate:"required"`
}

// GraphResponse wraps the knowledge graph.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes" validate:"required"`
	Links []GraphLink `json:"links" validate:"required"`
}

// StampsDTO documents the timestamp keys embedded in NoteDetail.
type StampsDTO struct {
	Created   *time.Time `json:"created,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	CreatedOn string     `json:"created_on,omitempty" example:"2025-01-15"`
	Updated   *time.Time `json:"updated,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	UpdatedOn string     `json:"updated_on,omitempty" example:"2025-01-16"`
}
