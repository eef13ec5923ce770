package parser

import (
	"testing"
	"time"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\ntitle: Hello\ntags:\n  - go\n  - tempus\n---\n# Hello\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if len(r.Tags) < 2 || r.Tags[0] != "go" || r.Tags[1] != "tempus" {
		t.Errorf("tags = %v, want [go tempus]", r.Tags)
	}
	if r.Body != "# Hello\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Invalid YAML falls back to treating everything as body.
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestParse_Moments(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		created  time.Time
		modified time.Time
	}{
		{
			name:     "rfc3339 utc",
			input:    "---\ncreated: 2025-01-15T10:00:00Z\nmodified: \"2025-01-16T11:30:00.5Z\"\n---\nbody\n",
			created:  time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
			modified: time.Date(2025, 1, 16, 11, 30, 0, 500000000, time.UTC),
		},
		{
			name:     "rfc3339 with offset",
			input:    "---\ncreated: 2025-01-15T12:00:00+02:00\nmodified: 2025-01-15T05:00:00-05:00\n---\nbody\n",
			created:  time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
			modified: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "date only",
			input:    "---\ncreated: 2024-02-29\nmodified: \"2024-03-01\"\n---\nbody\n",
			created:  time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
			modified: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse([]byte(tt.input))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.Created == nil || !r.Created.Equal(tt.created) {
				t.Errorf("created = %v, want %v", r.Created, tt.created)
			}
			if r.Modified == nil || !r.Modified.Equal(tt.modified) {
				t.Errorf("modified = %v, want %v", r.Modified, tt.modified)
			}
			if _, ok := r.Frontmatter["created"].(time.Time); !ok {
				t.Errorf("frontmatter created is %T, want time.Time", r.Frontmatter["created"])
			}
			if len(r.InvalidMoments) != 0 {
				t.Errorf("invalid = %v", r.InvalidMoments)
			}
		})
	}
}

func TestParse_OffsetKept(t *testing.T) {
	r, err := Parse([]byte("---\ncreated: 2025-01-15T12:00:00+02:00\n---\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, off := r.Created.Zone(); off != 2*3600 {
		t.Errorf("offset = %d, want 7200", off)
	}
}

func TestParse_InvalidMomentLeftAsWritten(t *testing.T) {
	r, err := Parse([]byte("---\ncreated: someday\nmodified: 2025-01-15T10:00:00Z\n---\nbody\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Created != nil {
		t.Errorf("created = %v, want absent", r.Created)
	}
	if r.Frontmatter["created"] != "someday" {
		t.Errorf("raw value lost: %#v", r.Frontmatter["created"])
	}
	if len(r.InvalidMoments) != 1 || r.InvalidMoments[0] != "created" {
		t.Errorf("invalid = %v, want [created]", r.InvalidMoments)
	}
	if r.Modified == nil {
		t.Error("modified should still be read")
	}
}

func TestParse_NoMoments(t *testing.T) {
	r, err := Parse([]byte("---\ntitle: Plain\n---\nbody\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Created != nil || r.Modified != nil || r.InvalidMoments != nil {
		t.Errorf("unexpected moments: %v %v %v", r.Created, r.Modified, r.InvalidMoments)
	}
}

func TestExtractLinks_Basic(t *testing.T) {
	body := "See [[Note A]] and [[Note B|alias]].\nAlso [[Note A]] again."
	links := extractLinks(body)
	if len(links) != 2 {
		t.Fatalf("len(links) = %d, want 2", len(links))
	}
	if links[0] != "Note A" || links[1] != "Note B" {
		t.Errorf("links = %v", links)
	}
}

func TestExtractLinks_EmptyTarget(t *testing.T) {
	links := extractLinks("see [[ ]] and [[|alias]]")
	if len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}

func TestExtractTags_InlineAndFrontmatter(t *testing.T) {
	fm := map[string]any{
		"tags": []any{"alpha"},
	}
	body := "Some text #beta and #alpha again."
	tags := extractTags(body, fm)
	// alpha from FM, beta from body; alpha not duplicated.
	if len(tags) != 2 || tags[0] != "alpha" || tags[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", tags)
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	fm := map[string]any{"title": "FM Title"}
	body := "# H1 Title\ntext"
	title := deriveTitle(fm, body)
	if title != "FM Title" {
		t.Errorf("title = %q, want %q", title, "FM Title")
	}
}

func TestDeriveTitle_H1Fallback(t *testing.T) {
	title := deriveTitle(nil, "some text\n# My Heading\nmore")
	if title != "My Heading" {
		t.Errorf("title = %q, want %q", title, "My Heading")
	}
}
