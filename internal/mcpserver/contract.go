package mcpserver

// NoteFormatContract describes the canonical Markdown note format that
// LLM consumers should follow when creating or updating notes.
const NoteFormatContract = `# Tempus Note Format Contract

Every Markdown note stored in Tempus follows this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title          # REQUIRED – used in search, lists, graph
tags:                                 # OPTIONAL – YAML list; used for filtering
  - tag-one
  - tag-two
created: "2025-01-15T09:30:00Z"       # MANAGED – set once, on the first save
modified: "2025-01-16T18:02:11.5Z"    # MANAGED – refreshed on every change or touch
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other notes (without .md extension).
Use [[target|alias]] for display text that differs from the target.
` + "```" + `

## Timestamps

1. **` + "`" + `created` + "`" + `** is written by Tempus the first time a note is saved. A value
   supplied when creating a note is kept, so imported notes retain their history.
2. **` + "`" + `modified` + "`" + `** is written by Tempus every time the note content changes and
   whenever the note is touched with the ` + "`" + `touch_note` + "`" + ` tool. Saving identical content
   leaves it alone.
3. Both are RFC 3339 datetimes in UTC. Dates such as ` + "`" + `2025-01-15` + "`" + ` are accepted
   on input and read as midnight UTC.
4. Omit both keys when updating a note to keep their current values.
5. Depending on configuration a vault may manage only one of the two keys.

## Rules

1. **YAML frontmatter comes first.** The ` + "```" + `---` + "```" + ` fences must be the first
   thing in the file (no leading blank lines).
2. **` + "`" + `title` + "`" + ` field is required.** It is the primary display name everywhere.
3. **Tags** are lowercase, kebab-case (e.g. ` + "`" + `project-x` + "`" + `, ` + "`" + `meeting-notes` + "`" + `).
4. **Wikilinks** use double brackets: ` + "`" + `[[other-note]]` + "`" + `. The target is the
   filename stem (no ` + "`" + `.md` + "`" + ` extension, path separators OK: ` + "`" + `[[folder/note]]` + "`" + `).
5. **File paths** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
6. **Encoding** is UTF-8 with a trailing newline.
7. Unknown frontmatter keys are preserved as written.

## Example

` + "```" + `markdown
---
title: Weekly standup 2025-01-20
tags:
  - meeting-notes
  - project-x
created: "2025-01-20T08:55:00Z"
modified: "2025-01-20T10:12:43Z"
---

# Weekly standup 2025-01-20

Attendees: Alice, Bob.

## Action items

- [[alice]] to review the [[design-doc]]
- Bob to update [[project-x/roadmap|the roadmap]]
` + "```" + `
`
