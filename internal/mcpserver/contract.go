package mcpserver

// NoteFormatContract describes the Markdown format accepted by create_note
// and produced by read_note.
const NoteFormatContract = `# Notely Note Format

Notes are exchanged as Markdown with an optional YAML frontmatter header.

## Structure

` + "```" + `markdown
---
title: Human-readable title   # OPTIONAL, falls back to the first H1, then "Untitled Note"
tags:                          # OPTIONAL, YAML list; duplicates are dropped
  - tag-one
favorite: false                # OPTIONAL
public: false                  # OPTIONAL, public notes get a slug and appear in list_public_notes
---

Body text in standard Markdown. Inline #tags are added to the tag list.
` + "```" + `

## Rules

1. Frontmatter keys are ` + "`title`, `tags`, `favorite`, `public`" + `. Others written by read_note
   (` + "`slug`, `created`, `updated`" + `) are ignored on create.
2. Tags keep the order they are first seen in.
3. Note ids are UUIDs; use list_notes or search_notes to find them.
`
