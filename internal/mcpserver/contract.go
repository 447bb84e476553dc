package mcpserver

// CornellFormatContract describes the Markdown form of a Cornell note that
// create_cornell_note accepts and read_cornell_note returns.
const CornellFormatContract = `# Studydesk Cornell Note Format

A Cornell note is a Markdown document with YAML frontmatter, a title heading
and two sections.

` + "```" + `markdown
---
title: Photosynthesis               # REQUIRED unless the body starts with "# Title"
subject: Biology                    # OPTIONAL
date: "2024-03-01"                  # OPTIONAL, YYYY-MM-DD, defaults to today
lesson: "4"                         # OPTIONAL lesson number
priority: high                      # OPTIONAL, low | medium | high (default medium)
folder_id: <folder id>              # OPTIONAL, must name an existing folder
tags: [exam, chapter-3]             # OPTIONAL, names of existing tags
keywords:                           # OPTIONAL cue column
  - text: chlorophyll
    definition: green pigment
---

# Photosynthesis

## Notes

Main notes in Markdown.

## Summary

A short summary written after the lesson.
` + "```" + `

## Rules

1. Frontmatter keys are English schema fields; values may use any language.
2. Everything between ` + "`## Notes`" + ` and ` + "`## Summary`" + ` becomes the main notes.
   Everything after ` + "`## Summary`" + ` becomes the summary.
3. Tags that do not exist yet are ignored. Create them in the app first.
4. The ` + "`id`" + ` key is assigned by the server on creation and ignored on input.
5. Encoding is UTF-8.
`
