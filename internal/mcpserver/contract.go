package mcpserver

// CatalogFormatContract describes the weekly catalog document that LLM
// consumers must send to update_catalog.
const CatalogFormatContract = `# Canti Catalog Format

The catalog is one JSON object holding the songs chosen for a Sunday.

## Structure

` + "```" + `json
{
  "domenica": "23 giugno 2025",
  "canti": [
    "Inno",
    {"id": "42", "title": "Gloria", "link": "https://www.youtube.com/watch?v=..."}
  ]
}
` + "```" + `

## Rules

1. **` + "`" + `domenica` + "`" + ` is required.** It is free text, conventionally the Italian
   date of the Sunday ("23 giugno 2025"). Leading and trailing spaces are trimmed.
2. **` + "`" + `canti` + "`" + ` is required** and must be a list (it may be empty).
   ` + "`" + `null` + "`" + ` counts as missing.
3. Each entry is either a plain title string or an object with ` + "`" + `title` + "`" + `
   and optional ` + "`" + `id` + "`" + ` and ` + "`" + `link` + "`" + `. Entries with a blank title are dropped.
4. Order is preserved. Saving **replaces** the whole document: send every song,
   not only the changed ones.
5. Song titles should match the display names returned by ` + "`" + `list_songs` + "`" + `
   when a page for the song exists.

## Lyrics sheets

` + "`" + `create_lyrics` + "`" + ` stores a new sheet named after the title (lowercase, accents
removed, spaces as dashes, ` + "`" + `.txt` + "`" + `). Title and lyrics are required; an
existing sheet is never overwritten.
`
