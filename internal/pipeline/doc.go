// Package pipeline implements the Markdown-to-HTML stages of a render.
//
// This package handles:
//   - Markdown preprocessing (line normalization, ==highlight== syntax)
//   - Markdown to HTML conversion via Goldmark
//   - heading id generation shared by every fragment of one document
//   - inline rendering of footnote text
//   - post-processing of the parsed fragment tree (table wrappers, relative
//     media paths)
//
// Reference markers and diagrams are lifted out of the Markdown before
// conversion and expanded afterwards, so goldmark never needs raw HTML.
package pipeline
