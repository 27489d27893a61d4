package mdpress

import (
	"errors"

	"github.com/alnah/go-mdpress/internal/layout"
	"github.com/alnah/go-mdpress/internal/pipeline"
)

// Sentinel errors for library operations.
var (
	ErrEmptyMarkdown    = errors.New("markdown content cannot be empty")
	ErrMissingSource    = errors.New("document source is required")
	ErrMissingContainer = errors.New("container id is required")
	ErrDocumentFetch    = errors.New("failed to fetch document")
	ErrDiagramTimeout   = errors.New("diagram engine not ready")
	ErrPoolClosed       = errors.New("converter pool is closed")

	// Conversion and layout errors raised by internal stages.
	ErrHTMLConversion  = pipeline.ErrHTMLConversion
	ErrInvalidViewport = layout.ErrInvalidViewport
	ErrBrowserConnect  = layout.ErrBrowserConnect
	ErrPageLoad        = layout.ErrPageLoad
	ErrMeasure         = layout.ErrMeasure

	// Option validation errors.
	ErrInvalidMinWidth = errors.New("invalid two-column minimum width")

	// Asset loading errors.
	ErrStyleNotFound    = errors.New("style not found")
	ErrScriptNotFound   = errors.New("script not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
)
