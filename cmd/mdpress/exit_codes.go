package main

import (
	"errors"
	"os"

	mdpress "github.com/alnah/go-mdpress"
	"github.com/alnah/go-mdpress/internal/config"
)

// Exit codes for the mdpress CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful render or clean server shutdown
	ExitGeneral = 1 // General/unexpected error
	ExitUsage   = 2 // Invalid flags, config, or validation
	ExitIO      = 3 // File not found, permission denied, fetch failure
	ExitBrowser = 4 // Browser/Chrome errors
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Browser errors (exit 4)
	if errors.Is(err, mdpress.ErrBrowserConnect) ||
		errors.Is(err, mdpress.ErrPageLoad) ||
		errors.Is(err, mdpress.ErrMeasure) {
		return ExitBrowser
	}

	// I/O errors (exit 3)
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, mdpress.ErrDocumentFetch) ||
		errors.Is(err, ErrReadMarkdown) ||
		errors.Is(err, ErrWriteHTML) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrServeRoot) {
		return ExitIO
	}

	// Usage/config/validation errors (exit 2)
	if errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, mdpress.ErrEmptyMarkdown) ||
		errors.Is(err, mdpress.ErrMissingSource) ||
		errors.Is(err, mdpress.ErrMissingContainer) ||
		errors.Is(err, mdpress.ErrInvalidMinWidth) ||
		errors.Is(err, mdpress.ErrInvalidViewport) ||
		errors.Is(err, mdpress.ErrStyleNotFound) ||
		errors.Is(err, mdpress.ErrScriptNotFound) ||
		errors.Is(err, mdpress.ErrTemplateNotFound) ||
		errors.Is(err, mdpress.ErrInvalidAssetPath) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidTimeout) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrInvalidFlags) {
		return ExitUsage
	}

	return ExitGeneral
}
