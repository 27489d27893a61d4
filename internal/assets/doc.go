// Package assets provides the stylesheet, runtime script and page template
// embedded in rendered documents.
//
// # Loader Architecture
//
// The package implements a layered loading system:
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in assets)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver is the loader used by the converter. It tries the custom
// FilesystemLoader first, falling back to EmbeddedLoader if the asset is not
// found. This enables overriding one asset while keeping the others.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css
//	├── scripts/
//	│   └── {name}.js
//	└── templates/
//	    └── {name}.html
//
// # Registry
//
// A Registry collects the styles and scripts of one rendered page. Inserts are
// keyed by id and idempotent; concurrent loads of the same id share one read.
// Each render owns its own Registry.
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets
