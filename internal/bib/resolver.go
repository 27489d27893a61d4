package bib

import (
	"context"

	"go.uber.org/zap"
)

// FrontMatterKeys are the front-matter fields that may name a bibliography
// file, in lookup order.
var FrontMatterKeys = []string{"bibliography", "bib", "references"}

// Loader fetches a resource relative to a base location.
type Loader interface {
	Load(ctx context.Context, ref, base string) ([]byte, error)
}

// Resolver loads and parses the bibliography a document declares.
type Resolver struct {
	loader Loader
	log    *zap.Logger
}

// NewResolver creates a Resolver. A nil logger disables logging.
func NewResolver(loader Loader, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{loader: loader, log: log}
}

// Resolve fetches path relative to base and parses it. Every failure,
// including an empty path, yields an empty map: a missing bibliography only
// means citations render as bare keys.
func (r *Resolver) Resolve(ctx context.Context, path, base string) map[string]Entry {
	if path == "" || r.loader == nil {
		return map[string]Entry{}
	}

	data, err := r.loader.Load(ctx, path, base)
	if err != nil {
		r.log.Debug("bibliography unavailable", zap.String("path", path), zap.Error(err))
		return map[string]Entry{}
	}

	entries := Parse(string(data))
	r.log.Debug("bibliography loaded", zap.String("path", path), zap.Int("entries", len(entries)))
	return entries
}
