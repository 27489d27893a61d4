package assets

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Style is one stylesheet inlined into the page head.
type Style struct {
	ID  string
	CSS string
}

// Script is one script appended to the page body, inline or by URL.
type Script struct {
	ID  string
	Src string
	JS  string
}

// Registry collects the styles and scripts of one page. Every insert is
// keyed by id and happens at most once; later inserts with a known id are
// ignored. Loads through the registry's loader are shared between
// concurrent callers asking for the same id.
type Registry struct {
	loader AssetLoader
	loads  singleflight.Group

	mu      sync.Mutex
	seen    map[string]struct{}
	styles  []Style
	scripts []Script
}

// NewRegistry creates an empty Registry. A nil loader uses the embedded assets.
func NewRegistry(loader AssetLoader) *Registry {
	if loader == nil {
		loader = defaultLoader
	}
	return &Registry{loader: loader, seen: map[string]struct{}{}}
}

// Has reports whether id was already inserted.
func (r *Registry) Has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[id]
	return ok
}

// claim marks id as inserted and reports whether the caller got it first.
func (r *Registry) claim(id string) bool {
	if _, ok := r.seen[id]; ok {
		return false
	}
	r.seen[id] = struct{}{}
	return true
}

// AddStyle inserts css under id. It returns false if id is already present.
func (r *Registry) AddStyle(id, css string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.claim(id) {
		return false
	}
	r.styles = append(r.styles, Style{ID: id, CSS: css})
	return true
}

// AddScript inserts an inline script under id.
func (r *Registry) AddScript(id, js string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.claim(id) {
		return false
	}
	r.scripts = append(r.scripts, Script{ID: id, JS: js})
	return true
}

// AddScriptSrc inserts an external script under id.
func (r *Registry) AddScriptSrc(id, src string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.claim(id) {
		return false
	}
	r.scripts = append(r.scripts, Script{ID: id, Src: src})
	return true
}

// EnsureStyle loads the named style and inserts it under id unless id is
// already present.
func (r *Registry) EnsureStyle(id, name string) error {
	if r.Has(id) {
		return nil
	}
	v, err, _ := r.loads.Do("style:"+id, func() (any, error) {
		return r.loader.LoadStyle(name)
	})
	if err != nil {
		return err
	}
	r.AddStyle(id, v.(string))
	return nil
}

// EnsureScript loads the named script and inserts it inline under id unless
// id is already present.
func (r *Registry) EnsureScript(id, name string) error {
	if r.Has(id) {
		return nil
	}
	v, err, _ := r.loads.Do("script:"+id, func() (any, error) {
		return r.loader.LoadScript(name)
	})
	if err != nil {
		return err
	}
	r.AddScript(id, v.(string))
	return nil
}

// Styles returns the inserted styles in insertion order.
func (r *Registry) Styles() []Style {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Style(nil), r.styles...)
}

// Scripts returns the inserted scripts in insertion order.
func (r *Registry) Scripts() []Script {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Script(nil), r.scripts...)
}
