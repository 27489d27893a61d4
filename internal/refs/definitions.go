package refs

import "sync"

// Definitions is the document-wide footnote registry shared by every slide
// of one render. It lets a reference in one slide resolve a definition
// written in another. The zero value is ready to use.
type Definitions struct {
	mu   sync.RWMutex
	defs map[string]string
}

// Add records defs. Keys already present keep their first definition.
func (d *Definitions) Add(defs map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.defs == nil {
		d.defs = make(map[string]string, len(defs))
	}
	for k, v := range defs {
		if _, ok := d.defs[k]; !ok {
			d.defs[k] = v
		}
	}
}

// Lookup returns the definition of key.
func (d *Definitions) Lookup(key string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.defs[key]
	return v, ok
}

// Len returns the number of known definitions.
func (d *Definitions) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.defs)
}

// Resolver picks the display text of a footnote.
type Resolver struct {
	Local    map[string]string
	Global   *Definitions
	Original string

	once    sync.Once
	scanned map[string]string
}

// FootnoteText returns the definition of key, looking in the local
// definitions, then the global registry, then a fresh scan of the
// unprocessed document. When all fail the key itself is returned.
func (r *Resolver) FootnoteText(key string) string {
	if v, ok := r.Local[key]; ok {
		return v
	}
	if r.Global != nil {
		if v, ok := r.Global.Lookup(key); ok {
			return v
		}
	}
	r.once.Do(func() {
		r.scanned = ScanDefinitions(r.Original)
	})
	if v, ok := r.scanned[key]; ok {
		return v
	}
	return key
}
