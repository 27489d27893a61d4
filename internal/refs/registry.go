package refs

// Kind distinguishes citation markers from footnote markers.
type Kind int

const (
	Citation Kind = iota // [@key]
	Footnote             // [^key]
)

// String returns the marker kind name.
func (k Kind) String() string {
	if k == Citation {
		return "citation"
	}
	return "footnote"
}

// Ref is one numbered reference.
type Ref struct {
	Kind   Kind
	Key    string
	Number int
}

type refKey struct {
	kind Kind
	key  string
}

// Registry records references in first-seen order. Citations and footnotes
// keep separate key lists but draw numbers from one shared counter, so the
// Nth distinct reference of either kind gets number N.
type Registry struct {
	citations []string
	footnotes []string
	numbers   map[refKey]int
	ordered   []Ref
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{numbers: map[refKey]int{}}
}

// Assign returns the number for key, allocating the next one on first sight.
func (r *Registry) Assign(kind Kind, key string) int {
	k := refKey{kind: kind, key: key}
	if n, ok := r.numbers[k]; ok {
		return n
	}
	n := len(r.ordered) + 1
	r.numbers[k] = n
	r.ordered = append(r.ordered, Ref{Kind: kind, Key: key, Number: n})
	if kind == Citation {
		r.citations = append(r.citations, key)
	} else {
		r.footnotes = append(r.footnotes, key)
	}
	return n
}

// Number returns the number assigned to key, if any.
func (r *Registry) Number(kind Kind, key string) (int, bool) {
	n, ok := r.numbers[refKey{kind: kind, key: key}]
	return n, ok
}

// Citations returns citation keys in first-seen order.
func (r *Registry) Citations() []string {
	return append([]string(nil), r.citations...)
}

// Footnotes returns footnote keys in first-seen order.
func (r *Registry) Footnotes() []string {
	return append([]string(nil), r.footnotes...)
}

// Ordered returns all references in number order.
func (r *Registry) Ordered() []Ref {
	return append([]Ref(nil), r.ordered...)
}

// Len returns the number of distinct references.
func (r *Registry) Len() int {
	return len(r.ordered)
}
