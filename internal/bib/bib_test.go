package bib

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"
)

const sampleBib = `
@article{smith2020,
  author = {Smith, Jane and Doe, John},
  title = {A {Study} of Things},
  year = 2020,
  doi = {10.1000/xyz123}
}

@book{knuth1984,
  author = "Donald E. Knuth",
  title = "The TeXbook",
  date = {1984-01-01},
  url = {https://example.org/texbook}
}

@misc{bare,
  title = Untitled,
  year = 1999}
`

func TestParse(t *testing.T) {
	t.Parallel()

	entries := Parse(sampleBib)
	if len(entries) != 3 {
		t.Fatalf("len(Parse()) = %d, want 3", len(entries))
	}

	tests := []struct {
		key  string
		want Entry
	}{
		{
			key: "smith2020",
			want: Entry{
				Key:    "smith2020",
				Type:   "article",
				Author: "Smith, Jane and Doe, John",
				Year:   "2020",
				Title:  "A Study of Things",
				URL:    "https://doi.org/10.1000/xyz123",
				DOI:    "10.1000/xyz123",
			},
		},
		{
			key: "knuth1984",
			want: Entry{
				Key:    "knuth1984",
				Type:   "book",
				Author: "Donald E. Knuth",
				Year:   "1984",
				Title:  "The TeXbook",
				URL:    "https://example.org/texbook",
			},
		},
		{
			key: "bare",
			want: Entry{
				Key:   "bare",
				Type:  "misc",
				Year:  "1999",
				Title: "Untitled",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()

			got, ok := entries[tt.key]
			if !ok {
				t.Fatalf("entry %q missing", tt.key)
			}
			if got != tt.want {
				t.Errorf("entry %q = %+v, want %+v", tt.key, got, tt.want)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []string{
		"",
		"not a bibliography",
		"@article{",
		"@article{nokeycomma}",
	}
	for _, src := range tests {
		if got := Parse(src); len(got) != 0 {
			t.Errorf("Parse(%q) = %v, want empty", src, got)
		}
	}
}

func TestParse_DuplicateKeepsFirst(t *testing.T) {
	t.Parallel()

	entries := Parse("@a{k, title={First}}\n@a{k, title={Second}}")
	if got := entries["k"].Title; got != "First" {
		t.Errorf("Title = %q, want %q", got, "First")
	}
}

type stubLoader struct {
	data []byte
	err  error
	ref  string
	base string
}

func (s *stubLoader) Load(_ context.Context, ref, base string) ([]byte, error) {
	s.ref, s.base = ref, base
	return s.data, s.err
}

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	t.Run("loads relative to base", func(t *testing.T) {
		t.Parallel()

		loader := &stubLoader{data: []byte(sampleBib)}
		r := NewResolver(loader, zaptest.NewLogger(t))
		got := r.Resolve(context.Background(), "refs.bib", "https://example.org/docs/deck.md")
		if len(got) != 3 {
			t.Errorf("len(Resolve()) = %d, want 3", len(got))
		}
		if loader.ref != "refs.bib" || loader.base != "https://example.org/docs/deck.md" {
			t.Errorf("loader called with (%q, %q)", loader.ref, loader.base)
		}
	})

	t.Run("fetch failure yields empty map", func(t *testing.T) {
		t.Parallel()

		r := NewResolver(&stubLoader{err: errors.New("404")}, zaptest.NewLogger(t))
		got := r.Resolve(context.Background(), "refs.bib", "")
		if got == nil || len(got) != 0 {
			t.Errorf("Resolve() = %v, want empty non-nil map", got)
		}
	})

	t.Run("no declaration", func(t *testing.T) {
		t.Parallel()

		loader := &stubLoader{data: []byte(sampleBib)}
		r := NewResolver(loader, nil)
		if got := r.Resolve(context.Background(), "", ""); len(got) != 0 {
			t.Errorf("Resolve() = %v, want empty", got)
		}
		if loader.ref != "" {
			t.Error("loader should not be called without a path")
		}
	})
}
