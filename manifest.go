package golegis

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/golegis/article"
	"github.com/brunobiangulo/golegis/source"
	"github.com/brunobiangulo/golegis/textnorm"
)

// SourceSpec is one manifest entry: a file (or glob of files) and the
// metadata attached to the documents read from it.
type SourceSpec struct {
	Path      string `json:"path" yaml:"path"`
	SourceID  string `json:"source_id,omitempty" yaml:"source_id,omitempty"`
	Title     string `json:"title,omitempty" yaml:"title,omitempty"`
	Category  string `json:"category,omitempty" yaml:"category,omitempty"`
	Format    string `json:"format,omitempty" yaml:"format,omitempty"`
	Date      string `json:"date,omitempty" yaml:"date,omitempty"`
	Number    string `json:"number,omitempty" yaml:"number,omitempty"`
	Domain    string `json:"domain,omitempty" yaml:"domain,omitempty"`
	Keywords  string `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Authority string `json:"authority,omitempty" yaml:"authority,omitempty"`
}

// Manifest lists the sources of a corpus.
//
//	sources:
//	  - path: pdfs/CODE-DE-LA-FAMILLE.pdf
//	    source_id: code_famille
//	    title: Code de la Famille du Sénégal
//	    category: code_famille
//	    date: "1972-06-12"
//	  - path: lois/**/*.txt
type Manifest struct {
	Sources []SourceSpec `json:"sources" yaml:"sources"`
}

// LoadManifest reads a YAML (or JSON) manifest. Relative paths are
// resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parsing manifest %s: %v", ErrInvalidConfig, path, err)
	}
	dir := filepath.Dir(path)
	for i, s := range m.Sources {
		if strings.TrimSpace(s.Path) == "" {
			return nil, fmt.Errorf("%w: manifest entry %d has no path", ErrInvalidConfig, i)
		}
		if !filepath.IsAbs(s.Path) {
			m.Sources[i].Path = filepath.Join(dir, s.Path)
		}
	}
	return &m, nil
}

// SourcesFromPaths turns bare file paths (or globs) into specs.
func SourcesFromPaths(paths []string) []SourceSpec {
	specs := make([]SourceSpec, 0, len(paths))
	for _, p := range paths {
		specs = append(specs, SourceSpec{Path: p})
	}
	return specs
}

// Expand resolves glob patterns into one spec per matching file, sorted
// lexically within each pattern. Specs without glob characters pass
// through unchanged, even when the file does not exist; reading reports
// that. Missing ids and titles are derived from the file name.
func Expand(specs []SourceSpec) ([]SourceSpec, error) {
	var out []SourceSpec
	for _, s := range specs {
		if !hasMeta(s.Path) {
			out = append(out, withDefaults(s, false))
			continue
		}
		matches, err := doublestar.FilepathGlob(s.Path, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%w: bad pattern %q: %v", ErrInvalidConfig, s.Path, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			spec := s
			spec.Path = m
			out = append(out, withDefaults(spec, true))
		}
	}
	return out, nil
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}

// withDefaults fills the id and title from the file stem. Specs expanded
// from a glob always take their id from the file, since a shared id would
// make every match the same document.
func withDefaults(s SourceSpec, fromGlob bool) SourceSpec {
	stem := strings.TrimSuffix(filepath.Base(s.Path), filepath.Ext(s.Path))
	if s.SourceID == "" || fromGlob {
		s.SourceID = textnorm.Slug(stem, '_')
	}
	if s.Title == "" || fromGlob {
		s.Title = strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(stem))
	}
	if s.Format == "" {
		s.Format = source.FormatOf(s.Path)
	}
	return s
}

// document builds the core record for s with its extracted text.
func (s SourceSpec) document(text string) article.Document {
	return article.Document{
		SourceID:       s.SourceID,
		Title:          s.Title,
		Category:       s.Category,
		Text:           text,
		PromulgatedAt:  s.Date,
		OfficialNumber: s.Number,
		Domain:         s.Domain,
		Keywords:       s.Keywords,
		Authority:      s.Authority,
		Format:         s.Format,
		Path:           s.Path,
	}
}
