package export

import (
	"encoding/json"
	"io"

	"github.com/brunobiangulo/golegis/article"
)

// JSONWriter writes {"metadata": ..., "articles": [...]}.
type JSONWriter struct {
	Indent string
}

func (JSONWriter) Format() string    { return "json" }
func (JSONWriter) Extension() string { return ".json" }

func (j JSONWriter) Write(w io.Writer, md Metadata, articles []article.Article) error {
	if articles == nil {
		articles = []article.Article{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if j.Indent != "" {
		enc.SetIndent("", j.Indent)
	}
	return enc.Encode(struct {
		Metadata Metadata          `json:"metadata"`
		Articles []article.Article `json:"articles"`
	}{md, articles})
}

// ReadJSON decodes a file written by JSONWriter.
func ReadJSON(r io.Reader) (Metadata, []article.Article, error) {
	var doc struct {
		Metadata Metadata          `json:"metadata"`
		Articles []article.Article `json:"articles"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Metadata{}, nil, err
	}
	return doc.Metadata, doc.Articles, nil
}
