package export

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/brunobiangulo/golegis/article"
)

const tsHeader = `// Legal articles extracted by golegis. Do not edit.

export interface LegalContent {
  id: string;
  title: string;
  category: string;
  content: string;
  summary?: string;
  language: string;
  tags?: string[];
  published_by?: string | null;
  is_published: boolean;
  views_count: number;
  created_at: string;
  updated_at: string;
}

export const LEGAL_ARTICLES: LegalContent[] = [
`

// TypeScriptWriter writes a module exporting LEGAL_ARTICLES and
// LEGAL_ARTICLES_METADATA. Content goes in template literals; every other
// string is a JSON string literal.
type TypeScriptWriter struct{}

func (TypeScriptWriter) Format() string    { return "ts" }
func (TypeScriptWriter) Extension() string { return ".ts" }

func (TypeScriptWriter) Write(w io.Writer, md Metadata, articles []article.Article) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(tsHeader)
	for i, a := range articles {
		tags := a.Tags
		if tags == nil {
			tags = []string{}
		}
		publishedBy := "null"
		if a.PublishedBy != nil {
			publishedBy = jsString(*a.PublishedBy)
		}
		fmt.Fprintf(bw, "  {\n")
		fmt.Fprintf(bw, "    id: %s,\n", jsString(a.ID))
		fmt.Fprintf(bw, "    title: %s,\n", jsString(a.Title))
		fmt.Fprintf(bw, "    category: %s,\n", jsString(a.Category))
		fmt.Fprintf(bw, "    content: `%s`,\n", templateEscape(a.Content))
		fmt.Fprintf(bw, "    summary: %s,\n", jsString(a.Summary))
		fmt.Fprintf(bw, "    language: %s,\n", jsString(a.Language))
		fmt.Fprintf(bw, "    tags: %s,\n", jsValue(tags))
		fmt.Fprintf(bw, "    published_by: %s,\n", publishedBy)
		fmt.Fprintf(bw, "    is_published: %t,\n", a.Published)
		fmt.Fprintf(bw, "    views_count: %d,\n", a.ViewCount)
		fmt.Fprintf(bw, "    created_at: %s,\n", jsString(a.CreatedAt))
		fmt.Fprintf(bw, "    updated_at: %s\n", jsString(a.UpdatedAt))
		bw.WriteString("  }")
		if i < len(articles)-1 {
			bw.WriteString(",")
		}
		bw.WriteString("\n")
	}
	bw.WriteString("];\n\n")
	fmt.Fprintf(bw, "export const LEGAL_ARTICLES_METADATA = %s;\n", jsValue(md))
	return bw.Flush()
}

var templateReplacer = strings.NewReplacer("\\", "\\\\", "`", "\\`", "${", "\\${")

func templateEscape(s string) string { return templateReplacer.Replace(s) }

func jsString(s string) string { return jsValue(s) }

// jsValue renders v as JSON, which is valid JavaScript for strings,
// arrays and plain objects.
func jsValue(v any) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "null"
	}
	return strings.TrimSuffix(b.String(), "\n")
}
