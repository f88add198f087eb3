package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/golegis/article"
)

func sampleArticles() []article.Article {
	return []article.Article{
		{
			ID: "code_famille_1", Number: "Article 1", Title: "Code de la Famille - Article 1",
			Category: "code_famille", Content: "Le mariage est l'union d'un homme et d'une femme.",
			Language: "fr", Tags: []string{"code famille", "1"}, SourceID: "code_famille",
			Published: true, CreatedAt: "2024-01-01T00:00:00Z", UpdatedAt: "2024-01-01T00:00:00Z",
		},
		{
			ID: "code_penal_4", Number: "Article 4", Title: `Code "Pénal" - Article 4`,
			Category: "loi_penale", Content: "Le montant `${x}` est fixé par voie\\réglementaire.",
			Language: "fr", SourceID: "code_penal",
			Published: true, CreatedAt: "2024-01-01T00:00:00Z", UpdatedAt: "2024-01-01T00:00:00Z",
		},
	}
}

func sampleMetadata(arts []article.Article) Metadata {
	return NewMetadata("run-1", "corpus.yaml", "numbered_article", "2024-01-01T00:00:00Z", arts)
}

func TestNewMetadata(t *testing.T) {
	md := sampleMetadata(sampleArticles())
	assert.Equal(t, 2, md.TotalArticles)
	assert.Equal(t, map[string]int{"code_famille": 1, "loi_penale": 1}, md.Categories)
	assert.Equal(t, Version, md.Version)
}

func TestForFormat(t *testing.T) {
	for _, name := range []string{"json", "ts", "TypeScript", "xlsx"} {
		_, err := ForFormat(name)
		assert.NoError(t, err, name)
	}
	_, err := ForFormat("csv")
	assert.Error(t, err)
}

// ---------------------------------------------------------------------------
// JSON
// ---------------------------------------------------------------------------

func TestJSONWriterRoundTrip(t *testing.T) {
	arts := sampleArticles()
	var buf bytes.Buffer
	require.NoError(t, JSONWriter{Indent: "  "}.Write(&buf, sampleMetadata(arts), arts))

	out := buf.String()
	assert.Contains(t, out, `"is_published": true`)
	assert.Contains(t, out, `"published_by": null`)
	assert.Contains(t, out, `"views_count": 0`)
	assert.NotContains(t, out, "Position")

	md, got, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, 2, md.TotalArticles)
	require.Len(t, got, 2)
	assert.Equal(t, arts[1].Content, got[1].Content)
}

func TestJSONWriterEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONWriter{}.Write(&buf, sampleMetadata(nil), nil))
	assert.Contains(t, buf.String(), `"articles":[]`)
}

// ---------------------------------------------------------------------------
// TypeScript
// ---------------------------------------------------------------------------

func TestTypeScriptWriter(t *testing.T) {
	arts := sampleArticles()
	var buf bytes.Buffer
	require.NoError(t, TypeScriptWriter{}.Write(&buf, sampleMetadata(arts), arts))
	out := buf.String()

	assert.Contains(t, out, "export interface LegalContent {")
	assert.Contains(t, out, "export const LEGAL_ARTICLES: LegalContent[] = [")
	assert.Contains(t, out, `id: "code_famille_1",`)
	assert.Contains(t, out, `title: "Code \"Pénal\" - Article 4",`)
	assert.Contains(t, out, "content: `Le montant \\`\\${x}\\` est fixé par voie\\\\réglementaire.`,")
	assert.Contains(t, out, `tags: [],`)
	assert.Contains(t, out, `published_by: null,`)
	assert.Contains(t, out, `"total_articles":2`)
	assert.Equal(t, 1, strings.Count(out, "  },\n"), "separator between the two entries only")
}

func TestTemplateEscape(t *testing.T) {
	assert.Equal(t, "a\\`b\\${c}\\\\d", templateEscape("a`b${c}\\d"))
	assert.Equal(t, "$ {ok}", templateEscape("$ {ok}"))
}

// ---------------------------------------------------------------------------
// XLSX
// ---------------------------------------------------------------------------

func TestXLSXWriter(t *testing.T) {
	arts := sampleArticles()
	var buf bytes.Buffer
	require.NoError(t, XLSXWriter{}.Write(&buf, sampleMetadata(arts), arts))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{articlesSheet, categoriesSheet, metadataSheet}, f.GetSheetList())

	rows, err := f.GetRows(articlesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "code_famille_1", rows[1][0])
	assert.Equal(t, "loi_penale", rows[2][3])

	cats, err := f.GetRows(categoriesSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"code_famille", "1"}, cats[1])
}

func TestCellText(t *testing.T) {
	long := strings.Repeat("é", maxCellChars+10)
	got := cellText(long)
	assert.Equal(t, maxCellChars, len([]rune(got)))
}

// ---------------------------------------------------------------------------
// WriteFile
// ---------------------------------------------------------------------------

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	arts := sampleArticles()
	path, err := WriteFile(dir, "legal_articles", JSONWriter{}, sampleMetadata(arts), arts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "legal_articles.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "code_penal_4")

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}
