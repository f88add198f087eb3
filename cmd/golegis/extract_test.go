package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunobiangulo/golegis"
	"github.com/brunobiangulo/golegis/export"
)

const familyText = "Article 1.- Le mariage est l'union d'un homme et d'une femme.\n" +
	"Article 2.- Les futurs époux doivent consentir au mariage.\n"

func TestExtractCommandWritesOutputs(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "code_famille.txt")
	require.NoError(t, os.WriteFile(src, []byte(familyText), 0o644))
	out := filepath.Join(dir, "out")

	cmd := rootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"extract", src, "--out", out, "--format", "json,ts,xlsx",
		"--extracted-at", "2024-05-01T00:00:00Z", "--log-level", "error",
		"--metrics-file", filepath.Join(dir, "golegis.prom")})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, stdout.String(), "2 articles from 1 documents")
	for _, ext := range []string{".json", ".ts", ".xlsx"} {
		assert.FileExists(t, filepath.Join(out, "legal_articles"+ext))
	}
	assert.FileExists(t, filepath.Join(dir, "golegis.prom"))

	f, err := os.Open(filepath.Join(out, "legal_articles.json"))
	require.NoError(t, err)
	defer f.Close()
	md, arts, err := export.ReadJSON(f)
	require.NoError(t, err)
	assert.Equal(t, 2, md.TotalArticles)
	assert.Equal(t, "2024-05-01T00:00:00Z", md.ExtractedAt)
	assert.Equal(t, "numbered_article", md.ExtractionMethod)
	assert.Equal(t, "code_famille_1", arts[0].ID)
}

func TestExtractCommandWithoutSources(t *testing.T) {
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"extract", "--log-level", "error"})
	assert.ErrorIs(t, cmd.Execute(), golegis.ErrNoSources)
}

func TestResolveSourcesPrecedence(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "corpus.yaml")
	require.NoError(t, os.WriteFile(manifest, []byte("sources:\n  - path: lois/a.txt\n"), 0o644))

	cfg := golegis.DefaultConfig()
	cfg.Sources = []golegis.SourceSpec{{Path: "/config/source.txt"}}

	specs, err := resolveSources(cfg, manifest, []string{"cli.txt"})
	require.NoError(t, err)
	assert.Equal(t, "cli.txt", specs[0].Path)

	specs, err = resolveSources(cfg, manifest, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "lois/a.txt"), specs[0].Path)

	specs, err = resolveSources(cfg, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "/config/source.txt", specs[0].Path)
}

func TestWatchDirs(t *testing.T) {
	dirs := watchDirs("/corpus/manifest.yaml", []golegis.SourceSpec{
		{Path: "/corpus/pdfs/code.pdf"},
		{Path: "/corpus/lois/**/*.txt"},
		{Path: "/corpus/pdfs/*.pdf"},
	})
	assert.Equal(t, []watchDir{
		{path: "/corpus", recursive: false},
		{path: "/corpus/lois", recursive: true},
		{path: "/corpus/pdfs", recursive: false},
	}, dirs)
}

func TestWatcherRelevant(t *testing.T) {
	w := &sourceWatcher{
		opts:    extractOptions{manifest: "/corpus/manifest.yaml"},
		formats: []string{"pdf", "txt"},
	}
	assert.True(t, w.relevant("/corpus/manifest.yaml"))
	assert.True(t, w.relevant("/corpus/lois/a.txt"))
	assert.False(t, w.relevant("/corpus/out/legal_articles.json.tmp"))
	assert.False(t, w.relevant("/corpus/notes.docx"))
}

func TestWatcherRecursesOnlyUnderDoubleStar(t *testing.T) {
	w := &sourceWatcher{recursiveRoots: []string{"/corpus/lois"}}
	assert.True(t, w.underRecursiveRoot("/corpus/lois/2024"))
	assert.True(t, w.underRecursiveRoot("/corpus/lois/2024/janvier"))
	assert.False(t, w.underRecursiveRoot("/corpus/lois"))
	assert.False(t, w.underRecursiveRoot("/corpus/pdfs/annexes"))
	assert.False(t, w.underRecursiveRoot("/corpus/loisirs"))
	assert.False(t, (&sourceWatcher{}).underRecursiveRoot("/corpus/lois/2024"))
}

func TestEvalCommandBuiltin(t *testing.T) {
	dir := t.TempDir()
	cmd := rootCmd()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"eval", "--log-level", "error", "--output", filepath.Join(dir, "report.json")})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "=== Evaluation Report: Senegalese legal corpus ===")
	assert.FileExists(t, filepath.Join(dir, "report.json"))
}
