//go:build cgo

package golegis

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunobiangulo/golegis/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "golegis.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestSavePersistsSequence(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	e := newTestExtractor(t)

	docs := corpus()
	res, err := e.Run(ctx, docs)
	require.NoError(t, err)
	res.Failures = []Failure{{SourceID: "absent", Path: "/corpus/absent.pdf", Message: "missing"}}

	rep, err := Save(ctx, st, res, docs, false)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Saved)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 5, rep.Articles)

	stored, err := st.ListArticles(ctx, store.ArticleFilter{})
	require.NoError(t, err)
	assert.Equal(t, ids(res.Articles), ids(stored))

	doc, err := st.GetDocumentBySourceID(ctx, "loi_72_61")
	require.NoError(t, err)
	assert.Equal(t, store.StatusExtracted, doc.Status)
	assert.Equal(t, 2, doc.ArticleCount)

	failed, err := st.GetDocumentBySourceID(ctx, "absent")
	require.NoError(t, err)
	assert.Equal(t, store.StatusFailed, failed.Status)

	run, err := st.LastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.RunID, run.RunID)
	assert.Equal(t, 5, run.Articles)
}

func TestSaveSkipsUnchangedDocuments(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	e := newTestExtractor(t)

	docs := corpus()
	res, err := e.Run(ctx, docs)
	require.NoError(t, err)
	_, err = Save(ctx, st, res, docs, false)
	require.NoError(t, err)

	rep, err := Save(ctx, st, res, docs, false)
	require.NoError(t, err)
	assert.Equal(t, 0, rep.Saved)
	assert.Equal(t, 3, rep.Skipped)

	rep, err = Save(ctx, st, res, docs, true)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Saved)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Articles)
	assert.Equal(t, 1, stats.Runs, "same input gives the same run id")
}

func TestSaveRewritesRetitledDocument(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	e := newTestExtractor(t)

	docs := corpus()
	res, err := e.Run(ctx, docs)
	require.NoError(t, err)
	_, err = Save(ctx, st, res, docs, false)
	require.NoError(t, err)

	docs[2].Title = "Code pénal (version consolidée)"
	res, err = e.Run(ctx, docs)
	require.NoError(t, err)
	rep, err := Save(ctx, st, res, docs, false)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Saved)
	assert.Equal(t, 2, rep.Skipped)

	a, err := st.GetArticle(ctx, "code_penal_1")
	require.NoError(t, err)
	assert.Equal(t, "Code pénal (version consolidée) - Article 1", a.Title)

	doc, err := st.GetDocumentBySourceID(ctx, "code_penal")
	require.NoError(t, err)
	assert.Equal(t, "Code pénal (version consolidée)", doc.Title)
}

func TestSaveRewritesChangedDocument(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	e := newTestExtractor(t)

	docs := corpus()
	res, err := e.Run(ctx, docs)
	require.NoError(t, err)
	_, err = Save(ctx, st, res, docs, false)
	require.NoError(t, err)

	docs[0].Text += "Article 3.- Le divorce est prononcé par le juge.\n"
	res, err = e.Run(ctx, docs)
	require.NoError(t, err)
	rep, err := Save(ctx, st, res, docs, false)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Saved)
	assert.Equal(t, 2, rep.Skipped)

	a, err := st.GetArticle(ctx, "loi_72_61_3")
	require.NoError(t, err)
	assert.Equal(t, "code_famille", a.Category)

	stored, err := st.ListArticles(ctx, store.ArticleFilter{})
	require.NoError(t, err)
	assert.Equal(t, ids(res.Articles), ids(stored))
}
