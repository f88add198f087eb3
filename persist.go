package golegis

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brunobiangulo/golegis/article"
	"github.com/brunobiangulo/golegis/store"
)

// SaveReport counts what Save wrote.
type SaveReport struct {
	Saved    int `json:"saved"`    // documents whose articles were rewritten
	Skipped  int `json:"skipped"`  // documents unchanged since the last save
	Failed   int `json:"failed"`   // documents recorded as failed
	Articles int `json:"articles"` // articles in the run
}

// Save persists a run: one registry row per document, its articles, the
// global sequence and the run summary. Documents whose text hash matches
// the stored one keep their rows unless force is set. The hash covers the
// document's metadata and the extractor settings as well as its text.
func Save(ctx context.Context, st *store.Store, res *Result, docs []article.Document, force bool) (SaveReport, error) {
	start := time.Now()
	var rep SaveReport
	if res == nil {
		return rep, nil
	}
	rep.Articles = len(res.Articles)

	bySource := make(map[string][]article.Article, len(docs))
	for _, a := range res.Articles {
		bySource[a.SourceID] = append(bySource[a.SourceID], a)
	}

	offset := 0
	for _, doc := range docs {
		arts := bySource[doc.SourceID]
		row := store.DocumentFrom(doc)
		row.ContentHash = documentKey(res.configHash, doc)

		prev, err := st.GetDocumentBySourceID(ctx, doc.SourceID)
		switch {
		case err == nil:
			if !force && prev.ContentHash == row.ContentHash && prev.Status != store.StatusFailed &&
				prev.ArticleCount == len(arts) {
				rep.Skipped++
				offset += len(arts)
				continue
			}
		case errors.Is(err, sql.ErrNoRows):
		default:
			return rep, fmt.Errorf("looking up %s: %w", doc.SourceID, err)
		}

		id, err := st.UpsertDocument(ctx, row)
		if err != nil {
			return rep, fmt.Errorf("saving document %s: %w", doc.SourceID, err)
		}
		if err := st.ReplaceArticles(ctx, id, arts, offset); err != nil {
			return rep, fmt.Errorf("saving articles of %s: %w", doc.SourceID, err)
		}
		status := store.StatusExtracted
		if len(arts) == 0 {
			status = store.StatusEmpty
		}
		if err := st.UpdateDocumentStatus(ctx, id, status, len(arts)); err != nil {
			return rep, err
		}
		offset += len(arts)
		rep.Saved++
	}

	for _, f := range res.Failures {
		if _, err := st.UpsertDocument(ctx, store.Document{
			SourceID: f.SourceID,
			Path:     f.Path,
			Title:    f.SourceID,
			Status:   store.StatusFailed,
		}); err != nil {
			return rep, fmt.Errorf("recording failure of %s: %w", f.SourceID, err)
		}
		rep.Failed++
	}

	ids := make([]string, len(res.Articles))
	for i, a := range res.Articles {
		ids[i] = a.ID
	}
	if err := st.Resequence(ctx, ids); err != nil {
		return rep, fmt.Errorf("resequencing: %w", err)
	}

	if err := st.RecordRun(ctx, store.Run{
		RunID:      res.RunID,
		Documents:  res.Stats.Documents,
		Failed:     res.Stats.Failed,
		Articles:   len(res.Articles),
		Rejected:   res.Stats.Rejected,
		Duplicates: res.Stats.Duplicates,
	}); err != nil {
		return rep, fmt.Errorf("recording run: %w", err)
	}

	slog.Info("store: run saved",
		"run_id", res.RunID, "saved", rep.Saved, "skipped", rep.Skipped,
		"failed", rep.Failed, "articles", rep.Articles,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return rep, nil
}
