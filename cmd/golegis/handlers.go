package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/brunobiangulo/golegis"
	"github.com/brunobiangulo/golegis/article"
	"github.com/brunobiangulo/golegis/export"
	"github.com/brunobiangulo/golegis/metrics"
	"github.com/brunobiangulo/golegis/store"
)

const (
	maxRequestBytes = 64 << 20
	defaultPageSize = 50
	maxPageSize     = 500
)

type handler struct {
	ext     *golegis.Extractor
	store   *store.Store // nil when running without a database
	metrics *metrics.Metrics
	results *lru.Cache[string, *golegis.Result]
}

func newHandler(ext *golegis.Extractor, st *store.Store, m *metrics.Metrics, cacheSize int) (*handler, error) {
	if cacheSize <= 0 {
		cacheSize = 1
	}
	cache, err := lru.NewWithEvict[string, *golegis.Result](cacheSize, func(key string, res *golegis.Result) {
		slog.Debug("extract cache: evicted", "run_id", key, "articles", len(res.Articles))
	})
	if err != nil {
		return nil, err
	}
	return &handler{ext: ext, store: st, metrics: m, results: cache}, nil
}

func (h *handler) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /extract", h.handleExtract)
	mux.HandleFunc("GET /articles", h.handleListArticles)
	mux.HandleFunc("GET /articles/{id}", h.handleGetArticle)
	mux.HandleFunc("GET /search", h.handleSearch)
	mux.HandleFunc("GET /categories", h.handleCategories)
	mux.HandleFunc("GET /documents", h.handleListDocuments)
	mux.HandleFunc("GET /runs/last", h.handleLastRun)
	mux.HandleFunc("GET /health", h.handleHealth)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}
	return mux
}

type extractRequest struct {
	Documents []article.Document `json:"documents"`
	Format    string             `json:"format,omitempty"` // json (default), ts, xlsx
	Persist   bool               `json:"persist,omitempty"`
}

// POST /extract
// Runs the pipeline over the posted documents. Identical inputs are
// answered from an LRU cache keyed by run id.
func (h *handler) handleExtract(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	var req extractRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, http.StatusBadRequest, "documents are required")
		return
	}
	for i, d := range req.Documents {
		if strings.TrimSpace(d.SourceID) == "" {
			writeError(w, http.StatusBadRequest, "documents["+strconv.Itoa(i)+"].source_id is required")
			return
		}
	}
	format := req.Format
	if format == "" {
		format = "json"
	}
	wr, err := export.ForFormat(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Persist && h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no database configured")
		return
	}

	runID := h.ext.RunID(req.Documents)
	res, cached := h.results.Get(runID)
	if !cached {
		res, err = h.ext.Run(ctx, req.Documents)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "extraction interrupted")
			slog.Error("extract error", "run_id", runID, "error", err)
			return
		}
		h.results.Add(runID, res)
	}

	if req.Persist {
		if _, err := golegis.Save(ctx, h.store, res, req.Documents, false); err != nil {
			writeError(w, http.StatusInternalServerError, "saving failed")
			slog.Error("save error", "run_id", runID, "error", err)
			return
		}
	}

	if wr.Format() == "json" {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"run_id":    res.RunID,
			"cached":    cached,
			"stats":     res.Stats,
			"documents": res.Documents,
			"articles":  res.Articles,
		})
		return
	}

	md := export.NewMetadata(res.RunID, "api", res.Method(), time.Now().UTC().Format(time.RFC3339), res.Articles)
	w.Header().Set("Content-Type", contentType(wr.Format()))
	w.Header().Set("Content-Disposition", `attachment; filename="legal_articles`+wr.Extension()+`"`)
	if err := wr.Write(w, md, res.Articles); err != nil {
		slog.Error("export error", "format", wr.Format(), "error", err)
	}
}

// GET /articles?category=&source_id=&limit=&offset=
func (h *handler) handleListArticles(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	q := r.URL.Query()
	f := store.ArticleFilter{
		Category: q.Get("category"),
		SourceID: q.Get("source_id"),
		Limit:    boundedInt(q.Get("limit"), defaultPageSize, maxPageSize),
		Offset:   boundedInt(q.Get("offset"), 0, -1),
	}
	arts, err := h.store.ListArticles(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list articles")
		slog.Error("list articles error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"articles": nonNil(arts),
		"limit":    f.Limit,
		"offset":   f.Offset,
	})
}

// GET /articles/{id}
func (h *handler) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	id := r.PathValue("id")
	a, err := h.store.GetArticle(r.Context(), id)
	if errors.Is(err, golegis.ErrArticleNotFound) {
		writeError(w, http.StatusNotFound, "article not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get article")
		slog.Error("get article error", "id", id, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GET /search?q=&limit=
func (h *handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}
	limit := boundedInt(r.URL.Query().Get("limit"), defaultPageSize, maxPageSize)
	arts, err := h.store.SearchArticles(r.Context(), q, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "search failed")
		slog.Error("search error", "q", q, "error", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":    q,
		"articles": nonNil(arts),
	})
}

// GET /categories
func (h *handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	counts, err := h.store.CategoryCounts(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to count categories")
		slog.Error("category counts error", "error", err)
		return
	}
	if counts == nil {
		counts = []store.CategoryCount{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"categories": counts,
	})
}

// GET /documents
func (h *handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	docs, err := h.store.ListDocuments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents")
		slog.Error("list documents error", "error", err)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
	})
}

// GET /runs/last
func (h *handler) handleLastRun(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	run, err := h.store.LastRun(r.Context())
	if errors.Is(err, sql.ErrNoRows) {
		writeError(w, http.StatusNotFound, "no run recorded")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to get last run")
		slog.Error("last run error", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": Version,
	}
	if h.store != nil {
		if stats, err := h.store.Stats(r.Context()); err == nil {
			resp["store"] = stats
		} else {
			resp["status"] = "degraded"
			slog.Warn("health: store stats failed", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) requireStore(w http.ResponseWriter) bool {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "no database configured")
		return false
	}
	return true
}

// boundedInt parses s, falling back to def when it is missing or negative.
// A positive max caps the result.
func boundedInt(s string, def, max int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	if max > 0 && n > max {
		return max
	}
	return n
}

func nonNil(arts []article.Article) []article.Article {
	if arts == nil {
		return []article.Article{}
	}
	return arts
}

func contentType(format string) string {
	switch format {
	case "ts":
		return "application/typescript; charset=utf-8"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/json"
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
