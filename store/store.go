package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brunobiangulo/golegis/article"
)

var (
	ErrArticleNotFound = errors.New("golegis: article not found")
	ErrStoreClosed     = errors.New("golegis: store closed")
)

// Document statuses.
const (
	StatusPending   = "pending"
	StatusExtracted = "extracted"
	StatusEmpty     = "empty" // read fine, but no article survived
	StatusFailed    = "failed"
)

// Document represents a row in the documents table.
type Document struct {
	ID             int64  `json:"id"`
	SourceID       string `json:"source_id"`
	Path           string `json:"path,omitempty"`
	Title          string `json:"title"`
	Category       string `json:"category,omitempty"`
	Format         string `json:"format,omitempty"`
	ContentHash    string `json:"content_hash"`
	PromulgatedAt  string `json:"promulgated_at,omitempty"`
	OfficialNumber string `json:"official_number,omitempty"`
	Domain         string `json:"domain,omitempty"`
	Keywords       string `json:"keywords,omitempty"`
	Authority      string `json:"authority,omitempty"`
	Status         string `json:"status"`
	ArticleCount   int    `json:"article_count"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// DocumentFrom builds the registry row for a source document.
func DocumentFrom(doc article.Document) Document {
	return Document{
		SourceID:       doc.SourceID,
		Path:           doc.Path,
		Title:          doc.Title,
		Category:       doc.Category,
		Format:         doc.Format,
		ContentHash:    ContentHash(doc.Text),
		PromulgatedAt:  doc.PromulgatedAt,
		OfficialNumber: doc.OfficialNumber,
		Domain:         doc.Domain,
		Keywords:       doc.Keywords,
		Authority:      doc.Authority,
		Status:         StatusPending,
	}
}

// ContentHash is the hex SHA-256 of text.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ArticleFilter narrows ListArticles. Zero values mean "any".
type ArticleFilter struct {
	Category string
	SourceID string
	Limit    int
	Offset   int
}

// CategoryCount is one row of CategoryCounts.
type CategoryCount struct {
	Category string `json:"category"`
	Articles int    `json:"articles"`
}

// Run represents a row in the runs table.
type Run struct {
	RunID      string `json:"run_id"`
	Documents  int    `json:"documents"`
	Failed     int    `json:"failed"`
	Articles   int    `json:"articles"`
	Rejected   int    `json:"rejected"`
	Duplicates int    `json:"duplicates"`
	CreatedAt  string `json:"created_at"`
}

// Stats holds row counts.
type Stats struct {
	Documents int `json:"documents"`
	Articles  int `json:"articles"`
	Runs      int `json:"runs"`
}

// Store wraps the SQLite database for all golegis persistence.
type Store struct {
	db     *sql.DB
	closed atomic.Bool
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db}

	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection. Later calls on the
// store fail with ErrStoreClosed.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) check() error {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	return nil
}

// --- Document operations ---

// UpsertDocument inserts or updates a document record keyed by source id.
// Returns the document ID.
func (s *Store) UpsertDocument(ctx context.Context, doc Document) (int64, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if doc.Status == "" {
		doc.Status = StatusPending
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (source_id, path, title, category, format, content_hash,
			promulgated_at, official_number, domain, keywords, authority, status, article_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_id) DO UPDATE SET
			path = excluded.path,
			title = excluded.title,
			category = excluded.category,
			format = excluded.format,
			content_hash = excluded.content_hash,
			promulgated_at = excluded.promulgated_at,
			official_number = excluded.official_number,
			domain = excluded.domain,
			keywords = excluded.keywords,
			authority = excluded.authority,
			status = excluded.status,
			article_count = excluded.article_count,
			updated_at = CURRENT_TIMESTAMP
	`, doc.SourceID, doc.Path, doc.Title, doc.Category, doc.Format, doc.ContentHash,
		doc.PromulgatedAt, doc.OfficialNumber, doc.Domain, doc.Keywords, doc.Authority,
		doc.Status, doc.ArticleCount)
	if err != nil {
		return 0, err
	}

	// LastInsertId is unreliable after the UPDATE branch of an upsert.
	var id int64
	row := s.db.QueryRowContext(ctx, "SELECT id FROM documents WHERE source_id = ?", doc.SourceID)
	if err := row.Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

const documentColumns = `id, source_id, path, title, category, format, content_hash,
	promulgated_at, official_number, domain, keywords, authority, status, article_count,
	created_at, updated_at`

func scanDocument(sc interface{ Scan(...any) error }) (Document, error) {
	var d Document
	var path, category, format, prom, number, domain, keywords, authority sql.NullString
	err := sc.Scan(&d.ID, &d.SourceID, &path, &d.Title, &category, &format, &d.ContentHash,
		&prom, &number, &domain, &keywords, &authority, &d.Status, &d.ArticleCount,
		&d.CreatedAt, &d.UpdatedAt)
	d.Path = path.String
	d.Category = category.String
	d.Format = format.String
	d.PromulgatedAt = prom.String
	d.OfficialNumber = number.String
	d.Domain = domain.String
	d.Keywords = keywords.String
	d.Authority = authority.String
	return d, err
}

// GetDocumentBySourceID retrieves a document by its source id. It returns
// sql.ErrNoRows when there is none.
func (s *Store) GetDocumentBySourceID(ctx context.Context, sourceID string) (*Document, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE source_id = ?", sourceID)
	d, err := scanDocument(row)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDocuments returns all documents ordered by source id.
func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY source_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// UpdateDocumentStatus sets the status and article count of a document.
func (s *Store) UpdateDocumentStatus(ctx context.Context, id int64, status string, articleCount int) error {
	if err := s.check(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, article_count = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, articleCount, id)
	return err
}

// DeleteDocument removes a document and, by cascade, its articles.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	if err := s.check(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	return err
}

// --- Article operations ---

// ReplaceArticles swaps all articles of a document for arts in one
// transaction. Each article's sequence starts as its index in arts plus
// offset; Resequence fixes the global order afterwards.
func (s *Store) ReplaceArticles(ctx context.Context, docID int64, arts []article.Article, offset int) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM articles WHERE document_id = ?", docID); err != nil {
			return err
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO articles (id, document_id, number, inline_title, title, category, content,
				summary, language, tags, source_id, published_by, is_published, views_count,
				position, sequence, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				document_id = excluded.document_id,
				number = excluded.number,
				inline_title = excluded.inline_title,
				title = excluded.title,
				category = excluded.category,
				content = excluded.content,
				summary = excluded.summary,
				language = excluded.language,
				tags = excluded.tags,
				source_id = excluded.source_id,
				published_by = excluded.published_by,
				is_published = excluded.is_published,
				views_count = excluded.views_count,
				position = excluded.position,
				sequence = excluded.sequence,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, a := range arts {
			tags, err := json.Marshal(a.Tags)
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx,
				a.ID, docID, a.Number, a.InlineTitle, a.Title, a.Category, a.Content,
				a.Summary, a.Language, string(tags), a.SourceID, a.PublishedBy, a.Published,
				a.ViewCount, a.Position, offset+i, a.CreatedAt, a.UpdatedAt); err != nil {
				return fmt.Errorf("inserting article %s: %w", a.ID, err)
			}
		}
		return nil
	})
}

// Resequence sets each listed article's sequence to its index in ids.
// Articles not listed keep their sequence.
func (s *Store) Resequence(ctx context.Context, ids []string) error {
	if err := s.check(); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, "UPDATE articles SET sequence = ? WHERE id = ?")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, id := range ids {
			if _, err := stmt.ExecContext(ctx, i, id); err != nil {
				return err
			}
		}
		return nil
	})
}

const articleColumns = `id, number, inline_title, title, category, content, summary, language,
	tags, source_id, published_by, is_published, views_count, position, created_at, updated_at`

func scanArticle(sc interface{ Scan(...any) error }) (article.Article, error) {
	var a article.Article
	var inline, summary, tags, publishedBy sql.NullString
	if err := sc.Scan(&a.ID, &a.Number, &inline, &a.Title, &a.Category, &a.Content, &summary,
		&a.Language, &tags, &a.SourceID, &publishedBy, &a.Published, &a.ViewCount, &a.Position,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return a, err
	}
	a.InlineTitle = inline.String
	a.Summary = summary.String
	if publishedBy.Valid {
		p := publishedBy.String
		a.PublishedBy = &p
	}
	if tags.Valid && tags.String != "" && tags.String != "null" {
		if err := json.Unmarshal([]byte(tags.String), &a.Tags); err != nil {
			return a, fmt.Errorf("decoding tags of %s: %w", a.ID, err)
		}
	}
	return a, nil
}

// GetArticle retrieves an article by id, or ErrArticleNotFound.
func (s *Store) GetArticle(ctx context.Context, id string) (*article.Article, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx, "SELECT "+articleColumns+" FROM articles WHERE id = ?", id)
	a, err := scanArticle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrArticleNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListArticles returns articles in output order.
func (s *Store) ListArticles(ctx context.Context, f ArticleFilter) ([]article.Article, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var where []string
	var args []any
	if f.Category != "" {
		where = append(where, "category = ?")
		args = append(args, f.Category)
	}
	if f.SourceID != "" {
		where = append(where, "source_id = ?")
		args = append(args, f.SourceID)
	}
	query := "SELECT " + articleColumns + " FROM articles"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY sequence, id"
	if f.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}
	return s.queryArticles(ctx, query, args...)
}

// SearchArticles returns articles whose number, title or content contain
// q (ASCII case-insensitive, as SQLite LIKE), in output order.
func (s *Store) SearchArticles(ctx context.Context, q string, limit int) ([]article.Article, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + escapeLike(q) + "%"
	return s.queryArticles(ctx, "SELECT "+articleColumns+` FROM articles
		WHERE number LIKE ? ESCAPE '\' OR title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\'
		ORDER BY sequence, id LIMIT ?`, pattern, pattern, pattern, limit)
}

func (s *Store) queryArticles(ctx context.Context, query string, args ...any) ([]article.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []article.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// CategoryCounts returns the number of articles per category, ordered by
// the first sequence position of each category.
func (s *Store) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*) FROM articles
		GROUP BY category ORDER BY MIN(sequence), category
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CategoryCount
	for rows.Next() {
		var c CategoryCount
		if err := rows.Scan(&c.Category, &c.Articles); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// --- Runs ---

// RecordRun stores the summary of one extraction run.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	if err := s.check(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, documents, failed, articles, rejected, duplicates)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			documents = excluded.documents,
			failed = excluded.failed,
			articles = excluded.articles,
			rejected = excluded.rejected,
			duplicates = excluded.duplicates,
			created_at = CURRENT_TIMESTAMP
	`, r.RunID, r.Documents, r.Failed, r.Articles, r.Rejected, r.Duplicates)
	return err
}

// LastRun returns the most recent run, or sql.ErrNoRows.
func (s *Store) LastRun(ctx context.Context) (*Run, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	var r Run
	err := s.db.QueryRowContext(ctx, `
		SELECT run_id, documents, failed, articles, rejected, duplicates, created_at
		FROM runs ORDER BY created_at DESC, rowid DESC LIMIT 1
	`).Scan(&r.RunID, &r.Documents, &r.Failed, &r.Articles, &r.Rejected, &r.Duplicates, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Stats returns row counts of the main tables.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	if err := s.check(); err != nil {
		return nil, err
	}
	stats := &Stats{}
	queries := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM documents", &stats.Documents},
		{"SELECT COUNT(*) FROM articles", &stats.Articles},
		{"SELECT COUNT(*) FROM runs", &stats.Runs},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dest); err != nil {
			return nil, fmt.Errorf("counting %s: %w", q.query, err)
		}
	}
	return stats, nil
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
