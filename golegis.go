// Package golegis extracts individually addressable legal articles from
// raw legal texts (codes, laws, constitutions) and arranges them in a
// stable, category-ordered sequence.
//
// The pipeline is detector → builder → classifier → sequencer. It is a
// pure function of its input documents and configuration: running it
// twice on the same input yields the same articles, ids and order.
package golegis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/brunobiangulo/golegis/article"
	"github.com/brunobiangulo/golegis/builder"
	"github.com/brunobiangulo/golegis/classifier"
	"github.com/brunobiangulo/golegis/detector"
	"github.com/brunobiangulo/golegis/metrics"
	"github.com/brunobiangulo/golegis/source"
)

// runNamespace seeds the name-based run ids.
var runNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/brunobiangulo/golegis/run"))

// Stats counts what happened during a run.
type Stats struct {
	Documents     int            `json:"documents"`
	Failed        int            `json:"failed"`
	Empty         int            `json:"empty"`
	Candidates    int            `json:"candidates"`
	Built         int            `json:"built"`
	Rejected      int            `json:"rejected"`
	Disambiguated int            `json:"disambiguated"`
	Duplicates    int            `json:"duplicates"`
	Strategies    map[string]int `json:"strategies"` // documents per winning strategy
	Elapsed       time.Duration  `json:"elapsed_ns"`
}

// Failure records a document that could not be acquired.
type Failure struct {
	SourceID string `json:"source_id"`
	Path     string `json:"path,omitempty"`
	Err      error  `json:"-"`
	Message  string `json:"error"`
}

func (f Failure) Error() string { return f.SourceID + ": " + f.Message }
func (f Failure) Unwrap() error { return f.Err }

// DocumentReport summarizes one document of a run.
type DocumentReport struct {
	SourceID   string `json:"source_id"`
	Strategy   string `json:"strategy,omitempty"`
	Candidates int    `json:"candidates"`
	Built      int    `json:"built"`
	Rejected   int    `json:"rejected"`
}

// Result is the output of one run: the ordered articles plus bookkeeping.
type Result struct {
	RunID     string            `json:"run_id"`
	Articles  []article.Article `json:"articles"`
	Stats     Stats             `json:"stats"`
	Failures  []Failure         `json:"failures,omitempty"`
	Documents []DocumentReport  `json:"documents"`

	configHash []byte
}

// Method names the extraction strategies that won, for export metadata.
func (r *Result) Method() string {
	switch len(r.Stats.Strategies) {
	case 0:
		return "none"
	case 1:
		for s := range r.Stats.Strategies {
			return s
		}
	}
	return "mixed"
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMetrics records run counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

// WithLogger replaces slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithRegistry replaces the built-in source readers.
func WithRegistry(r *source.Registry) Option {
	return func(e *Extractor) { e.registry = r }
}

// Extractor runs the extraction pipeline. It holds no per-run state and is
// safe for concurrent use.
type Extractor struct {
	cfg        Config
	detector   *detector.Detector
	classifier *classifier.Classifier
	sequencer  *classifier.Sequencer
	registry   *source.Registry
	metrics    *metrics.Metrics
	logger     *slog.Logger
	configHash []byte
}

// New creates an Extractor from cfg.
func New(cfg Config, opts ...Option) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	det, err := detector.New(cfg.Detection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	table := cfg.Table()
	e := &Extractor{
		cfg:        cfg,
		detector:   det,
		classifier: classifier.New(table),
		sequencer:  classifier.NewSequencer(table),
		logger:     slog.Default(),
		configHash: cfg.fingerprint(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.registry == nil {
		e.registry = source.NewRegistry(source.Options{
			Fallback:    cfg.Encoding.Fallback,
			Readability: cfg.HTML.Readability,
		})
	}
	return e, nil
}

// Config returns the extractor configuration.
func (e *Extractor) Config() Config { return e.cfg }

// Run extracts, classifies and orders the articles of docs, processed in
// slice order. Documents that yield nothing are not errors. A cancelled
// ctx stops processing between documents; the articles gathered so far
// are returned, ordered, alongside ctx's error.
func (e *Extractor) Run(ctx context.Context, docs []article.Document) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:      e.RunID(docs),
		Stats:      Stats{Strategies: make(map[string]int)},
		configHash: e.configHash,
	}
	b := builder.New(e.cfg.builderConfig())

	var built []article.Article
	var runErr error
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		built = e.runDocument(b, doc, built, res)
	}

	ordered := e.sequencer.Sequence(built)
	ordered, dropped := classifier.Dedupe(ordered, e.cfg.Dedupe)
	res.Articles = ordered
	res.Stats.Duplicates = dropped
	res.Stats.Elapsed = time.Since(start)

	e.metrics.Duplicates(dropped)
	e.metrics.RunDuration(res.Stats.Elapsed)
	e.logger.Info("extract: run complete",
		"run_id", res.RunID, "documents", res.Stats.Documents,
		"articles", len(res.Articles), "rejected", res.Stats.Rejected,
		"duplicates", dropped, "elapsed", res.Stats.Elapsed.Round(time.Millisecond))
	return res, runErr
}

// runDocument runs one document through detection, building and
// classification, appending its articles to acc.
func (e *Extractor) runDocument(b *builder.Builder, doc article.Document, acc []article.Article, res *Result) []article.Article {
	docStart := time.Now()
	res.Stats.Documents++

	cands, strategy := e.detector.DetectWithStrategy(doc.Text)
	report := DocumentReport{SourceID: doc.SourceID, Strategy: strategy, Candidates: len(cands)}
	if strategy != "" {
		res.Stats.Strategies[strategy]++
	}
	e.metrics.Candidates(strategy, len(cands))

	disambiguated := 0
	for i, c := range cands {
		a, outcome := b.BuildOutcome(c, doc, i+1)
		if outcome == builder.Rejected {
			report.Rejected++
			continue
		}
		if outcome == builder.Renamed {
			disambiguated++
		}
		a.Position = len(acc)
		acc = append(acc, e.classifier.Classify(a, doc))
		report.Built++
	}

	res.Stats.Candidates += report.Candidates
	res.Stats.Built += report.Built
	res.Stats.Rejected += report.Rejected
	res.Stats.Disambiguated += disambiguated
	res.Documents = append(res.Documents, report)

	status := metrics.DocumentExtracted
	if report.Built == 0 {
		status = metrics.DocumentEmpty
		res.Stats.Empty++
	}
	e.metrics.Document(status, len(doc.Text))
	e.metrics.Built(report.Built)
	e.metrics.Rejected(report.Rejected)
	e.metrics.Disambiguated(disambiguated)

	e.logger.Info("extract: document done",
		"source", doc.SourceID, "strategy", strategy,
		"candidates", report.Candidates, "built", report.Built, "rejected", report.Rejected,
		"elapsed", time.Since(docStart).Round(time.Millisecond))
	return acc
}

// Articles returns the ordered articles of docs as a sequence. Each range
// over it re-runs the pipeline, so it can be iterated any number of times
// and always yields the same articles. Iteration stops early if the run
// fails.
func (e *Extractor) Articles(ctx context.Context, docs []article.Document) iter.Seq[article.Article] {
	return func(yield func(article.Article) bool) {
		res, err := e.Run(ctx, docs)
		if err != nil {
			e.logger.Warn("extract: run interrupted", "error", err)
			return
		}
		for _, a := range res.Articles {
			if !yield(a) {
				return
			}
		}
	}
}

// Load reads the documents named by specs. Globs are expanded first.
// Sources that cannot be read are returned as failures and skipped.
func (e *Extractor) Load(ctx context.Context, specs []SourceSpec) ([]article.Document, []Failure, error) {
	expanded, err := Expand(specs)
	if err != nil {
		return nil, nil, err
	}
	docs := make([]article.Document, 0, len(expanded))
	var failures []Failure
	for _, s := range expanded {
		if err := ctx.Err(); err != nil {
			return docs, failures, err
		}
		readStart := time.Now()
		text, err := e.registry.Read(ctx, s.Path, s.Format)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return docs, failures, err
			}
			e.logger.Warn("extract: source skipped", "source", s.SourceID, "path", s.Path, "error", err)
			e.metrics.Document(metrics.DocumentFailed, 0)
			failures = append(failures, Failure{SourceID: s.SourceID, Path: s.Path, Err: err, Message: err.Error()})
			continue
		}
		e.logger.Info("extract: source read",
			"source", s.SourceID, "format", s.Format, "bytes", len(text),
			"elapsed", time.Since(readStart).Round(time.Millisecond))
		docs = append(docs, s.document(text))
	}
	return docs, failures, nil
}

// Extract loads specs and runs the pipeline over the readable ones. The
// returned documents are those that were read, for persistence.
func (e *Extractor) Extract(ctx context.Context, specs []SourceSpec) (*Result, []article.Document, error) {
	if len(specs) == 0 {
		return nil, nil, ErrNoSources
	}
	docs, failures, err := e.Load(ctx, specs)
	if err != nil {
		return nil, docs, err
	}
	res, err := e.Run(ctx, docs)
	if res != nil {
		res.Failures = failures
		res.Stats.Failed = len(failures)
	}
	return res, docs, err
}

// RunID derives a stable run id from the documents and the extractor
// settings. Two calls agree exactly when Run would produce the same
// result.
func (e *Extractor) RunID(docs []article.Document) string {
	h := sha256.New()
	h.Write(e.configHash)
	for _, d := range docs {
		h.Write([]byte(documentKey(e.configHash, d)))
	}
	return uuid.NewSHA1(runNamespace, h.Sum(nil)).String()
}

// documentKey identifies one version of d under the settings hashed in
// configHash. Every field of d is covered: those that reach its articles
// and those stored in its registry row.
func documentKey(configHash []byte, d article.Document) string {
	h := sha256.New()
	h.Write(configHash)
	for _, f := range []string{
		d.SourceID, d.Title, d.Category, d.Text, d.PromulgatedAt,
		d.OfficialNumber, d.Domain, d.Keywords, d.Authority, d.Format, d.Path,
	} {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
