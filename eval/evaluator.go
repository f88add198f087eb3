// Package eval measures extraction quality against datasets of documents
// with known article numbers and categories.
package eval

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/brunobiangulo/golegis"
	"github.com/brunobiangulo/golegis/article"
)

// Evaluator runs datasets through an extractor.
type Evaluator struct {
	ext *golegis.Extractor
}

// NewEvaluator creates a new evaluator.
func NewEvaluator(ext *golegis.Extractor) *Evaluator {
	return &Evaluator{ext: ext}
}

// Report holds the results of an evaluation run.
type Report struct {
	Dataset    string           `json:"dataset"`
	Difficulty string           `json:"difficulty,omitempty"`
	TotalCases int              `json:"total_cases"`
	Passed     int              `json:"passed"`
	Failed     int              `json:"failed"`
	Metrics    AggregateMetrics `json:"metrics"`
	Results    []CaseResult     `json:"results"`
	RunTime    time.Duration    `json:"run_time"`
}

// AggregateMetrics holds averaged metrics across all cases.
type AggregateMetrics struct {
	AvgPrecision        float64 `json:"avg_precision"`
	AvgRecall           float64 `json:"avg_recall"`
	AvgF1               float64 `json:"avg_f1"`
	AvgOrderAccuracy    float64 `json:"avg_order_accuracy"`
	AvgCategoryAccuracy float64 `json:"avg_category_accuracy"`
}

// CaseResult holds the result of a single case with diagnostics.
type CaseResult struct {
	Name             string   `json:"name"`
	Expected         []string `json:"expected"`
	Got              []string `json:"got"`
	Strategy         string   `json:"strategy"`
	ExpectedStrategy string   `json:"expected_strategy,omitempty"`
	Categories       []string `json:"categories"`
	Rejected         int      `json:"rejected"`
	Precision        float64  `json:"precision"`
	Recall           float64  `json:"recall"`
	F1               float64  `json:"f1"`
	OrderAccuracy    float64  `json:"order_accuracy"`
	CategoryAccuracy float64  `json:"category_accuracy"`
	Passed           bool     `json:"passed"`
	Error            string   `json:"error,omitempty"`
	ElapsedMs        int64    `json:"elapsed_ms"`
}

// Run evaluates every case of dataset. Each case is extracted on its own
// so ids and categories do not leak between cases.
func (e *Evaluator) Run(ctx context.Context, dataset Dataset) (*Report, error) {
	start := time.Now()
	report := &Report{
		Dataset:    dataset.Name,
		Difficulty: dataset.Difficulty,
		TotalCases: len(dataset.Cases),
	}

	var sum AggregateMetrics
	for _, c := range dataset.Cases {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r := e.runCase(ctx, c)
		if r.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
		sum.AvgPrecision += r.Precision
		sum.AvgRecall += r.Recall
		sum.AvgF1 += r.F1
		sum.AvgOrderAccuracy += r.OrderAccuracy
		sum.AvgCategoryAccuracy += r.CategoryAccuracy
		report.Results = append(report.Results, r)
	}

	if n := float64(len(report.Results)); n > 0 {
		report.Metrics = AggregateMetrics{
			AvgPrecision:        sum.AvgPrecision / n,
			AvgRecall:           sum.AvgRecall / n,
			AvgF1:               sum.AvgF1 / n,
			AvgOrderAccuracy:    sum.AvgOrderAccuracy / n,
			AvgCategoryAccuracy: sum.AvgCategoryAccuracy / n,
		}
	}
	report.RunTime = time.Since(start)
	return report, nil
}

func (e *Evaluator) runCase(ctx context.Context, c Case) CaseResult {
	start := time.Now()
	r := CaseResult{
		Name:             c.Name,
		Expected:         c.Expect.Numbers,
		ExpectedStrategy: c.Expect.Strategy,
	}
	res, err := e.ext.Run(ctx, []article.Document{c.Document})
	r.ElapsedMs = time.Since(start).Milliseconds()
	if err != nil {
		r.Error = err.Error()
		return r
	}

	// Compare in corpus order; the sequencer may regroup by category.
	arts := append([]article.Article(nil), res.Articles...)
	sort.SliceStable(arts, func(i, j int) bool { return arts[i].Position < arts[j].Position })
	for _, a := range arts {
		r.Got = append(r.Got, a.Number)
		r.Categories = append(r.Categories, a.Category)
	}
	if len(res.Documents) > 0 {
		r.Strategy = res.Documents[0].Strategy
	}
	r.Rejected = res.Stats.Rejected

	r.Precision = computePrecision(r.Got, r.Expected)
	r.Recall = computeRecall(r.Got, r.Expected)
	r.F1 = f1(r.Precision, r.Recall)
	r.OrderAccuracy = computeOrderAccuracy(r.Got, r.Expected)
	r.CategoryAccuracy = computeCategoryAccuracy(arts, c.Expect.Category)
	r.Passed = r.F1 == 1 && r.OrderAccuracy == 1 && r.CategoryAccuracy == 1 &&
		(c.Expect.Strategy == "" || c.Expect.Strategy == r.Strategy)
	return r
}

// FormatReport produces a human-readable report string.
func FormatReport(r *Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== Evaluation Report: %s ===\n", r.Dataset)
	if r.Difficulty != "" {
		fmt.Fprintf(&b, "Difficulty: %s\n", r.Difficulty)
	}
	fmt.Fprintf(&b, "Total: %d | Passed: %d (%.1f%%) | Failed: %d\n",
		r.TotalCases, r.Passed, passRate(r.Passed, r.TotalCases), r.Failed)
	fmt.Fprintf(&b, "Run time: %s\n\n", r.RunTime.Round(time.Millisecond))

	fmt.Fprintf(&b, "Aggregate Metrics:\n")
	fmt.Fprintf(&b, "  Precision:          %.2f\n", r.Metrics.AvgPrecision)
	fmt.Fprintf(&b, "  Recall:             %.2f\n", r.Metrics.AvgRecall)
	fmt.Fprintf(&b, "  F1:                 %.2f\n", r.Metrics.AvgF1)
	fmt.Fprintf(&b, "  Order Accuracy:     %.2f\n", r.Metrics.AvgOrderAccuracy)
	fmt.Fprintf(&b, "  Category Accuracy:  %.2f\n\n", r.Metrics.AvgCategoryAccuracy)

	for i, res := range r.Results {
		status := "PASS"
		if !res.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "[%s] %d. %s\n", status, i+1, res.Name)
		if res.Error != "" {
			fmt.Fprintf(&b, "  Error: %s\n", res.Error)
			continue
		}
		fmt.Fprintf(&b, "  P=%.2f R=%.2f F1=%.2f Order=%.2f Cat=%.2f Strategy=%s  (%dms)\n",
			res.Precision, res.Recall, res.F1, res.OrderAccuracy, res.CategoryAccuracy,
			res.Strategy, res.ElapsedMs)
		if !res.Passed {
			fmt.Fprintf(&b, "  Expected: %s\n", truncate(strings.Join(res.Expected, " | "), 200))
			fmt.Fprintf(&b, "  Got:      %s\n", truncate(strings.Join(res.Got, " | "), 200))
			if res.ExpectedStrategy != "" && res.ExpectedStrategy != res.Strategy {
				fmt.Fprintf(&b, "  Strategy: want %s\n", res.ExpectedStrategy)
			}
		}
	}

	return b.String()
}

func passRate(passed, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(passed) / float64(total) * 100
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
