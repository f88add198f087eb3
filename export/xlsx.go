package export

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/brunobiangulo/golegis/article"
)

const (
	articlesSheet   = "Articles"
	categoriesSheet = "Categories"
	metadataSheet   = "Metadata"

	// maxCellChars is the Excel limit on characters per cell.
	maxCellChars = 32767
)

var xlsxColumns = []string{"id", "number", "title", "category", "content", "summary", "tags", "source_id", "created_at"}

// XLSXWriter writes a workbook with one row per article, a per-category
// count sheet and a metadata sheet.
type XLSXWriter struct{}

func (XLSXWriter) Format() string    { return "xlsx" }
func (XLSXWriter) Extension() string { return ".xlsx" }

func (XLSXWriter) Write(w io.Writer, md Metadata, articles []article.Article) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", articlesSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	header := make([]any, len(xlsxColumns))
	for i, c := range xlsxColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(articlesSheet, "A1", &header); err != nil {
		return err
	}
	for i, a := range articles {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{
			a.ID, a.Number, a.Title, a.Category, cellText(a.Content),
			a.Summary, strings.Join(a.Tags, ", "), a.SourceID, a.CreatedAt,
		}
		if err := f.SetSheetRow(articlesSheet, cell, &row); err != nil {
			return fmt.Errorf("row %d: %w", i+2, err)
		}
	}
	if err := f.SetRowStyle(articlesSheet, 1, 1, bold); err != nil {
		return err
	}
	f.SetColWidth(articlesSheet, "A", "B", 18)
	f.SetColWidth(articlesSheet, "C", "C", 40)
	f.SetColWidth(articlesSheet, "E", "E", 80)
	last, _ := excelize.CoordinatesToCellName(len(xlsxColumns), 1)
	if err := f.AutoFilter(articlesSheet, "A1:"+last, nil); err != nil {
		return err
	}

	if _, err := f.NewSheet(categoriesSheet); err != nil {
		return err
	}
	f.SetSheetRow(categoriesSheet, "A1", &[]any{"category", "articles"})
	for i, c := range sortedCategories(md) {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		f.SetSheetRow(categoriesSheet, cell, &[]any{c, md.Categories[c]})
	}
	f.SetRowStyle(categoriesSheet, 1, 1, bold)

	if _, err := f.NewSheet(metadataSheet); err != nil {
		return err
	}
	for i, kv := range [][2]any{
		{"total_articles", md.TotalArticles},
		{"extracted_at", md.ExtractedAt},
		{"source", md.Source},
		{"version", md.Version},
		{"extraction_method", md.ExtractionMethod},
		{"run_id", md.RunID},
	} {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		f.SetSheetRow(metadataSheet, cell, &[]any{kv[0], kv[1]})
	}

	_, err = f.WriteTo(w)
	return err
}

// cellText truncates s to the Excel per-cell limit.
func cellText(s string) string {
	if utf8.RuneCountInString(s) <= maxCellChars {
		return s
	}
	r := []rune(s)
	return string(r[:maxCellChars-3]) + "..."
}
