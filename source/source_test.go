package source

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// ---------------------------------------------------------------------------
// Registry tests
// ---------------------------------------------------------------------------

func TestRegistryBuiltInReaders(t *testing.T) {
	reg := NewRegistry(Options{})
	for _, format := range []string{"pdf", "docx", "txt", "sql", "html", "htm", "PDF"} {
		t.Run(format, func(t *testing.T) {
			rd, err := reg.Get(format)
			if err != nil {
				t.Fatalf("Get(%q) returned error: %v", format, err)
			}
			found := false
			for _, f := range rd.SupportedFormats() {
				if f == strings.ToLower(format) {
					found = true
				}
			}
			if !found {
				t.Errorf("reader for %q does not list it: %v", format, rd.SupportedFormats())
			}
		})
	}
}

func TestRegistryUnknown(t *testing.T) {
	reg := NewRegistry(Options{})
	for _, format := range []string{"odt", "pptx", ""} {
		if _, err := reg.Get(format); !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("Get(%q) error = %v, want ErrUnsupportedFormat", format, err)
		}
	}
}

func TestRegistryFormatsIncludeDOCX(t *testing.T) {
	formats := NewRegistry(Options{}).Formats()
	found := false
	for _, f := range formats {
		if f == "docx" {
			found = true
		}
	}
	if !found {
		t.Errorf("Formats() = %v, want docx listed", formats)
	}
	if _, ok := mustReader(t, "docx").(*DOCXReader); !ok {
		t.Errorf("docx is not served by the DOCX reader")
	}
}

func mustReader(t *testing.T, format string) Reader {
	t.Helper()
	rd, err := NewRegistry(Options{}).Get(format)
	if err != nil {
		t.Fatalf("Get(%q) returned error: %v", format, err)
	}
	return rd
}

func TestRegistryReadMissingFile(t *testing.T) {
	reg := NewRegistry(Options{})
	_, err := reg.Read(context.Background(), filepath.Join(t.TempDir(), "absent.txt"), "")
	if !errors.Is(err, ErrSourceUnreadable) {
		t.Fatalf("error = %v, want ErrSourceUnreadable", err)
	}
}

func TestRegistryReadEmptyFile(t *testing.T) {
	path := writeFile(t, "vide.txt", []byte("  \n\n "))
	_, err := NewRegistry(Options{}).Read(context.Background(), path, "")
	if !errors.Is(err, ErrEmptySource) {
		t.Fatalf("error = %v, want ErrEmptySource", err)
	}
}

func TestFormatOf(t *testing.T) {
	if got := FormatOf("/data/Code-Penal.PDF"); got != "pdf" {
		t.Errorf("FormatOf = %q, want pdf", got)
	}
	if got := FormatOf("README"); got != "" {
		t.Errorf("FormatOf = %q, want empty", got)
	}
}

// ---------------------------------------------------------------------------
// Text
// ---------------------------------------------------------------------------

func TestTextReaderUTF8(t *testing.T) {
	path := writeFile(t, "code.txt", []byte("\xef\xbb\xbfArticle 1.- Le Code pénal s'applique.\n"))
	text, err := (&TextReader{}).Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if text != "Article 1.- Le Code pénal s'applique.\n" {
		t.Errorf("text = %q", text)
	}
}

func TestTextReaderFallbackCharset(t *testing.T) {
	path := writeFile(t, "latin.txt", []byte("Article 1.- Code p\xe9nal"))
	text, err := (&TextReader{Fallback: "windows-1252"}).Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if text != "Article 1.- Code pénal" {
		t.Errorf("text = %q", text)
	}
}

func TestTextReaderWithoutFallback(t *testing.T) {
	path := writeFile(t, "latin.txt", []byte("Code p\xe9nal"))
	for _, fallback := range []string{"", "none"} {
		_, err := (&TextReader{Fallback: fallback}).Read(context.Background(), path)
		if !errors.Is(err, ErrUnreadableEncoding) {
			t.Errorf("fallback %q: error = %v, want ErrUnreadableEncoding", fallback, err)
		}
	}
	_, err := (&TextReader{Fallback: "klingon"}).Read(context.Background(), path)
	if !errors.Is(err, ErrUnreadableEncoding) {
		t.Errorf("unknown charset: error = %v, want ErrUnreadableEncoding", err)
	}
}

// ---------------------------------------------------------------------------
// SQL dump
// ---------------------------------------------------------------------------

const sampleDump = `-- MySQL dump 10.13
/*!40101 SET NAMES utf8 */;
CREATE TABLE articles (contenu text DEFAULT 'une valeur par defaut assez longue pour etre comptee');
INSERT INTO ` + "`articles`" + ` (id, contenu) VALUES
(1, 'Article 1.- Le mariage est l\'union d\'un homme et d\'une femme.'),
(2, 'court'),
(3, 'Article 2.- Les futurs ''époux'' doivent consentir au mariage.\nFin.');
`

func TestSQLDumpReaderExtractsInsertLiterals(t *testing.T) {
	path := writeFile(t, "senegal_juridique.sql", []byte(sampleDump))
	text, err := (&SQLDumpReader{}).Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := "Article 1.- Le mariage est l'union d'un homme et d'une femme." +
		"\n\n" +
		"Article 2.- Les futurs 'époux' doivent consentir au mariage.\nFin."
	if text != want {
		t.Errorf("text =\n%q\nwant\n%q", text, want)
	}
}

func TestSQLDumpReaderWithoutInsert(t *testing.T) {
	dump := "CREATE TABLE lois (titre varchar(255));\n"
	path := writeFile(t, "schema.sql", []byte(dump))
	text, err := (&SQLDumpReader{}).Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if text != dump {
		t.Errorf("expected the whole dump back, got %q", text)
	}
}

// ---------------------------------------------------------------------------
// HTML
// ---------------------------------------------------------------------------

func TestHTMLReader(t *testing.T) {
	page := `<html><head><title>JORS</title><style>p { color: red }</style></head>
<body><h1>LOI N° 65-60</h1><p>Article 1.- Texte<br>suite</p><script>track()</script>
<ul><li>TITRE II</li></ul></body></html>`
	path := writeFile(t, "loi.html", []byte(page))
	text, err := (&HTMLReader{}).Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := "LOI N° 65-60\nArticle 1.- Texte\nsuite\nTITRE II"
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

// ---------------------------------------------------------------------------
// PDF
// ---------------------------------------------------------------------------

func TestPDFReaderRejectsGarbage(t *testing.T) {
	path := writeFile(t, "faux.pdf", []byte("ceci n'est pas un PDF"))
	_, err := (&PDFReader{}).Read(context.Background(), path)
	if !errors.Is(err, ErrSourceUnreadable) {
		t.Fatalf("error = %v, want ErrSourceUnreadable", err)
	}
}

// ---------------------------------------------------------------------------
// DOCX reader
// ---------------------------------------------------------------------------

func docxBytes(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDOCXReader(t *testing.T) {
	xmlDoc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>TITRE PREMIER</w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Article 1.- Le mariage </w:t></w:r><w:r><w:t>est l'union d'un homme et d'une femme.</w:t></w:r></w:p>
<w:p></w:p>
<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Article 2.-</w:t></w:r><w:r><w:tab/><w:t>Les futurs époux.</w:t></w:r></w:p></w:tc></w:tr></w:tbl>
</w:body>
</w:document>`
	path := writeFile(t, "code.docx", docxBytes(t, xmlDoc))

	text, err := (&DOCXReader{}).Read(context.Background(), path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	want := "TITRE PREMIER\nArticle 1.- Le mariage est l'union d'un homme et d'une femme.\nArticle 2.- Les futurs époux.\n"
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestDOCXReaderWithoutDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("word/styles.xml"); err != nil {
		t.Fatal(err)
	}
	zw.Close()
	path := writeFile(t, "vide.docx", buf.Bytes())

	_, err := (&DOCXReader{}).Read(context.Background(), path)
	if !errors.Is(err, ErrSourceUnreadable) {
		t.Fatalf("error = %v, want ErrSourceUnreadable", err)
	}
}
