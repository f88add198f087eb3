package source

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DOCXReader extracts the paragraph text of word/document.xml in document
// order, one paragraph per line. Table cells are read as paragraphs.
type DOCXReader struct{}

func (p *DOCXReader) SupportedFormats() []string { return []string{"docx"} }

func (p *DOCXReader) Read(ctx context.Context, path string) (string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: opening DOCX: %v", ErrSourceUnreadable, err)
	}
	defer r.Close()

	var doc *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("%w: word/document.xml not found in DOCX", ErrSourceUnreadable)
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("%w: opening document.xml: %v", ErrSourceUnreadable, err)
	}
	defer rc.Close()

	text, err := docxText(ctx, rc)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		return "", fmt.Errorf("%w: parsing document.xml: %v", ErrSourceUnreadable, err)
	}
	return text, nil
}

// docxText streams WordprocessingML and returns its paragraphs joined by
// newlines. Empty paragraphs are dropped.
func docxText(ctx context.Context, r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var out, para strings.Builder
	inText := false
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte(' ')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if line := strings.TrimSpace(para.String()); line != "" {
					out.WriteString(line)
					out.WriteByte('\n')
				}
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return out.String(), nil
}
