package source

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// minLiteralLen is the shortest INSERT string literal kept from a dump.
// Shorter values are ids, dates and enum columns rather than legal text.
const minLiteralLen = 40

// SQLDumpReader extracts legal text from a SQL dump: the long string
// literals of its INSERT statements, joined with blank lines. A dump
// without any INSERT is returned whole.
type SQLDumpReader struct {
	Fallback string
}

func (p *SQLDumpReader) SupportedFormats() []string { return []string{"sql"} }

func (p *SQLDumpReader) Read(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: reading SQL dump: %v", ErrSourceUnreadable, err)
	}
	dump, err := decode(data, p.Fallback)
	if err != nil {
		return "", err
	}
	literals, sawInsert := insertLiterals(dump)
	if !sawInsert {
		return dump, nil
	}
	return strings.Join(literals, "\n\n"), nil
}

// insertLiterals scans dump statement by statement and returns the string
// literals of INSERT statements that are at least minLiteralLen long.
func insertLiterals(dump string) (literals []string, sawInsert bool) {
	var head strings.Builder // unquoted prefix of the current statement
	inInsert := false

	for i := 0; i < len(dump); i++ {
		c := dump[i]
		switch {
		case c == '-' && i+1 < len(dump) && dump[i+1] == '-':
			for i < len(dump) && dump[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < len(dump) && dump[i+1] == '*':
			end := strings.Index(dump[i+2:], "*/")
			if end < 0 {
				return literals, sawInsert
			}
			i += end + 3
		case c == '\'' || c == '"':
			lit, next := readLiteral(dump, i)
			i = next
			if inInsert && utf8.RuneCountInString(strings.TrimSpace(lit)) >= minLiteralLen {
				literals = append(literals, strings.TrimSpace(lit))
			}
		case c == ';':
			head.Reset()
			inInsert = false
		default:
			if head.Len() == 0 && (c == ' ' || c == '\n' || c == '\r' || c == '\t') {
				continue
			}
			if head.Len() < 16 {
				head.WriteByte(c)
				if !inInsert && strings.HasPrefix(strings.ToUpper(head.String()), "INSERT") {
					inInsert = true
					sawInsert = true
				}
			}
		}
	}
	return literals, sawInsert
}

// readLiteral decodes the quoted literal starting at dump[start] and
// returns it with the index of its closing quote. Both backslash escapes
// and doubled quotes are understood.
func readLiteral(dump string, start int) (string, int) {
	quote := dump[start]
	var b strings.Builder
	i := start + 1
	for i < len(dump) {
		c := dump[i]
		switch {
		case c == '\\' && i+1 < len(dump):
			i++
			switch dump[i] {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			case 't':
				b.WriteByte('\t')
			case '0':
				// NUL is dropped
			default:
				b.WriteByte(dump[i])
			}
		case c == quote && i+1 < len(dump) && dump[i+1] == quote:
			b.WriteByte(quote)
			i++
		case c == quote:
			return b.String(), i
		default:
			b.WriteByte(c)
		}
		i++
	}
	return b.String(), len(dump)
}
