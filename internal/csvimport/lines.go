// Package csvimport parses the delimited exports pasted or uploaded in the admin panel:
// question banks, student rosters, exam summaries and the curriculum.
// Parsing is best effort. Rows that cannot be used are skipped and a
// malformed file yields fewer records rather than an error.
package csvimport

import (
	"strings"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/textnorm"
)

// DetectDelimiter picks the field separator by counting candidates on the
// first non-empty line. Tab wins only when it strictly outnumbers both
// comma and semicolon; semicolon wins when it strictly outnumbers comma.
func DetectDelimiter(text string) rune {
	first := ""
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) != "" {
			first = line
			break
		}
	}
	tabs := strings.Count(first, "\t")
	commas := strings.Count(first, ",")
	semis := strings.Count(first, ";")
	switch {
	case tabs > commas && tabs > semis:
		return '\t'
	case semis > commas:
		return ';'
	default:
		return ','
	}
}

// SplitLine splits one line on delim, ignoring delimiters between double
// quotes. Each field is trimmed, loses one layer of surrounding quotes and
// has doubled quotes collapsed.
func SplitLine(line string, delim rune) []string {
	var (
		fields  []string
		cur     strings.Builder
		inQuote bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			inQuote = !inQuote
			cur.WriteRune(r)
		case r == delim && !inQuote:
			fields = append(fields, unquoteField(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(fields, unquoteField(cur.String()))
}

func unquoteField(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return strings.ReplaceAll(s, `""`, `"`)
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// records strips the BOM, drops blank lines and splits the rest into fields.
func records(text string) [][]string {
	text = strings.TrimSpace(textnorm.StripBOM(text))
	if text == "" {
		return nil
	}
	delim := DetectDelimiter(text)
	var rows [][]string
	for _, line := range splitLines(text) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, SplitLine(line, delim))
	}
	return rows
}

// cell returns the cleaned field at idx, or "" when idx is out of range.
func cell(cols []string, idx int) string {
	if idx < 0 || idx >= len(cols) {
		return ""
	}
	return textnorm.Clean(cols[idx])
}
