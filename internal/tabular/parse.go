// Package tabular reads the flat delimited exports produced by the course
// platform and projects their rows into enrollment and assessment records.
package tabular

import (
	"strings"

	"course-cert/internal/domain"
)

// Parse splits content into a header and data rows and infers the course and
// stream type from filename and header shape.
func Parse(filename, content string) (domain.SourceFile, error) {
	lines := SplitLines(normalizeDelimiter(content))
	if len(lines) < 2 {
		return domain.SourceFile{}, domain.NewFileError(filename, domain.ErrInsufficientData, "need a header and at least one row")
	}

	header := SplitRecord(lines[0], ',')
	for i := range header {
		header[i] = strings.TrimPrefix(header[i], "\ufeff")
	}

	rows := make([]domain.RawRow, 0, len(lines)-1)
	for _, line := range lines[1:] {
		cells := SplitRecord(line, ',')
		row := make(domain.RawRow, len(header))
		for i, label := range header {
			if label == "" || i >= len(cells) {
				continue
			}
			row[label] = cells[i]
		}
		rows = append(rows, row)
	}

	return domain.SourceFile{
		Name:       filename,
		CourseID:   InferCourseID(filename),
		StreamType: InferStreamType(filename, header),
		Header:     header,
		Rows:       rows,
	}, nil
}

// SplitLines breaks content on any line ending and drops blank lines.
func SplitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	out := make([]string, 0, strings.Count(content, "\n")+1)
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

// SplitRecord splits one line on delim. Double-quoted fields may contain the
// delimiter, and "" inside quotes is a literal quote. Cells are trimmed.
func SplitRecord(line string, delim rune) []string {
	var cells []string
	var cur strings.Builder
	inQuotes := false
	runes := []rune(line)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"' && inQuotes && i+1 < len(runes) && runes[i+1] == '"':
			cur.WriteRune('"')
			i++
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(cells, strings.TrimSpace(cur.String()))
}

// normalizeDelimiter rewrites tab or semicolon separated content into comma
// form. It only fires when the content has no commas at all, so no cell
// value can be split by the rewrite.
func normalizeDelimiter(content string) string {
	if strings.Contains(content, ",") {
		return content
	}
	if strings.Contains(content, "\t") {
		return strings.ReplaceAll(content, "\t", ",")
	}
	if strings.Contains(content, ";") {
		return strings.ReplaceAll(content, ";", ",")
	}
	return content
}
