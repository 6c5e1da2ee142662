// Package csvutil implements the contact import/export CSV dialect: every
// exported field quoted, embedded quotes doubled, and a line parser tolerant
// enough to report malformed rows individually instead of aborting the file.
package csvutil

import "strings"

// QuoteField wraps a field in quotes, doubling any embedded quote.
func QuoteField(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

// FormatRow renders one CSV line with every field quoted.
func FormatRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = QuoteField(f)
	}
	return strings.Join(quoted, ",")
}

// ParseLine splits one CSV line into fields. Quoted fields may contain
// commas and doubled-quote escapes; quotes toggle an in-quotes state per
// character.
func ParseLine(line string) []string {
	var fields []string
	var field strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				field.WriteByte('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteByte(ch)
		}
	}
	fields = append(fields, field.String())
	return fields
}

// SplitLines splits file content on newlines, dropping blank lines and
// tolerating both \n and \r\n endings.
func SplitLines(data string) []string {
	raw := strings.Split(data, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
