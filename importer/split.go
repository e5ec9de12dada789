package importer

import "strings"

// DetectDelimiter picks the cell separator of a pasted line: tab wins over
// pipe, pipe wins over comma.
func DetectDelimiter(line string) rune {
	switch {
	case strings.ContainsRune(line, '\t'):
		return '\t'
	case strings.ContainsRune(line, '|'):
		return '|'
	default:
		return ','
	}
}

// SplitLine splits line on delim. Double-quoted cells may contain the
// delimiter, and "" inside quotes is a literal quote. Cells are trimmed, and
// the empty edge cells of a |-bordered pipe row are dropped.
func SplitLine(line string, delim rune) []string {
	var (
		cells    []string
		cell     strings.Builder
		inQuotes bool
		runes    = []rune(line)
	)

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuotes && r == '"':
			if i+1 < len(runes) && runes[i+1] == '"' {
				cell.WriteRune('"')
				i++
			} else {
				inQuotes = false
			}
		case inQuotes:
			cell.WriteRune(r)
		case r == '"' && strings.TrimSpace(cell.String()) == "":
			cell.Reset()
			inQuotes = true
		case r == delim:
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		default:
			cell.WriteRune(r)
		}
	}
	cells = append(cells, strings.TrimSpace(cell.String()))

	if delim == '|' {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") && len(cells) > 0 && cells[0] == "" {
			cells = cells[1:]
		}
		if strings.HasSuffix(trimmed, "|") && len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
	}
	return cells
}

// isSeparatorRow matches markdown table rules such as |---|:--:|.
func isSeparatorRow(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if c == "" || strings.Trim(c, "-: ") != "" {
			return false
		}
	}
	return true
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
