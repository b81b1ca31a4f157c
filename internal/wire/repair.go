package wire

import (
	"regexp"
	"strings"

	"heat_controller/internal/models"
)

// Outcome says how much repair a chunk needed.
type Outcome int

const (
	OutcomeClean     Outcome = iota // parsed as-is
	OutcomeRepaired                 // parsed after comma/bracket cleanup, or with rows dropped
	OutcomeHarvested                // structure unusable; complete rows scraped out of the text
	OutcomeFailed                   // nothing recoverable; treated as an empty chunk
)

func (o Outcome) String() string {
	switch o {
	case OutcomeClean:
		return "clean"
	case OutcomeRepaired:
		return "repaired"
	case OutcomeHarvested:
		return "harvested"
	default:
		return "failed"
	}
}

var (
	strayComma    = regexp.MustCompile(`,\s*([,\]])`)
	trailingComma = regexp.MustCompile(`,\s*$`)
	completeRow   = regexp.MustCompile(`\[\s*\d+(?:\s*,\s*-?\d+)*(?:\s*,\s*"\w+")?\s*\]`)
)

// ParseChunk decodes device chunk text, repairing stray commas and truncation.
// It never fails: an irrecoverable chunk yields no lines and OutcomeFailed.
func ParseChunk(text string) ([]models.LogLine, Outcome) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, OutcomeFailed
	}
	if lines, dropped, err := parseRowsLossy([]byte(trimmed)); err == nil {
		if dropped > 0 {
			return lines, OutcomeRepaired
		}
		return lines, OutcomeClean
	}

	if fixed, ok := cleanup(trimmed); ok {
		if lines, _, err := parseRowsLossy([]byte(fixed)); err == nil {
			return lines, OutcomeRepaired
		}
	}

	if lines := harvest(trimmed); len(lines) > 0 {
		return lines, OutcomeHarvested
	}
	return nil, OutcomeFailed
}

// parseRowsLossy requires valid outer structure but skips rows that do not decode.
func parseRowsLossy(data []byte) ([]models.LogLine, int, error) {
	rows, err := decodeRows(data)
	if err != nil {
		return nil, 0, err
	}
	out := make([]models.LogLine, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		l, err := decodeRow(row)
		if err != nil {
			dropped++
			continue
		}
		out = append(out, l)
	}
	return out, dropped, nil
}

// cleanup removes stray commas and closes a truncated array after its last complete row.
func cleanup(s string) (string, bool) {
	for {
		next := strayComma.ReplaceAllString(s, "$1")
		if next == s {
			break
		}
		s = next
	}

	if depth := bracketDepth(s); depth > 0 {
		last := strings.LastIndex(s, "]")
		if last < 0 {
			return "", false
		}
		s = s[:last+1]
	}
	s = trailingComma.ReplaceAllString(s, "")

	depth := bracketDepth(s)
	if depth < 0 {
		return "", false
	}
	return s + strings.Repeat("]", depth), true
}

// bracketDepth counts unclosed '[' outside string literals.
func bracketDepth(s string) int {
	depth := 0
	inString := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case inString && c == '\\':
			i++
		case c == '"':
			inString = !inString
		case inString:
		case c == '[':
			depth++
		case c == ']':
			depth--
		}
	}
	return depth
}

func harvest(s string) []models.LogLine {
	matches := completeRow.FindAllString(s, -1)
	if len(matches) == 0 {
		return nil
	}
	lines, _, err := parseRowsLossy([]byte("[" + strings.Join(matches, ",") + "]"))
	if err != nil {
		return nil
	}
	return lines
}
