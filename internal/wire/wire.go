// Package wire reads and writes the array-of-arrays log format:
//
//	[[packed, r0, ..., rN, "tag"?], ...]
//
// The device appends rows to flash without ever closing the array, so chunk text is
// routinely truncated or carries stray commas. ParseChunk repairs what it can; DecodeLines
// is the strict counterpart used for data this process wrote itself.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"heat_controller/internal/models"
	"heat_controller/internal/packedtime"
)

var (
	errEmptyRow      = errors.New("empty row")
	errBadStamp      = errors.New("row stamp is not an integer or string")
	errBadReading    = errors.New("reading is not an integer")
	errMisplacedTag  = errors.New("event tag must be the last element")
	errNotRowsOfRows = errors.New("payload is not an array of arrays")
)

// EncodeLine renders one line in wire form.
func EncodeLine(l models.LogLine) []any {
	row := make([]any, 0, len(l.Readings)+2)
	row = append(row, json.Number(stampNumber(l.Timestamp)))
	for _, r := range l.Readings {
		row = append(row, r)
	}
	if tag := l.Event.Tag(); tag != "" {
		row = append(row, tag)
	}
	return row
}

// EncodeLines renders lines as a JSON array of rows.
func EncodeLines(lines []models.LogLine) ([]byte, error) {
	rows := make([][]any, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, EncodeLine(l))
	}
	return json.Marshal(rows)
}

// DecodeLines strictly parses a JSON array of rows. Any malformed row fails the whole payload.
func DecodeLines(data []byte) ([]models.LogLine, error) {
	rows, err := decodeRows(data)
	if err != nil {
		return nil, err
	}
	out := make([]models.LogLine, 0, len(rows))
	for i, row := range rows {
		l, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, l)
	}
	return out, nil
}

// stampNumber renders the packed stamp as a JSON integer literal: JSON forbids leading
// zeros, so years 2000-2009 lose them here and get them back in padStamp.
func stampNumber(sec int64) string {
	s := strings.TrimLeft(packedtime.Encode(sec), "0")
	if s == "" {
		return "0"
	}
	return s
}

func padStamp(s string) string {
	if len(s) < packedtime.Width {
		return strings.Repeat("0", packedtime.Width-len(s)) + s
	}
	return s
}

func decodeRows(data []byte) ([][]json.RawMessage, error) {
	var rows [][]json.RawMessage
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", errNotRowsOfRows, err)
	}
	return rows, nil
}

func decodeRow(row []json.RawMessage) (models.LogLine, error) {
	if len(row) == 0 {
		return models.LogLine{}, errEmptyRow
	}
	stamp, err := decodeStamp(row[0])
	if err != nil {
		return models.LogLine{}, err
	}
	l := models.LogLine{Timestamp: packedtime.Decode(stamp)}

	rest := row[1:]
	if n := len(rest); n > 0 && isString(rest[n-1]) {
		var tag string
		if err := json.Unmarshal(rest[n-1], &tag); err != nil {
			return models.LogLine{}, err
		}
		l.Event = models.EventFromTag(tag)
		rest = rest[:n-1]
	}
	if len(rest) > 0 {
		l.Readings = make([]int, 0, len(rest))
	}
	for _, raw := range rest {
		if isString(raw) {
			return models.LogLine{}, errMisplacedTag
		}
		v, err := strconv.Atoi(string(bytes.TrimSpace(raw)))
		if err != nil {
			return models.LogLine{}, fmt.Errorf("%w: %s", errBadReading, raw)
		}
		l.Readings = append(l.Readings, v)
	}
	return l, nil
}

func decodeStamp(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if isString(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return padStamp(s), nil
	}
	if _, err := strconv.ParseUint(string(raw), 10, 64); err != nil {
		return "", fmt.Errorf("%w: %s", errBadStamp, raw)
	}
	return padStamp(string(raw)), nil
}

func isString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}
