package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyReport is returned by Decode when the input holds no report.
var ErrEmptyReport = errors.New("report: empty report")

// Decode parses a report blob as returned by the analysis service. Markdown
// code fences and a leading "json" language tag are stripped. Numbers are
// decoded as json.Number so integer scores survive unchanged.
func Decode(data []byte) (map[string]any, error) {
	text := stripFences(string(data))
	if text == "" {
		return nil, ErrEmptyReport
	}

	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("report: decode: %w", err)
	}
	if raw == nil {
		return nil, ErrEmptyReport
	}
	return raw, nil
}

// ParseBlob is the lenient form of Decode: any failure yields an empty map.
func ParseBlob(blob string) map[string]any {
	raw, err := Decode([]byte(blob))
	if err != nil {
		return map[string]any{}
	}
	return raw
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		parts := strings.Split(text, "```")
		if len(parts) >= 2 {
			text = strings.TrimSpace(parts[1])
		}
	}
	if len(text) >= 4 && strings.EqualFold(text[:4], "json") {
		text = strings.TrimSpace(text[4:])
	}
	return text
}
