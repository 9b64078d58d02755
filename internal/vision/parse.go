package vision

import (
	"strings"
)

var preambles = []string{"Here", "I see", "Based on", "Sure"}

// ParseLine parses a single "name | quantity" line. It returns nil for blank
// lines, preamble text and lines without a separator.
func ParseLine(line string) *DetectedItem {
	line = strings.TrimSpace(line)
	if line == "" || !strings.Contains(line, "|") {
		return nil
	}
	for _, p := range preambles {
		if strings.HasPrefix(line, p) {
			return nil
		}
	}

	parts := strings.Split(line, "|")
	item := &DetectedItem{
		Name:     strings.Trim(strings.TrimSpace(parts[0]), "-* "),
		Quantity: strings.TrimSpace(parts[1]),
	}
	if item.Name == "" {
		return nil
	}
	return item
}

// ParseResponse parses a vision model response, one item per line.
func ParseResponse(raw string) []DetectedItem {
	items := make([]DetectedItem, 0)
	for _, line := range strings.Split(raw, "\n") {
		if item := ParseLine(line); item != nil {
			items = append(items, *item)
		}
	}
	return items
}
