package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected *DetectedItem
	}{
		{
			name:     "name and quantity",
			line:     "Milk | 2 liters",
			expected: &DetectedItem{Name: "Milk", Quantity: "2 liters"},
		},
		{
			name:     "empty quantity",
			line:     "Eggs |",
			expected: &DetectedItem{Name: "Eggs"},
		},
		{
			name:     "extra columns ignored",
			line:     "Cheese | 1 block | sharp",
			expected: &DetectedItem{Name: "Cheese", Quantity: "1 block"},
		},
		{
			name:     "bullet stripped",
			line:     "- Apples | 6",
			expected: &DetectedItem{Name: "Apples", Quantity: "6"},
		},
		{
			// Lines without a pipe separator are indistinguishable from preamble;
			// require at least one | for a line to be treated as an item.
			name:     "name only without pipe",
			line:     "Butter",
			expected: nil,
		},
		{
			name:     "empty name",
			line:     " | 2",
			expected: nil,
		},
		{
			name:     "empty line",
			line:     "",
			expected: nil,
		},
		{
			name:     "whitespace only",
			line:     "   ",
			expected: nil,
		},
		{
			name:     "header line Here",
			line:     "Here are the items: name | quantity",
			expected: nil,
		},
		{
			name:     "header line Based on",
			line:     "Based on the image | list",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseLine(tt.line)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []DetectedItem
	}{
		{
			name: "basic items",
			raw: `Milk | 2 liters
Eggs | 12
Bread |`,
			expected: []DetectedItem{
				{Name: "Milk", Quantity: "2 liters"},
				{Name: "Eggs", Quantity: "12"},
				{Name: "Bread"},
			},
		},
		{
			name: "skip header lines",
			raw: `Here are the items I see:
Milk | 1 liter
Butter | 1 block`,
			expected: []DetectedItem{
				{Name: "Milk", Quantity: "1 liter"},
				{Name: "Butter", Quantity: "1 block"},
			},
		},
		{
			name: "empty lines",
			raw: `Apple | 6

Orange | 4`,
			expected: []DetectedItem{
				{Name: "Apple", Quantity: "6"},
				{Name: "Orange", Quantity: "4"},
			},
		},
		{
			name:     "no items with pipes",
			raw:      "Here are the items:",
			expected: []DetectedItem{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseResponse(tt.raw)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestDetectedItemLabel(t *testing.T) {
	assert.Equal(t, "Milk (2 liters)", DetectedItem{Name: "Milk", Quantity: "2 liters"}.Label())
	assert.Equal(t, "Bread", DetectedItem{Name: "Bread"}.Label())
}
