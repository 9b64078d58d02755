package vision

import (
	"context"
	"io"
)

// AnalysisPrompt is the shared prompt used by all vision adapters.
const AnalysisPrompt = `List every grocery item on this shopping list or in this photo of a shelf.
For each item give its name and the quantity if one is written or visible.
Respond in plain text, one item per line, format: name | quantity`

type VisionAnalyzer interface {
	Analyze(ctx context.Context, r io.Reader, mimeType string) (*AnalysisResult, error)
}

type AnalysisResult struct {
	Items       []DetectedItem
	RawResponse string
}

type DetectedItem struct {
	Name     string
	Quantity string
}

// Label is the item name as it should appear on a grocery list.
func (d DetectedItem) Label() string {
	if d.Quantity == "" {
		return d.Name
	}
	return d.Name + " (" + d.Quantity + ")"
}
