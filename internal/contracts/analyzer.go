package contracts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// ErrUnexpectedShape is returned when the model answers with JSON that is not
// an {amounts, tasks} object.
var ErrUnexpectedShape = errors.New("analysis did not match the expected format")

const analysisPrompt = `Analyze the following document and extract:
- All monetary amounts (including their currency), what they are for, and where they appear
- All tasks, deliverables, and obligations (including descriptions, due dates, responsible parties, and details)

Your response should include only a JSON object with two properties, an "amounts" array and a "tasks" array, each related to their respective data, nothing else other than that should be included alongside your answer, example below:

{
  "amounts": [
    {
      "amount": "$1.500",
      "currency": "USD",
      "for": "Full compensation for the services provided under this agreement",
      "location": "Section 2.1"
    }
  ],
  "tasks": [
    "Create and deliver one high-quality, professionally photographed image featuring SparkleFizzCo.'s flagship beverage, SparkleFizz Original Citrus.",
    "Deliver one primary image and two social media adaptations optimized for Instagram.",
    "Submit the final image for Brand's approval."
  ]
}

Be sure to strictly follow the data structure exemplified above, and to start all sentences with an uppercase letter.

The user message holds the content of the document to be analyzed.`

// Model is a JSON-mode completion backend.
type Model interface {
	Analyze(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Amount is a monetary amount found in a document.
type Amount struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
	For      string `json:"for"`
	Location string `json:"location"`
}

// Analysis is the structured result of analysing a document.
type Analysis struct {
	Amounts []Amount `json:"amounts"`
	Tasks   []string `json:"tasks"`
}

// Document is an uploaded file.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Analyzer turns documents into analyses.
type Analyzer struct {
	model  Model
	logger *slog.Logger
}

// NewAnalyzer builds an analyzer backed by model.
func NewAnalyzer(model Model, logger *slog.Logger) *Analyzer {
	return &Analyzer{model: model, logger: logger}
}

// Analyze extracts the document text and asks the model for its amounts and
// tasks. Documents without text never reach the model.
func (a *Analyzer) Analyze(ctx context.Context, doc Document) (Analysis, error) {
	text, err := ExtractText(doc.ContentType, doc.Data)
	if err != nil {
		return Analysis{}, err
	}
	if strings.TrimSpace(text) == "" {
		return Analysis{}, ErrNoText
	}
	a.logger.Info("document text extracted",
		slog.String("name", doc.Name),
		slog.String("content_type", doc.ContentType),
		slog.Int("size", len(doc.Data)),
		slog.Int("text_length", len(text)),
	)

	raw, err := a.model.Analyze(ctx, analysisPrompt, text)
	if err != nil {
		return Analysis{}, err
	}
	return parseAnalysis(raw)
}

// parseAnalysis requires both arrays to be present. Amount entries must be
// objects and tasks must be strings.
func parseAnalysis(raw string) (Analysis, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Analysis{}, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	for _, key := range []string{"amounts", "tasks"} {
		v, ok := fields[key]
		if !ok || !strings.HasPrefix(strings.TrimSpace(string(v)), "[") {
			return Analysis{}, fmt.Errorf("%w: %q must be an array", ErrUnexpectedShape, key)
		}
	}

	var out Analysis
	if err := json.Unmarshal(fields["amounts"], &out.Amounts); err != nil {
		return Analysis{}, fmt.Errorf("%w: amounts: %v", ErrUnexpectedShape, err)
	}
	if err := json.Unmarshal(fields["tasks"], &out.Tasks); err != nil {
		return Analysis{}, fmt.Errorf("%w: tasks: %v", ErrUnexpectedShape, err)
	}
	return out, nil
}
