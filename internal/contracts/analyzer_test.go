package contracts

import (
	"context"
	"errors"
	"testing"

	"github.com/paycasso/paycasso/internal/integrations/gemini"
	"github.com/paycasso/paycasso/internal/logging"
)

type fakeModel struct {
	response string
	err      error
	calls    int
	text     string
}

func (m *fakeModel) Analyze(_ context.Context, _ string, userPrompt string) (string, error) {
	m.calls++
	m.text = userPrompt
	return m.response, m.err
}

func TestAnalyzeReturnsAmountsAndTasks(t *testing.T) {
	model := &fakeModel{response: `{"amounts":[{"amount":"$1.500","currency":"USD","for":"Services","location":"Section 2.1"}],"tasks":["Deliver the image."]}`}
	analyzer := NewAnalyzer(model, logging.Discard())

	got, err := analyzer.Analyze(context.Background(), Document{Name: "a.docx", ContentType: MIMEDOCX, Data: buildDOCX(t, "Pay $1.500")})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(got.Amounts) != 1 || got.Amounts[0].For != "Services" || got.Amounts[0].Currency != "USD" {
		t.Fatalf("unexpected amounts %+v", got.Amounts)
	}
	if len(got.Tasks) != 1 || got.Tasks[0] != "Deliver the image." {
		t.Fatalf("unexpected tasks %+v", got.Tasks)
	}
	if model.text != "Pay $1.500" {
		t.Fatalf("model received %q", model.text)
	}
}

func TestAnalyzeSkipsModelWithoutText(t *testing.T) {
	model := &fakeModel{response: `{"amounts":[],"tasks":[]}`}
	analyzer := NewAnalyzer(model, logging.Discard())

	_, err := analyzer.Analyze(context.Background(), Document{ContentType: MIMEDOCX, Data: buildDOCX(t, "   ", "")})
	if !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
	if model.calls != 0 {
		t.Fatalf("model must not be called, got %d calls", model.calls)
	}
}

func TestAnalyzePropagatesModelErrors(t *testing.T) {
	model := &fakeModel{err: gemini.ErrInvalidJSON}
	analyzer := NewAnalyzer(model, logging.Discard())

	_, err := analyzer.Analyze(context.Background(), Document{ContentType: MIMEDOCX, Data: buildDOCX(t, "text")})
	if !errors.Is(err, gemini.ErrInvalidJSON) {
		t.Fatalf("expected ErrInvalidJSON, got %v", err)
	}
}

func TestParseAnalysisShape(t *testing.T) {
	cases := map[string]string{
		"array root":        `[1,2]`,
		"missing tasks":     `{"amounts":[]}`,
		"missing amounts":   `{"tasks":[]}`,
		"tasks not array":   `{"amounts":[],"tasks":"Deliver"}`,
		"null amounts":      `{"amounts":null,"tasks":[]}`,
		"amount not object": `{"amounts":["$5"],"tasks":[]}`,
		"task not string":   `{"amounts":[],"tasks":[{"name":"x"}]}`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseAnalysis(raw); !errors.Is(err, ErrUnexpectedShape) {
				t.Fatalf("expected ErrUnexpectedShape, got %v", err)
			}
		})
	}

	got, err := parseAnalysis(`{"amounts":[],"tasks":[],"notes":"extra keys are ignored"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Amounts == nil || got.Tasks == nil {
		t.Fatalf("expected empty arrays, got %+v", got)
	}
}
