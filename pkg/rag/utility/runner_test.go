package utility

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"

	"doc-qa-be/pkg/llm"
	"doc-qa-be/pkg/rag"
	"doc-qa-be/pkg/rag/intent"
)

type fakeLLM struct {
	reply      string
	err        error
	calls      int
	lastPrompt string
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	if len(history) > 0 {
		f.lastPrompt = history[len(history)-1].Content
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func newTestRunner(provider llm.LLMProvider) *Runner {
	return NewRunner(provider, log.New(io.Discard, "", 0))
}

func TestExecuteSummarize(t *testing.T) {
	fake := &fakeLLM{reply: "A short summary."}
	runner := newTestRunner(fake)

	out, err := runner.Execute(context.Background(), "Long document text here.", intent.Summarize, "")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if out != "A short summary." {
		t.Errorf("output = %q, want model reply", out)
	}
	if !strings.Contains(fake.lastPrompt, "Long document text here.") {
		t.Error("document text missing from prompt")
	}
	if !strings.Contains(fake.lastPrompt, "concise summary") {
		t.Error("summarize instruction missing from prompt")
	}
}

func TestExecuteTranslateIncludesTarget(t *testing.T) {
	fake := &fakeLLM{reply: "ترجمه"}
	runner := newTestRunner(fake)

	_, err := runner.Execute(context.Background(), "Hello world.", intent.Translate, "Persian")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.Contains(fake.lastPrompt, "into Persian") {
		t.Errorf("target language missing from prompt:\n%s", fake.lastPrompt)
	}
}

func TestExecuteChecklistFormat(t *testing.T) {
	fake := &fakeLLM{reply: "- [ ] do the thing"}
	runner := newTestRunner(fake)

	_, err := runner.Execute(context.Background(), "Meeting notes.", intent.Checklist, "")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.Contains(fake.lastPrompt, "- [ ]") {
		t.Error("checkbox format instruction missing from prompt")
	}
}

func TestExecuteValidation(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		action    intent.Intent
		target    string
		wantField string
	}{
		{
			name:      "translate without target language",
			text:      "some text",
			action:    intent.Translate,
			target:    "",
			wantField: "target_language",
		},
		{
			name:      "translate with blank target language",
			text:      "some text",
			action:    intent.Translate,
			target:    "   ",
			wantField: "target_language",
		},
		{
			name:      "empty document text",
			text:      "",
			action:    intent.Summarize,
			target:    "",
			wantField: "text",
		},
		{
			name:      "whitespace document text",
			text:      "  \n ",
			action:    intent.Checklist,
			target:    "",
			wantField: "text",
		},
		{
			name:      "non-utility action",
			text:      "some text",
			action:    intent.RAGQuery,
			target:    "",
			wantField: "action",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeLLM{reply: "unused"}
			runner := newTestRunner(fake)

			_, err := runner.Execute(context.Background(), tt.text, tt.action, tt.target)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}

			var invalid *rag.InvalidArgumentError
			if !errors.As(err, &invalid) {
				t.Fatalf("error type = %T, want *rag.InvalidArgumentError", err)
			}
			if invalid.Field != tt.wantField {
				t.Errorf("field = %q, want %q", invalid.Field, tt.wantField)
			}
			if fake.calls != 0 {
				t.Errorf("model called %d times despite invalid arguments", fake.calls)
			}
		})
	}
}

func TestExecuteProviderFailure(t *testing.T) {
	fake := &fakeLLM{err: errors.New("model unavailable")}
	runner := newTestRunner(fake)

	_, err := runner.Execute(context.Background(), "text", intent.Summarize, "")
	if err == nil {
		t.Fatal("expected utility error, got nil")
	}

	var utilityErr *rag.UtilityError
	if !errors.As(err, &utilityErr) {
		t.Fatalf("error type = %T, want *rag.UtilityError", err)
	}
	if utilityErr.Action != string(intent.Summarize) {
		t.Errorf("action = %q, want SUMMARIZE", utilityErr.Action)
	}
	if fake.calls != 1 {
		t.Errorf("model called %d times, want exactly 1 (no retry)", fake.calls)
	}
}

func TestDetectTargetLanguage(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"translate this to English please", "English"},
		{"این متن را به انگلیسی ترجمه کن", "English"},
		{"translate the contract to Persian", "Persian"},
		{"به فارسی ترجمه کن", "Persian"},
		{"translate to farsi", "Persian"},
		{"translate this document", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := DetectTargetLanguage(tt.query); got != tt.want {
			t.Errorf("DetectTargetLanguage(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}
