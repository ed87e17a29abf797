package intent

import (
	"io"
	"log"
	"testing"
)

func newTestRouter() *Router {
	return NewRouter(log.New(io.Discard, "", 0))
}

func TestRoute(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  Intent
	}{
		{
			name:  "plain question",
			query: "What was the invoice total last month?",
			want:  RAGQuery,
		},
		{
			name:  "summarize keyword",
			query: "Please summarize the contract for me",
			want:  Summarize,
		},
		{
			name:  "summary noun form",
			query: "Give me a summary of chapter two",
			want:  Summarize,
		},
		{
			name:  "translate keyword",
			query: "Translate this document",
			want:  Translate,
		},
		{
			name:  "checklist keyword",
			query: "Build a checklist from the meeting notes",
			want:  Checklist,
		},
		{
			name:  "persian summarize",
			query: "این سند را خلاصه کن",
			want:  Summarize,
		},
		{
			name:  "persian translate",
			query: "این متن را به انگلیسی ترجمه کن",
			want:  Translate,
		},
		{
			name:  "persian checklist with zwnj",
			query: "از این جلسه یک چک‌لیست بساز",
			want:  Checklist,
		},
		{
			name:  "persian checklist with space",
			query: "یک چک لیست از وظایف بده",
			want:  Checklist,
		},
		{
			name:  "checklist beats summarize",
			query: "summarize this into a checklist",
			want:  Checklist,
		},
		{
			name:  "translate beats summarize",
			query: "translate the summary section",
			want:  Translate,
		},
		{
			name:  "mixed case",
			query: "TRANSLATE the agreement",
			want:  Translate,
		},
		{
			name:  "empty query",
			query: "",
			want:  RAGQuery,
		},
	}

	router := newTestRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := router.Route(tt.query)
			if got != tt.want {
				t.Errorf("Route(%q) = %s, want %s", tt.query, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		action string
		want   Intent
		ok     bool
	}{
		{"SUMMARIZE", Summarize, true},
		{"summarize", Summarize, true},
		{" translate ", Translate, true},
		{"CHECKLIST", Checklist, true},
		{"RAG_QUERY", RAGQuery, true},
		{"EXTRACT", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := Parse(tt.action)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Parse(%q) = (%s, %v), want (%s, %v)", tt.action, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsUtility(t *testing.T) {
	if RAGQuery.IsUtility() {
		t.Error("RAG_QUERY should not be a utility intent")
	}
	for _, i := range []Intent{Summarize, Translate, Checklist} {
		if !i.IsUtility() {
			t.Errorf("%s should be a utility intent", i)
		}
	}
}
