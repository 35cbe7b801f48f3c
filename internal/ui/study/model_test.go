package study

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/dsjohal14/studybank/internal/scope/answers"
	"github.com/dsjohal14/studybank/internal/scope/bank"
	"github.com/dsjohal14/studybank/internal/scope/db"
	"github.com/dsjohal14/studybank/internal/scope/pipeline"
	"github.com/dsjohal14/studybank/internal/scope/search"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	b, err := bank.New([]bank.Question{
		{ID: "q1", Number: "1", Module: "A", Type: bank.TypeSingle, Stem: "Define informed consent."},
		{ID: "q2", Number: "2", Module: "A", Type: bank.TypeMulti, Stem: "List the duties of a pharmacist."},
		{ID: "q3", Number: "3", Module: "B", Type: bank.TypeSingle, Stem: "Explain drug half-life."},
	})
	if err != nil {
		t.Fatalf("failed to build bank: %v", err)
	}
	store := answers.Open(context.Background(), db.NewMemKV(), zerolog.Nop())
	p := pipeline.New(search.NewIndex(b.All()), zerolog.Nop())
	return NewModel(context.Background(), b, p, store, Options{NoColor: true})
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func TestNewModelSelectsFirst(t *testing.T) {
	m := newTestModel(t)

	if len(m.Result().Hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(m.Result().Hits))
	}
	if m.Context().ActiveID != "q1" {
		t.Errorf("expected q1 active, got %q", m.Context().ActiveID)
	}
}

func TestNavigation(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, key(tea.KeyTab))

	m = press(t, m, runes("j"))
	if m.Context().ActiveID != "q2" {
		t.Errorf("expected q2 after j, got %q", m.Context().ActiveID)
	}
	m = press(t, m, runes("j"), runes("j"))
	if m.Context().ActiveID != "q3" {
		t.Errorf("expected to stay on last row, got %q", m.Context().ActiveID)
	}
	m = press(t, m, key(tea.KeyUp))
	if m.Context().ActiveID != "q2" {
		t.Errorf("expected q2 after up, got %q", m.Context().ActiveID)
	}
	m = press(t, m, runes("g"))
	if m.Context().ActiveID != "q1" {
		t.Errorf("expected q1 after g, got %q", m.Context().ActiveID)
	}
}

func TestTypeFilterFallsBack(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, key(tea.KeyTab), runes("j")) // q2 (multi)

	m = press(t, m, runes("t")) // single
	if m.Context().Type != bank.TypeSingle {
		t.Fatalf("expected single filter, got %q", m.Context().Type)
	}
	if len(m.Result().Hits) != 2 {
		t.Errorf("expected 2 hits, got %d", len(m.Result().Hits))
	}
	if m.Context().ActiveID != "q1" {
		t.Errorf("expected fallback to q1, got %q", m.Context().ActiveID)
	}

	m = press(t, m, runes("m")) // module A
	if m.Context().Module != "A" || len(m.Result().Hits) != 1 {
		t.Errorf("expected one hit in module A, got %d", len(m.Result().Hits))
	}
}

func TestCycleTypeWrapsToAll(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, key(tea.KeyTab))
	for range bank.Types {
		m = press(t, m, runes("t"))
	}
	if m.Context().Type != bank.TypeOther {
		t.Fatalf("expected other after full cycle, got %q", m.Context().Type)
	}
	m = press(t, m, runes("t"))
	if m.Context().Type != "" {
		t.Errorf("expected filter cleared, got %q", m.Context().Type)
	}
}

func TestQueryTyping(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, runes("h"), runes("a"), runes("l"), runes("f"))
	if m.Context().Query != "half" {
		t.Fatalf("expected query half, got %q", m.Context().Query)
	}
	if m.Context().ActiveID != "q3" {
		t.Errorf("expected q3 active, got %q", m.Context().ActiveID)
	}

	m = press(t, m, runes("zzzzzz"))
	if len(m.Result().Hits) != 0 || m.Context().ActiveID != "" {
		t.Errorf("expected empty results and no selection, got %d / %q",
			len(m.Result().Hits), m.Context().ActiveID)
	}
	if !strings.Contains(m.View(), "no matching questions") {
		t.Error("expected empty list message")
	}
}

func TestEditAndSave(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, key(tea.KeyTab), key(tea.KeyEnter))
	if m.focus != focusEditor {
		t.Fatalf("expected editor focus")
	}

	m = press(t, m, runes("my answer"), key(tea.KeyCtrlS))
	if m.focus != focusList {
		t.Errorf("expected list focus after save")
	}
	rec, ok := m.answers.Get("q1")
	if !ok || rec.MyAnswer != "my answer" {
		t.Errorf("expected saved answer, got %+v", rec)
	}
	if !strings.Contains(m.View(), "my answer") {
		t.Error("expected answer in detail pane")
	}

	m = press(t, m, runes("x"))
	rec, ok = m.answers.Get("q1")
	if !ok || rec.MyAnswer != "" {
		t.Errorf("expected cleared record, got %+v (%v)", rec, ok)
	}
}

func TestEditCancel(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, key(tea.KeyTab), runes("e"), runes("draft"), key(tea.KeyEsc))

	if m.focus != focusList {
		t.Errorf("expected list focus after cancel")
	}
	if m.answers.Count() != 0 {
		t.Errorf("expected nothing saved, got %d", m.answers.Count())
	}
}

func TestQuit(t *testing.T) {
	m := newTestModel(t)
	_, cmd := m.Update(key(tea.KeyCtrlC))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected QuitMsg")
	}
}

func TestViewShowsDetail(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)

	view := m.View()
	for _, want := range []string{"3 questions", "#1 · A", "Single choice", "Define informed consent."} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}
