// Package study is the interactive terminal UI: a query box, a filtered
// result list and a detail pane with an answer editor.
package study

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dsjohal14/studybank/internal/scope/answers"
	"github.com/dsjohal14/studybank/internal/scope/bank"
	"github.com/dsjohal14/studybank/internal/scope/pipeline"
)

type focus int

const (
	focusQuery focus = iota
	focusList
	focusEditor
)

// Options configures the study UI
type Options struct {
	NoColor bool
	// Initial is the query context to start from
	Initial pipeline.Context
}

// Model is the bubbletea model of a study session
type Model struct {
	ctx      context.Context
	bank     *bank.Bank
	pipeline *pipeline.Pipeline
	answers  *answers.Store

	qc     pipeline.Context
	result pipeline.Result

	query  textinput.Model
	editor textarea.Model
	focus  focus

	status  string
	width   int
	height  int
	noColor bool
}

// NewModel builds the model and runs the pipeline once
func NewModel(ctx context.Context, b *bank.Bank, p *pipeline.Pipeline, a *answers.Store, opts Options) Model {
	ti := textinput.New()
	ti.Placeholder = "search stem, answer, module or number"
	ti.Prompt = "/ "
	ti.CharLimit = 200
	ti.SetValue(opts.Initial.Query)
	ti.Focus()

	ta := textarea.New()
	ta.Placeholder = "your answer"
	ta.ShowLineNumbers = false
	ta.SetHeight(6)

	m := Model{
		ctx:      ctx,
		bank:     b,
		pipeline: p,
		answers:  a,
		qc:       opts.Initial,
		query:    ti,
		editor:   ta,
		focus:    focusQuery,
		width:    100,
		height:   30,
		noColor:  opts.NoColor,
	}
	m.run("")
	return m
}

// Init starts the cursor blink
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Context returns the current query context
func (m Model) Context() pipeline.Context {
	return m.qc
}

// Result returns the current result set
func (m Model) Result() pipeline.Result {
	return m.result
}

// run recomputes the result set; a non-empty id is selected first
func (m *Model) run(selectID string) {
	if selectID != "" {
		m.result, m.qc = m.pipeline.Select(m.qc, selectID)
		return
	}
	m.result, m.qc = m.pipeline.Run(m.qc)
}

func (m Model) activeIndex() int {
	for i, h := range m.result.Hits {
		if h.Question.ID == m.qc.ActiveID {
			return i
		}
	}
	return -1
}

func (m *Model) move(delta int) {
	if len(m.result.Hits) == 0 {
		return
	}
	i := m.activeIndex() + delta
	i = max(0, min(i, len(m.result.Hits)-1))
	m.run(m.result.Hits[i].Question.ID)
}

func (m *Model) cycleType() {
	next := bank.Type("")
	if m.qc.Type == "" {
		next = bank.Types[0]
	} else {
		for i, t := range bank.Types {
			if t == m.qc.Type && i+1 < len(bank.Types) {
				next = bank.Types[i+1]
			}
		}
	}
	m.qc.Type = next
	m.run("")
}

func (m *Model) cycleModule() {
	modules := m.bank.Modules()
	next := ""
	if m.qc.Module == "" {
		if len(modules) > 0 {
			next = modules[0]
		}
	} else {
		for i, mod := range modules {
			if mod == m.qc.Module && i+1 < len(modules) {
				next = modules[i+1]
			}
		}
	}
	m.qc.Module = next
	m.run("")
}

func (m *Model) setFocus(f focus) tea.Cmd {
	m.focus = f
	m.query.Blur()
	m.editor.Blur()
	switch f {
	case focusQuery:
		return m.query.Focus()
	case focusEditor:
		return m.editor.Focus()
	}
	return nil
}

func (m *Model) startEdit() tea.Cmd {
	q, ok := m.bank.Get(m.qc.ActiveID)
	if !ok {
		return nil
	}
	answer, _ := m.answers.Resolve(q)
	m.editor.SetValue(answer)
	m.status = ""
	return m.setFocus(focusEditor)
}

func (m *Model) saveEdit() tea.Cmd {
	id := m.qc.ActiveID
	if id == "" {
		return m.setFocus(focusList)
	}
	if _, err := m.answers.Upsert(m.ctx, id, m.editor.Value()); err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return nil
	}
	m.status = "saved"
	return m.setFocus(focusList)
}

func (m *Model) clearAnswer() {
	id := m.qc.ActiveID
	if id == "" {
		return
	}
	if _, err := m.answers.Clear(m.ctx, id); err != nil {
		m.status = fmt.Sprintf("clear failed: %v", err)
		return
	}
	m.status = "cleared"
}

// Update handles key presses and window resizes
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.editor.SetWidth(max(m.detailWidth()-2, 10))
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.focus {
		case focusEditor:
			return m.updateEditor(msg)
		case focusQuery:
			return m.updateQuery(msg)
		default:
			return m.updateList(msg)
		}
	}
	return m, nil
}

func (m Model) updateQuery(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "enter":
		return m, m.setFocus(focusList)
	case "up":
		m.move(-1)
		return m, nil
	case "down":
		m.move(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.query, cmd = m.query.Update(msg)
	if v := m.query.Value(); v != m.qc.Query {
		m.qc.Query = v
		m.run("")
	}
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return m, tea.Quit
	case "tab", "/":
		return m, m.setFocus(focusQuery)
	case "up", "k":
		m.move(-1)
	case "down", "j":
		m.move(1)
	case "home", "g":
		m.move(-len(m.result.Hits))
	case "end", "G":
		m.move(len(m.result.Hits))
	case "t":
		m.cycleType()
	case "m":
		m.cycleModule()
	case "enter", "e":
		return m, m.startEdit()
	case "x":
		m.clearAnswer()
	}
	return m, nil
}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.status = "edit cancelled"
		return m, m.setFocus(focusList)
	case "ctrl+s":
		return m, m.saveEdit()
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}
