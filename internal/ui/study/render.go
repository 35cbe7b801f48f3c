package study

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dsjohal14/studybank/internal/scope/bank"
)

type styles struct {
	title  lipgloss.Style
	muted  lipgloss.Style
	active lipgloss.Style
	label  lipgloss.Style
	pane   lipgloss.Style
}

func newStyles(noColor bool) styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return styles{
			title:  plain.Bold(true),
			muted:  plain,
			active: plain.Reverse(true),
			label:  plain.Bold(true),
			pane:   plain.Padding(0, 1),
		}
	}
	return styles{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		active: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("14")),
		label:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		pane:   lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")),
	}
}

func (m Model) listWidth() int {
	return max(m.width*2/5, 20)
}

func (m Model) detailWidth() int {
	return max(m.width-m.listWidth()-4, 20)
}

// View renders the header, filters, result list and detail pane
func (m Model) View() string {
	st := newStyles(m.noColor)

	header := st.title.Render("studybank") + "  " +
		st.muted.Render(fmt.Sprintf("%d questions · %d saved answers", m.result.Total, m.answers.Count()))

	typeName := "all"
	if m.qc.Type != "" {
		typeName = m.qc.Type.Label()
	}
	moduleName := "all"
	if m.qc.Module != "" {
		moduleName = m.qc.Module
	}
	filters := fmt.Sprintf("%s %s   %s %s   %s",
		st.label.Render("type[t]"), typeName,
		st.label.Render("module[m]"), moduleName,
		st.muted.Render(fmt.Sprintf("%d results", len(m.result.Hits))))

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		st.pane.Width(m.listWidth()).Render(m.renderList(st)),
		st.pane.Width(m.detailWidth()).Render(m.renderDetail(st)),
	)

	footer := st.muted.Render(m.help())
	if m.status != "" {
		footer = st.label.Render(m.status) + "  " + footer
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, m.query.View(), filters, body, footer)
}

func (m Model) help() string {
	switch m.focus {
	case focusEditor:
		return "ctrl+s save · esc cancel"
	case focusQuery:
		return "↑/↓ move · tab list · esc quit"
	default:
		return "j/k move · enter edit · x clear · t type · m module · / search · q quit"
	}
}

func (m Model) listRows() int {
	return max(m.height-8, 3)
}

func (m Model) renderList(st styles) string {
	if len(m.result.Hits) == 0 {
		return st.muted.Render("no matching questions")
	}

	rows := m.listRows()
	active := max(m.activeIndex(), 0)
	start := 0
	if active >= rows {
		start = active - rows + 1
	}
	end := min(start+rows, len(m.result.Hits))

	width := m.listWidth() - 2
	var b strings.Builder
	for i := start; i < end; i++ {
		q := m.result.Hits[i].Question
		line := truncate(q.Heading()+"  "+q.Preview(), width)
		if q.ID == m.qc.ActiveID {
			line = st.active.Render(line)
		}
		b.WriteString(line)
		if i < end-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m Model) renderDetail(st styles) string {
	q, ok := m.bank.Get(m.qc.ActiveID)
	if !ok {
		return st.muted.Render("nothing selected")
	}

	var b strings.Builder
	b.WriteString(st.title.Render(q.Heading()) + "  " + st.muted.Render(q.Type.Label()) + "\n\n")
	b.WriteString(q.Stem + "\n")
	if q.Options != "" {
		b.WriteString("\n" + q.Options + "\n")
	}
	if q.StandardAnswer != "" {
		b.WriteString("\n" + st.label.Render("Reference answer") + "\n" + q.StandardAnswer + "\n")
	}
	if len(q.Source) > 0 {
		b.WriteString("\n" + st.muted.Render(sourceLine(q.Source)) + "\n")
	}

	b.WriteString("\n" + st.label.Render("My answer"))
	if m.focus == focusEditor {
		b.WriteString("\n" + m.editor.View())
		return b.String()
	}

	answer, updatedAt := m.answers.Resolve(q)
	if updatedAt != "" {
		b.WriteString("  " + st.muted.Render(updatedAt))
	}
	if answer == "" {
		answer = st.muted.Render("(empty)")
	}
	b.WriteString("\n" + answer)
	return b.String()
}

func sourceLine(refs []bank.SourceRef) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.String()
	}
	return strings.Join(parts, "; ")
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if width <= 1 || len(runes) <= width {
		return s
	}
	return string(runes[:width-1]) + "…"
}
