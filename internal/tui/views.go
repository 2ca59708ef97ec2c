package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/the-names-must-flow/internal/cli"
	"github.com/Veraticus/the-names-must-flow/internal/model"
	"github.com/charmbracelet/lipgloss"
)

var (
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor)
	queueRowStyle = lipgloss.NewStyle().PaddingLeft(2)
	helpStyle     = lipgloss.NewStyle().Foreground(cli.SubtleColor)
)

// View renders the review screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.state {
	case StateLoading:
		return queueRowStyle.Render("Loading pending rules...")
	case StateHelp:
		return m.renderHelp()
	}

	if len(m.rules) == 0 {
		return m.renderDone()
	}

	sections := []string{
		cli.FormatTitle(fmt.Sprintf("Rule Review — %d pending", len(m.rules))),
		"",
		m.renderQueue(),
		m.renderDetail(),
	}

	if m.state == StateEditing {
		sections = append(sections, cli.FormatPrompt("Cleans to")+m.input.View())
	} else if m.state == StateRejecting {
		sections = append(sections, cli.FormatPrompt("Reject reason")+m.input.View())
	}

	if m.status != "" {
		sections = append(sections, cli.InfoStyle.Render(m.status))
	}
	sections = append(sections, helpStyle.Render(m.renderHelpLine()))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderQueue renders the pending rules with the cursor marking focus.
func (m Model) renderQueue() string {
	var b strings.Builder

	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		rule := m.rules[i]
		line := fmt.Sprintf("%s #%-4d %s → %s  %s",
			sourceIcon(rule.Source),
			rule.ID,
			truncate(rule.Pattern, 28),
			truncate(rule.Replacement, 24),
			cli.SubtleStyle.Render(fmt.Sprintf("(%.0f%%)", rule.Confidence*100)),
		)

		if i == m.cursor {
			b.WriteString(cursorStyle.Render("❯ " + line))
		} else {
			b.WriteString(queueRowStyle.Render(line))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// visibleRange windows the queue so long queues scroll with the cursor.
func (m Model) visibleRange() (int, int) {
	visible := m.height - 16
	if visible < 3 {
		visible = 3
	}
	if len(m.rules) <= visible {
		return 0, len(m.rules)
	}

	start := m.cursor - visible/2
	if start < 0 {
		start = 0
	}
	end := start + visible
	if end > len(m.rules) {
		end = len(m.rules)
		start = end - visible
	}
	return start, end
}

// renderDetail renders the focused rule's card.
func (m Model) renderDetail() string {
	rule, ok := m.selected()
	if !ok {
		return ""
	}

	content := fmt.Sprintf("Pattern: %s\n", cli.BoldStyle.Render(rule.Pattern)) +
		fmt.Sprintf("Type: %s\n", rule.PatternType) +
		fmt.Sprintf("Cleans to: %s\n", cli.SuccessStyle.Render(rule.Replacement)) +
		fmt.Sprintf("Confidence: %.0f%%\n", rule.Confidence*100) +
		fmt.Sprintf("Proposed by %s on %s", rule.Source, rule.CreatedAt.Format("Jan 2, 2006"))

	return cli.RenderBox(fmt.Sprintf("Rule #%d", rule.ID), content)
}

// renderDone renders the end-of-queue summary.
func (m Model) renderDone() string {
	summary := cli.FormatSuccess("No rules waiting for review.")
	if m.approved+m.rejected > 0 {
		summary = cli.FormatSuccess(fmt.Sprintf("Queue clear: %d approved, %d rejected this session.",
			m.approved, m.rejected))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		cli.FormatTitle("Rule Review"),
		"",
		summary,
		"",
		helpStyle.Render("Ctrl+R reload queue • q quit"),
	)
}

// renderHelp renders the full keymap.
func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(cli.FormatTitle("Review Keys"))
	b.WriteString("\n\n")

	for _, group := range m.keymap.FullHelp() {
		for _, binding := range group {
			b.WriteString(fmt.Sprintf("  %-12s %s\n",
				cli.BoldStyle.Render(binding.Help().Key),
				binding.Help().Desc))
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("Press ? to go back"))
	return b.String()
}

// renderHelpLine renders the one-line key hints under the queue.
func (m Model) renderHelpLine() string {
	if m.state == StateEditing || m.state == StateRejecting {
		return "Enter confirm • Esc cancel"
	}

	parts := make([]string, 0, 5)
	for _, binding := range m.keymap.ShortHelp() {
		parts = append(parts, binding.Help().Key+" "+binding.Help().Desc)
	}
	return strings.Join(parts, " • ")
}

func sourceIcon(source model.RuleSource) string {
	if source == model.SourceHuman {
		return cli.PersonIcon
	}
	return cli.RobotIcon
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-1] + "…"
}
