package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/callcoach/internal/builder"
	"github.com/julianstephens/callcoach/internal/models"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateForm:
		content = docStyle.Render(m.form.View())
	case StateConfirmQuit:
		content = lipgloss.Place(m.width, max(m.height-4, 1),
			lipgloss.Center, lipgloss.Center, m.form.View())
	case StateConfirmDeleteGroup:
		content = m.viewConfirmDeleteGroup()
	default:
		content = m.viewPage()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewSteps(),
		m.viewHeader(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewSteps() string {
	if m.wizard == nil {
		return activeStepStyle.Render("Template builder")
	}
	var tabs []string
	for i, step := range builder.Steps() {
		title := fmt.Sprintf("%d. %s", i+1, step)
		if step == m.wizard.Step() {
			tabs = append(tabs, activeStepStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveStepStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewHeader() string {
	t := m.store.Template()
	name := t.Name
	if name == "" {
		name = "Untitled template"
	}
	line := titleStyle.Render(name)
	if m.store.IsDirty() {
		line += warningStyle.Render(" (unsaved)")
	}
	if t.Status != "" {
		line += mutedStyle.Render(fmt.Sprintf("  %s", t.Status))
	}
	if t.ScoringMethod == models.ScoringWeighted {
		wb := m.store.WeightBalance()
		if wb.Balanced {
			line += "  " + okStyle.Render(fmt.Sprintf("weights %s%%", formatFloat(wb.Total)))
		} else {
			line += "  " + warningStyle.Render(wb.Message)
		}
	}
	return docStyle.Render(line)
}

func (m Model) viewPage() string {
	if m.wizard == nil {
		return m.viewOutline()
	}
	switch m.wizard.Step() {
	case builder.StepBasics:
		return m.viewBasics()
	case builder.StepAssignments:
		return m.viewAssignments()
	case builder.StepReview:
		return m.viewReview()
	}
	return m.viewOutline()
}

func (m Model) viewBasics() string {
	t := m.store.Template()
	var b strings.Builder
	fmt.Fprintf(&b, "Name:           %s\n", t.Name)
	fmt.Fprintf(&b, "Use case:       %s\n", t.UseCase)
	fmt.Fprintf(&b, "Scoring method: %s\n", methodLabel(t.ScoringMethod))
	fmt.Fprintf(&b, "Pass threshold: %s%%\n", formatFloat(t.PassThreshold))
	if t.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", t.Description)
	}
	b.WriteString("\n" + mutedStyle.Render("Press enter to edit the basics."))
	return docStyle.Render(b.String())
}

func (m Model) viewOutline() string {
	rows := m.rows()
	if len(rows) == 0 {
		return docStyle.Render(mutedStyle.Render("No criteria yet. Press a to add a criterion or g to add a section."))
	}

	lines := make([]string, 0, len(rows))
	for i, r := range rows {
		line := m.renderRow(r)
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}

	vp := m.vp
	if vp.Height <= 0 {
		return docStyle.Render(strings.Join(lines, "\n"))
	}
	vp.SetContent(strings.Join(lines, "\n"))
	switch {
	case m.cursor < vp.YOffset:
		vp.SetYOffset(m.cursor)
	case m.cursor >= vp.YOffset+vp.Height:
		vp.SetYOffset(m.cursor - vp.Height + 1)
	}
	return docStyle.Render(vp.View())
}

func (m Model) renderRow(r row) string {
	showWeights := m.store.Template().ScoringMethod == models.ScoringWeighted
	if r.kind == rowGroup {
		g, _ := m.store.Group(r.id)
		marker := "▸"
		if m.store.IsGroupExpanded(g.ID) {
			marker = "▾"
		}
		name := g.Name
		if name == "" {
			name = "Untitled section"
		}
		text := fmt.Sprintf("%s %s (%d)", marker, name, len(m.store.GroupCriteria(g.ID)))
		return groupStyle.Render(text)
	}

	c, _ := m.store.Criterion(r.id)
	name := c.Name
	if name == "" {
		name = mutedStyle.Render("untitled criterion")
	}
	indent := ""
	if r.groupID != nil {
		indent = "  "
	}
	text := fmt.Sprintf("%s%s  %s", indent, name, mutedStyle.Render(c.CriteriaType.Label()))
	if showWeights {
		text += fmt.Sprintf("  %s%%", formatFloat(c.Weight))
	}
	if c.IsRequired {
		text += warningStyle.Render(" required")
	}
	if c.IsAutoFail {
		text += dangerStyle.Render(" auto-fail")
	}
	return text
}

func (m Model) viewAssignments() string {
	var b strings.Builder
	if m.wizard.AssignmentMode() == builder.AssignEveryone {
		b.WriteString(okStyle.Render("● Everyone") + "  (the template becomes the default)\n")
		b.WriteString(mutedStyle.Render("○ Specific people") + "\n\n")
		b.WriteString(mutedStyle.Render("Press E to pick specific people."))
		return docStyle.Render(b.String())
	}

	b.WriteString(mutedStyle.Render("○ Everyone") + "\n")
	b.WriteString(okStyle.Render("● Specific people") +
		fmt.Sprintf("  (%d selected)\n\n", len(m.wizard.SelectedUsers())))
	if m.teamErr != "" {
		b.WriteString(dangerStyle.Render(m.teamErr))
		return docStyle.Render(b.String())
	}
	if len(m.members) == 0 {
		b.WriteString(mutedStyle.Render("Loading team..."))
		return docStyle.Render(b.String())
	}
	for i, member := range m.members {
		check := "[ ]"
		if m.wizard.IsSelected(member.ID) {
			check = "[x]"
		}
		line := fmt.Sprintf("%s %s %s", check, member.DisplayName(), mutedStyle.Render(member.Email))
		if i == m.memberCursor {
			line = selectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return docStyle.Render(b.String())
}

func (m Model) viewReview() string {
	var b strings.Builder
	for _, item := range m.wizard.Checklist() {
		var mark string
		switch {
		case item.Done:
			mark = okStyle.Render("✓")
		case item.Warning:
			mark = warningStyle.Render("⚠")
		default:
			mark = dangerStyle.Render("✗")
		}
		line := fmt.Sprintf("%s %s", mark, item.Label)
		if item.Detail != "" {
			line += mutedStyle.Render("  " + item.Detail)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n" + mutedStyle.Render("[f] Save as draft   [p] Save and publish"))
	return docStyle.Render(b.String())
}

func (m Model) viewConfirmDeleteGroup() string {
	g, _ := m.store.Group(m.editingID)
	n := len(m.store.GroupCriteria(m.editingID))
	return lipgloss.Place(m.width, max(m.height-4, 1),
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete section %q?", g.Name)),
			fmt.Sprintf("It holds %d criteria.", n),
			"",
			"[o] Keep criteria as ungrouped",
			"[x] Delete criteria too",
			"[n] Cancel",
		),
	)
}

func (m Model) viewStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return docStyle.Render(dangerStyle.Render(m.status))
	}
	return docStyle.Render(m.status)
}
