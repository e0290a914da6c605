package tui

import (
	"fmt"
	"strings"

	"github.com/ashureev/docqa/internal/domain"
	"github.com/ashureev/docqa/internal/session"
	"github.com/charmbracelet/lipgloss"
)

const welcomeText = "Ask anything about your uploaded documents."

// View renders the current screen.
func (m Model) View() string {
	body := m.viewUpload()
	if m.screen == screenChat {
		body = m.viewChat()
	}

	page := lipgloss.JoinVertical(lipgloss.Left, m.viewHeader(), body, m.viewFooter())

	switch m.modal {
	case modalConfirm:
		return m.overlay(session.Prompt + "\n\n" + m.styles.Help.Render("y confirm · n cancel"))
	case modalAlert:
		return m.overlay(m.alert + "\n\n" + m.styles.Help.Render("press any key"))
	}
	return page
}

func (m Model) overlay(content string) string {
	box := m.styles.Modal.Render(content)
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) viewHeader() string {
	tabs := []string{"Upload", "Chat"}
	for i, t := range tabs {
		if screen(i) == m.screen {
			tabs[i] = m.styles.ActiveTab.Render(t)
		} else {
			tabs[i] = m.styles.Tab.Render(t)
		}
	}
	stats := m.styles.Stats.Render(fmt.Sprintf("📄 %d documents · %d chunks · %d exchanges",
		m.stats.Documents, m.stats.Chunks, m.stats.ChatHistory))

	return lipgloss.JoinHorizontal(lipgloss.Top, m.styles.Title.Render("docqa "), strings.Join(tabs, ""), "  ", stats) + "\n"
}

func (m Model) viewFooter() string {
	help := "tab switch screen · ctrl+r clear session · ctrl+c quit"
	if m.screen == screenUpload {
		if m.pickerOpen {
			help = "enter select · q close picker · " + help
		} else {
			help = "o open picker · paste paths to drop · ↑/↓ select · d remove · enter upload · " + help
		}
	} else {
		help = "enter ask · alt+1-9 sample · ctrl+k context · " + help
	}
	return m.styles.Help.Render(help)
}

func (m Model) viewUpload() string {
	var b strings.Builder

	if m.pickerOpen {
		b.WriteString(m.styles.PanelTitle.Render("Pick a document"))
		b.WriteString("\n")
		b.WriteString(m.picker.View())
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.styles.PanelTitle.Render(fmt.Sprintf("Drop %s files here", strings.ToUpper(strings.TrimPrefix(m.upload.Extension(), ".")))))
	b.WriteString("\n")

	files := m.upload.Files()
	if len(files) == 0 {
		b.WriteString(m.styles.Faint.Render("No files selected"))
		b.WriteString("\n")
	}
	for i, f := range files {
		cursor := "  "
		name := f.Name
		if i == m.selected {
			cursor = m.styles.Cursor.Render("› ")
			name = m.styles.Cursor.Render(name)
		}
		fmt.Fprintf(&b, "%s📄 %s %s\n", cursor, name, m.styles.Faint.Render(formatSize(f.Size)))
	}
	b.WriteString("\n")

	button := m.styles.ButtonOff.Render("Upload")
	if m.upload.CanSubmit() {
		button = m.styles.Button.Render("Upload")
	}
	b.WriteString(button)

	st := m.upload.Status()
	if st.Text != "" {
		text := st.Text
		if m.upload.Busy() {
			text = m.spinner.View() + " " + text
		}
		b.WriteString("  ")
		b.WriteString(m.styles.Status(st.Kind).Render(text))
	}
	b.WriteString("\n")

	if len(m.documents) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.PanelTitle.Render("Indexed documents"))
		b.WriteString("\n")
		for _, d := range m.documents {
			line := "• " + d.Filename
			if d.Pages > 0 {
				line += m.styles.Faint.Render(fmt.Sprintf(" (%d pages)", d.Pages))
			}
			b.WriteString(line + "\n")
		}
	}

	return b.String()
}

func (m Model) viewChat() string {
	main := m.viewport.View()
	if w := m.panelWidth(); w > 0 {
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, m.viewPanel(w))
	}

	status := ""
	if m.chat.Loading() {
		status = m.spinner.View() + " Thinking..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		main,
		status,
		m.styles.Input.Render(m.input.View()),
	)
}

func (m Model) viewPanel(width int) string {
	p := m.chat.Panel()
	var b strings.Builder
	b.WriteString(m.styles.PanelTitle.Render("Context"))
	b.WriteString("\n")

	if p.Placeholder || len(p.Entries) == 0 {
		b.WriteString(m.styles.Faint.Render("No context"))
	}
	for _, e := range p.Entries {
		fmt.Fprintf(&b, "📄 %s %s\n", e.Source, m.styles.Score.Render(e.Percent()))
		b.WriteString(m.styles.Faint.Render(e.Text))
		b.WriteString("\n\n")
	}

	return m.styles.Panel.
		Width(width - 2).
		Height(m.viewport.Height - 2).
		Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderMessages() string {
	if m.chat.Welcome() {
		return m.renderWelcome()
	}

	var b strings.Builder
	for _, msg := range m.chat.Messages() {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderWelcome() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render(welcomeText))
	b.WriteString("\n\n")
	for i, q := range m.chat.Samples() {
		if i >= 9 {
			break
		}
		fmt.Fprintf(&b, "%s %s\n", m.styles.Help.Render(fmt.Sprintf("alt+%d", i+1)), q)
	}
	return b.String()
}

func (m Model) renderMessage(msg domain.Message) string {
	if msg.Role == domain.RoleUser {
		return msg.Avatar() + " " + m.styles.UserMsg.Render(msg.Text) + "\n"
	}

	var b strings.Builder
	b.WriteString(msg.Avatar() + " ")
	b.WriteString(m.renderMarkdown(msg.Text))
	if len(msg.Sources) > 0 {
		b.WriteString(m.styles.Faint.Render("Sources: "))
		for _, s := range msg.Sources {
			b.WriteString(m.styles.SourceTag.Render(s))
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	if msg.Model != "" {
		b.WriteString(m.styles.Faint.Render("model: " + msg.Model))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text + "\n"
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text + "\n"
	}
	return strings.TrimLeft(out, "\n")
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
