package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/user/datalenz/internal/render"
	"github.com/user/datalenz/internal/types"
)

func (m *Model) paneStyle(focused bool) lipgloss.Style {
	if focused {
		return m.theme.PaneFocused
	}
	return m.theme.Pane
}

func (m *Model) renderChatPane(l layoutInfo) string {
	title := m.theme.PaneTitle.Render("Conversation")
	body := lipgloss.JoinVertical(lipgloss.Left, title, m.chatVP.View())
	return m.paneStyle(m.focus == focusChat).Width(l.ChatW - 2).Height(l.ChatH - 2).Render(body)
}

func (m *Model) renderWorkspacePane(l layoutInfo) string {
	title := "Workspace"
	if m.showSessions {
		title = fmt.Sprintf("Sessions (%d)", len(m.sessionList))
	} else if m.histSel >= 0 && m.histSel < len(m.snap.History) {
		title = fmt.Sprintf("Workspace (history %d/%d)", m.histSel+1, len(m.snap.History))
	}
	body := lipgloss.JoinVertical(lipgloss.Left, m.theme.PaneTitle.Render(title), m.workVP.View())
	return m.paneStyle(m.focus == focusWorkspace).Width(l.WorkW - 2).Height(l.WorkH - 2).Render(body)
}

func (m *Model) renderHistoryPane(l layoutInfo) string {
	var b strings.Builder
	b.WriteString(m.theme.PaneTitle.Render("History"))
	b.WriteString("\n")

	visible := l.HistH - 3
	if visible < 1 {
		visible = 1
	}
	records := m.snap.History
	sel := m.histSel
	if sel == -1 {
		sel = len(records) - 1
	}
	if sel < m.histOff {
		m.histOff = sel
	}
	if sel >= m.histOff+visible {
		m.histOff = sel - visible + 1
	}
	if m.histOff < 0 {
		m.histOff = 0
	}

	width := max(10, l.HistW-6)
	for i := m.histOff; i < len(records) && i < m.histOff+visible; i++ {
		rec := records[i]
		mark := m.theme.HistOK.Render("✓")
		if !rec.Success {
			mark = m.theme.HistERR.Render("✗")
		}
		line := fmt.Sprintf("%s %s %s", mark, rec.CreatedAt.Format("15:04"), truncate(rec.Query, width-9))
		if i == sel && m.focus == focusHistory {
			line = m.theme.HistSel.Render("▸ ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(records) == 0 {
		b.WriteString(m.theme.TopBarMeta.Render("  no executions yet"))
	}

	return m.paneStyle(m.focus == focusHistory).Width(l.HistW - 2).Height(l.HistH - 2).Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) refreshChat() {
	width := m.chatVP.Width
	if width < 20 {
		width = 20
	}
	var b strings.Builder
	for _, msg := range m.snap.Transcript {
		b.WriteString(m.renderMessage(msg, width))
		b.WriteString("\n\n")
	}
	m.chatVP.SetContent(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) renderMessage(msg types.Message, width int) string {
	var roleStyle lipgloss.Style
	var label string
	switch msg.Role {
	case types.RoleUser:
		roleStyle, label = m.theme.RoleYou, "YOU"
	case types.RoleAssistant:
		roleStyle, label = m.theme.RoleAI, "LENZ"
	default:
		roleStyle, label = m.theme.RoleSys, "SYS"
	}
	if strings.HasPrefix(msg.Content, "Error:") {
		roleStyle, label = m.theme.RoleErr, "ERR"
	}

	header := roleStyle.Render(label) + " " + m.theme.TopBarMeta.Render(msg.Timestamp.Format("15:04"))

	body := msg.Content
	if msg.Role == types.RoleAssistant && m.renderer != nil {
		body = m.renderer.Markdown(msg.Content)
	}
	body = lipgloss.NewStyle().Width(width).Render(strings.TrimRight(body, "\n"))

	return header + "\n" + body
}

// refreshWorkspace fills the workspace viewport: the latest response in
// full (plan, result, artifacts) or, when a history entry is selected,
// that execution's code and captured output.
func (m *Model) refreshWorkspace() {
	if m.showSessions {
		m.workVP.SetContent(m.renderSessionList())
		return
	}

	if m.renderer == nil {
		return
	}

	if m.histSel >= 0 && m.histSel < len(m.snap.History) {
		m.workVP.SetContent(m.renderRecord(m.snap.History[m.histSel]))
		return
	}

	latest := m.snap.Latest
	if latest == nil {
		if m.snap.Schema != nil {
			m.workVP.SetContent(m.renderSchema(m.snap.Schema))
		} else {
			m.workVP.SetContent(m.theme.TopBarMeta.Render("No executions yet. Upload a dataset and ask a question."))
		}
		return
	}

	var b strings.Builder
	if plan := m.renderer.Plan(&latest.Plan); plan != "" {
		b.WriteString(plan)
		b.WriteString("\n")
	}
	b.WriteString(m.renderer.Result(&latest.Result))

	if len(latest.Result.Artifacts) > 0 {
		b.WriteString("\n")
		var recordID types.RecordID
		if n := len(m.snap.History); n > 0 {
			recordID = m.snap.History[n-1].ID
		}
		saved := m.saved[recordID]
		savedIdx := 0
		for i := range latest.Result.Artifacts {
			a := &latest.Result.Artifacts[i]
			path := ""
			if a.Type == types.ArtifactChart && savedIdx < len(saved) {
				path = saved[savedIdx].Path
			}
			if a.Type != types.ArtifactError {
				savedIdx++
			}
			b.WriteString(m.renderer.Artifact(a, path))
			b.WriteString("\n")
		}
	}

	m.workVP.SetContent(strings.TrimRight(b.String(), "\n"))
}

// renderSessionList shows every backend session with the one currently
// open marked as active. The active session cannot be deleted, so the
// marker doubles as a warning.
func (m *Model) renderSessionList() string {
	if len(m.sessionList) == 0 {
		return m.theme.TopBarMeta.Render("No sessions found.")
	}

	var b strings.Builder
	for _, s := range m.sessionList {
		id := string(s.ID)
		if s.ID == m.snap.SessionID {
			b.WriteString(m.theme.HistSel.Render("▸ ") + id + " " + m.theme.PaneTitle.Render("(active)"))
		} else {
			b.WriteString("  " + id)
		}
		b.WriteString("\n")

		dataset := "no dataset"
		if s.Schema != nil {
			dataset = fmt.Sprintf("%d cols, %d rows", len(s.Schema.Columns), s.Schema.RowCount)
		}
		b.WriteString("    " + dataset + "  " + m.theme.TopBarMeta.Render(render.RelativeTime(s.LastActivity)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.TopBarMeta.Render("/restore <id> opens a session, /delete <id> removes it."))
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderRecord(rec types.ExecutionRecord) string {
	result := types.ExecutionResult{
		Success:       rec.Success,
		Code:          rec.Code,
		Stdout:        rec.Stdout,
		Stderr:        rec.Stderr,
		ExecutionTime: rec.ExecutionTime,
	}
	header := m.theme.TopBarMeta.Render(fmt.Sprintf("%s  %.2fs", rec.CreatedAt.Format("15:04:05"), rec.ExecutionTime))
	return header + "\n" + m.renderer.Result(&result)
}

func (m *Model) renderSchema(schema *types.DatasetSchema) string {
	var b strings.Builder
	b.WriteString(m.theme.PaneTitle.Render(fmt.Sprintf("Dataset: %d columns, %d rows", len(schema.Columns), schema.RowCount)))
	b.WriteString("\n")
	for _, col := range schema.Columns {
		b.WriteString(fmt.Sprintf("  %s  %s\n", col.Name, m.theme.TopBarMeta.Render(col.Dtype)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func truncate(s string, n int) string {
	if n < 4 {
		n = 4
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
