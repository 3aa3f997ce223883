// Package tui is the interactive terminal workspace: a chat transcript,
// a workspace pane showing the latest execution, and the execution
// history, all fed by store snapshots.
package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/user/datalenz/internal/artifacts"
	"github.com/user/datalenz/internal/render"
	"github.com/user/datalenz/internal/sessioncache"
	"github.com/user/datalenz/internal/types"
	"github.com/user/datalenz/internal/workspace"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusChat
	focusWorkspace
	focusHistory
)

type snapshotMsg struct{ snap workspace.Snapshot }

type dispatchDoneMsg struct{}

type uploadDoneMsg struct {
	result *types.UploadResult
	err    error
}

type sessionOpMsg struct {
	op  string
	err error
}

type sessionsMsg struct {
	list []types.Session
	err  error
}

type spinMsg struct{}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const storeListener = "tui"

type Model struct {
	manager    *workspace.Manager
	dispatcher *workspace.Dispatcher
	store      *workspace.Store
	sink       *artifacts.Sink
	estimator  *workspace.TokenEstimator
	sessions   *sessioncache.Cache

	theme Theme

	width  int
	height int
	ready  bool
	focus  focusArea

	snap   workspace.Snapshot
	saved  map[types.RecordID][]artifacts.Saved
	tokens int

	sessionList  []types.Session
	showSessions bool

	input   textarea.Model
	chatVP  viewport.Model
	workVP  viewport.Model
	histSel int
	histOff int

	renderer *render.Renderer

	running    bool
	statusText string
	spinnerPos int

	updates chan workspace.Snapshot
	doneCh  chan struct{}
}

// New builds the TUI model and subscribes it to the store. The estimator
// may be nil when the tokenizer is unavailable; the token readout is then
// omitted from the top bar.
func New(manager *workspace.Manager, dispatcher *workspace.Dispatcher, store *workspace.Store, sink *artifacts.Sink, estimator *workspace.TokenEstimator, sessions *sessioncache.Cache) *Model {
	ta := textarea.New()
	ta.Placeholder = "Ask about your data. /upload <file> attaches a dataset."
	ta.Focus()
	ta.CharLimit = 8000
	ta.SetHeight(1)
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.BlurredStyle.CursorLine = lipgloss.NewStyle()

	m := &Model{
		manager:    manager,
		dispatcher: dispatcher,
		store:      store,
		sink:       sink,
		estimator:  estimator,
		sessions:   sessions,
		theme:      NewTheme(),
		width:      100,
		height:     30,
		focus:      focusInput,
		saved:      make(map[types.RecordID][]artifacts.Saved),
		input:      ta,
		histSel:    -1,
		statusText: "Ready",
		updates:    make(chan workspace.Snapshot, 8),
		doneCh:     make(chan struct{}, 16),
	}
	m.snap = store.Snapshot()

	store.Subscribe(storeListener, func(snap workspace.Snapshot) {
		// Latest-wins: drop the oldest queued snapshot rather than the new one.
		select {
		case m.updates <- snap:
		default:
			select {
			case <-m.updates:
			default:
			}
			select {
			case m.updates <- snap:
			default:
			}
		}
	})

	return m
}

// Run drives the program until the user quits.
func Run(m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	m.store.Unsubscribe(storeListener)
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.waitSnapshot())
}

func (m *Model) waitSnapshot() tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg{snap: <-m.updates}
	}
}

func (m *Model) waitDispatch() tea.Cmd {
	return func() tea.Msg {
		<-m.doneCh
		return dispatchDoneMsg{}
	}
}

func (m *Model) spinTick() tea.Cmd {
	return tea.Tick(90*time.Millisecond, func(time.Time) tea.Msg { return spinMsg{} })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		l := m.computeLayout()
		if !m.ready {
			m.chatVP = viewport.New(l.ChatW-2, l.ChatH-2)
			m.workVP = viewport.New(l.WorkW-2, l.WorkH-2)
			m.ready = true
		} else {
			m.chatVP.Width = l.ChatW - 2
			m.chatVP.Height = l.ChatH - 2
			m.workVP.Width = l.WorkW - 2
			m.workVP.Height = l.WorkH - 2
		}
		if r, err := render.New(max(20, l.WorkW-4)); err == nil {
			m.renderer = r
		}
		m.refreshChat()
		m.refreshWorkspace()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyTab:
			m.cycleFocus()
			return m, nil
		case tea.KeyEnter:
			if m.focus == focusInput {
				return m, m.onEnter()
			}
			return m, nil
		case tea.KeyUp:
			switch m.focus {
			case focusChat:
				m.chatVP.LineUp(1)
				return m, nil
			case focusWorkspace:
				m.workVP.LineUp(1)
				return m, nil
			case focusHistory:
				m.moveHistory(-1)
				return m, nil
			}
		case tea.KeyDown:
			switch m.focus {
			case focusChat:
				m.chatVP.LineDown(1)
				return m, nil
			case focusWorkspace:
				m.workVP.LineDown(1)
				return m, nil
			case focusHistory:
				m.moveHistory(1)
				return m, nil
			}
		case tea.KeyPgUp:
			m.chatVP.ViewUp()
			return m, nil
		case tea.KeyPgDown:
			m.chatVP.ViewDown()
			return m, nil
		}

	case snapshotMsg:
		m.applySnapshot(msg.snap)
		return m, m.waitSnapshot()

	case dispatchDoneMsg:
		m.running = false
		m.statusText = "Ready"
		return m, nil

	case uploadDoneMsg:
		m.running = false
		if msg.err != nil {
			m.statusText = "Upload failed: " + msg.err.Error()
		} else {
			m.statusText = fmt.Sprintf("Uploaded %s", msg.result.Filename)
		}
		return m, nil

	case sessionOpMsg:
		m.running = false
		if msg.err != nil {
			m.statusText = msg.op + " failed: " + msg.err.Error()
		} else {
			m.statusText = "Ready"
		}
		return m, nil

	case sessionsMsg:
		m.running = false
		if msg.err != nil {
			m.statusText = "Session list failed: " + msg.err.Error()
			return m, nil
		}
		m.statusText = "Ready"
		m.sessionList = msg.list
		m.showSessions = true
		m.refreshWorkspace()
		return m, nil

	case spinMsg:
		m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
		if m.running {
			return m, m.spinTick()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.chatVP, cmd = m.chatVP.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) applySnapshot(snap workspace.Snapshot) {
	m.snap = snap
	m.persistLatestArtifacts()
	if m.estimator != nil {
		m.tokens = m.estimator.TranscriptTokens(snap.Transcript)
	}
	if m.histSel >= len(snap.History) {
		m.histSel = -1
	}
	m.refreshChat()
	m.refreshWorkspace()
	m.chatVP.GotoBottom()
}

// persistLatestArtifacts writes the newest response's artifacts to disk
// once per record so the workspace pane can reference chart files by path.
func (m *Model) persistLatestArtifacts() {
	if m.sink == nil || m.snap.Latest == nil || len(m.snap.History) == 0 {
		return
	}
	record := m.snap.History[len(m.snap.History)-1]
	if _, ok := m.saved[record.ID]; ok {
		return
	}
	saved, err := m.sink.SaveAll(m.snap.SessionID, record.ID, m.snap.Latest.Result.Artifacts)
	if err != nil {
		m.statusText = "Artifact save failed: " + err.Error()
		return
	}
	m.saved[record.ID] = saved
}

func (m *Model) onEnter() tea.Cmd {
	val := strings.TrimSpace(m.input.Value())
	if val == "" {
		return nil
	}
	m.input.Reset()

	if strings.HasPrefix(val, "/") {
		return m.runCommand(val)
	}

	m.closeSessionList()
	if err := m.dispatcher.Submit(val, func() {
		m.doneCh <- struct{}{}
	}); err != nil {
		m.statusText = "Submit failed: " + err.Error()
		return nil
	}
	m.running = true
	m.statusText = "Analyzing…"
	m.spinnerPos = 0
	return tea.Batch(m.waitDispatch(), m.spinTick())
}

func (m *Model) runCommand(val string) tea.Cmd {
	fields := strings.Fields(val)
	switch fields[0] {
	case "/quit", "/q":
		return tea.Quit

	case "/new":
		m.closeSessionList()
		m.running = true
		m.statusText = "Starting session…"
		return tea.Batch(func() tea.Msg {
			return sessionOpMsg{op: "New session", err: m.manager.NewSession(context.Background())}
		}, m.spinTick())

	case "/restore":
		if len(fields) < 2 {
			m.statusText = "Usage: /restore <session-id>"
			return nil
		}
		id := types.SessionID(fields[1])
		m.closeSessionList()
		m.running = true
		m.statusText = "Restoring session…"
		return tea.Batch(func() tea.Msg {
			return sessionOpMsg{op: "Restore", err: m.manager.Restore(context.Background(), id)}
		}, m.spinTick())

	case "/sessions":
		if m.sessions == nil {
			m.statusText = "Session listing unavailable"
			return nil
		}
		m.running = true
		m.statusText = "Loading sessions…"
		return tea.Batch(func() tea.Msg {
			list, err := m.sessions.List(context.Background())
			return sessionsMsg{list: list, err: err}
		}, m.spinTick())

	case "/delete":
		if len(fields) < 2 {
			m.statusText = "Usage: /delete <session-id>"
			return nil
		}
		id := types.SessionID(fields[1])
		m.running = true
		m.statusText = "Deleting session…"
		return tea.Batch(func() tea.Msg {
			if err := m.manager.Delete(context.Background(), id); err != nil {
				return sessionOpMsg{op: "Delete", err: err}
			}
			if m.sessions == nil {
				return sessionOpMsg{op: "Delete"}
			}
			m.sessions.Invalidate()
			list, err := m.sessions.List(context.Background())
			return sessionsMsg{list: list, err: err}
		}, m.spinTick())

	case "/upload":
		if len(fields) < 2 {
			m.statusText = "Usage: /upload <path>"
			return nil
		}
		path := fields[1]
		m.running = true
		m.statusText = "Uploading " + path + "…"
		return tea.Batch(func() tea.Msg {
			f, err := os.Open(path)
			if err != nil {
				return uploadDoneMsg{err: err}
			}
			defer f.Close()
			result, err := m.dispatcher.Upload(context.Background(), filepath.Base(path), f)
			return uploadDoneMsg{result: result, err: err}
		}, m.spinTick())

	default:
		m.statusText = "Unknown command: " + fields[0]
		return nil
	}
}

func (m *Model) cycleFocus() {
	m.focus++
	if m.focus > focusHistory {
		m.focus = focusInput
	}
	// History and workspace panes collapse on narrow terminals.
	if m.width < 90 && (m.focus == focusWorkspace || m.focus == focusHistory) {
		m.focus = focusInput
	}
	if m.focus == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// closeSessionList returns the workspace pane to its usual content.
func (m *Model) closeSessionList() {
	if !m.showSessions {
		return
	}
	m.showSessions = false
	m.refreshWorkspace()
}

func (m *Model) moveHistory(delta int) {
	m.closeSessionList()
	n := len(m.snap.History)
	if n == 0 {
		return
	}
	if m.histSel == -1 {
		m.histSel = n - 1
	}
	m.histSel += delta
	if m.histSel < 0 {
		m.histSel = 0
	}
	if m.histSel >= n {
		m.histSel = n - 1
	}
	m.refreshWorkspace()
}

type layoutInfo struct {
	ChatW int
	ChatH int
	WorkW int
	WorkH int
	HistW int
	HistH int
}

func (m *Model) computeLayout() layoutInfo {
	top, foot, inputH := 1, 1, 3
	mainH := m.height - top - foot - inputH
	if mainH < 6 {
		mainH = 6
	}

	if m.width < 90 {
		return layoutInfo{ChatW: m.width, ChatH: mainH}
	}

	chatW := int(float64(m.width) * 0.55)
	if chatW < 50 {
		chatW = 50
	}
	rightW := m.width - chatW
	workH := mainH * 2 / 3
	histH := mainH - workH

	return layoutInfo{
		ChatW: chatW, ChatH: mainH,
		WorkW: rightW, WorkH: workH,
		HistW: rightW, HistH: histH,
	}
}

func (m *Model) View() string {
	if !m.ready {
		return "…"
	}

	l := m.computeLayout()
	top := m.renderTopBar()
	chat := m.renderChatPane(l)

	var main string
	if l.WorkW > 0 {
		right := lipgloss.JoinVertical(lipgloss.Left, m.renderWorkspacePane(l), m.renderHistoryPane(l))
		main = lipgloss.JoinHorizontal(lipgloss.Top, chat, right)
	} else {
		main = chat
	}

	input := m.renderInputArea(l)
	footer := m.theme.Footer.Width(m.width).Render("Tab focus  Enter send  /upload /sessions /delete /new /restore /quit  Ctrl+C exit")

	return lipgloss.JoinVertical(lipgloss.Left, top, main, input, footer)
}

func (m *Model) renderTopBar() string {
	left := m.theme.TopBarTitle.Render("datalenz")
	if m.snap.SessionID != "" {
		left += " " + m.theme.TopBarMeta.Render(shortID(m.snap.SessionID))
	}

	status := m.statusText
	if m.running {
		status = m.theme.Spinner.Render(spinnerFrames[m.spinnerPos] + " " + status)
	} else {
		status = m.theme.TopBarMeta.Render(status)
	}

	right := ""
	if m.estimator != nil && m.tokens > 0 {
		right = m.theme.TopBarMeta.Render(fmt.Sprintf("~%d tokens", m.tokens))
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(status) - lipgloss.Width(right)
	if gap < 2 {
		gap = 2
	}
	a := gap / 2
	return m.theme.TopBar.Render(left + strings.Repeat(" ", a) + status + strings.Repeat(" ", gap-a) + right)
}

func (m *Model) renderInputArea(l layoutInfo) string {
	box := m.theme.InputBox
	if m.focus == focusInput {
		box = m.theme.InputBoxF
	}
	m.input.SetWidth(max(10, m.width-4))
	return box.Width(max(10, m.width-2)).Render(m.input.View())
}

func shortID(id types.SessionID) string {
	s := string(id)
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
