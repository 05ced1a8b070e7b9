package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"procrec/audio"
	"procrec/pipeline"
	"procrec/procedure"
)

// TUI message types
type StatusMsg struct{ Text string }
type ModeLineMsg struct{ Text string }   // providers and model
type DeviceLineMsg struct{ Text string } // microphone device name
type toggleDoneMsg struct{ err error }
type tickMsg time.Time

// sessionView is the part of *pipeline.Session the TUI reads and drives.
type sessionView interface {
	State() pipeline.State
	Elapsed() time.Duration
	Exported() int
	Last() (*pipeline.Result, error)
	Toggle(ctx context.Context) error
}

const maxStatusLines = 200

type tuiModel struct {
	session    sessionView
	ctx        context.Context
	state      pipeline.State
	elapsed    time.Duration
	exported   int
	frame      int
	width      int
	height     int
	modeLine   string
	deviceLine string
	status     []string
	last       *procedure.Procedure
	lastPath   string
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	recStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	busyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	idleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldHelp     = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	sectionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	noteStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
)

var spinner = []string{"◐", "◓", "◑", "◒"}

func newTUIModel(ctx context.Context, s sessionView, modeLine, deviceLine string) tuiModel {
	return tuiModel{session: s, ctx: ctx, modeLine: modeLine, deviceLine: deviceLine}
}

func NewTUIProgram(ctx context.Context, s sessionView, modeLine, deviceLine string) *tea.Program {
	return tea.NewProgram(newTUIModel(ctx, s, modeLine, deviceLine), tea.WithAltScreen(), tea.WithContext(ctx))
}

// tuiSend reports false when no program is running.
func tuiSend(msg tea.Msg) bool {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p == nil {
		return false
	}
	p.Send(msg)
	return true
}

func tuiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) toggle() tea.Cmd {
	s, ctx := m.session, m.ctx
	return func() tea.Msg {
		return toggleDoneMsg{err: s.Toggle(ctx)}
	}
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case " ", "enter":
			return m, m.toggle()
		}

	case tickMsg:
		m.frame++
		m.refresh()
		return m, tuiTick()

	case toggleDoneMsg:
		if errors.Is(msg.err, pipeline.ErrBusy) {
			m.appendStatus("Still processing the previous recording...")
		}
		m.refresh()

	case StatusMsg:
		m.appendStatus(msg.Text)
		m.refresh()

	case ModeLineMsg:
		m.modeLine = msg.Text

	case DeviceLineMsg:
		m.deviceLine = msg.Text
	}
	return m, nil
}

func (m *tuiModel) refresh() {
	m.state = m.session.State()
	m.elapsed = m.session.Elapsed()
	m.exported = m.session.Exported()
	if res, err := m.session.Last(); err == nil && res != nil && res.Procedure != nil {
		m.last = res.Procedure
		m.lastPath = res.OutputPath
	}
}

func (m *tuiModel) appendStatus(text string) {
	m.status = append(m.status, time.Now().Format("15:04:05")+"  "+text)
	if len(m.status) > maxStatusLines {
		m.status = m.status[len(m.status)-maxStatusLines:]
	}
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	const leftWidth = 48

	var left []string
	switch m.state {
	case pipeline.StateRecording:
		left = append(left, recStyle.Render("● REC "+audio.FormatDuration(m.elapsed)))
	case pipeline.StateProcessing:
		left = append(left, busyStyle.Render(spinner[m.frame%len(spinner)]+" PROCESSING"))
	default:
		left = append(left, idleStyle.Render("○ STANDBY"))
	}
	if m.modeLine != "" {
		left = append(left, dimStyle.Render(m.modeLine))
	}
	if m.deviceLine != "" {
		left = append(left, idleStyle.Render(m.deviceLine))
	}
	if m.exported > 0 {
		left = append(left, idleStyle.Render(fmt.Sprintf("exported: %d", m.exported)))
	}

	left = append(left, "")
	for _, line := range m.statusTail(m.height - len(left) - 3) {
		style := idleStyle
		switch {
		case strings.Contains(line, "Error"):
			style = errorStyle
		case strings.Contains(line, "Export complete"):
			style = okStyle
		}
		for _, w := range wrapText(line, leftWidth-2) {
			left = append(left, style.Render(w))
		}
	}

	left = append(left, "")
	left = append(left, boldHelp.Render("space")+helpStyle.Render(" start/stop  ")+boldHelp.Render("q")+helpStyle.Render(" quit"))
	left = append(left, helpStyle.Render("procrec "+version))

	leftPanel := lipgloss.NewStyle().
		Width(leftWidth).
		Height(m.height).
		Render(strings.Join(left, "\n"))

	rightWidth := m.width - leftWidth - 1
	if rightWidth < 20 {
		rightWidth = 20
	}
	rightPanel := lipgloss.NewStyle().
		Width(rightWidth).
		Height(m.height).
		PaddingLeft(1).
		Render(renderProcedure(m.last, m.lastPath, rightWidth-2))

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, rightPanel)
}

func (m tuiModel) statusTail(n int) []string {
	if n < 1 {
		n = 1
	}
	if len(m.status) <= n {
		return m.status
	}
	return m.status[len(m.status)-n:]
}

func renderProcedure(p *procedure.Procedure, path string, width int) string {
	if p == nil {
		return idleStyle.Render("No procedure yet")
	}
	if width < 10 {
		width = 10
	}

	var b strings.Builder
	b.WriteString(dimStyle.Render("Last procedure → "+path) + "\n\n")
	for _, s := range p.Sections() {
		name := s.Name
		if name == "" {
			name = "(no section)"
		}
		b.WriteString(sectionStyle.Render(name) + "\n")
		for _, st := range s.Steps {
			for i, line := range wrapText(st.Number+". "+st.Description, width-2) {
				if i == 0 {
					b.WriteString("  " + line + "\n")
				} else {
					b.WriteString("     " + line + "\n")
				}
			}
			if note := s.Note(st.Number); note != "" {
				for _, line := range wrapText("note: "+note, width-5) {
					b.WriteString("     " + noteStyle.Render(line) + "\n")
				}
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
