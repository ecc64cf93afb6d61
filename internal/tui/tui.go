// Package tui is the interactive terminal client for the chat service. It is
// a thin rendering layer: all session logic lives in the chat Controller, and
// the model re-renders from immutable snapshots on every change.
package tui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mursalin-dev/chatkit/internal/chat"
	"github.com/mursalin-dev/chatkit/internal/markup"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	visitorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	aiStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	adminStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	faintStyle   = lipgloss.NewStyle().Faint(true)
	promptStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Bell is a Notifier that rings the terminal bell. A no-op when sound is off.
type Bell struct {
	Enabled bool
}

// Notify implements chat.Notifier.
func (b Bell) Notify(string) {
	if b.Enabled {
		fmt.Fprint(os.Stderr, "\a")
	}
}

// changeMsg is sent by the controller's change callback.
type changeMsg struct{}

// leadStage tracks which lead-form field the input is capturing.
type leadStage int

const (
	leadStageNone leadStage = iota
	leadStageName
	leadStageEmail
	leadStageQuestion
)

type model struct {
	ctrl     *chat.Controller
	viewport viewport.Model
	input    textinput.Model
	width    int
	height   int
	ready    bool

	stage     leadStage
	leadName  string
	leadEmail string
	status    string
}

// Run starts the terminal client and blocks until the user quits.
func Run(ctrl *chat.Controller) error {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.Focus()

	m := model{ctrl: ctrl, input: input}
	p := tea.NewProgram(m, tea.WithAltScreen())

	ctrl.SetOnChange(func() { p.Send(changeMsg{}) })
	ctrl.OpenPanel()
	defer ctrl.ClosePanel()

	_, err := p.Run()
	return err
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		m.refresh()
		return m, nil

	case changeMsg:
		m.syncLeadStage()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.stage != leadStageNone {
				m.ctrl.DismissLeadForm()
				m.resetLeadCapture()
				return m, nil
			}
			return m, tea.Quit
		case "ctrl+h":
			m.ctrl.RequestHuman()
			return m, nil
		case "ctrl+r":
			m.ctrl.ResetChat()
			m.status = "Started a new conversation"
			return m, nil
		case "enter":
			return m.submitInput()
		}
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// submitInput routes the entered text: either a chat message or the next
// lead-form field.
func (m model) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	switch m.stage {
	case leadStageName:
		if text == "" {
			return m, nil
		}
		m.leadName = text
		m.stage = leadStageEmail
		m.input.Placeholder = "Your email..."
	case leadStageEmail:
		if text == "" {
			return m, nil
		}
		m.leadEmail = text
		if m.ctrl.Snapshot().LeadForm == chat.LeadFormEscalation {
			m.stage = leadStageQuestion
			m.input.Placeholder = "Your question (optional, enter to skip)..."
		} else {
			m.finishLeadForm("")
		}
	case leadStageQuestion:
		m.finishLeadForm(text)
	default:
		if err := m.ctrl.SendMessage(text); err != nil {
			m.status = "Offline - reconnecting..."
		}
	}
	m.refresh()
	return m, nil
}

func (m *model) finishLeadForm(question string) {
	if err := m.ctrl.SubmitLeadForm(m.leadName, m.leadEmail, question); err != nil {
		m.status = err.Error()
	}
	m.resetLeadCapture()
}

func (m *model) resetLeadCapture() {
	m.stage = leadStageNone
	m.leadName = ""
	m.leadEmail = ""
	m.input.Placeholder = "Type a message..."
}

// syncLeadStage begins field capture when a prompt appears and aborts it when
// the prompt disappears underneath us (session reset, stale form).
func (m *model) syncLeadStage() {
	showing := m.ctrl.Snapshot().LeadForm != chat.LeadFormNone
	if showing && m.stage == leadStageNone {
		m.stage = leadStageName
		m.input.Placeholder = "Your name..."
	}
	if !showing && m.stage != leadStageNone {
		m.resetLeadCapture()
	}
}

func (m *model) refresh() {
	if !m.ready {
		return
	}
	snap := m.ctrl.Snapshot()
	var b strings.Builder
	for _, msg := range snap.Messages {
		b.WriteString(renderMessage(msg))
		b.WriteString("\n")
	}
	if snap.Typing {
		b.WriteString(faintStyle.Render(fmt.Sprintf("%s is typing...", senderLabel(snap.TypingSender))))
		b.WriteString("\n")
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoBottom()
}

func renderMessage(msg chat.Message) string {
	label := senderLabel(msg.Sender)
	style := aiStyle
	switch msg.Sender {
	case chat.SenderVisitor:
		style = visitorStyle
	case chat.SenderAdmin:
		style = adminStyle
	}
	ts := faintStyle.Render(msg.CreatedAt.Format("15:04"))
	return fmt.Sprintf("%s %s %s", ts, style.Render(label+":"), markup.Render(msg.Content))
}

func senderLabel(s chat.Sender) string {
	switch s {
	case chat.SenderVisitor:
		return "You"
	case chat.SenderAdmin:
		return "Mursalin"
	default:
		return "Assistant"
	}
}

func (m model) View() string {
	if !m.ready {
		return "Loading..."
	}
	snap := m.ctrl.Snapshot()

	status := "online"
	if !snap.Connected {
		status = "offline"
	}
	mode := string(snap.Mode)
	header := headerStyle.Render("Chat with Mursalin") +
		faintStyle.Render(fmt.Sprintf("  [%s | %s mode]", status, mode))

	var sections []string
	sections = append(sections, header, m.viewport.View())

	if m.stage != leadStageNone {
		title := "Want me to follow up? Leave your details."
		if snap.LeadForm == chat.LeadFormEscalation {
			title = "Leave your details and Mursalin will get back to you."
		}
		sections = append(sections, promptStyle.Render(title))
	}
	if m.status != "" {
		sections = append(sections, faintStyle.Render(m.status))
	}
	sections = append(sections, m.input.View(),
		faintStyle.Render("enter: send | ctrl+h: talk to a human | ctrl+r: new chat | esc: quit"))

	return strings.Join(sections, "\n")
}
