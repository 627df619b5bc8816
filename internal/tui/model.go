// ABOUTME: Bubble Tea chat interface over the answer pipeline
// ABOUTME: Questions run as commands so the view stays responsive while generating
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

// Asker is the TUI-facing subset of the answerer
type Asker interface {
	Answer(ctx context.Context, question string) models.Answer
}

type exchange struct {
	question string
	answer   models.Answer
}

type answerMsg exchange

// Model is the Bubble Tea model for the chat screen
type Model struct {
	ctx        context.Context
	asker      Asker
	title      string
	input      textinput.Model
	viewport   viewport.Model
	spinner    spinner.Model
	transcript []exchange
	pending    string
	ready      bool
}

// New creates a chat model
func New(ctx context.Context, asker Asker, title string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question about the university and press Enter"
	ti.Focus()
	ti.CharLimit = 500

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:      ctx,
		asker:    asker,
		title:    title,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
	}
}

// Init starts the cursor blink
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles keys, window resizes and finished answers
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := transcriptBoxStyle.GetFrameSize()
		_, ih := inputBoxStyle.GetFrameSize()
		// title, input box and status line
		reserved := 1 + ih + 1 + 1
		m.viewport.Width = max(20, msg.Width-2)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.input.Width = max(10, msg.Width-6)
		m.refresh()
		return m, nil

	case answerMsg:
		m.transcript = append(m.transcript, exchange(msg))
		m.pending = ""
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if m.pending == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			q := strings.TrimSpace(m.input.Value())
			if q == "" || m.pending != "" {
				return m, nil
			}
			m.pending = q
			m.input.Reset()
			m.refresh()
			return m, tea.Batch(m.ask(q), m.spinner.Tick)
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(q string) tea.Cmd {
	return func() tea.Msg {
		return answerMsg{question: q, answer: m.asker.Answer(m.ctx, q)}
	}
}

// View renders the layout
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := titleStyle.Render(m.title)
	body := transcriptBoxStyle.Render(m.viewport.View())
	input := inputBoxStyle.Render(m.input.View())
	return header + "\n" + body + "\n" + input + "\n" + m.status()
}

func (m Model) status() string {
	if m.pending != "" {
		return statusStyle.Render(m.spinner.View() + " thinking...")
	}
	return statusStyle.Render(fmt.Sprintf("%d answered  ·  Enter to ask  ·  PgUp/PgDn to scroll  ·  Esc to quit", len(m.transcript)))
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 && m.pending == "" {
		return hintStyle.Render("No questions yet.")
	}

	width := max(20, m.viewport.Width-2)
	var b strings.Builder
	for _, ex := range m.transcript {
		b.WriteString(questionStyle.Render("You: " + ex.question))
		b.WriteString("\n")
		b.WriteString(replyStyle(ex.answer.Status).Width(width).Render(ex.answer.Text))
		if src := sourceLine(ex.answer.Sources); src != "" {
			b.WriteString("\n")
			b.WriteString(hintStyle.Render(src))
		}
		b.WriteString("\n\n")
	}
	if m.pending != "" {
		b.WriteString(questionStyle.Render("You: " + m.pending))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func sourceLine(sources []models.SearchResult) string {
	seen := map[string]bool{}
	var names []string
	for _, s := range sources {
		if name := s.Source(); name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	return "sources: " + strings.Join(names, ", ")
}

func replyStyle(status models.AnswerStatus) lipgloss.Style {
	switch status {
	case models.StatusAnswered:
		return answeredStyle
	case models.StatusRejected:
		return rejectedStyle
	default:
		return failedStyle
	}
}

var (
	titleStyle         = lipgloss.NewStyle().Bold(true)
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	inputBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	answeredStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	rejectedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failedStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Run starts the chat program and blocks until the user quits
func Run(ctx context.Context, asker Asker, title string) error {
	p := tea.NewProgram(New(ctx, asker, title), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
