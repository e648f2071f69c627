package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/session"
)

const (
	maxLogLines     = 200
	visibleLogLines = 12
)

// stepMsg carries the result of one paced dealer step
type stepMsg struct {
	out *game.Outcome
	err error
}

// tableModel is the Bubble Tea model for a terminal blackjack session
type tableModel struct {
	ctx    context.Context
	sess   *session.Session
	driver *session.Driver
	logger *log.Logger

	input   textinput.Model
	gameLog []string

	// dealing is set while pending steps are being run
	dealing  bool
	quitting bool
}

func newTableModel(ctx context.Context, sess *session.Session, driver *session.Driver, logger *log.Logger) *tableModel {
	ti := textinput.New()
	ti.Placeholder = "bet 10"
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 48
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	if logger == nil {
		logger = log.Default()
	}

	m := &tableModel{
		ctx:    ctx,
		sess:   sess,
		driver: driver,
		logger: logger.WithPrefix("tui"),
		input:  ti,
	}
	m.addLog(infoStyle.Render(fmt.Sprintf("Welcome %s. Bankroll $%d. Type help for commands.",
		sess.Player(), sess.State().Bankroll)))
	return m
}

func (m *tableModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *tableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stepMsg:
		return m, m.handleStep(msg)

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			return m, m.submit(line)
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles one entered line and returns any follow-up command
func (m *tableModel) submit(line string) tea.Cmd {
	if line == "" {
		return nil
	}

	cmd, err := parseCommand(line)
	if err != nil {
		m.addLog(errStyle.Render(err.Error()))
		return nil
	}

	switch cmd.name {
	case "quit":
		m.quitting = true
		return tea.Quit
	case "stats":
		m.addLog(renderStats(m.sess.Stats(), m.sess.State().Bankroll))
		return nil
	case "history":
		m.addLog(renderHistory(m.sess.History(), 10))
		return nil
	case "clear-history":
		if err := m.sess.ClearHistory(m.ctx); err != nil {
			m.addLog(errStyle.Render(err.Error()))
			return nil
		}
		m.addLog("History cleared.")
		return nil
	case "help", "?":
		m.addLog(helpText)
		return nil
	}

	if m.dealing {
		m.addLog(errStyle.Render("Wait for the dealer to finish."))
		return nil
	}

	out, err := m.sess.Do(m.ctx, cmd.action(), cmd.bets)
	if err != nil {
		m.logger.Debug("Action failed", "action", cmd.action(), "error", err)
	}
	if out != nil {
		m.showOutcome(out)
	}
	if err != nil {
		m.addLog(errStyle.Render(err.Error()))
	}
	if out == nil || m.sess.Pending() == game.ContinueNone {
		return nil
	}

	m.dealing = true
	return m.step()
}

// step runs the next pending continuation after the driver's pace
func (m *tableModel) step() tea.Cmd {
	return func() tea.Msg {
		out, err := m.driver.Next(m.ctx, m.sess)
		return stepMsg{out: out, err: err}
	}
}

func (m *tableModel) handleStep(msg stepMsg) tea.Cmd {
	if msg.out != nil {
		m.showOutcome(msg.out)
	}
	if msg.err != nil {
		m.dealing = false
		if !errors.Is(msg.err, context.Canceled) {
			m.addLog(errStyle.Render(msg.err.Error()))
		}
		return nil
	}
	if msg.out == nil || m.sess.Pending() == game.ContinueNone {
		m.dealing = false
		return nil
	}
	return m.step()
}

func (m *tableModel) showOutcome(out *game.Outcome) {
	for _, line := range outcomeLines(out) {
		m.addLog(line)
	}
	if out.Settlement != nil {
		m.addLog(fmt.Sprintf("Bankroll $%d. Type new to play again.", out.Bankroll))
	}
}

// addLog appends entries, splitting multi-line text
func (m *tableModel) addLog(text string) {
	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		m.gameLog = append(m.gameLog, line)
	}
	if len(m.gameLog) > maxLogLines {
		m.gameLog = m.gameLog[len(m.gameLog)-maxLogLines:]
	}
}

func (m *tableModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(" ♠ ♥ Blackjack ♦ ♣ "))
	b.WriteString("\n\n")

	start := max(0, len(m.gameLog)-visibleLogLines)
	for _, line := range m.gameLog[start:] {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	state := m.sess.State()
	b.WriteString(renderTable(state))
	b.WriteString(labelStyle.Render(fmt.Sprintf("Bankroll $%d", state.Bankroll)))
	b.WriteString("  ")
	b.WriteString(helpStyle.Render(promptHint(state.Phase, m.dealing)))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Enter to submit • help for commands • Ctrl+C to quit"))
	return b.String()
}

func promptHint(phase game.Phase, dealing bool) string {
	if dealing {
		return "Dealer is playing..."
	}
	switch phase {
	case game.PhaseBetting:
		return "bet MAIN [21+3 PAIRS BUST]"
	case game.PhasePlaying:
		return "hit, stand, double or split"
	case game.PhaseFinished:
		return "new to clear the table"
	default:
		return ""
	}
}
