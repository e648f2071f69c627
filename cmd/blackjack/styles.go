package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/ledger"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#2E7D32")).
			Padding(0, 1).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("12")).
			Bold(true)

	redCardStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	blackCardStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	hiddenStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	winStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	lossStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	pushStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

func renderCard(c deck.Card) string {
	if c.IsRed() {
		return redCardStyle.Render(c.String())
	}
	return blackCardStyle.Render(c.String())
}

func renderHand(h game.Hand) string {
	parts := make([]string, len(h))
	for i, c := range h {
		parts[i] = renderCard(c)
	}
	return strings.Join(parts, " ")
}

// renderTable draws the dealer and player hands, one line each.
func renderTable(s game.TableState) string {
	if len(s.Hands) == 0 {
		return ""
	}

	var b strings.Builder
	dealer := renderHand(s.Dealer)
	if s.HoleConcealed {
		dealer += " " + hiddenStyle.Render("??")
	}
	fmt.Fprintf(&b, "%s %s (%d)\n", labelStyle.Render("Dealer:"), dealer, s.DealerValue)

	for i, h := range s.Hands {
		label := "You:"
		if s.Split {
			label = fmt.Sprintf("Hand %d:", i+1)
		}
		marker := ""
		if s.Split && i == s.ActiveHand && s.Phase == game.PhasePlaying {
			marker = " <"
		}
		extra := ""
		if h.Doubled {
			extra = " doubled"
		}
		fmt.Fprintf(&b, "%s %s (%d) $%d%s%s\n", labelStyle.Render(label), renderHand(h.Cards), h.Cards.Value(), h.Stake, extra, marker)
	}
	return b.String()
}

func renderResult(r ledger.Result, text string) string {
	switch r {
	case ledger.Win:
		return winStyle.Render(text)
	case ledger.Loss:
		return lossStyle.Render(text)
	default:
		return pushStyle.Render(text)
	}
}

// outcomeLines returns an outcome's announcements. The settlement message is
// coloured by result.
func outcomeLines(out *game.Outcome) []string {
	lines := make([]string, 0, len(out.Messages))
	for _, msg := range out.Messages {
		if out.Settlement != nil && msg == out.Settlement.Message {
			lines = append(lines, renderResult(out.Settlement.Result, msg))
		} else {
			lines = append(lines, infoStyle.Render(msg))
		}
	}
	return lines
}

func renderStats(s ledger.Statistics, bankroll int) string {
	rows := [][2]string{
		{"Bankroll", fmt.Sprintf("$%d", bankroll)},
		{"Games played", fmt.Sprint(s.GamesPlayed)},
		{"Won / pushed", fmt.Sprintf("%d / %d", s.GamesWon, s.GamesPushed)},
		{"Win rate", fmt.Sprintf("%.1f%%", s.WinRate()*100)},
		{"Blackjacks", fmt.Sprint(s.Blackjacks)},
		{"Total wagered", fmt.Sprintf("$%d", s.TotalWagered)},
		{"Net profit", fmt.Sprintf("%+d", s.NetProfit)},
		{"Win streak", fmt.Sprintf("%d (max %d)", s.CurrentWinStreak, s.MaxWinStreak)},
		{"Lose streak", fmt.Sprintf("%d (max %d)", s.CurrentLoseStreak, s.MaxLoseStreak)},
	}

	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Width(14).Render(row[0]), row[1])
	}
	return b.String()
}

func renderHistory(entries []ledger.Entry, limit int) string {
	if len(entries) == 0 {
		return infoStyle.Render("No rounds played yet.") + "\n"
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s  %-38s %s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04"),
			e.Result,
			renderResult(e.Outcome, fmt.Sprintf("%+d", e.Net)))
	}
	return b.String()
}
