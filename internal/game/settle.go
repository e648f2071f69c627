package game

import (
	"fmt"
	"strings"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/ledger"
)

// SideBetPayout is one winning side bet.
type SideBetPayout struct {
	Result SideBetResult `json:"result"`
	Stake  int           `json:"stake"`
	Payout int           `json:"payout"`
}

// HandSettlement is the resolution of one player hand.
type HandSettlement struct {
	Index    int           `json:"index"`
	Cards    Hand          `json:"cards"`
	Value    int           `json:"value"`
	Stake    int           `json:"stake"`
	Returned int           `json:"returned"`
	Result   ledger.Result `json:"result"`
	Busted   bool          `json:"busted,omitempty"`
}

// Settlement summarises a finished round. Net is everything credited during
// the round minus everything wagered, side bets included.
type Settlement struct {
	RoundID     string           `json:"roundId"`
	Result      ledger.Result    `json:"result"`
	Message     string           `json:"message"`
	Blackjack   bool             `json:"blackjack,omitempty"`
	Split       bool             `json:"split,omitempty"`
	Hands       []HandSettlement `json:"hands"`
	Dealer      Hand             `json:"dealer"`
	DealerValue int              `json:"dealerValue"`
	SideBets    []SideBetPayout  `json:"sideBets,omitempty"`
	Wagered     int              `json:"wagered"`
	Returned    int              `json:"returned"`
	Net         int              `json:"net"`
}

// settleDealSideBets pays 21+3 and Perfect Pairs from the opening cards.
func (t *Table) settleDealSideBets() {
	first := t.hands[0].Cards
	up := t.dealer[0]

	if stake := t.bets.TwentyOnePlusThree; stake > 0 {
		t.paySideBet(Evaluate21Plus3(first[0], first[1], up), stake)
	}
	if stake := t.bets.PerfectPairs; stake > 0 {
		t.paySideBet(EvaluatePerfectPairs(first[0], first[1]), stake)
	}
}

func (t *Table) paySideBet(res SideBetResult, stake int) {
	if !res.Won() {
		return
	}
	payout := res.Payout(stake)
	t.credit(payout)
	t.sidePayouts = append(t.sidePayouts, SideBetPayout{Result: res, Stake: stake, Payout: payout})
	if t.out != nil {
		t.out.SideBetWins += payout
	}
	msg := res.Message(stake)
	t.emit(SideBetWinEvent{Result: res, Stake: stake, Payout: payout, Message: msg, timestamp: t.now()})
	t.say("%s", msg)
}

// resolveNatural settles a two-card 21 against the dealer's upcard and hole
// card. A natural always ends the round, so the hole card is revealed.
func (t *Table) resolveNatural() {
	stake := t.hands[0].Stake
	dealerBJ := Hand{t.dealer[0], *t.hole}.IsBlackjack()

	t.ledger.RecordBlackjack()
	t.hands[0].Done = true
	t.revealHole()

	if dealerBJ {
		t.credit(stake)
		t.recordHand(0, ledger.Push, stake)
		t.finish(ledger.Push, "Both have Blackjack! Push.")
		return
	}
	payout := t.rules.BlackjackReturn(stake)
	t.credit(payout)
	t.recordHand(0, ledger.Win, payout)
	t.finish(ledger.Win, "Blackjack! You win!")
}

// settle compares every hand to the dealer once the dealer stands or busts.
func (t *Table) settle() {
	dv := t.dealer.Value()
	dealerBust := dv > 21

	var wins, losses, pushes int
	for i, h := range t.hands {
		v := h.Cards.Value()
		switch {
		case v > 21:
			t.recordHand(i, ledger.Loss, 0)
			losses++
		case dealerBust || v > dv:
			payout := t.rules.WinReturn(h.Stake)
			t.credit(payout)
			t.recordHand(i, ledger.Win, payout)
			wins++
		case v < dv:
			t.recordHand(i, ledger.Loss, 0)
			losses++
		default:
			t.credit(h.Stake)
			t.recordHand(i, ledger.Push, h.Stake)
			pushes++
		}
	}

	if dealerBust && t.bets.BustIt > 0 {
		t.paySideBet(EvaluateBustIt(len(t.dealer)), t.bets.BustIt)
	}

	if t.split {
		var result ledger.Result
		switch {
		case wins > losses:
			result = ledger.Win
		case losses > wins:
			result = ledger.Loss
		default:
			result = ledger.Push
		}
		msg := fmt.Sprintf("Split Results: %d wins, %d losses", wins, losses)
		if pushes > 0 {
			msg += fmt.Sprintf(", %d pushes", pushes)
		}
		t.finish(result, msg)
		return
	}

	result := t.results[0].Result
	var msg string
	switch {
	case result == ledger.Win && dealerBust:
		msg = "Dealer busts! You win!"
	case result == ledger.Win:
		msg = "You win!"
	case result == ledger.Loss:
		msg = "Dealer wins! You lose."
	default:
		msg = "Push! It's a tie."
	}
	t.finish(result, msg)
}

func (t *Table) recordHand(i int, result ledger.Result, returned int) {
	h := t.hands[i]
	t.results = append(t.results, HandSettlement{
		Index:    i,
		Cards:    h.Cards.clone(),
		Value:    h.Cards.Value(),
		Stake:    h.Stake,
		Returned: returned,
		Result:   result,
		Busted:   h.Cards.IsBust(),
	})
}

// finish closes the round: statistics, history, the settlement event and the
// announcement.
func (t *Table) finish(result ledger.Result, message string) {
	t.pending = ContinueNone
	t.setPhase(PhaseFinished)

	net := t.credited - t.wagered
	s := &Settlement{
		RoundID:     t.roundID,
		Result:      result,
		Message:     message,
		Blackjack:   !t.split && t.hands[0].Cards.IsBlackjack(),
		Split:       t.split,
		Hands:       t.results,
		Dealer:      t.dealer.clone(),
		DealerValue: t.dealer.Value(),
		SideBets:    t.sidePayouts,
		Wagered:     t.wagered,
		Returned:    t.credited,
		Net:         net,
	}
	t.last = s

	t.ledger.AddProfit(net)
	t.ledger.RecordRoundEnd(result)
	t.ledger.AppendHistory(ledger.Entry{
		ID:          t.roundID,
		Result:      message,
		Net:         net,
		Win:         result == ledger.Win,
		Outcome:     result,
		Timestamp:   t.now(),
		PlayerHands: t.playerCards(),
		DealerHand:  []deck.Card(t.dealer.clone()),
		Split:       t.split,
	})

	if t.out != nil {
		t.out.Settlement = s
	}
	t.emit(SettlementEvent{Settlement: *s, timestamp: t.now()})
	t.say("%s", message)
}

func (t *Table) playerCards() [][]deck.Card {
	out := make([][]deck.Card, len(t.hands))
	for i, h := range t.hands {
		out[i] = []deck.Card(h.Cards.clone())
	}
	return out
}

// Summary renders a settlement as a single line, e.g.
// "You win! (net +9, dealer 18)".
func (s *Settlement) Summary() string {
	var b strings.Builder
	b.WriteString(s.Message)
	fmt.Fprintf(&b, " (net %+d", s.Net)
	if s.DealerValue > 0 {
		fmt.Fprintf(&b, ", dealer %d", s.DealerValue)
	}
	b.WriteString(")")
	return b.String()
}
