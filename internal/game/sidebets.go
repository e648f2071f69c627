package game

import (
	"fmt"
	"slices"

	"github.com/lox/blackjack/internal/deck"
)

// SideBet identifies one of the optional wagers placed alongside the main bet.
type SideBet int

const (
	TwentyOnePlusThree SideBet = iota
	PerfectPairs
	BustIt
)

// String returns the display name of the side bet
func (b SideBet) String() string {
	switch b {
	case TwentyOnePlusThree:
		return "21+3"
	case PerfectPairs:
		return "Perfect Pairs"
	case BustIt:
		return "Bust It"
	default:
		return "unknown"
	}
}

// SideBetResult is a paytable lookup. Multiplier is "to one": a win pays
// stake × Multiplier on top of the stake already taken at round start.
type SideBetResult struct {
	Bet        SideBet `json:"bet"`
	Multiplier int     `json:"multiplier"`
	Name       string  `json:"name,omitempty"`
}

// Won reports whether the result pays anything.
func (r SideBetResult) Won() bool {
	return r.Multiplier > 0
}

// Payout returns the amount credited for a stake. Side bets are not scaled
// by the house edge.
func (r SideBetResult) Payout(stake int) int {
	if stake <= 0 {
		return 0
	}
	return stake * r.Multiplier
}

// Message formats a win the way the table announces it.
func (r SideBetResult) Message(stake int) string {
	return fmt.Sprintf("%s win: %d:1 pays $%d", r.Bet, r.Multiplier, r.Payout(stake))
}

// MarshalText implements encoding.TextMarshaler.
func (b SideBet) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// Evaluate21Plus3 scores the player's first two cards with the dealer upcard.
// The first matching tier pays; tiers never stack.
func Evaluate21Plus3(a, b, up deck.Card) SideBetResult {
	ranks := []int{a.StraightRank(), b.StraightRank(), up.StraightRank()}
	slices.Sort(ranks)

	flush := a.Suit == b.Suit && b.Suit == up.Suit
	trips := a.Rank == b.Rank && b.Rank == up.Rank
	straight := (ranks[2]-ranks[0] == 2 && ranks[0] != ranks[1] && ranks[1] != ranks[2]) ||
		slices.Equal(ranks, []int{int(deck.Ace), int(deck.Queen), int(deck.King)})

	res := SideBetResult{Bet: TwentyOnePlusThree}
	switch {
	case trips && flush:
		res.Multiplier, res.Name = 100, "Suited Trips"
	case straight && flush:
		res.Multiplier, res.Name = 40, "Straight Flush"
	case trips:
		res.Multiplier, res.Name = 30, "Three of a Kind"
	case straight:
		res.Multiplier, res.Name = 10, "Straight"
	case flush:
		res.Multiplier, res.Name = 5, "Flush"
	}
	return res
}

// EvaluatePerfectPairs scores the player's first two cards.
func EvaluatePerfectPairs(a, b deck.Card) SideBetResult {
	res := SideBetResult{Bet: PerfectPairs}
	switch {
	case a.Rank != b.Rank:
	case a.Suit == b.Suit:
		res.Multiplier, res.Name = 25, "Perfect Pair"
	case a.Color() == b.Color():
		res.Multiplier, res.Name = 12, "Coloured Pair"
	default:
		res.Multiplier, res.Name = 6, "Mixed Pair"
	}
	return res
}

// bustItTable maps the dealer's final card count to the Bust It multiplier.
var bustItTable = map[int]int{3: 3, 4: 6, 5: 10, 6: 15, 7: 25}

// EvaluateBustIt scores a busted dealer hand by its card count. Fewer than
// three cards cannot bust from a legal draw and pays nothing.
func EvaluateBustIt(dealerCards int) SideBetResult {
	res := SideBetResult{Bet: BustIt}
	switch {
	case dealerCards >= 8:
		res.Multiplier = 50
	default:
		res.Multiplier = bustItTable[dealerCards]
	}
	if res.Multiplier > 0 {
		res.Name = fmt.Sprintf("Dealer bust with %d cards", dealerCards)
	}
	return res
}
