package game

import (
	"fmt"
	"math"
)

// Rules holds the table parameters that change payouts or play.
type Rules struct {
	// HouseEdge scales every winning main-bet payout before flooring.
	HouseEdge float64
	// BlackjackPayout is the for-one return on a natural (2.5 returns 3:2).
	BlackjackPayout float64
	// WinPayout is the for-one return on an ordinary win.
	WinPayout float64
	// DealerStandsOn is the total at which the dealer stops drawing.
	DealerStandsOn int
	// AutoStandOn21 stands a hand automatically once a hit reaches 21.
	AutoStandOn21 bool
	// HistoryLimit caps the ledger's history log.
	HistoryLimit int
}

// DefaultRules returns the standard table: 99.5% return to player, dealer
// stands on 17, automatic stand on 21.
func DefaultRules() Rules {
	return Rules{
		HouseEdge:       0.995,
		BlackjackPayout: 2.5,
		WinPayout:       2.0,
		DealerStandsOn:  17,
		AutoStandOn21:   true,
		HistoryLimit:    50,
	}
}

// Validate checks the rules are usable
func (r Rules) Validate() error {
	if r.HouseEdge <= 0 || r.HouseEdge > 1 {
		return fmt.Errorf("house edge multiplier must be in (0, 1], got %v", r.HouseEdge)
	}
	if r.BlackjackPayout < 1 || r.WinPayout < 1 {
		return fmt.Errorf("payout factors must be at least 1, got blackjack=%v win=%v", r.BlackjackPayout, r.WinPayout)
	}
	if r.DealerStandsOn < 12 || r.DealerStandsOn > 21 {
		return fmt.Errorf("dealer stand total must be between 12 and 21, got %d", r.DealerStandsOn)
	}
	if r.HistoryLimit < 1 {
		return fmt.Errorf("history limit must be positive, got %d", r.HistoryLimit)
	}
	return nil
}

// BlackjackReturn is the amount credited for a natural on stake.
func (r Rules) BlackjackReturn(stake int) int {
	return r.scaled(stake, r.BlackjackPayout)
}

// WinReturn is the amount credited for an ordinary win on stake.
func (r Rules) WinReturn(stake int) int {
	return r.scaled(stake, r.WinPayout)
}

// scaled applies the house edge and floors to whole units. The small epsilon
// absorbs float error on whole products: with a 0.7 edge, 45 × 2 × 0.7 is
// 62.99999999999999 in float64 and must still floor to 63.
func (r Rules) scaled(stake int, factor float64) int {
	return int(math.Floor(float64(stake)*factor*r.HouseEdge + 1e-9))
}
