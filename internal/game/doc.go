// Package game implements the rules engine for single-player blackjack.
//
// The main type is Table, which owns a bankroll, a shoe and the state of the
// current round, and moves through the phases Betting, Playing, Dealer and
// Finished. Every player action is a single method returning an Outcome or a
// *RejectionError; a rejected action never changes state.
//
// # Basic Usage
//
//	t := game.NewTable(randutil.New(42), game.WithBankroll(1000))
//	out, err := t.StartRound(game.Bets{Main: 10})
//	if err != nil {
//	    // errors.Is(err, game.ErrInvalidBet)
//	}
//	out, _ = t.Stand()
//	for t.Pending() != game.ContinueNone {
//	    out, _ = t.Step() // one dealer card, or settlement
//	}
//
// # Continuations
//
// The dealer's draw loop and the automatic stand on 21 are not run inline.
// The table records a pending Continuation and the caller invokes Step at its
// own pace; each Step draws and evaluates exactly one dealer card, and
// settlement only happens once the dealer total reaches the stand threshold.
// RunPending steps until nothing is left, for callers that do not pace.
//
// # Deterministic Testing
//
// Inject a CardSource with WithShoe to script the cards dealt:
//
//	t := game.NewTable(nil, game.WithShoe(myStackedSource))
package game
