package game

import (
	"fmt"
	rand "math/rand/v2"
	"time"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/ledger"
	"github.com/lox/blackjack/internal/roundid"
)

// Phase is the round state.
type Phase int

const (
	PhaseBetting Phase = iota
	PhasePlaying
	PhaseDealer
	PhaseFinished
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseBetting:
		return "betting"
	case PhasePlaying:
		return "playing"
	case PhaseDealer:
		return "dealer"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Action names an operation on the table.
type Action string

const (
	ActionStartRound Action = "start_round"
	ActionHit        Action = "hit"
	ActionStand      Action = "stand"
	ActionDoubleDown Action = "double_down"
	ActionSplit      Action = "split"
	ActionStep       Action = "step"
	ActionNewGame    Action = "new_game"
)

// Continuation is work the table has scheduled but not yet performed.
type Continuation int

const (
	ContinueNone Continuation = iota
	// ContinueAutoStand stands the active hand after a hit reached 21.
	ContinueAutoStand
	// ContinueDealer draws one dealer card, or settles once the dealer stands.
	ContinueDealer
)

// String returns the string representation of the continuation
func (c Continuation) String() string {
	switch c {
	case ContinueNone:
		return "none"
	case ContinueAutoStand:
		return "auto_stand"
	case ContinueDealer:
		return "dealer"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Continuation) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// CardSource supplies cards. *deck.Shoe is the production implementation;
// it must never fail to produce a card.
type CardSource interface {
	Draw() deck.Card
}

// Bets are the stakes submitted with StartRound.
type Bets struct {
	Main               int `json:"main"`
	TwentyOnePlusThree int `json:"twentyOnePlusThree"`
	PerfectPairs       int `json:"perfectPairs"`
	BustIt             int `json:"bustIt"`
}

// Total returns the full amount wagered at round start
func (b Bets) Total() int {
	return b.Main + b.TwentyOnePlusThree + b.PerfectPairs + b.BustIt
}

// PlayerHand is one player hand with its own stake.
type PlayerHand struct {
	Cards   Hand `json:"cards"`
	Stake   int  `json:"stake"`
	Doubled bool `json:"doubled,omitempty"`
	Done    bool `json:"done,omitempty"`
}

// Outcome is the result of a successful action.
type Outcome struct {
	Action        Action       `json:"action"`
	Phase         Phase        `json:"phase"`
	Pending       Continuation `json:"pending"`
	Messages      []string     `json:"messages,omitempty"`
	Events        []GameEvent  `json:"-"`
	Bankroll      int          `json:"bankroll"`
	BankrollDelta int          `json:"bankrollDelta"`
	SideBetWins   int          `json:"sideBetWins,omitempty"`
	Settlement    *Settlement  `json:"settlement,omitempty"`
}

// TableState is a read-only view of the table for observers.
type TableState struct {
	Phase         Phase        `json:"phase"`
	Bankroll      int          `json:"bankroll"`
	Bets          Bets         `json:"bets"`
	Hands         []PlayerHand `json:"hands"`
	ActiveHand    int          `json:"activeHand"`
	Split         bool         `json:"split"`
	Dealer        Hand         `json:"dealer"`
	DealerValue   int          `json:"dealerValue"`
	HoleConcealed bool         `json:"holeConcealed"`
	Pending       Continuation `json:"pending"`
}

// TableOption configures a Table during creation.
type TableOption func(*Table)

// WithBankroll sets the opening balance.
func WithBankroll(amount int) TableOption {
	return func(t *Table) {
		t.bankroll = amount
	}
}

// WithRules overrides DefaultRules.
func WithRules(rules Rules) TableOption {
	return func(t *Table) {
		t.rules = rules
	}
}

// WithShoe supplies the card source, overriding the RNG-built shoe.
func WithShoe(src CardSource) TableOption {
	return func(t *Table) {
		t.shoe = src
	}
}

// WithLedger restores statistics and history from a previous session.
func WithLedger(l *ledger.Ledger) TableOption {
	return func(t *Table) {
		t.ledger = l
	}
}

// WithClock sets the time source used for event and history timestamps.
func WithClock(now func() time.Time) TableOption {
	return func(t *Table) {
		t.now = now
	}
}

// WithRoundIDs sets the generator used to name rounds.
func WithRoundIDs(next func() string) TableOption {
	return func(t *Table) {
		t.nextID = next
	}
}

// WithSubscriber registers an event subscriber at creation.
func WithSubscriber(sub EventSubscriber) TableOption {
	return func(t *Table) {
		t.bus.Subscribe(sub)
	}
}

// Table is the blackjack state machine for one player session. It is not
// safe for concurrent use; callers serialize access.
type Table struct {
	rules    Rules
	shoe     CardSource
	bankroll int
	ledger   *ledger.Ledger
	bus      *SimpleEventBus
	now      func() time.Time
	nextID   func() string

	phase   Phase
	roundID string
	bets    Bets
	hands   []*PlayerHand
	active  int
	split   bool
	dealer  Hand
	hole    *deck.Card
	pending Continuation

	wagered     int
	credited    int
	sidePayouts []SideBetPayout
	results     []HandSettlement
	last        *Settlement

	out           *Outcome
	startBankroll int
}

// NewTable creates a table in the Betting phase. The RNG builds the shoe and
// is required unless WithShoe is given.
func NewTable(rng *rand.Rand, opts ...TableOption) *Table {
	t := &Table{
		rules: DefaultRules(),
		bus:   NewEventBus(),
		phase: PhaseBetting,
	}
	for _, opt := range opts {
		opt(t)
	}

	if t.shoe == nil {
		if rng == nil {
			panic("rng is required when no shoe is supplied")
		}
		t.shoe = deck.NewShoe(rng)
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.nextID == nil {
		t.nextID = roundid.NewGenerator(nil).Generate
	}
	if t.ledger == nil {
		t.ledger = ledger.New(t.rules.HistoryLimit)
	}
	return t
}

// Subscribe registers an event subscriber
func (t *Table) Subscribe(sub EventSubscriber) {
	t.bus.Subscribe(sub)
}

// Phase returns the current phase
func (t *Table) Phase() Phase { return t.phase }

// Bankroll returns the current balance
func (t *Table) Bankroll() int { return t.bankroll }

// Pending returns the scheduled continuation, if any
func (t *Table) Pending() Continuation { return t.pending }

// Rules returns the table rules
func (t *Table) Rules() Rules { return t.rules }

// Ledger returns the session ledger
func (t *Table) Ledger() *ledger.Ledger { return t.ledger }

// LastSettlement returns the most recent settlement, or nil before the first.
func (t *Table) LastSettlement() *Settlement { return t.last }

// State returns a copy of the visible table state. The hole card is never
// included while concealed.
func (t *Table) State() TableState {
	hands := make([]PlayerHand, len(t.hands))
	for i, h := range t.hands {
		hands[i] = *h
		hands[i].Cards = h.Cards.clone()
	}
	return TableState{
		Phase:         t.phase,
		Bankroll:      t.bankroll,
		Bets:          t.bets,
		Hands:         hands,
		ActiveHand:    t.active,
		Split:         t.split,
		Dealer:        t.dealer.clone(),
		DealerValue:   t.dealer.Value(),
		HoleConcealed: t.hole != nil,
		Pending:       t.pending,
	}
}

// StartRound validates and takes the bets, deals the opening cards, settles
// the deal-time side bets and resolves a player natural.
func (t *Table) StartRound(bets Bets) (*Outcome, error) {
	if t.phase != PhaseBetting {
		return nil, reject(ErrIllegalAction, ActionStartRound, "round already in progress (%s)", t.phase)
	}
	if bets.Main <= 0 {
		return nil, reject(ErrInvalidBet, ActionStartRound, "enter a main bet to start the hand")
	}
	if bets.TwentyOnePlusThree < 0 || bets.PerfectPairs < 0 || bets.BustIt < 0 {
		return nil, reject(ErrInvalidBet, ActionStartRound, "side bets cannot be negative")
	}
	if total := bets.Total(); total > t.bankroll {
		return nil, reject(ErrInvalidBet, ActionStartRound, "wager %d exceeds bankroll %d", total, t.bankroll)
	}

	t.begin(ActionStartRound)
	t.resetRound()
	t.roundID = t.nextID()
	t.bets = bets
	t.debit(bets.Total())
	t.hands = []*PlayerHand{{Stake: bets.Main}}
	t.setPhase(PhasePlaying)

	t.dealPlayer(0)
	t.dealDealer()
	t.dealPlayer(0)
	t.dealHole()

	t.settleDealSideBets()

	if t.hands[0].Cards.Value() == 21 {
		t.resolveNatural()
	}
	return t.end(), nil
}

// Hit deals one card to the active hand.
func (t *Table) Hit() (*Outcome, error) {
	if err := t.requirePlaying(ActionHit); err != nil {
		return nil, err
	}

	t.begin(ActionHit)
	h := t.hands[t.active]
	t.dealPlayer(t.active)

	switch v := h.Cards.Value(); {
	case v > 21:
		t.bust()
	case v == 21 && t.rules.AutoStandOn21:
		t.pending = ContinueAutoStand
		t.say("%s reached 21! Auto-standing...", t.handLabel())
	}
	return t.end(), nil
}

// Stand finishes the active hand. After the last hand the hole card is
// revealed and the dealer's turn is scheduled.
func (t *Table) Stand() (*Outcome, error) {
	if t.phase != PhasePlaying {
		return nil, reject(ErrIllegalAction, ActionStand, "cannot stand during %s", t.phase)
	}

	t.begin(ActionStand)
	t.standActive("stand")
	return t.end(), nil
}

// DoubleDown doubles the active hand's stake, deals exactly one card and
// stands unless the card busts the hand.
func (t *Table) DoubleDown() (*Outcome, error) {
	if err := t.requirePlaying(ActionDoubleDown); err != nil {
		return nil, err
	}
	h := t.hands[t.active]
	if len(h.Cards) != 2 {
		return nil, reject(ErrIllegalAction, ActionDoubleDown, "double down needs exactly two cards, hand has %d", len(h.Cards))
	}
	if h.Stake > t.bankroll {
		return nil, reject(ErrInsufficientFunds, ActionDoubleDown, "need %d to double, bankroll is %d", h.Stake, t.bankroll)
	}

	t.begin(ActionDoubleDown)
	t.debit(h.Stake)
	h.Stake *= 2
	h.Doubled = true
	t.dealPlayer(t.active)

	if h.Cards.IsBust() {
		t.bust()
	} else {
		t.standActive("double")
	}
	return t.end(), nil
}

// Split turns a two-card pair into two hands, each staked at the main bet,
// and deals one card to each. Play continues on the first hand.
func (t *Table) Split() (*Outcome, error) {
	if err := t.requirePlaying(ActionSplit); err != nil {
		return nil, err
	}
	if t.split {
		return nil, reject(ErrIllegalAction, ActionSplit, "hand is already split")
	}
	cards := t.hands[0].Cards
	if len(cards) != 2 {
		return nil, reject(ErrIllegalAction, ActionSplit, "split needs exactly two cards, hand has %d", len(cards))
	}
	if cards[0].Rank != cards[1].Rank {
		return nil, reject(ErrIllegalAction, ActionSplit, "cannot split %s and %s: ranks differ", cards[0], cards[1])
	}
	if t.bets.Main > t.bankroll {
		return nil, reject(ErrInsufficientFunds, ActionSplit, "need %d to split, bankroll is %d", t.bets.Main, t.bankroll)
	}

	t.begin(ActionSplit)
	t.debit(t.bets.Main)
	t.split = true
	t.hands = []*PlayerHand{
		{Cards: Hand{cards[0]}, Stake: t.hands[0].Stake},
		{Cards: Hand{cards[1]}, Stake: t.bets.Main},
	}
	t.active = 0
	t.dealPlayer(0)
	t.dealPlayer(1)
	t.say("Playing split hand 1 of 2")
	return t.end(), nil
}

// Step performs exactly one pending continuation.
func (t *Table) Step() (*Outcome, error) {
	switch t.pending {
	case ContinueAutoStand:
		t.begin(ActionStep)
		t.standActive("auto_stand")
		return t.end(), nil
	case ContinueDealer:
		t.begin(ActionStep)
		if t.dealer.Value() < t.rules.DealerStandsOn {
			t.dealDealer()
		} else {
			t.settle()
		}
		return t.end(), nil
	default:
		return nil, reject(ErrIllegalAction, ActionStep, "nothing pending during %s", t.phase)
	}
}

// RunPending steps until no continuation remains and returns every outcome
// in order. It applies no pacing.
func (t *Table) RunPending() []*Outcome {
	var outs []*Outcome
	for t.pending != ContinueNone {
		out, err := t.Step()
		if err != nil {
			break
		}
		outs = append(outs, out)
	}
	return outs
}

// NewGame clears the finished round and returns to Betting. Bankroll and
// statistics are untouched.
func (t *Table) NewGame() (*Outcome, error) {
	if t.phase != PhaseFinished {
		return nil, reject(ErrIllegalAction, ActionNewGame, "round is not finished (%s)", t.phase)
	}

	t.begin(ActionNewGame)
	t.resetRound()
	t.setPhase(PhaseBetting)
	return t.end(), nil
}

func (t *Table) requirePlaying(action Action) error {
	if t.phase != PhasePlaying {
		return reject(ErrIllegalAction, action, "cannot %s during %s", action, t.phase)
	}
	if t.pending == ContinueAutoStand {
		return reject(ErrIllegalAction, action, "%s is standing on 21", t.handLabel())
	}
	return nil
}

func (t *Table) resetRound() {
	t.roundID = ""
	t.bets = Bets{}
	t.hands = nil
	t.active = 0
	t.split = false
	t.dealer = nil
	t.hole = nil
	t.pending = ContinueNone
	t.wagered = 0
	t.credited = 0
	t.sidePayouts = nil
	t.results = nil
}

// standActive closes the active hand and moves on to the next split hand or
// to the dealer.
func (t *Table) standActive(reason string) {
	h := t.hands[t.active]
	h.Done = true
	t.pending = ContinueNone
	t.emit(HandResolvedEvent{HandIndex: t.active, Value: h.Cards.Value(), Reason: reason, timestamp: t.now()})
	t.advance()
}

// bust resolves the active hand as a loss. A single hand ends the round
// without the dealer playing.
func (t *Table) bust() {
	h := t.hands[t.active]
	h.Done = true
	t.pending = ContinueNone
	t.emit(HandResolvedEvent{HandIndex: t.active, Value: h.Cards.Value(), Reason: "bust", timestamp: t.now()})

	if !t.split {
		t.recordHand(0, ledger.Loss, 0)
		t.finish(ledger.Loss, "Bust! You lose.")
		return
	}
	t.say("%s busts!", t.handLabel())
	t.advance()
}

func (t *Table) advance() {
	if t.split && t.active < len(t.hands)-1 {
		t.active++
		t.say("Playing split hand %d of %d", t.active+1, len(t.hands))
		return
	}
	t.revealHole()
	t.setPhase(PhaseDealer)
	t.pending = ContinueDealer
}

func (t *Table) handLabel() string {
	if t.split {
		return fmt.Sprintf("Hand %d", t.active+1)
	}
	return "You"
}

func (t *Table) begin(action Action) {
	t.out = &Outcome{Action: action}
	t.startBankroll = t.bankroll
}

func (t *Table) end() *Outcome {
	out := t.out
	out.Phase = t.phase
	out.Pending = t.pending
	out.Bankroll = t.bankroll
	out.BankrollDelta = t.bankroll - t.startBankroll
	t.out = nil
	return out
}

func (t *Table) emit(e GameEvent) {
	if t.out != nil {
		t.out.Events = append(t.out.Events, e)
	}
	t.bus.Publish(e)
}

func (t *Table) say(format string, args ...any) {
	if t.out != nil {
		t.out.Messages = append(t.out.Messages, fmt.Sprintf(format, args...))
	}
}

func (t *Table) setPhase(p Phase) {
	if p == t.phase {
		return
	}
	from := t.phase
	t.phase = p
	t.emit(PhaseChangeEvent{From: from, To: p, timestamp: t.now()})
}

func (t *Table) debit(amount int) {
	t.bankroll -= amount
	t.wagered += amount
	t.ledger.AddWager(amount)
}

func (t *Table) credit(amount int) {
	t.bankroll += amount
	t.credited += amount
}

func (t *Table) dealPlayer(i int) {
	c := t.shoe.Draw()
	h := t.hands[i]
	h.Cards = append(h.Cards, c)
	t.emit(CardDealtEvent{To: ToPlayer, HandIndex: i, Card: c, Value: h.Cards.Value(), timestamp: t.now()})
}

func (t *Table) dealDealer() {
	c := t.shoe.Draw()
	t.dealer = append(t.dealer, c)
	t.emit(CardDealtEvent{To: ToDealer, Card: c, Value: t.dealer.Value(), timestamp: t.now()})
}

func (t *Table) dealHole() {
	c := t.shoe.Draw()
	t.hole = &c
	t.emit(CardDealtEvent{To: ToDealer, Concealed: true, Value: t.dealer.Value(), timestamp: t.now()})
}

func (t *Table) revealHole() {
	if t.hole == nil {
		return
	}
	c := *t.hole
	t.hole = nil
	t.dealer = append(t.dealer, c)
	t.emit(HoleRevealedEvent{Card: c, DealerValue: t.dealer.Value(), timestamp: t.now()})
}
