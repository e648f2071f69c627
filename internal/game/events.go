package game

import (
	"time"

	"github.com/lox/blackjack/internal/deck"
)

// EventType represents a game event type with type safety
type EventType string

const (
	EventTypePhaseChange  EventType = "phase_change"
	EventTypeCardDealt    EventType = "card_dealt"
	EventTypeHoleRevealed EventType = "hole_revealed"
	EventTypeSideBetWin   EventType = "side_bet_win"
	EventTypeHandResolved EventType = "hand_resolved"
	EventTypeSettlement   EventType = "settlement"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent is anything the table announces while processing an action.
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// PhaseChangeEvent is published whenever the round phase moves.
type PhaseChangeEvent struct {
	From      Phase `json:"from"`
	To        Phase `json:"to"`
	timestamp time.Time
}

func (e PhaseChangeEvent) EventType() EventType { return EventTypePhaseChange }
func (e PhaseChangeEvent) Timestamp() time.Time { return e.timestamp }

// Recipient says who a card was dealt to.
type Recipient string

const (
	ToPlayer Recipient = "player"
	ToDealer Recipient = "dealer"
)

// CardDealtEvent is published for every card taken from the shoe. The hole
// card is announced with Concealed set and a zero Card.
type CardDealtEvent struct {
	To        Recipient `json:"to"`
	HandIndex int       `json:"handIndex"`
	Card      deck.Card `json:"card"`
	Concealed bool      `json:"concealed,omitempty"`
	Value     int       `json:"value"`
	timestamp time.Time
}

func (e CardDealtEvent) EventType() EventType { return EventTypeCardDealt }
func (e CardDealtEvent) Timestamp() time.Time { return e.timestamp }

// HoleRevealedEvent is published when the dealer's hole card is turned over.
type HoleRevealedEvent struct {
	Card        deck.Card `json:"card"`
	DealerValue int       `json:"dealerValue"`
	timestamp   time.Time
}

func (e HoleRevealedEvent) EventType() EventType { return EventTypeHoleRevealed }
func (e HoleRevealedEvent) Timestamp() time.Time { return e.timestamp }

// SideBetWinEvent is published when a side bet pays.
type SideBetWinEvent struct {
	Result    SideBetResult `json:"result"`
	Stake     int           `json:"stake"`
	Payout    int           `json:"payout"`
	Message   string        `json:"message"`
	timestamp time.Time
}

func (e SideBetWinEvent) EventType() EventType { return EventTypeSideBetWin }
func (e SideBetWinEvent) Timestamp() time.Time { return e.timestamp }

// HandResolvedEvent is published when a player hand stops taking cards.
type HandResolvedEvent struct {
	HandIndex int    `json:"handIndex"`
	Value     int    `json:"value"`
	Reason    string `json:"reason"`
	timestamp time.Time
}

func (e HandResolvedEvent) EventType() EventType { return EventTypeHandResolved }
func (e HandResolvedEvent) Timestamp() time.Time { return e.timestamp }

// SettlementEvent is published once per round, when it finishes.
type SettlementEvent struct {
	Settlement Settlement `json:"settlement"`
	timestamp  time.Time
}

func (e SettlementEvent) EventType() EventType { return EventTypeSettlement }
func (e SettlementEvent) Timestamp() time.Time { return e.timestamp }

// EventSubscriber can subscribe to game events
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// SubscriberFunc adapts a function to EventSubscriber.
type SubscriberFunc func(GameEvent)

// OnEvent calls f(event).
func (f SubscriberFunc) OnEvent(event GameEvent) { f(event) }

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus is a basic in-memory event bus implementation
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() *SimpleEventBus {
	return &SimpleEventBus{}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Publish sends an event to all subscribers synchronously, in order
func (bus *SimpleEventBus) Publish(event GameEvent) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}
