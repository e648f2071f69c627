package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/session"
)

// MessageType represents a WebSocket message type with type safety
type MessageType string

const (
	// Client to server messages
	MessageTypeStart    MessageType = "start"
	MessageTypeHit      MessageType = "hit"
	MessageTypeStand    MessageType = "stand"
	MessageTypeDouble   MessageType = "double"
	MessageTypeSplit    MessageType = "split"
	MessageTypeNewGame  MessageType = "new_game"
	MessageTypeSnapshot MessageType = "snapshot"

	// Server to client messages
	MessageTypeOutcome MessageType = "outcome"
	MessageTypeEvent   MessageType = "event"
	MessageTypeError   MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// actions maps client messages to table actions.
var actions = map[MessageType]game.Action{
	MessageTypeStart:   game.ActionStartRound,
	MessageTypeHit:     game.ActionHit,
	MessageTypeStand:   game.ActionStand,
	MessageTypeDouble:  game.ActionDoubleDown,
	MessageTypeSplit:   game.ActionSplit,
	MessageTypeNewGame: game.ActionNewGame,
}

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data any) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// StartData carries the bets for a start message
type StartData struct {
	Main               int `json:"main"`
	TwentyOnePlusThree int `json:"twentyOnePlusThree,omitempty"`
	PerfectPairs       int `json:"perfectPairs,omitempty"`
	BustIt             int `json:"bustIt,omitempty"`
}

// Bets converts the message to table bets
func (d StartData) Bets() game.Bets {
	return game.Bets{
		Main:               d.Main,
		TwentyOnePlusThree: d.TwentyOnePlusThree,
		PerfectPairs:       d.PerfectPairs,
		BustIt:             d.BustIt,
	}
}

// OutcomeData is sent after every accepted action and dealer step
type OutcomeData struct {
	Outcome *game.Outcome   `json:"outcome"`
	State   game.TableState `json:"state"`
}

// EventData wraps one table event
type EventData struct {
	Type      game.EventType `json:"type"`
	Event     game.GameEvent `json:"event"`
	Timestamp time.Time      `json:"timestamp"`
}

// SnapshotData is sent on connect and on request
type SnapshotData struct {
	Snapshot session.Snapshot `json:"snapshot"`
	State    game.TableState  `json:"state"`
}

// ErrorData describes a rejected or failed request
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorCode classifies an error for clients
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrInvalidBet):
		return "invalid_bet"
	case errors.Is(err, game.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, game.ErrIllegalAction):
		return "illegal_action"
	default:
		return "internal_error"
	}
}
