package deck

import rand "math/rand/v2"

const (
	// DeckSize is the number of cards in a standard single deck.
	DeckSize = 52

	// DefaultReshuffleThreshold is the card count below which the shoe is
	// rebuilt before the next draw.
	DefaultReshuffleThreshold = 10
)

// Shoe is the drawable stack of cards for a table. Cards are consumed from
// the end of the slice.
type Shoe struct {
	cards      []Card
	rng        *rand.Rand
	threshold  int
	reshuffles int
}

// ShoeOption configures a Shoe during creation.
type ShoeOption func(*Shoe)

// WithReshuffleThreshold overrides the low-water mark that triggers a rebuild.
func WithReshuffleThreshold(n int) ShoeOption {
	return func(s *Shoe) {
		if n >= 0 && n < DeckSize {
			s.threshold = n
		}
	}
}

// NewShoe creates a freshly built and shuffled 52-card shoe. The RNG is
// required so that randomness is explicit and tests are reproducible.
func NewShoe(rng *rand.Rand, opts ...ShoeOption) *Shoe {
	if rng == nil {
		panic("rng is required for shoe creation")
	}
	s := &Shoe{
		cards:     make([]Card, 0, DeckSize),
		rng:       rng,
		threshold: DefaultReshuffleThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.rebuild()
	return s
}

// NewDeck returns all 52 rank and suit combinations exactly once, unshuffled.
func NewDeck() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for rank := Ace; rank <= King; rank++ {
			cards = append(cards, NewCard(rank, suit))
		}
	}
	return cards
}

// Shuffle randomizes the order of the remaining cards using Fisher-Yates
func (s *Shoe) Shuffle() {
	for i := len(s.cards) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	}
}

// Draw removes and returns the top card. When fewer than the threshold
// remain, the shoe is rebuilt and reshuffled first, so Draw never fails.
func (s *Shoe) Draw() Card {
	if len(s.cards) < s.threshold || len(s.cards) == 0 {
		s.rebuild()
		s.reshuffles++
	}
	last := len(s.cards) - 1
	card := s.cards[last]
	s.cards = s.cards[:last]
	return card
}

// Remaining returns the number of cards left in the shoe
func (s *Shoe) Remaining() int {
	return len(s.cards)
}

// Reshuffles returns how many times the shoe has been rebuilt by Draw.
func (s *Shoe) Reshuffles() int {
	return s.reshuffles
}

func (s *Shoe) rebuild() {
	s.cards = append(s.cards[:0], NewDeck()...)
	s.Shuffle()
}
