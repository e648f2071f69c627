package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lox/blackjack/internal/deck"
)

func TestEvaluate21Plus3(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		cards string
		mult  int
		tier  string
	}{
		{"suited trips", "7h 7h 7h", 100, "Suited Trips"},
		{"straight flush ace high", "As Ks Qs", 40, "Straight Flush"},
		{"straight flush low", "2d 3d 4d", 40, "Straight Flush"},
		{"three of a kind", "9c 9d 9s", 30, "Three of a Kind"},
		{"straight", "5c 6d 7s", 10, "Straight"},
		{"straight any order", "8h 6c 7d", 10, "Straight"},
		{"ace high straight", "Qc Ad Ks", 10, "Straight"},
		{"flush", "2c 9c Kc", 5, "Flush"},
		{"no wrap around", "Kh As 2d", 0, ""},
		{"pair is nothing", "8h 8d 3s", 0, ""},
		{"nothing", "2h 9d Ks", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := deck.MustParseCards(tt.cards)
			res := Evaluate21Plus3(c[0], c[1], c[2])
			assert.Equal(t, TwentyOnePlusThree, res.Bet)
			assert.Equal(t, tt.mult, res.Multiplier)
			assert.Equal(t, tt.tier, res.Name)
			assert.Equal(t, tt.mult > 0, res.Won())
		})
	}
}

func TestEvaluatePerfectPairs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		cards string
		mult  int
	}{
		{"Qs Qs", 25},
		{"8h 8d", 12},
		{"8s 8c", 12},
		{"8h 8c", 6},
		{"8h 9h", 0},
	}

	for _, tt := range tests {
		t.Run(tt.cards, func(t *testing.T) {
			c := deck.MustParseCards(tt.cards)
			assert.Equal(t, tt.mult, EvaluatePerfectPairs(c[0], c[1]).Multiplier)
		})
	}
}

func TestEvaluateBustIt(t *testing.T) {
	t.Parallel()
	want := map[int]int{2: 0, 3: 3, 4: 6, 5: 10, 6: 15, 7: 25, 8: 50, 11: 50}
	for n, mult := range want {
		assert.Equal(t, mult, EvaluateBustIt(n).Multiplier, "%d cards", n)
	}
}

func TestSideBetPayoutAndMessage(t *testing.T) {
	t.Parallel()
	c := deck.MustParseCards("As Ks Qs")
	res := Evaluate21Plus3(c[0], c[1], c[2])

	assert.Equal(t, 200, res.Payout(5))
	assert.Equal(t, 0, res.Payout(0))
	assert.Equal(t, "21+3 win: 40:1 pays $200", res.Message(5))
}
