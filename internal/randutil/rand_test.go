package randutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for range 20 {
		assert.Equal(t, a.IntN(52), b.IntN(52))
	}
}

func TestNewSeedNonZero(t *testing.T) {
	for range 100 {
		assert.NotZero(t, NewSeed())
	}
}
