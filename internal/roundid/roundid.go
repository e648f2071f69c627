// Package roundid generates time-sortable identifiers for settled rounds.
//
// IDs are UUIDv7 values rendered as 26 characters of Crockford base32, the
// same shape TypeID uses, so they sort lexically by creation time.
package roundid

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Crockford's base32 alphabet, lower-cased
const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// Length is the number of characters in an encoded ID.
const Length = 26

// Generator produces round IDs, drawing random bits from a reader.
type Generator struct {
	rand io.Reader
}

// NewGenerator creates a generator. A nil reader uses crypto/rand.
func NewGenerator(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}
	return &Generator{rand: r}
}

// Generate creates a new round ID using crypto/rand.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new round ID
func (g *Generator) Generate() string {
	id, err := uuid.NewV7FromReader(g.rand)
	if err != nil {
		panic("failed to generate round ID: " + err.Error())
	}
	return encode(id)
}

// encode renders 128 bits as 26 base32 digits, most significant first. The
// leading digit carries only 3 bits, which keeps it in 0-7.
func encode(id uuid.UUID) string {
	var hi, lo uint64
	for i := 0; i < 8; i++ {
		hi = hi<<8 | uint64(id[i])
		lo = lo<<8 | uint64(id[i+8])
	}

	out := make([]byte, Length)
	for i := Length - 1; i >= 0; i-- {
		out[i] = alphabet[lo&0x1f]
		lo = lo>>5 | hi<<59
		hi >>= 5
	}
	return string(out)
}

// Validate checks that id is 26 characters of the lower-case alphabet with
// a leading digit no greater than 7.
func Validate(id string) error {
	if len(id) != Length {
		return fmt.Errorf("round ID must be exactly %d characters, got %d", Length, len(id))
	}
	if id[0] > '7' {
		return fmt.Errorf("round ID first character must be 0-7, got %c", id[0])
	}
	for i, c := range id {
		if !strings.ContainsRune(alphabet, c) {
			return fmt.Errorf("invalid character %c at position %d", c, i)
		}
	}
	return nil
}
