package roundid

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	id := Generate()
	require.Len(t, id, Length)
	assert.NoError(t, Validate(id))
}

func TestGenerateUnique(t *testing.T) {
	ids := make(map[string]bool)
	for range 200 {
		id := Generate()
		assert.False(t, ids[id], "duplicate ID %s", id)
		ids[id] = true
	}
}

func TestGenerateSortsByCreation(t *testing.T) {
	prev := Generate()
	for range 100 {
		id := Generate()
		assert.Less(t, prev, id)
		prev = id
	}
}

func TestGenerateUsesReader(t *testing.T) {
	zeros := bytes.NewReader(make([]byte, 64))

	id := NewGenerator(zeros).Generate()
	require.NoError(t, Validate(id))
	// Only the timestamp and version bits are set.
	assert.True(t, strings.HasSuffix(id, "00000000000"), id)
}

func TestGenerateReaderFailure(t *testing.T) {
	empty := bytes.NewReader(nil)
	assert.Panics(t, func() { NewGenerator(empty).Generate() })
}

func TestEncodeLayout(t *testing.T) {
	var id uuid.UUID
	assert.Equal(t, "00000000000000000000000000", encode(id))

	for i := range id {
		id[i] = 0xff
	}
	assert.Equal(t, "7zzzzzzzzzzzzzzzzzzzzzzzzz", encode(id))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"valid", "01h455vb4pex5vsknk084sn02q", false},
		{"too short", "01h455vb4pex5vsknk084sn02", true},
		{"too long", "01h455vb4pex5vsknk084sn02qq", true},
		{"leading digit too large", "81h455vb4pex5vsknk084sn02q", true},
		{"excluded letter", "01h455vb4pex5vsknk084sn0iq", true},
		{"upper case", "01H455VB4PEX5VSKNK084SN02Q", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
