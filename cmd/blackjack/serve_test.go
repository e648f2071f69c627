package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", baseURL(":8080"))
	assert.Equal(t, "http://0.0.0.0:9000", baseURL("0.0.0.0:9000"))
}
