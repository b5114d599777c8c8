package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWSClient_AssignsDistinctIDs(t *testing.T) {
	a := NewWSClient(1, nil)
	b := NewWSClient(1, nil)

	assert.NotEmpty(t, a.ID)
	assert.NotEmpty(t, b.ID)
	assert.NotEqual(t, a.ID, b.ID, "two sockets of one user stay distinguishable in the logs")
	assert.Equal(t, uint(1), a.UserID)
}
