package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^NYH\d{6}[0-9A-Z]{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := GenerateOrderNumber("NYH")
		assert.Regexp(t, pattern, n)
		seen[n] = true
	}
	// 100 draws from 36^6 should essentially never collide.
	assert.Greater(t, len(seen), 95)

	assert.Contains(t, GenerateOrderNumber("NYH"), time.Now().Format("060102"))
}

func TestStatusHelpers(t *testing.T) {
	for _, s := range []string{StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.True(t, IsValidStatus(s), s)
	}
	assert.False(t, IsValidStatus("returned"))
	assert.False(t, IsValidStatus(""))

	assert.True(t, IsTerminalStatus(StatusDelivered))
	assert.True(t, IsTerminalStatus(StatusCancelled))
	assert.False(t, IsTerminalStatus(StatusShipped))
	assert.False(t, IsTerminalStatus(StatusPending))
}
