package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusProgressionIsLinear(t *testing.T) {
	path := []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered}
	for i := 0; i < len(path)-1; i++ {
		assert.True(t, CanTransition(path[i], path[i+1]), "%s -> %s", path[i], path[i+1])
		for j := i + 2; j < len(path); j++ {
			assert.False(t, CanTransition(path[i], path[j]), "%s must not skip to %s", path[i], path[j])
		}
		assert.False(t, CanTransition(path[i+1], path[i]), "%s must not go back to %s", path[i+1], path[i])
	}
}

func TestCancellationOnlyFromEarlyStates(t *testing.T) {
	assert.True(t, Cancellable(StatusPending))
	assert.True(t, Cancellable(StatusProcessing))
	assert.False(t, Cancellable(StatusShipped))
	assert.False(t, Cancellable(StatusDelivered))
	assert.False(t, Cancellable(StatusCancelled))
	assert.False(t, Cancellable(Status("unknown")))
}

func TestAhead(t *testing.T) {
	assert.True(t, Ahead(StatusPending, StatusProcessing))
	assert.True(t, Ahead(StatusPending, StatusDelivered))
	assert.True(t, Ahead(StatusProcessing, StatusCancelled))
	assert.False(t, Ahead(StatusShipped, StatusCancelled))
	assert.False(t, Ahead(StatusShipped, StatusPending))
	assert.False(t, Ahead(StatusCancelled, StatusProcessing))
	assert.False(t, Ahead(StatusProcessing, StatusProcessing))
	assert.False(t, Ahead(Status("bogus"), StatusShipped))
}

func TestTerminal(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPending.Terminal())
	assert.False(t, Status("bogus").Terminal())
}
