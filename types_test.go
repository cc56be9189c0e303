package netsim

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSolutionResultWorstOrdering(t *testing.T) {
	assert.Equal(t, Reject, Confirm.Worst(Reject))
	assert.Equal(t, Delay, Confirm.Worst(Delay))
	assert.Equal(t, Confirm, Confirm.Worst(Confirm))
	assert.Equal(t, Reject, Delay.Worst(Reject))
}

func TestFaultIsMatchesOnKindOnly(t *testing.T) {
	f1 := NewFault(KindSingular, "solver", errors.New("boom"))
	f2 := NewFault(KindSingular, "other-component", nil)
	assert.True(t, errors.Is(f1, f2))

	f3 := NewFault(KindNonConvergence, "solver", nil)
	assert.False(t, errors.Is(f1, f3))
}

func TestFaultUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	f := NewFault(KindOutOfBounds, "node", cause)
	assert.ErrorIs(t, f, cause)
}
