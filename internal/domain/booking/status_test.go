package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BruksfildServices01/marketplace/internal/httperr"
)

func TestTransitions(t *testing.T) {
	all := []Status{StatusPending, StatusConfirmed, StatusRejected, StatusCancelled, StatusCompleted}
	allowed := map[[2]Status]bool{
		{StatusPending, StatusConfirmed}:   true,
		{StatusPending, StatusRejected}:    true,
		{StatusPending, StatusCancelled}:   true,
		{StatusConfirmed, StatusCompleted}: true,
		{StatusConfirmed, StatusCancelled}: true,
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[[2]Status{from, to}]
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusConfirmed.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.False(t, Status("archived").Valid())
}

func TestGuardsRejectUnknownStoredStatus(t *testing.T) {
	for _, check := range []func(Status) error{CanApprove, CanReject, CanCancel, CanComplete} {
		assert.True(t, httperr.IsBusiness(check(Status("archived")), "unknown_status"))
	}
}

func TestCanCompleteOnlyFromConfirmed(t *testing.T) {
	assert.NoError(t, CanComplete(StatusConfirmed))
	for _, s := range []Status{StatusPending, StatusRejected, StatusCancelled, StatusCompleted} {
		err := CanComplete(s)
		assert.True(t, httperr.IsBusiness(err, "booking_not_confirmed"), s)
	}
}

func TestCanCancel(t *testing.T) {
	assert.NoError(t, CanCancel(StatusPending))
	assert.NoError(t, CanCancel(StatusConfirmed))
	for _, s := range []Status{StatusRejected, StatusCancelled, StatusCompleted} {
		assert.True(t, httperr.IsBusiness(CanCancel(s), "booking_not_cancellable"), s)
	}
}

func TestCanChat(t *testing.T) {
	assert.NoError(t, CanChat(StatusConfirmed))
	assert.True(t, httperr.IsBusiness(CanChat(StatusCompleted), "chat_closed"))
	assert.True(t, httperr.IsBusiness(CanChat(StatusPending), "chat_unavailable"))
}
