package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestCheckout(t *testing.T) (*Checkout, *Selection, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 8, 29, 19, 0, 0, 0, time.UTC)}
	sel := NewSelection(MaxSeats)
	require.Equal(t, ToggleAdded, sel.Toggle("A1"))
	require.Equal(t, ToggleAdded, sel.Toggle("A2"))
	return NewCheckout(clock.Now), sel, clock
}

func TestCheckout_BeginFreezesSelectionAndArmsCountdown(t *testing.T) {
	checkout, sel, _ := newTestCheckout(t)

	require.NoError(t, checkout.Begin("S42", sel, true))

	assert.Equal(t, PhaseAwaitingConfirmation, checkout.Phase())
	assert.True(t, checkout.Active())
	assert.True(t, sel.Frozen())
	assert.Equal(t, []string{"A1", "A2"}, checkout.Seats())
	assert.Equal(t, Lifetime, checkout.Remaining())
	assert.Equal(t, ToggleRejectedFrozen, sel.Toggle("A3"))
}

func TestCheckout_BeginPreconditions(t *testing.T) {
	checkout, sel, _ := newTestCheckout(t)

	// widget not ready: refused, countdown must not start
	err := checkout.Begin("S42", sel, false)
	assert.ErrorIs(t, err, ErrWidgetNotReady)
	assert.Equal(t, PhaseIdle, checkout.Phase())
	assert.Zero(t, checkout.Remaining())
	assert.False(t, sel.Frozen())

	empty := NewSelection(MaxSeats)
	assert.ErrorIs(t, checkout.Begin("S42", empty, true), ErrEmptySelection)

	require.NoError(t, checkout.Begin("S42", sel, true))
	assert.ErrorIs(t, checkout.Begin("S42", sel, true), ErrCheckoutActive)
}

func TestCheckout_ExpiryBehavesLikeCancellation(t *testing.T) {
	checkout, sel, clock := newTestCheckout(t)
	require.NoError(t, checkout.Begin("S42", sel, true))
	epoch := checkout.Epoch()

	clock.Advance(Lifetime - time.Second)
	assert.Equal(t, TickRunning, checkout.Tick(epoch))

	clock.Advance(time.Second)
	assert.Equal(t, TickExpired, checkout.Tick(epoch))

	assert.Equal(t, PhaseIdle, checkout.Phase())
	assert.Zero(t, sel.Count(), "selection cleared on expiry")
	assert.False(t, sel.Frozen())

	// a straggler tick from the old countdown must not fire again
	clock.Advance(time.Second)
	assert.Equal(t, TickIgnored, checkout.Tick(epoch))
}

func TestCheckout_ExpiryFromPaymentPending(t *testing.T) {
	checkout, sel, clock := newTestCheckout(t)
	require.NoError(t, checkout.Begin("S42", sel, true))
	require.NoError(t, checkout.StartSubmit())
	require.NoError(t, checkout.EnterPaymentPending())
	epoch := checkout.Epoch()

	clock.Advance(Lifetime)
	assert.Equal(t, TickExpired, checkout.Tick(epoch))
	assert.Equal(t, PhaseIdle, checkout.Phase())
	assert.Zero(t, sel.Count())
}

func TestCheckout_TickKeepsRunningWhileSubmitting(t *testing.T) {
	checkout, sel, clock := newTestCheckout(t)
	require.NoError(t, checkout.Begin("S42", sel, true))
	require.NoError(t, checkout.StartSubmit())
	epoch := checkout.Epoch()

	// the chain must not die while the intent request is in flight,
	// otherwise no tick is ever scheduled again and PaymentPending
	// can never expire
	assert.Equal(t, TickRunning, checkout.Tick(epoch))

	// like Cancel, expiry waits for the request to resolve
	clock.Advance(Lifetime + time.Second)
	assert.Equal(t, TickRunning, checkout.Tick(epoch))
	assert.Equal(t, PhaseSubmitting, checkout.Phase())

	require.NoError(t, checkout.EnterPaymentPending())
	assert.Equal(t, TickExpired, checkout.Tick(epoch))
	assert.Equal(t, PhaseIdle, checkout.Phase())
}

func TestCheckout_StaleEpochTickIgnored(t *testing.T) {
	checkout, sel, clock := newTestCheckout(t)
	require.NoError(t, checkout.Begin("S42", sel, true))
	stale := checkout.Epoch()
	require.NoError(t, checkout.Cancel())

	require.Equal(t, ToggleAdded, sel.Toggle("B1"))
	require.NoError(t, checkout.Begin("S42", sel, true))

	clock.Advance(Lifetime + time.Minute)
	assert.Equal(t, TickIgnored, checkout.Tick(stale), "old countdown must not expire the new session")
}

func TestCheckout_CancelBeforeIntentRestoresSelectability(t *testing.T) {
	checkout, sel, _ := newTestCheckout(t)
	require.NoError(t, checkout.Begin("S42", sel, true))

	require.NoError(t, checkout.Cancel())

	assert.Equal(t, PhaseIdle, checkout.Phase())
	assert.False(t, sel.Frozen())
	assert.Equal(t, ToggleAdded, sel.Toggle("A3"))
}

func TestCheckout_CancelRefusedWhileSubmitting(t *testing.T) {
	checkout, sel, _ := newTestCheckout(t)
	require.NoError(t, checkout.Begin("S42", sel, true))
	require.NoError(t, checkout.StartSubmit())

	assert.ErrorIs(t, checkout.Cancel(), ErrCancelSubmitting)
	assert.Equal(t, PhaseSubmitting, checkout.Phase())
}

func TestCheckout_FailKeepsSelectionForRetry(t *testing.T) {
	checkout, sel, _ := newTestCheckout(t)
	require.NoError(t, checkout.Begin("S42", sel, true))
	require.NoError(t, checkout.StartSubmit())

	checkout.Fail()

	assert.Equal(t, PhaseIdle, checkout.Phase())
	assert.Equal(t, 2, sel.Count(), "seats stay selected so the user can retry")
	assert.False(t, sel.Frozen())
}

func TestCheckout_DismissKeepsSelectionForRetry(t *testing.T) {
	checkout, sel, _ := newTestCheckout(t)
	require.NoError(t, checkout.Begin("S42", sel, true))
	require.NoError(t, checkout.StartSubmit())
	require.NoError(t, checkout.EnterPaymentPending())

	checkout.Dismiss()

	assert.Equal(t, PhaseIdle, checkout.Phase())
	assert.Equal(t, 2, sel.Count())
	assert.False(t, sel.Frozen())
}

func TestCheckout_SucceedReturnsFrozenSeatsAndClears(t *testing.T) {
	checkout, sel, _ := newTestCheckout(t)
	require.NoError(t, checkout.Begin("S42", sel, true))
	require.NoError(t, checkout.StartSubmit())
	require.NoError(t, checkout.EnterPaymentPending())
	epoch := checkout.Epoch()

	seats := checkout.Succeed()

	assert.Equal(t, []string{"A1", "A2"}, seats)
	assert.Equal(t, PhaseIdle, checkout.Phase())
	assert.Zero(t, sel.Count())
	assert.Equal(t, TickIgnored, checkout.Tick(epoch), "no tick fires after settlement")
}

func TestCheckout_SubmitRequiresConfirmationPhase(t *testing.T) {
	checkout, sel, _ := newTestCheckout(t)

	assert.ErrorIs(t, checkout.StartSubmit(), ErrNotConfirmable)
	assert.ErrorIs(t, checkout.EnterPaymentPending(), ErrNotSubmitting)

	require.NoError(t, checkout.Begin("S42", sel, true))
	require.NoError(t, checkout.StartSubmit())
	assert.ErrorIs(t, checkout.StartSubmit(), ErrNotConfirmable)
}
