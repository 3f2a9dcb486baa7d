package booking

import (
	"errors"
	"time"
)

// Lifetime is how long a checkout session may stay open before it
// expires. The countdown is purely client-side; it does not reserve
// seats against other clients.
const Lifetime = 5 * time.Minute

// Phase is the lifecycle state of the checkout session. Transitions:
//
//	Idle -> AwaitingConfirmation -> Submitting -> PaymentPending
//
// with every resolution (success, failure, dismissal, cancellation,
// expiry) returning to Idle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAwaitingConfirmation
	PhaseSubmitting
	PhasePaymentPending
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAwaitingConfirmation:
		return "awaiting-confirmation"
	case PhaseSubmitting:
		return "submitting"
	case PhasePaymentPending:
		return "payment-pending"
	default:
		return "unknown"
	}
}

// TickStatus is the outcome of feeding a countdown tick to the session.
type TickStatus int

const (
	// TickIgnored means the tick belonged to a previous session or the
	// session is no longer running; no further tick should be scheduled.
	TickIgnored TickStatus = iota
	// TickRunning means the countdown is still going.
	TickRunning
	// TickExpired means the deadline passed; the session tore itself
	// down exactly like a user cancellation.
	TickExpired
)

var (
	ErrWidgetNotReady   = errors.New("payment service is still loading, try again shortly")
	ErrEmptySelection   = errors.New("select at least one seat before checking out")
	ErrCheckoutActive   = errors.New("a checkout session is already active")
	ErrNotConfirmable   = errors.New("checkout is not awaiting confirmation")
	ErrNotSubmitting    = errors.New("checkout is not submitting")
	ErrCancelSubmitting = errors.New("cannot cancel while the payment request is in flight")
)

// Checkout drives the lock -> confirm -> pay -> settle sequence for one
// payment attempt. It exclusively owns the countdown deadline; callers
// schedule one-second ticks tagged with Epoch and feed them back through
// Tick so ticks from a torn-down session are discarded.
type Checkout struct {
	phase      Phase
	scheduleID string
	seats      []string
	selection  *Selection
	deadline   time.Time
	epoch      int
	now        func() time.Time
}

// NewCheckout creates an idle session. A nil clock uses time.Now.
func NewCheckout(clock func() time.Time) *Checkout {
	if clock == nil {
		clock = time.Now
	}
	return &Checkout{now: clock}
}

func (c *Checkout) Phase() Phase { return c.phase }

// Active reports whether a session holds the seats locked.
func (c *Checkout) Active() bool { return c.phase != PhaseIdle }

func (c *Checkout) ScheduleID() string { return c.scheduleID }

// Seats returns the frozen seat list of the active session.
func (c *Checkout) Seats() []string { return append([]string(nil), c.seats...) }

// Epoch identifies the current countdown; it advances on every teardown.
func (c *Checkout) Epoch() int { return c.epoch }

// Remaining reports the time left before expiry, clamped at zero.
func (c *Checkout) Remaining() time.Duration {
	if c.phase == PhaseIdle {
		return 0
	}
	left := c.deadline.Sub(c.now())
	if left < 0 {
		return 0
	}
	return left
}

// Begin starts a session: it freezes the selection, snapshots the seat
// list in display order and arms the countdown. Widget readiness is a
// hard precondition checked at this moment, not a queued retry.
func (c *Checkout) Begin(scheduleID string, sel *Selection, widgetReady bool) error {
	if c.phase != PhaseIdle {
		return ErrCheckoutActive
	}
	if sel == nil || sel.Count() == 0 {
		return ErrEmptySelection
	}
	if !widgetReady {
		return ErrWidgetNotReady
	}
	c.phase = PhaseAwaitingConfirmation
	c.scheduleID = scheduleID
	c.selection = sel
	c.seats = sel.Sorted()
	c.deadline = c.now().Add(Lifetime)
	c.epoch++
	sel.freeze()
	return nil
}

// Tick advances the countdown. Ticks carrying a stale epoch are
// ignored. While the payment-intent request is in flight the countdown
// keeps running but cannot expire; like Cancel, expiry waits for the
// request to resolve.
func (c *Checkout) Tick(epoch int) TickStatus {
	if epoch != c.epoch {
		return TickIgnored
	}
	switch c.phase {
	case PhaseAwaitingConfirmation, PhasePaymentPending:
		if c.now().Before(c.deadline) {
			return TickRunning
		}
		c.teardown(true)
		return TickExpired
	case PhaseSubmitting:
		return TickRunning
	default:
		return TickIgnored
	}
}

// StartSubmit moves to Submitting on the explicit "pay now"
// confirmation. The countdown keeps running.
func (c *Checkout) StartSubmit() error {
	if c.phase != PhaseAwaitingConfirmation {
		return ErrNotConfirmable
	}
	c.phase = PhaseSubmitting
	return nil
}

// EnterPaymentPending records that the widget took over after a
// successful payment-intent request.
func (c *Checkout) EnterPaymentPending() error {
	if c.phase != PhaseSubmitting {
		return ErrNotSubmitting
	}
	c.phase = PhasePaymentPending
	return nil
}

// Cancel is the explicit user cancellation. It is refused while the
// payment-intent request is in flight; otherwise it clears the
// selection, stops the countdown and returns to Idle.
func (c *Checkout) Cancel() error {
	switch c.phase {
	case PhaseAwaitingConfirmation:
		c.teardown(true)
		return nil
	case PhaseSubmitting:
		return ErrCancelSubmitting
	default:
		return ErrNotConfirmable
	}
}

// Succeed resolves the session after the widget reported settlement and
// returns the frozen seat list for the commit step. The selection is
// cleared and the countdown stops.
func (c *Checkout) Succeed() []string {
	seats := c.seats
	c.teardown(true)
	return seats
}

// Fail resolves the session after an intent failure or a widget error.
// The selection stays selected but unfreezes so the user can retry
// without reselecting.
func (c *Checkout) Fail() {
	c.teardown(false)
}

// Dismiss resolves the session after the user closed the widget.
// Recovery is identical to Fail.
func (c *Checkout) Dismiss() {
	c.teardown(false)
}

func (c *Checkout) teardown(clearSelection bool) {
	if c.selection != nil {
		c.selection.unfreeze()
		if clearSelection {
			c.selection.Clear()
		}
	}
	c.phase = PhaseIdle
	c.scheduleID = ""
	c.seats = nil
	c.selection = nil
	c.deadline = time.Time{}
	c.epoch++
}
