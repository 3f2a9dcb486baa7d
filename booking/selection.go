package booking

import (
	"math"
	"sort"
	"strconv"
)

// Pricing constants. The backend owns pricing truth; these mirror its
// published rates for the client-side breakdown.
const (
	TicketPrice = 50000
	ServiceFee  = 3000
	TaxRate     = 0.11
	MaxSeats    = 8
)

// PriceBreakdown is derived from the selection size on every change and
// never stored on its own. Amounts are whole rupiah.
type PriceBreakdown struct {
	Subtotal int64
	Tax      int64
	Fee      int64
	Total    int64
}

// Price computes the breakdown for a selection of count seats. The
// service fee only applies to non-empty selections; the tax line is
// rounded to whole rupiah.
func Price(count int) PriceBreakdown {
	subtotal := int64(count) * TicketPrice
	tax := int64(math.Round(float64(subtotal) * TaxRate))
	var fee int64
	if count > 0 {
		fee = ServiceFee
	}
	return PriceBreakdown{
		Subtotal: subtotal,
		Tax:      tax,
		Fee:      fee,
		Total:    subtotal + tax + fee,
	}
}

// ToggleResult explains what a Toggle call did.
type ToggleResult int

const (
	ToggleAdded ToggleResult = iota
	ToggleRemoved
	ToggleRejectedFull
	ToggleRejectedFrozen
)

// Selection is the ordered set of seat identifiers the user has picked
// for the current schedule. It freezes while a checkout session is
// active; toggles are no-ops until the session resolves.
type Selection struct {
	max    int
	seats  []string
	frozen bool
}

// NewSelection creates a selection capped at max seats. A non-positive
// max falls back to MaxSeats.
func NewSelection(max int) *Selection {
	if max <= 0 {
		max = MaxSeats
	}
	return &Selection{max: max}
}

// Toggle adds the seat if absent and below the cap, removes it if
// present. Frozen selections reject every toggle.
func (s *Selection) Toggle(id string) ToggleResult {
	if s.frozen {
		return ToggleRejectedFrozen
	}
	for i, existing := range s.seats {
		if existing == id {
			s.seats = append(s.seats[:i], s.seats[i+1:]...)
			return ToggleRemoved
		}
	}
	if len(s.seats) >= s.max {
		return ToggleRejectedFull
	}
	s.seats = append(s.seats, id)
	return ToggleAdded
}

func (s *Selection) Contains(id string) bool {
	for _, existing := range s.seats {
		if existing == id {
			return true
		}
	}
	return false
}

func (s *Selection) Count() int { return len(s.seats) }

func (s *Selection) Max() int { return s.max }

func (s *Selection) Frozen() bool { return s.frozen }

// Seats returns a copy in selection order.
func (s *Selection) Seats() []string {
	return append([]string(nil), s.seats...)
}

// Sorted returns a copy ordered by row letter and numeric index, the
// order used for display and for the persisted ticket.
func (s *Selection) Sorted() []string {
	sorted := s.Seats()
	sort.Slice(sorted, func(i, j int) bool {
		ri, ni := splitSeatID(sorted[i])
		rj, nj := splitSeatID(sorted[j])
		if ri != rj {
			return ri < rj
		}
		return ni < nj
	})
	return sorted
}

// Price returns the breakdown for the current selection size.
func (s *Selection) Price() PriceBreakdown { return Price(len(s.seats)) }

func (s *Selection) Clear() {
	s.seats = nil
	s.frozen = false
}

func (s *Selection) freeze()   { s.frozen = true }
func (s *Selection) unfreeze() { s.frozen = false }

func splitSeatID(id string) (string, int) {
	if len(id) < 2 {
		return id, 0
	}
	number, err := strconv.Atoi(id[1:])
	if err != nil {
		return id, 0
	}
	return id[:1], number
}
