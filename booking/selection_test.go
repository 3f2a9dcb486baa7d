package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice_BreakdownForEverySelectionSize(t *testing.T) {
	for count := 0; count <= MaxSeats; count++ {
		breakdown := Price(count)

		subtotal := int64(count) * TicketPrice
		assert.Equal(t, subtotal, breakdown.Subtotal, "count %d", count)
		assert.Equal(t, int64(float64(subtotal)*TaxRate+0.5), breakdown.Tax, "count %d", count)
		if count == 0 {
			assert.Zero(t, breakdown.Fee)
		} else {
			assert.Equal(t, int64(ServiceFee), breakdown.Fee)
		}
		assert.Equal(t, breakdown.Subtotal+breakdown.Tax+breakdown.Fee, breakdown.Total, "count %d", count)
	}
}

func TestPrice_EmptySelectionIsFree(t *testing.T) {
	assert.Equal(t, PriceBreakdown{}, Price(0))
}

func TestSelection_ToggleAddsAndRemoves(t *testing.T) {
	sel := NewSelection(MaxSeats)

	assert.Equal(t, ToggleAdded, sel.Toggle("C7"))
	assert.True(t, sel.Contains("C7"))
	assert.Equal(t, 1, sel.Count())

	assert.Equal(t, ToggleRemoved, sel.Toggle("C7"))
	assert.False(t, sel.Contains("C7"))
	assert.Zero(t, sel.Count())
}

func TestSelection_ToggleRejectedAtCap(t *testing.T) {
	sel := NewSelection(2)
	require.Equal(t, ToggleAdded, sel.Toggle("A1"))
	require.Equal(t, ToggleAdded, sel.Toggle("A2"))

	assert.Equal(t, ToggleRejectedFull, sel.Toggle("A3"))
	assert.Equal(t, []string{"A1", "A2"}, sel.Seats())

	// removal still works at the cap
	assert.Equal(t, ToggleRemoved, sel.Toggle("A1"))
	assert.Equal(t, ToggleAdded, sel.Toggle("A3"))
}

func TestSelection_FrozenTogglesAreNoOps(t *testing.T) {
	sel := NewSelection(MaxSeats)
	require.Equal(t, ToggleAdded, sel.Toggle("B4"))
	sel.freeze()

	assert.Equal(t, ToggleRejectedFrozen, sel.Toggle("B4"))
	assert.Equal(t, ToggleRejectedFrozen, sel.Toggle("B5"))
	assert.Equal(t, []string{"B4"}, sel.Seats())

	sel.unfreeze()
	assert.Equal(t, ToggleRemoved, sel.Toggle("B4"))
}

func TestSelection_SortedOrdersByRowThenNumber(t *testing.T) {
	sel := NewSelection(MaxSeats)
	for _, id := range []string{"B10", "A2", "B2", "A10"} {
		require.Equal(t, ToggleAdded, sel.Toggle(id))
	}

	assert.Equal(t, []string{"A2", "A10", "B2", "B10"}, sel.Sorted())
	// selection order is preserved separately
	assert.Equal(t, []string{"B10", "A2", "B2", "A10"}, sel.Seats())
}
