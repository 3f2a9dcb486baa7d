package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cinix-cli/model"
)

func TestBuildSeatMap_GroupsAndSorts(t *testing.T) {
	raw := []model.StudioSeat{
		{SeatNumber: "B2", IsAvailable: true},
		{SeatNumber: "A10", IsAvailable: true},
		{SeatNumber: "A2", IsAvailable: false},
		{SeatNumber: "B1", IsAvailable: true},
		{SeatNumber: "A1", IsAvailable: true},
	}

	seatMap, err := BuildSeatMap(raw, nil)
	require.NoError(t, err)
	require.Len(t, seatMap.Rows, 2)

	assert.Equal(t, "A", seatMap.Rows[0].Label)
	assert.Equal(t, "B", seatMap.Rows[1].Label)

	ids := func(row Row) []string {
		out := make([]string, 0, len(row.Seats))
		for _, seat := range row.Seats {
			out = append(out, seat.ID)
		}
		return out
	}
	assert.Equal(t, []string{"A1", "A2", "A10"}, ids(seatMap.Rows[0]))
	assert.Equal(t, []string{"B1", "B2"}, ids(seatMap.Rows[1]))

	seat, ok := seatMap.Seat("A2")
	require.True(t, ok)
	assert.False(t, seat.Available)
}

func TestBuildSeatMap_LocalHoldWinsOverServerAvailable(t *testing.T) {
	raw := []model.StudioSeat{
		{SeatNumber: "A1", IsAvailable: true},
		{SeatNumber: "A2", IsAvailable: false},
	}

	seatMap, err := BuildSeatMap(raw, map[string]bool{"A1": true})
	require.NoError(t, err)

	a1, ok := seatMap.Seat("A1")
	require.True(t, ok)
	assert.False(t, a1.Available, "held seat must be unavailable regardless of server state")

	a2, ok := seatMap.Seat("A2")
	require.True(t, ok)
	assert.False(t, a2.Available)
	assert.Zero(t, seatMap.AvailableCount())
}

func TestBuildSeatMap_EmptyOrInvalidInventory(t *testing.T) {
	_, err := BuildSeatMap(nil, nil)
	assert.ErrorIs(t, err, ErrSeatDataUnavailable)

	_, err = BuildSeatMap([]model.StudioSeat{{SeatNumber: "?"}, {SeatNumber: "Xx"}}, nil)
	assert.ErrorIs(t, err, ErrSeatDataUnavailable)
}

func TestBuildSeatMap_SkipsMalformedEntries(t *testing.T) {
	raw := []model.StudioSeat{
		{SeatNumber: "A1", IsAvailable: true},
		{SeatNumber: "", IsAvailable: true},
		{SeatNumber: "A", IsAvailable: true},
	}

	seatMap, err := BuildSeatMap(raw, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, seatMap.TotalCount())
}

func TestSeatMap_MarkTaken(t *testing.T) {
	raw := []model.StudioSeat{
		{SeatNumber: "A1", IsAvailable: true},
		{SeatNumber: "A2", IsAvailable: true},
		{SeatNumber: "B1", IsAvailable: true},
	}
	seatMap, err := BuildSeatMap(raw, nil)
	require.NoError(t, err)

	seatMap.MarkTaken([]string{"A1", "B1"})

	a1, _ := seatMap.Seat("A1")
	a2, _ := seatMap.Seat("A2")
	b1, _ := seatMap.Seat("B1")
	assert.False(t, a1.Available)
	assert.True(t, a2.Available)
	assert.False(t, b1.Available)
	assert.Equal(t, 1, seatMap.AvailableCount())
}
