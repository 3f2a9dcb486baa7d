package booking

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"cinix-cli/model"
)

// ErrSeatDataUnavailable is returned when the backend delivers no usable
// seat inventory for a studio. The flow treats this as terminal: the user
// has to reload, there is no automatic retry.
var ErrSeatDataUnavailable = errors.New("no seat data available for this studio")

// Seat is one position in the assembled seat map. The identifier is the
// row letter plus the numeric index, e.g. "C7".
type Seat struct {
	ID        string
	Row       string
	Number    int
	Available bool
}

// Row groups the seats sharing a row letter, sorted by numeric index.
type Row struct {
	Label string
	Seats []Seat
}

// SeatMap is the merged view of server availability and local holds for
// one schedule. It is rebuilt from scratch on every load.
type SeatMap struct {
	Rows []Row
}

// BuildSeatMap groups the raw seat list into rows, sorts rows
// lexicographically and seats numerically, and forces any locally held
// seat to unavailable. Local holds win over a stale server "available".
func BuildSeatMap(raw []model.StudioSeat, held map[string]bool) (SeatMap, error) {
	if len(raw) == 0 {
		return SeatMap{}, ErrSeatDataUnavailable
	}

	byRow := map[string][]Seat{}
	for _, entry := range raw {
		label := strings.TrimSpace(entry.SeatNumber)
		if len(label) < 2 {
			continue
		}
		row := strings.ToUpper(label[:1])
		number, err := strconv.Atoi(label[1:])
		if err != nil {
			continue
		}
		id := row + strconv.Itoa(number)
		byRow[row] = append(byRow[row], Seat{
			ID:        id,
			Row:       row,
			Number:    number,
			Available: entry.IsAvailable && !held[id],
		})
	}
	if len(byRow) == 0 {
		return SeatMap{}, ErrSeatDataUnavailable
	}

	labels := make([]string, 0, len(byRow))
	for label := range byRow {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	rows := make([]Row, 0, len(labels))
	for _, label := range labels {
		seats := byRow[label]
		sort.Slice(seats, func(i, j int) bool { return seats[i].Number < seats[j].Number })
		rows = append(rows, Row{Label: label, Seats: seats})
	}
	return SeatMap{Rows: rows}, nil
}

// Seat looks up a seat by identifier.
func (m SeatMap) Seat(id string) (Seat, bool) {
	for _, row := range m.Rows {
		for _, seat := range row.Seats {
			if seat.ID == id {
				return seat, true
			}
		}
	}
	return Seat{}, false
}

// MarkTaken flips the given seats to unavailable in place. Used to
// reflect a successful purchase without refetching the inventory.
func (m *SeatMap) MarkTaken(ids []string) {
	taken := make(map[string]bool, len(ids))
	for _, id := range ids {
		taken[id] = true
	}
	for r := range m.Rows {
		for s := range m.Rows[r].Seats {
			if taken[m.Rows[r].Seats[s].ID] {
				m.Rows[r].Seats[s].Available = false
			}
		}
	}
}

// AvailableCount reports how many seats are still selectable.
func (m SeatMap) AvailableCount() int {
	count := 0
	for _, row := range m.Rows {
		for _, seat := range row.Seats {
			if seat.Available {
				count++
			}
		}
	}
	return count
}

// TotalCount reports the size of the inventory.
func (m SeatMap) TotalCount() int {
	count := 0
	for _, row := range m.Rows {
		count += len(row.Seats)
	}
	return count
}
