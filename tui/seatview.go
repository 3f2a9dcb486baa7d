package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cinix-cli/booking"
)

// moveCursor shifts the seat cursor by one step, clamping to the grid.
// Rows can have different widths, so the column is clamped on every
// vertical move.
func (m *appModel) moveCursor(dRow, dCol int) {
	rows := m.seatMap.Rows
	if len(rows) == 0 {
		return
	}

	m.cursorRow += dRow
	if m.cursorRow < 0 {
		m.cursorRow = 0
	}
	if m.cursorRow >= len(rows) {
		m.cursorRow = len(rows) - 1
	}

	m.cursorCol += dCol
	if m.cursorCol < 0 {
		m.cursorCol = 0
	}
	if last := len(rows[m.cursorRow].Seats) - 1; m.cursorCol > last {
		m.cursorCol = last
	}
}

func (m appModel) cursorSeat() (booking.Seat, bool) {
	rows := m.seatMap.Rows
	if m.cursorRow < 0 || m.cursorRow >= len(rows) {
		return booking.Seat{}, false
	}
	seats := rows[m.cursorRow].Seats
	if m.cursorCol < 0 || m.cursorCol >= len(seats) {
		return booking.Seat{}, false
	}
	return seats[m.cursorCol], true
}

func (m appModel) renderSeatMap() string {
	rows := m.seatMap.Rows
	if len(rows) == 0 {
		return "No seat data."
	}

	cellWidth := 2
	for _, row := range rows {
		for _, seat := range row.Seats {
			if l := len(fmt.Sprintf("%d", seat.Number)); l > cellWidth {
				cellWidth = l
			}
		}
	}

	styleAvailable := lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleTaken := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	styleSelected := lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("2")).Bold(true)
	styleCursor := lipgloss.NewStyle().Reverse(true).Bold(true)

	maxCols := 0
	var b strings.Builder
	for r, row := range rows {
		b.WriteString(fmt.Sprintf("%2s ", row.Label))
		for c, seat := range row.Seats {
			text := padCell(fmt.Sprintf("%d", seat.Number), cellWidth)
			switch {
			case m.selection != nil && m.selection.Contains(seat.ID):
				text = styleSelected.Render(text)
			case !seat.Available:
				text = styleTaken.Render(text)
			default:
				text = styleAvailable.Render(text)
			}
			if r == m.cursorRow && c == m.cursorCol {
				text = styleCursor.Render(padCell(fmt.Sprintf("%d", seat.Number), cellWidth))
			}
			b.WriteString(text)
			if c < len(row.Seats)-1 {
				b.WriteString(" ")
			}
		}
		b.WriteString(fmt.Sprintf(" %2s\n", row.Label))
		if len(row.Seats) > maxCols {
			maxCols = len(row.Seats)
		}
	}

	gridWidth := maxCols*(cellWidth+1) - 1
	screenStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("0")).
		Background(lipgloss.Color("214"))
	bar := screenBar(gridWidth, "SCREEN")

	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", 3))
	b.WriteString(screenStyle.Render(bar))
	b.WriteString("\n\n")

	b.WriteString(m.selectionSummary())
	return b.String()
}

func (m appModel) selectionSummary() string {
	legend := hint("green available • grey taken • inverse cursor • highlighted selected")
	counts := hint(fmt.Sprintf("Available: %d / %d", m.seatMap.AvailableCount(), m.seatMap.TotalCount()))

	if m.selection == nil || m.selection.Count() == 0 {
		return legend + "\n" + counts + "\n" + hint(fmt.Sprintf("Pick up to %d seats.", booking.MaxSeats))
	}

	price := m.selection.Price()
	seats := strings.Join(m.selection.Sorted(), ", ")
	lines := []string{
		legend,
		counts,
		fmt.Sprintf("Selected: %s (%d/%d)", seats, m.selection.Count(), m.selection.Max()),
		fmt.Sprintf("Subtotal %s • Tax %s • Fee %s", formatRupiah(price.Subtotal), formatRupiah(price.Tax), formatRupiah(price.Fee)),
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Total %s", formatRupiah(price.Total))),
	}
	return strings.Join(lines, "\n")
}

func padCell(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if text == "" {
		return strings.Repeat(" ", width)
	}
	if len(text) >= width {
		return text[:width]
	}
	padding := width - len(text)
	left := padding / 2
	right := padding - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}

func screenBar(width int, label string) string {
	labelText := " " + label + " "
	if width < len(labelText)+2 {
		width = len(labelText) + 2
	}
	padding := width - len(labelText)
	left := padding / 2
	right := padding - left
	return strings.Repeat("─", left) + labelText + strings.Repeat("─", right)
}
