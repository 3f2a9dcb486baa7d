package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	qrcode "github.com/skip2/go-qrcode"

	"cinix-cli/model"
)

func renderTicket(ticket model.Ticket, width int) string {
	label := lipgloss.NewStyle().Faint(true)
	value := lipgloss.NewStyle().Bold(true)

	row := func(name, val string) string {
		return fmt.Sprintf("%s %s", label.Render(fmt.Sprintf("%-12s", name)), value.Render(val))
	}

	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")).Render(ticket.MovieTitle),
		"",
		row("Cinema", ticket.CinemaName),
		row("Date", ticket.WatchDate),
		row("Time", ticket.Showtime),
		row("Seats", strings.Join(ticket.Seats, ", ")),
		row("Total", formatRupiah(ticket.TotalAmount)),
		row("Status", ticket.Status),
		row("Booked", ticket.BookingDate),
	}
	if ticket.TransactionID != "" {
		lines = append(lines, row("Reference", ticket.TransactionID))
	}

	if qr := ticketQR(ticket); qr != "" {
		lines = append(lines, "", qr, hint("Show this code at the entrance."))
	}

	card := lipgloss.NewStyle().
		Padding(1, 3).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("5")).
		Render(strings.Join(lines, "\n"))
	if width > 0 {
		card = lipgloss.PlaceHorizontal(width, lipgloss.Center, card)
	}
	return card
}

// ticketQR encodes the ticket reference as a terminal QR code. An empty
// string is returned when encoding fails; the ticket card still renders.
func ticketQR(ticket model.Ticket) string {
	payload := fmt.Sprintf("CINIX:%s:%s", ticket.ID, strings.Join(ticket.Seats, "+"))
	code, err := qrcode.New(payload, qrcode.Low)
	if err != nil {
		return ""
	}
	return strings.TrimRight(code.ToSmallString(false), "\n")
}
