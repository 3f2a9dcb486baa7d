package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"cinix-cli/model"
	"cinix-cli/store"
)

type movieListItem struct {
	movie    model.Movie
	wishlist bool
}

func (m movieListItem) Title() string {
	if m.wishlist {
		return fmt.Sprintf("%s ♥", m.movie.Title)
	}
	return m.movie.Title
}

func (m movieListItem) Description() string {
	parts := []string{}
	if m.movie.Genre != "" {
		parts = append(parts, m.movie.Genre)
	}
	if m.movie.Duration > 0 {
		parts = append(parts, formatDuration(m.movie.Duration))
	}
	if m.movie.AgeRating != "" {
		parts = append(parts, m.movie.AgeRating)
	}
	if m.movie.Rating > 0 {
		parts = append(parts, fmt.Sprintf("★ %.1f", m.movie.Rating))
	}
	return strings.Join(parts, " • ")
}

func (m movieListItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{m.movie.Title, m.movie.Genre}, " "))
}

func buildMovieItems(movies []model.Movie, userKey string) []list.Item {
	wishlisted := map[string]bool{}
	if saved, err := store.LoadWishlist(userKey); err == nil {
		for _, movie := range saved {
			wishlisted[movie.ID] = true
		}
	}

	sorted := append([]model.Movie{}, movies...)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Title) < strings.ToLower(sorted[j].Title)
	})

	items := make([]list.Item, 0, len(sorted))
	for _, movie := range sorted {
		items = append(items, movieListItem{movie: movie, wishlist: wishlisted[movie.ID]})
	}
	return items
}

type scheduleItem struct {
	schedule model.Schedule
}

func (s scheduleItem) Title() string {
	return fmt.Sprintf("%s • %s", s.schedule.ShowDate, s.schedule.ShowTime)
}

func (s scheduleItem) Description() string {
	return s.schedule.CinemaName
}

func (s scheduleItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{s.schedule.ShowDate, s.schedule.ShowTime, s.schedule.CinemaName}, " "))
}

func buildScheduleItems(schedules []model.Schedule) []list.Item {
	sorted := append([]model.Schedule{}, schedules...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ShowDate != sorted[j].ShowDate {
			return sorted[i].ShowDate < sorted[j].ShowDate
		}
		return sorted[i].ShowTime < sorted[j].ShowTime
	})

	items := make([]list.Item, 0, len(sorted))
	for _, schedule := range sorted {
		items = append(items, scheduleItem{schedule: schedule})
	}
	return items
}

type ticketItem struct {
	ticket model.Ticket
}

func (t ticketItem) Title() string {
	return fmt.Sprintf("%s • %s", t.ticket.MovieTitle, t.ticket.Showtime)
}

func (t ticketItem) Description() string {
	parts := []string{}
	if t.ticket.WatchDate != "" {
		parts = append(parts, t.ticket.WatchDate)
	}
	if len(t.ticket.Seats) > 0 {
		parts = append(parts, strings.Join(t.ticket.Seats, ", "))
	}
	parts = append(parts, formatRupiah(t.ticket.TotalAmount))
	if t.ticket.Status != "" {
		parts = append(parts, t.ticket.Status)
	}
	return strings.Join(parts, " • ")
}

func (t ticketItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{t.ticket.MovieTitle, t.ticket.CinemaName, t.ticket.WatchDate}, " "))
}

func buildTicketItems(tickets []model.Ticket) []list.Item {
	items := make([]list.Item, 0, len(tickets))
	for _, ticket := range tickets {
		items = append(items, ticketItem{ticket: ticket})
	}
	return items
}

type wishlistItem struct {
	movie model.Movie
}

func (w wishlistItem) Title() string {
	return w.movie.Title
}

func (w wishlistItem) Description() string {
	parts := []string{}
	if w.movie.Genre != "" {
		parts = append(parts, w.movie.Genre)
	}
	if w.movie.Duration > 0 {
		parts = append(parts, formatDuration(w.movie.Duration))
	}
	return strings.Join(parts, " • ")
}

func (w wishlistItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{w.movie.Title, w.movie.Genre}, " "))
}

func buildWishlistItems(movies []model.Movie) []list.Item {
	items := make([]list.Item, 0, len(movies))
	for _, movie := range movies {
		items = append(items, wishlistItem{movie: movie})
	}
	return items
}

type adminMovieItem struct {
	movie model.Movie
}

func (a adminMovieItem) Title() string {
	return a.movie.Title
}

func (a adminMovieItem) Description() string {
	parts := []string{"id " + a.movie.ID}
	if a.movie.Genre != "" {
		parts = append(parts, a.movie.Genre)
	}
	if a.movie.Duration > 0 {
		parts = append(parts, formatDuration(a.movie.Duration))
	}
	return strings.Join(parts, " • ")
}

func (a adminMovieItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{a.movie.Title, a.movie.Genre, a.movie.ID}, " "))
}

func buildAdminMovieItems(movies []model.Movie) []list.Item {
	sorted := append([]model.Movie{}, movies...)
	sort.Slice(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Title) < strings.ToLower(sorted[j].Title)
	})

	items := make([]list.Item, 0, len(sorted))
	for _, movie := range sorted {
		items = append(items, adminMovieItem{movie: movie})
	}
	return items
}

func formatDuration(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}

// formatRupiah renders an amount like 114100 as "Rp 114.100".
func formatRupiah(amount int64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteRune('.')
		}
		b.WriteRune(r)
	}
	if negative {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}
