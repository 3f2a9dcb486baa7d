package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"cinix-cli/booking"
	"cinix-cli/model"
	"cinix-cli/payment"
	"cinix-cli/service"
	"cinix-cli/store"
)

func (m appModel) fetchMoviesCmd(force bool) tea.Cmd {
	return func() tea.Msg {
		if !force {
			if cached, fresh, err := store.LoadMovieCache(); err == nil && fresh && len(cached) > 0 {
				return moviesMsg{movies: cached}
			}
		}
		ctx := context.Background()
		movies, err := m.client.GetMovies(ctx)
		if err == nil && len(movies) > 0 {
			_ = store.SaveMovieCache(movies)
		}
		return moviesMsg{movies: movies, err: err}
	}
}

// refreshMovieCmd re-reads one movie so a detail view opened from a
// stored copy reflects admin edits. Failures keep the stored copy.
func (m appModel) refreshMovieCmd(movieID string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		movie, err := m.client.GetMovie(ctx, movieID)
		return movieDetailMsg{movie: movie, err: err}
	}
}

func (m appModel) searchMoviesCmd(query string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		movies, err := m.client.SearchMovies(ctx, query)
		return searchResultsMsg{query: query, movies: movies, err: err}
	}
}

func (m appModel) fetchSchedulesCmd(movieID string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		schedules, err := m.client.GetSchedules(ctx, movieID)
		if err != nil && service.IsNotFound(err) {
			return schedulesMsg{schedules: nil, err: nil}
		}
		return schedulesMsg{schedules: schedules, err: err}
	}
}

// fetchSeatMapCmd resolves the studio for the schedule, fetches its
// inventory and merges the local hold record on top.
func (m appModel) fetchSeatMapCmd(schedule model.Schedule) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		if schedule.StudioID == "" {
			resolved, err := m.client.GetSchedule(ctx, schedule.ID)
			if err != nil {
				return seatMapMsg{schedule: schedule, err: err}
			}
			if resolved.StudioID == "" {
				return seatMapMsg{schedule: schedule, err: booking.ErrSeatDataUnavailable}
			}
			if resolved.CinemaName == "" {
				resolved.CinemaName = schedule.CinemaName
			}
			schedule = resolved
		}

		raw, err := m.client.GetStudioSeats(ctx, schedule.StudioID)
		if err != nil {
			if service.IsNotFound(err) {
				return seatMapMsg{schedule: schedule, err: booking.ErrSeatDataUnavailable}
			}
			return seatMapMsg{schedule: schedule, err: err}
		}

		held, err := store.LoadHeldSeats(schedule.ID)
		if err != nil {
			held = nil
		}
		seatMap, err := booking.BuildSeatMap(raw, held)
		return seatMapMsg{schedule: schedule, seatMap: seatMap, err: err}
	}
}

func (m appModel) submitIntentCmd(epoch int, scheduleID string, seats []string, amount int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		intent, err := m.client.CreatePaymentIntent(ctx, scheduleID, seats, amount)
		return intentMsg{epoch: epoch, intent: intent, err: err}
	}
}

type paymentOutcome int

const (
	outcomeSuccess paymentOutcome = iota
	outcomePending
	outcomeError
	outcomeClosed
)

// payCmd hands the token to the payment widget and blocks until exactly
// one callback fires.
func (m appModel) payCmd(epoch int, token string) tea.Cmd {
	widget := m.widget
	return func() tea.Msg {
		out := paymentMsg{epoch: epoch, outcome: outcomeClosed}
		widget.Pay(token, payment.Callbacks{
			OnSuccess: func(result payment.Result) {
				out.outcome = outcomeSuccess
				out.result = result
			},
			OnPending: func(result payment.Result) {
				out.outcome = outcomePending
				out.result = result
			},
			OnError: func(err error) {
				out.outcome = outcomeError
				out.err = err
			},
			OnClose: func() {
				out.outcome = outcomeClosed
			},
		})
		return out
	}
}

// commitPurchaseCmd records the purchase locally after a settled
// payment. Commit errors are reported, never retried against the
// payment.
func commitPurchaseCmd(userKey string, ticket model.Ticket, scheduleID string, seats []string) tea.Cmd {
	return func() tea.Msg {
		commitErr := store.CommitPurchase(userKey, ticket, scheduleID, seats)
		tickets, loadErr := store.LoadTickets(userKey)
		if loadErr != nil {
			tickets = []model.Ticket{ticket}
		}
		return commitDoneMsg{ticket: ticket, tickets: tickets, err: commitErr}
	}
}

func newTicket(movie model.Movie, schedule model.Schedule, seats []string, total int64, transactionID string, now time.Time) model.Ticket {
	return model.Ticket{
		ID:            uuid.NewString(),
		MovieTitle:    movie.Title,
		MoviePoster:   movie.PosterURL,
		CinemaName:    schedule.CinemaName,
		Showtime:      schedule.ShowTime,
		WatchDate:     schedule.ShowDate,
		BookingDate:   now.Format(time.DateOnly),
		Seats:         append([]string(nil), seats...),
		Quantity:      len(seats),
		TotalAmount:   total,
		Status:        model.TicketStatusPaid,
		TransactionID: transactionID,
	}
}

func (m appModel) loginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		user, err := m.client.Login(ctx, email, password)
		if err != nil {
			return loginMsg{err: err}
		}
		_ = store.SaveUser(user)
		_ = store.MigrateLegacyData(user)
		return loginMsg{user: user}
	}
}

func (m appModel) logoutCmd() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		err := m.client.Logout(ctx)
		_ = store.ClearUser()
		return logoutMsg{err: err}
	}
}

func (m appModel) adminLoginCmd(email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		token, err := m.client.AdminLogin(ctx, email, password)
		if err != nil {
			return adminLoginMsg{err: err}
		}
		_ = store.SaveAdminToken(token)
		return adminLoginMsg{token: token}
	}
}

func (m appModel) saveMovieCmd(token string, movie model.Movie, editing bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		var (
			saved model.Movie
			err   error
		)
		if editing {
			saved, err = m.client.UpdateMovie(ctx, token, movie)
		} else {
			saved, err = m.client.CreateMovie(ctx, token, movie)
		}
		return adminSavedMsg{movie: saved, created: !editing, err: err}
	}
}

func (m appModel) deleteMovieCmd(token string, movieID string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		err := m.client.DeleteMovie(ctx, token, movieID)
		return adminDeletedMsg{movieID: movieID, err: err}
	}
}

func countdownTickCmd(epoch int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return countdownTickMsg{epoch: epoch}
	})
}

func openTrailerCmd(url string) tea.Cmd {
	if url == "" {
		return errCmd(errors.New("no trailer available for this movie"))
	}
	return func() tea.Msg {
		if err := openURL(url); err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}
