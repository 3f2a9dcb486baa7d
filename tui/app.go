package tui

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cinix-cli/booking"
	"cinix-cli/model"
	"cinix-cli/payment"
	"cinix-cli/service"
	"cinix-cli/store"
)

type appState int

const (
	stateLoadingMovies appState = iota
	stateBrowseMovies
	stateSearchInput
	stateMovieDetail
	stateLoadingSchedules
	stateSelectSchedule
	stateLoadingSeats
	stateSeatMap
	stateCheckoutConfirm
	stateSubmitting
	statePaymentPending
	stateTickets
	stateTicketDetail
	stateWishlist
	stateLogin
	stateAdminLogin
	stateAdminMovies
	stateAdminForm
	stateError
)

type appModel struct {
	client *service.Client
	widget payment.Widget

	state     appState
	lastState appState
	err       error

	width  int
	height int

	user       model.User
	userKey    string
	adminToken string

	movies      []model.Movie
	searchQuery string
	detailMovie model.Movie
	schedule    model.Schedule

	movieList    list.Model
	scheduleList list.Model
	ticketList   list.Model
	wishList     list.Model
	adminList    list.Model

	searchInput textinput.Model
	loginForm   credentialsForm
	adminForm   movieForm

	seatMap   booking.SeatMap
	selection *booking.Selection
	checkout  *booking.Checkout
	cursorRow int
	cursorCol int

	selectedTicket model.Ticket
	confirmClear   bool

	// notice is a one-line status shown in the header until the next
	// state change.
	notice string

	spinner spinner.Model
}

type errMsg struct {
	err            error
	returnState    appState
	returnStateSet bool
}

type moviesMsg struct {
	movies []model.Movie
	err    error
}

type searchResultsMsg struct {
	query  string
	movies []model.Movie
	err    error
}

type movieDetailMsg struct {
	movie model.Movie
	err   error
}

type schedulesMsg struct {
	schedules []model.Schedule
	err       error
}

type seatMapMsg struct {
	schedule model.Schedule
	seatMap  booking.SeatMap
	err      error
}

type countdownTickMsg struct {
	epoch int
}

type intentMsg struct {
	epoch  int
	intent model.PaymentIntent
	err    error
}

type paymentMsg struct {
	epoch   int
	outcome paymentOutcome
	result  payment.Result
	err     error
}

type commitDoneMsg struct {
	ticket  model.Ticket
	tickets []model.Ticket
	err     error
}

type loginMsg struct {
	user model.User
	err  error
}

type logoutMsg struct {
	err error
}

type adminLoginMsg struct {
	token string
	err   error
}

type adminSavedMsg struct {
	movie   model.Movie
	created bool
	err     error
}

type adminDeletedMsg struct {
	movieID string
	err     error
}

func New() tea.Model {
	client := service.NewClient(nil)
	if base := os.Getenv("CINIX_API_URL"); base != "" {
		client.SetBaseURL(base)
	}

	m := appModel{
		client:    client,
		widget:    payment.NewSnap(nil, os.Getenv("CINIX_SNAP_URL")),
		state:     stateLoadingMovies,
		selection: booking.NewSelection(booking.MaxSeats),
		checkout:  booking.NewCheckout(nil),
		userKey:   store.GuestKey,
	}

	m.movieList = newList("Now Showing")
	m.scheduleList = newList("Showtimes")
	m.ticketList = newList("My Tickets")
	m.wishList = newList("Wishlist")
	m.adminList = newList("Manage Movies")

	m.searchInput = textinput.New()
	m.searchInput.Placeholder = "search title (min 2 characters)"
	m.searchInput.CharLimit = 80

	m.loginForm = newCredentialsForm("Sign In")
	m.adminForm = newMovieForm()

	if user, ok, err := store.LoadUser(); err == nil && ok {
		m.user = user
		m.userKey = store.ResolveUserKey(user)
	}
	if token, err := store.LoadAdminToken(); err == nil {
		m.adminToken = token
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.fetchMoviesCmd(false), m.spinner.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.state == stateSearchInput || m.state == stateLogin || m.state == stateAdminLogin || m.state == stateAdminForm {
			return m.handleFormKey(msg)
		}
		if m.handleFilterInput(msg) {
			return m, nil
		}
		next, cmd, handled := m.handleKey(msg)
		if handled {
			return next, cmd
		}
		m = next

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		if msg.returnStateSet {
			m.lastState = msg.returnState
		} else {
			m.lastState = recoverStateFrom(m.state)
		}
		m.state = stateError
		return m, nil

	case moviesMsg:
		if msg.err != nil {
			return m, errCmd(msg.err)
		}
		m.movies = msg.movies
		m.searchQuery = ""
		m.movieList.Title = "Now Showing"
		m.movieList.SetItems(buildMovieItems(msg.movies, m.userKey))
		m.state = stateBrowseMovies
		return m, nil

	case searchResultsMsg:
		if msg.err != nil {
			return m, errWithOptionsCmd(msg.err, stateBrowseMovies, true)
		}
		if len(msg.movies) == 0 {
			return m, errWithOptionsCmd(fmt.Errorf("no movies match %q", msg.query), stateBrowseMovies, true)
		}
		m.searchQuery = msg.query
		m.movieList.Title = fmt.Sprintf("Results • %s", msg.query)
		m.movieList.SetItems(buildMovieItems(msg.movies, m.userKey))
		m.movieList.Select(0)
		m.state = stateBrowseMovies
		return m, nil

	case movieDetailMsg:
		if msg.err != nil || msg.movie.ID != m.detailMovie.ID {
			return m, nil
		}
		m.detailMovie = msg.movie
		return m, nil

	case schedulesMsg:
		if msg.err != nil {
			return m, errWithOptionsCmd(msg.err, stateMovieDetail, true)
		}
		if len(msg.schedules) == 0 {
			return m, errWithOptionsCmd(errors.New("no showtimes available for this movie"), stateMovieDetail, true)
		}
		m.scheduleList.Title = fmt.Sprintf("Showtimes • %s", m.detailMovie.Title)
		m.scheduleList.SetItems(buildScheduleItems(msg.schedules))
		m.scheduleList.Select(0)
		m.state = stateSelectSchedule
		return m, nil

	case seatMapMsg:
		if msg.err != nil {
			return m, errWithOptionsCmd(msg.err, stateSelectSchedule, true)
		}
		m.schedule = msg.schedule
		m.seatMap = msg.seatMap
		m.selection = booking.NewSelection(booking.MaxSeats)
		m.cursorRow = 0
		m.cursorCol = 0
		m.notice = ""
		m.state = stateSeatMap
		return m, nil

	case countdownTickMsg:
		switch m.checkout.Tick(msg.epoch) {
		case booking.TickRunning:
			return m, countdownTickCmd(msg.epoch)
		case booking.TickExpired:
			m.notice = "Checkout expired. Your seats were released."
			m.state = stateSeatMap
			return m, nil
		}
		return m, nil

	case intentMsg:
		if msg.epoch != m.checkout.Epoch() || m.checkout.Phase() != booking.PhaseSubmitting {
			return m, nil
		}
		if msg.err != nil {
			m.checkout.Fail()
			m.notice = "Could not start payment: " + msg.err.Error()
			m.state = stateSeatMap
			return m, nil
		}
		if err := m.checkout.EnterPaymentPending(); err != nil {
			return m, errCmd(err)
		}
		m.state = statePaymentPending
		return m, tea.Batch(m.payCmd(msg.epoch, msg.intent.Token), m.spinner.Tick)

	case paymentMsg:
		return m.handlePaymentMsg(msg)

	case commitDoneMsg:
		m.selectedTicket = msg.ticket
		m.ticketList.SetItems(buildTicketItems(msg.tickets))
		m.ticketList.Select(0)
		if msg.err != nil {
			m.notice = "Payment settled, but saving the ticket locally failed: " + msg.err.Error()
		} else {
			m.notice = "Payment settled. Enjoy the movie!"
		}
		m.state = stateTicketDetail
		return m, nil

	case loginMsg:
		if msg.err != nil {
			if service.IsUnauthorized(msg.err) {
				m.loginForm.note = "Invalid email or password."
				m.state = stateLogin
				return m, nil
			}
			return m, errWithOptionsCmd(msg.err, stateLogin, true)
		}
		m.user = msg.user
		m.userKey = store.ResolveUserKey(msg.user)
		m.loginForm.Reset()
		m.notice = "Signed in as " + displayName(m.user)
		m.movieList.SetItems(buildMovieItems(m.movies, m.userKey))
		m.state = stateBrowseMovies
		return m, nil

	case logoutMsg:
		m.user = model.User{}
		m.userKey = store.GuestKey
		m.notice = "Signed out."
		if msg.err != nil {
			m.notice = "Signed out locally; the server session may still be active."
		}
		m.movieList.SetItems(buildMovieItems(m.movies, m.userKey))
		m.state = stateBrowseMovies
		return m, nil

	case adminLoginMsg:
		if msg.err != nil {
			if service.IsUnauthorized(msg.err) {
				m.loginForm.note = "Invalid admin credentials."
				m.state = stateAdminLogin
				return m, nil
			}
			return m, errWithOptionsCmd(msg.err, stateAdminLogin, true)
		}
		m.adminToken = msg.token
		m.loginForm.Reset()
		m.adminList.SetItems(buildAdminMovieItems(m.movies))
		m.state = stateAdminMovies
		return m, nil

	case adminSavedMsg:
		if msg.err != nil {
			if service.IsUnauthorized(msg.err) {
				return m.expireAdminSession()
			}
			return m, errWithOptionsCmd(msg.err, stateAdminForm, true)
		}
		if msg.created {
			m.notice = fmt.Sprintf("Created %q.", msg.movie.Title)
		} else {
			m.notice = fmt.Sprintf("Updated %q.", msg.movie.Title)
		}
		m.state = stateLoadingMovies
		return m, tea.Batch(m.refreshAdminCatalogCmd(), m.spinner.Tick)

	case adminDeletedMsg:
		if msg.err != nil {
			if service.IsUnauthorized(msg.err) {
				return m.expireAdminSession()
			}
			return m, errWithOptionsCmd(msg.err, stateAdminMovies, true)
		}
		m.notice = "Movie deleted."
		m.state = stateLoadingMovies
		return m, tea.Batch(m.refreshAdminCatalogCmd(), m.spinner.Tick)

	case adminCatalogMsg:
		m.movies = msg.movies
		m.movieList.SetItems(buildMovieItems(msg.movies, m.userKey))
		m.adminList.SetItems(buildAdminMovieItems(msg.movies))
		m.state = stateAdminMovies
		return m, nil
	}

	var cmd tea.Cmd
	switch m.state {
	case stateBrowseMovies:
		m.movieList, cmd = m.movieList.Update(msg)
	case stateSelectSchedule:
		m.scheduleList, cmd = m.scheduleList.Update(msg)
	case stateTickets:
		m.ticketList, cmd = m.ticketList.Update(msg)
	case stateWishlist:
		m.wishList, cmd = m.wishList.Update(msg)
	case stateAdminMovies:
		m.adminList, cmd = m.adminList.Update(msg)
	}
	return m, cmd
}

func (m appModel) handlePaymentMsg(msg paymentMsg) (tea.Model, tea.Cmd) {
	if msg.epoch != m.checkout.Epoch() || m.checkout.Phase() != booking.PhasePaymentPending {
		// Countdown expiry or cancellation already tore the attempt
		// down; a late widget result must not resurrect it.
		return m, nil
	}

	switch msg.outcome {
	case outcomeSuccess:
		seats := m.checkout.Succeed()
		scheduleID := m.schedule.ID
		m.seatMap.MarkTaken(seats)
		total := booking.Price(len(seats)).Total
		ticket := newTicket(m.detailMovie, m.schedule, seats, total, msg.result.SettlementID(), time.Now())
		return m, commitPurchaseCmd(m.userKey, ticket, scheduleID, seats)

	case outcomePending:
		m.checkout.Dismiss()
		m.notice = "Payment is still pending. Finish it in the browser; your seats are not reserved until it settles."
		m.state = stateSeatMap
		return m, nil

	case outcomeError:
		m.checkout.Fail()
		reason := "payment was declined"
		if msg.err != nil {
			reason = msg.err.Error()
		}
		m.notice = "Payment failed: " + reason + ". Your selection is kept, try again."
		m.state = stateSeatMap
		return m, nil

	default:
		m.checkout.Dismiss()
		m.notice = "Payment window closed. Your selection is kept."
		m.state = stateSeatMap
		return m, nil
	}
}

func (m appModel) View() string {
	header := m.headerView()
	switch m.state {
	case stateLoadingMovies, stateLoadingSchedules, stateLoadingSeats:
		return header + "\n\n" + m.loadingView()
	case stateBrowseMovies:
		return header + "\n\n" + m.movieList.View()
	case stateSearchInput:
		return header + "\n\n" + m.searchView()
	case stateMovieDetail:
		return header + "\n\n" + m.movieDetailView()
	case stateSelectSchedule:
		return header + "\n\n" + m.scheduleList.View()
	case stateSeatMap:
		return header + "\n\n" + m.renderSeatMap()
	case stateCheckoutConfirm:
		return header + "\n\n" + m.checkoutView()
	case stateSubmitting:
		return header + "\n\n" + fmt.Sprintf("%s Contacting payment provider...", m.spinner.View()) + "\n\n" + m.countdownLine()
	case statePaymentPending:
		return header + "\n\n" + fmt.Sprintf("%s Waiting for payment...", m.spinner.View()) + "\n\n" + m.countdownLine() + "\n" + hint("Complete the payment in your browser.")
	case stateTickets:
		return header + "\n\n" + m.ticketList.View()
	case stateTicketDetail:
		return header + "\n\n" + renderTicket(m.selectedTicket, m.width)
	case stateWishlist:
		return header + "\n\n" + m.wishList.View()
	case stateLogin, stateAdminLogin:
		return header + "\n\n" + m.loginForm.View()
	case stateAdminMovies:
		return header + "\n\n" + m.adminList.View()
	case stateAdminForm:
		return header + "\n\n" + m.adminForm.View()
	case stateError:
		return header + "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(m.err.Error()) + "\n\n" + hint("Press esc to go back or ctrl+c to quit.")
	default:
		return header
	}
}

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("Cinix")
	sub := []string{}
	if m.user.Present() {
		sub = append(sub, "User: "+displayName(m.user))
	}
	if m.detailMovie.Title != "" && m.state != stateBrowseMovies && m.state != stateTickets && m.state != stateWishlist {
		sub = append(sub, "Movie: "+m.detailMovie.Title)
	}
	if m.schedule.ID != "" && (m.state == stateSeatMap || m.state == stateCheckoutConfirm || m.state == stateSubmitting || m.state == statePaymentPending) {
		sub = append(sub, fmt.Sprintf("Show: %s %s", m.schedule.ShowDate, m.schedule.ShowTime))
	}
	if m.state == stateAdminMovies || m.state == stateAdminForm {
		sub = append(sub, "Mode: admin")
	}
	meta := strings.Join(sub, " • ")
	if meta != "" {
		meta = "\n" + lipgloss.NewStyle().Faint(true).Render(meta)
	}

	hints := "ctrl+c quit • esc back • type to filter"
	switch m.state {
	case stateBrowseMovies:
		hints = "ctrl+c quit • enter detail • / search • t tickets • w wishlist • ctrl+l sign in/out • ctrl+a admin • r refresh"
	case stateMovieDetail:
		hints = "ctrl+c quit • esc back • enter showtimes • w wishlist • o trailer"
	case stateSelectSchedule:
		hints = "ctrl+c quit • esc back • type to filter • enter pick seats"
	case stateSeatMap:
		hints = "ctrl+c quit • esc back • arrows move • space toggle seat • c checkout"
	case stateCheckoutConfirm:
		hints = "enter pay • esc cancel"
	case stateSubmitting, statePaymentPending:
		hints = "waiting... the countdown still applies"
	case stateTickets:
		hints = "ctrl+c quit • esc back • enter ticket • ctrl+x clear history"
	case stateTicketDetail:
		hints = "esc back"
	case stateWishlist:
		hints = "ctrl+c quit • esc back • enter detail • x remove"
	case stateAdminMovies:
		hints = "ctrl+c quit • esc leave admin • n new • enter edit • ctrl+d delete"
	}

	noticeLine := ""
	if m.notice != "" {
		noticeLine = "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Render(m.notice)
	}
	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filter: %s", filter))
		}
	}
	return title + meta + noticeLine + filterLine + "\n" + hint(hints)
}

func (m appModel) searchView() string {
	return lipgloss.NewStyle().Bold(true).Render("Search Movies") + "\n\n" +
		m.searchInput.View() + "\n\n" +
		hint("enter search • esc back")
}

func (m appModel) movieDetailView() string {
	movie := m.detailMovie
	label := lipgloss.NewStyle().Faint(true)
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")).Render(movie.Title),
		"",
	}
	if movie.Genre != "" {
		lines = append(lines, label.Render("Genre     ")+movie.Genre)
	}
	if movie.Duration > 0 {
		lines = append(lines, label.Render("Duration  ")+formatDuration(movie.Duration))
	}
	if movie.AgeRating != "" {
		lines = append(lines, label.Render("Age       ")+movie.AgeRating)
	}
	if movie.Rating > 0 {
		lines = append(lines, label.Render("Rating    ")+fmt.Sprintf("★ %.1f", movie.Rating))
	}
	lines = append(lines, label.Render("Price     ")+formatRupiah(booking.TicketPrice)+" per seat")
	if store.InWishlist(m.userKey, movie.ID) {
		lines = append(lines, label.Render("Wishlist  ")+"saved ♥")
	}
	if movie.Description != "" {
		lines = append(lines, "", wrapText(movie.Description, contentWidth(m.width)))
	}
	return strings.Join(lines, "\n")
}

func (m appModel) checkoutView() string {
	price := booking.Price(len(m.checkout.Seats()))
	seats := strings.Join(m.checkout.Seats(), ", ")

	lines := []string{
		lipgloss.NewStyle().Bold(true).Render("Confirm Your Order"),
		"",
		fmt.Sprintf("%s • %s %s", m.detailMovie.Title, m.schedule.ShowDate, m.schedule.ShowTime),
		fmt.Sprintf("Seats: %s", seats),
		"",
		fmt.Sprintf("Subtotal  %s", formatRupiah(price.Subtotal)),
		fmt.Sprintf("Tax       %s", formatRupiah(price.Tax)),
		fmt.Sprintf("Fee       %s", formatRupiah(price.Fee)),
		lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Total     %s", formatRupiah(price.Total))),
		"",
		m.countdownLine(),
	}

	card := lipgloss.NewStyle().
		Padding(1, 3).
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("63")).
		Render(strings.Join(lines, "\n"))
	if m.width > 0 {
		card = lipgloss.PlaceHorizontal(m.width, lipgloss.Center, card)
	}
	return card
}

func (m appModel) countdownLine() string {
	if !m.checkout.Active() {
		return ""
	}
	remaining := m.checkout.Remaining()
	if remaining <= 0 {
		return hint("expiring...")
	}
	minutes := int(remaining.Minutes())
	seconds := int(remaining.Seconds()) % 60
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	if remaining < time.Minute {
		style = style.Foreground(lipgloss.Color("1"))
	}
	return style.Render(fmt.Sprintf("Time left %02d:%02d", minutes, seconds))
}

func (m appModel) handleKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit, true
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		return m.goBack()
	}

	switch m.state {
	case stateBrowseMovies:
		return m.handleBrowseKey(msg)
	case stateMovieDetail:
		return m.handleDetailKey(msg)
	case stateSelectSchedule:
		if msg.Type == tea.KeyEnter {
			item, ok := m.scheduleList.SelectedItem().(scheduleItem)
			if !ok {
				return m, nil, true
			}
			m.state = stateLoadingSeats
			return m, tea.Batch(m.fetchSeatMapCmd(item.schedule), m.spinner.Tick), true
		}
	case stateSeatMap:
		return m.handleSeatMapKey(msg)
	case stateCheckoutConfirm:
		return m.handleCheckoutKey(msg)
	case stateTickets:
		return m.handleTicketsKey(msg)
	case stateWishlist:
		return m.handleWishlistKey(msg)
	case stateAdminMovies:
		return m.handleAdminKey(msg)
	case stateError:
		if msg.Type == tea.KeyEnter {
			m.state = m.lastState
			return m, nil, true
		}
	}
	return m, nil, false
}

func (m appModel) handleBrowseKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "/":
		m.searchInput.SetValue("")
		m.searchInput.Focus()
		m.state = stateSearchInput
		return m, textinput.Blink, true
	case "t":
		return m.openTickets()
	case "w":
		return m.openWishlist()
	case "r":
		m.state = stateLoadingMovies
		return m, tea.Batch(m.fetchMoviesCmd(true), m.spinner.Tick), true
	case "ctrl+l":
		if m.user.Present() {
			return m, m.logoutCmd(), true
		}
		m.loginForm = newCredentialsForm("Sign In")
		m.state = stateLogin
		return m, textinput.Blink, true
	case "ctrl+a":
		if m.adminToken != "" && !service.TokenExpired(m.adminToken, time.Now()) {
			m.adminList.SetItems(buildAdminMovieItems(m.movies))
			m.state = stateAdminMovies
			return m, nil, true
		}
		m.loginForm = newCredentialsForm("Admin Sign In")
		m.state = stateAdminLogin
		return m, textinput.Blink, true
	}

	if msg.Type == tea.KeyEnter {
		item, ok := m.movieList.SelectedItem().(movieListItem)
		if !ok {
			return m, nil, true
		}
		m.detailMovie = item.movie
		m.notice = ""
		m.state = stateMovieDetail
		return m, nil, true
	}
	return m, nil, false
}

func (m appModel) handleDetailKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "w":
		if store.InWishlist(m.userKey, m.detailMovie.ID) {
			if err := store.RemoveFromWishlist(m.userKey, m.detailMovie.ID); err != nil {
				return m, errCmd(err), true
			}
			m.notice = "Removed from wishlist."
		} else {
			if err := store.AddToWishlist(m.userKey, m.detailMovie); err != nil {
				return m, errCmd(err), true
			}
			m.notice = "Added to wishlist."
		}
		m.movieList.SetItems(buildMovieItems(m.movies, m.userKey))
		return m, nil, true
	case "o":
		return m, openTrailerCmd(m.detailMovie.TrailerURL), true
	}
	if msg.Type == tea.KeyEnter {
		m.state = stateLoadingSchedules
		return m, tea.Batch(m.fetchSchedulesCmd(m.detailMovie.ID), m.spinner.Tick), true
	}
	return m, nil, false
}

func (m appModel) handleSeatMapKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "up", "k":
		m.moveCursor(-1, 0)
		return m, nil, true
	case "down", "j":
		m.moveCursor(1, 0)
		return m, nil, true
	case "left", "h":
		m.moveCursor(0, -1)
		return m, nil, true
	case "right", "l":
		m.moveCursor(0, 1)
		return m, nil, true
	case " ", "x", "enter":
		seat, ok := m.cursorSeat()
		if !ok {
			return m, nil, true
		}
		if !seat.Available {
			m.notice = fmt.Sprintf("Seat %s is taken.", seat.ID)
			return m, nil, true
		}
		switch m.selection.Toggle(seat.ID) {
		case booking.ToggleRejectedFull:
			m.notice = fmt.Sprintf("You can pick at most %d seats.", m.selection.Max())
		case booking.ToggleRejectedFrozen:
			// checkout in flight; the grid is read-only
		default:
			m.notice = ""
		}
		return m, nil, true
	case "c":
		return m.beginCheckout()
	}
	return m, nil, false
}

func (m appModel) beginCheckout() (appModel, tea.Cmd, bool) {
	err := m.checkout.Begin(m.schedule.ID, m.selection, m.widget.Ready())
	switch {
	case errors.Is(err, booking.ErrEmptySelection):
		m.notice = "Pick at least one seat first."
		return m, nil, true
	case errors.Is(err, booking.ErrWidgetNotReady):
		m.notice = "The payment module is still loading. Try again in a moment."
		return m, nil, true
	case err != nil:
		return m, errCmd(err), true
	}
	m.notice = ""
	m.state = stateCheckoutConfirm
	return m, countdownTickCmd(m.checkout.Epoch()), true
}

func (m appModel) handleCheckoutKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	if msg.Type == tea.KeyEnter {
		if err := m.checkout.StartSubmit(); err != nil {
			return m, errCmd(err), true
		}
		seats := m.checkout.Seats()
		total := booking.Price(len(seats)).Total
		m.state = stateSubmitting
		return m, tea.Batch(m.submitIntentCmd(m.checkout.Epoch(), m.schedule.ID, seats, total), m.spinner.Tick), true
	}
	return m, nil, false
}

func (m appModel) handleTicketsKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	if msg.String() == "ctrl+x" {
		if !m.confirmClear {
			m.confirmClear = true
			m.notice = "Press ctrl+x again to delete your whole ticket history."
			return m, nil, true
		}
		m.confirmClear = false
		if err := store.ClearTickets(m.userKey); err != nil {
			return m, errCmd(err), true
		}
		m.ticketList.SetItems([]list.Item{})
		m.notice = "Ticket history cleared."
		return m, nil, true
	}
	m.confirmClear = false
	if msg.Type == tea.KeyEnter {
		item, ok := m.ticketList.SelectedItem().(ticketItem)
		if !ok {
			return m, nil, true
		}
		m.selectedTicket = item.ticket
		m.state = stateTicketDetail
		return m, nil, true
	}
	return m, nil, false
}

func (m appModel) handleWishlistKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	if msg.String() == "x" {
		item, ok := m.wishList.SelectedItem().(wishlistItem)
		if !ok {
			return m, nil, true
		}
		if err := store.RemoveFromWishlist(m.userKey, item.movie.ID); err != nil {
			return m, errCmd(err), true
		}
		saved, _ := store.LoadWishlist(m.userKey)
		m.wishList.SetItems(buildWishlistItems(saved))
		m.movieList.SetItems(buildMovieItems(m.movies, m.userKey))
		return m, nil, true
	}
	if msg.Type == tea.KeyEnter {
		item, ok := m.wishList.SelectedItem().(wishlistItem)
		if !ok {
			return m, nil, true
		}
		m.detailMovie = item.movie
		m.state = stateMovieDetail
		return m, m.refreshMovieCmd(item.movie.ID), true
	}
	return m, nil, false
}

func (m appModel) handleAdminKey(msg tea.KeyMsg) (appModel, tea.Cmd, bool) {
	switch msg.String() {
	case "n":
		m.adminForm = newMovieForm()
		m.state = stateAdminForm
		return m, textinput.Blink, true
	case "ctrl+d":
		item, ok := m.adminList.SelectedItem().(adminMovieItem)
		if !ok {
			return m, nil, true
		}
		m.state = stateLoadingMovies
		return m, tea.Batch(m.deleteMovieCmd(m.adminToken, item.movie.ID), m.spinner.Tick), true
	}
	if msg.Type == tea.KeyEnter {
		item, ok := m.adminList.SelectedItem().(adminMovieItem)
		if !ok {
			return m, nil, true
		}
		m.adminForm = newMovieForm()
		m.adminForm.LoadMovie(item.movie)
		m.state = stateAdminForm
		return m, textinput.Blink, true
	}
	return m, nil, false
}

// handleFormKey routes keys for the text-entry states, where list
// filtering and single-letter shortcuts must not fire.
func (m appModel) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		return m.escapeForm()
	}

	switch m.state {
	case stateSearchInput:
		if msg.Type == tea.KeyEnter {
			query := strings.TrimSpace(m.searchInput.Value())
			if len([]rune(query)) < 2 {
				m.notice = "Type at least 2 characters to search."
				return m, nil
			}
			m.notice = ""
			m.state = stateLoadingMovies
			return m, tea.Batch(m.searchMoviesCmd(query), m.spinner.Tick)
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd

	case stateLogin, stateAdminLogin:
		switch msg.Type {
		case tea.KeyTab, tea.KeyDown:
			m.loginForm.Next()
			return m, nil
		case tea.KeyShiftTab, tea.KeyUp:
			m.loginForm.Prev()
			return m, nil
		case tea.KeyEnter:
			email, password := m.loginForm.Email(), m.loginForm.Password()
			if email == "" || password == "" {
				m.loginForm.note = "Email and password are required."
				return m, nil
			}
			m.loginForm.note = ""
			if m.state == stateAdminLogin {
				m.state = stateLoadingMovies
				return m, tea.Batch(m.adminLoginCmd(email, password), m.spinner.Tick)
			}
			m.state = stateLoadingMovies
			return m, tea.Batch(m.loginCmd(email, password), m.spinner.Tick)
		}
		return m, m.loginForm.Update(msg)

	case stateAdminForm:
		switch msg.Type {
		case tea.KeyTab, tea.KeyDown:
			m.adminForm.Next()
			return m, nil
		case tea.KeyShiftTab, tea.KeyUp:
			m.adminForm.Prev()
			return m, nil
		case tea.KeyEnter:
			movie, problem := m.adminForm.Movie()
			if problem != "" {
				m.adminForm.note = problem
				return m, nil
			}
			m.state = stateLoadingMovies
			return m, tea.Batch(m.saveMovieCmd(m.adminToken, movie, m.adminForm.editing), m.spinner.Tick)
		}
		return m, m.adminForm.Update(msg)
	}
	return m, nil
}

func (m appModel) escapeForm() (tea.Model, tea.Cmd) {
	switch m.state {
	case stateSearchInput, stateLogin:
		m.state = stateBrowseMovies
	case stateAdminLogin:
		m.state = stateBrowseMovies
	case stateAdminForm:
		m.state = stateAdminMovies
	}
	return m, nil
}

func (m appModel) openTickets() (appModel, tea.Cmd, bool) {
	if m.userKey == store.GuestKey {
		return m.promptSignIn("Sign in to see your tickets.")
	}
	tickets, err := store.LoadTickets(m.userKey)
	if err != nil {
		return m, errCmd(err), true
	}
	m.ticketList.SetItems(buildTicketItems(tickets))
	m.notice = ""
	m.state = stateTickets
	return m, nil, true
}

func (m appModel) openWishlist() (appModel, tea.Cmd, bool) {
	if m.userKey == store.GuestKey {
		return m.promptSignIn("Sign in to see your wishlist.")
	}
	saved, err := store.LoadWishlist(m.userKey)
	if err != nil {
		return m, errCmd(err), true
	}
	m.wishList.SetItems(buildWishlistItems(saved))
	m.notice = ""
	m.state = stateWishlist
	return m, nil, true
}

// promptSignIn routes to the login form. Guest history stays under the
// guest key and is merged into the account on the next sign-in.
func (m appModel) promptSignIn(reason string) (appModel, tea.Cmd, bool) {
	m.loginForm = newCredentialsForm("Sign In")
	m.loginForm.note = reason
	m.state = stateLogin
	return m, textinput.Blink, true
}

func (m appModel) expireAdminSession() (appModel, tea.Cmd) {
	m.adminToken = ""
	_ = store.ClearAdminToken()
	m.loginForm = newCredentialsForm("Admin Sign In")
	m.loginForm.note = "Admin session expired. Sign in again."
	m.state = stateAdminLogin
	return m, textinput.Blink
}

// refreshAdminCatalogCmd reloads the catalog after an admin change and
// routes back to the admin list.
func (m appModel) refreshAdminCatalogCmd() tea.Cmd {
	fetch := m.fetchMoviesCmd(true)
	return func() tea.Msg {
		msg := fetch()
		if movies, ok := msg.(moviesMsg); ok && movies.err == nil {
			return adminCatalogMsg{movies: movies.movies}
		}
		return msg
	}
}

type adminCatalogMsg struct {
	movies []model.Movie
}

func (m appModel) goBack() (appModel, tea.Cmd, bool) {
	switch m.state {
	case stateMovieDetail:
		m.state = stateBrowseMovies
	case stateSelectSchedule:
		m.state = stateMovieDetail
	case stateSeatMap:
		if m.checkout.Active() {
			// an in-flight payment keeps the grid frozen
			return m, nil, true
		}
		m.state = stateSelectSchedule
	case stateCheckoutConfirm:
		switch err := m.checkout.Cancel(); {
		case errors.Is(err, booking.ErrCancelSubmitting):
			m.notice = "Hold on, the order is being submitted."
			return m, nil, true
		case err != nil:
			return m, errCmd(err), true
		}
		m.notice = "Checkout cancelled. Seats released."
		m.state = stateSeatMap
	case stateSubmitting, statePaymentPending:
		m.notice = "Waiting for the payment provider. The countdown still applies."
		return m, nil, true
	case stateTickets, stateWishlist, stateAdminMovies:
		m.notice = ""
		m.state = stateBrowseMovies
	case stateTicketDetail:
		if len(m.ticketList.Items()) > 0 {
			m.state = stateTickets
		} else {
			m.state = stateBrowseMovies
		}
	case stateAdminForm:
		m.state = stateAdminMovies
	case stateError:
		m.state = m.lastState
	case stateBrowseMovies:
		if m.searchQuery != "" {
			m.searchQuery = ""
			m.movieList.Title = "Now Showing"
			m.movieList.SetItems(buildMovieItems(m.movies, m.userKey))
			return m, nil, true
		}
		return m, nil, true
	default:
		return m, nil, true
	}
	return m, nil, true
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		// Single-letter shortcuts only win while the filter is empty;
		// once the user started typing, everything feeds the filter.
		if listPtr.FilterValue() == "" && m.isShortcutRune(msg.Runes) {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

// isShortcutRune keeps single-letter shortcuts working on list screens
// instead of feeding them to the filter.
func (m appModel) isShortcutRune(runes []rune) bool {
	if len(runes) != 1 {
		return false
	}
	r := runes[0]
	switch m.state {
	case stateBrowseMovies:
		return r == '/' || r == 't' || r == 'w' || r == 'r'
	case stateTickets:
		return false
	case stateWishlist:
		return r == 'x'
	case stateAdminMovies:
		return r == 'n'
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	current := listPtr.FilterValue()
	listPtr.SetFilterText(current + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := listPtr.FilterValue()
	if value == "" {
		return
	}
	value = trimLastRune(value)
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	switch m.state {
	case stateBrowseMovies:
		return &m.movieList
	case stateSelectSchedule:
		return &m.scheduleList
	case stateTickets:
		return &m.ticketList
	case stateWishlist:
		return &m.wishList
	case stateAdminMovies:
		return &m.adminList
	default:
		return nil
	}
}

func (m appModel) isLoadingState() bool {
	return m.state == stateLoadingMovies ||
		m.state == stateLoadingSchedules ||
		m.state == stateLoadingSeats ||
		m.state == stateSubmitting ||
		m.state == statePaymentPending
}

func (m appModel) loadingView() string {
	title := "Loading"
	switch m.state {
	case stateLoadingMovies:
		title = "Loading movies"
	case stateLoadingSchedules:
		title = "Loading showtimes"
	case stateLoadingSeats:
		title = "Loading seats"
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), title, hint("Fetching data..."))
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 6
	if h < 6 {
		h = 6
	}
	m.movieList.SetSize(m.width, h)
	m.scheduleList.SetSize(m.width, h)
	m.ticketList.SetSize(m.width, h)
	m.wishList.SetSize(m.width, h)
	m.adminList.SetSize(m.width, h)
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err}
	}
}

func errWithOptionsCmd(err error, returnState appState, returnStateSet bool) tea.Cmd {
	return func() tea.Msg {
		return errMsg{
			err:            err,
			returnState:    returnState,
			returnStateSet: returnStateSet,
		}
	}
}

func recoverStateFrom(state appState) appState {
	switch state {
	case stateLoadingMovies:
		return stateBrowseMovies
	case stateLoadingSchedules:
		return stateMovieDetail
	case stateLoadingSeats:
		return stateSelectSchedule
	case stateSubmitting, statePaymentPending:
		return stateSeatMap
	default:
		return state
	}
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}

func displayName(user model.User) string {
	if user.Name != "" {
		return user.Name
	}
	if user.Username != "" {
		return user.Username
	}
	return user.Email
}

func contentWidth(width int) int {
	if width <= 0 {
		return 72
	}
	if width > 80 {
		return 80
	}
	return width - 2
}

func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var b strings.Builder
	lineLen := 0
	for i, word := range words {
		if lineLen > 0 && lineLen+1+len(word) > width {
			b.WriteString("\n")
			lineLen = 0
		} else if i > 0 {
			b.WriteString(" ")
			lineLen++
		}
		b.WriteString(word)
		lineLen += len(word)
	}
	return b.String()
}

func openURL(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return fmt.Errorf("unsupported OS for opening browser: %s", runtime.GOOS)
	}
}
