package model

// TicketStatusPaid marks a settled purchase in the local history.
const TicketStatusPaid = "Lunas"

// Ticket is a completed purchase persisted in the local history.
// Records are append-only; they are only removed by an explicit
// clear-history action.
type Ticket struct {
	ID            string   `json:"id"`
	MovieTitle    string   `json:"movie_title"`
	MoviePoster   string   `json:"movie_poster"`
	CinemaName    string   `json:"cinema_name"`
	Showtime      string   `json:"showtime"`
	WatchDate     string   `json:"watch_date"`
	BookingDate   string   `json:"booking_date"`
	Seats         []string `json:"seats"`
	Quantity      int      `json:"quantity"`
	TotalAmount   int64    `json:"total_amount"`
	Status        string   `json:"status"`
	TransactionID string   `json:"transaction_id"`
}
