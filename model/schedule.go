package model

// Schedule is a single screening of a movie in a studio. The backend
// resolves the studio for a schedule via GET /schedules/{id}; StudioID
// may therefore be empty on listings and filled in later.
type Schedule struct {
	ID         string `json:"id_schedule"`
	MovieID    string `json:"movie_id"`
	CinemaName string `json:"cinema_name"`
	StudioID   string `json:"studio_id"`
	ShowDate   string `json:"show_date"`
	ShowTime   string `json:"show_time"`
}

// StudioSeat is the raw seat record returned by GET /studios/{id}/seats.
type StudioSeat struct {
	SeatNumber  string `json:"seat_number"`
	IsAvailable bool   `json:"is_available"`
}

// PaymentIntent is the response of POST /payment. Either Token (for the
// Snap widget) or RedirectURL is set.
type PaymentIntent struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}
