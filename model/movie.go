package model

type Movie struct {
	ID          string  `json:"id_movie"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Genre       string  `json:"genre"`
	Duration    int     `json:"duration"`
	AgeRating   string  `json:"age_rating"`
	Rating      float64 `json:"rating"`
	PosterURL   string  `json:"poster_url"`
	TrailerURL  string  `json:"trailer_url"`
}
