package model

import "time"

type Movie struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    int    `json:"duration"`
	Genre       string `json:"genre"`
	Country     string `json:"country"`
}

// ScreeningSummary is a row of the screenings listing for one movie.
type ScreeningSummary struct {
	ID            ID        `json:"id"`
	MovieTitle    string    `json:"movie_title"`
	HallName      string    `json:"hall_name"`
	StartTime     time.Time `json:"start_time"`
	PriceStandard float64   `json:"price_standard"`
	PriceVIP      float64   `json:"price_vip"`
}
