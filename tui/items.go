package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"cinema-booking-cli/model"
	"cinema-booking-cli/ticket"
)

type movieItem struct {
	movie model.Movie
}

func (m movieItem) Title() string {
	return m.movie.Title
}

func (m movieItem) Description() string {
	parts := []string{}
	if m.movie.Genre != "" {
		parts = append(parts, m.movie.Genre)
	}
	if m.movie.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%d min", m.movie.Duration))
	}
	if m.movie.Country != "" {
		parts = append(parts, m.movie.Country)
	}
	return strings.Join(parts, " • ")
}

func (m movieItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{m.movie.Title, m.movie.Genre, m.movie.Country}, " "))
}

type screeningItem struct {
	screening model.ScreeningSummary
}

func (s screeningItem) Title() string {
	hall := strings.TrimSpace(s.screening.HallName)
	if hall == "" {
		hall = "Hall"
	}
	return fmt.Sprintf("%s • %s", ticket.FormatTime(s.screening.StartTime), hall)
}

func (s screeningItem) Description() string {
	return fmt.Sprintf("Standard %s • VIP %s", ticket.FormatPrice(s.screening.PriceStandard), ticket.FormatPrice(s.screening.PriceVIP))
}

func (s screeningItem) FilterValue() string {
	return strings.ToLower(strings.Join([]string{s.screening.HallName, s.screening.StartTime.Format("02 Jan 15:04")}, " "))
}

type bookingItem struct {
	booking model.Reservation
}

func (b bookingItem) Title() string {
	return fmt.Sprintf("%s • %s", b.booking.Code, b.booking.MovieTitle)
}

func (b bookingItem) Description() string {
	desc := fmt.Sprintf("%s • %s • %s • %s", ticket.FormatTime(b.booking.StartTime), ticket.SeatLabel(b.booking), ticket.FormatPrice(b.booking.Price), ticket.StatusLabel(b.booking.Status))
	if b.booking.CanCancel {
		desc += " • cancellable"
	}
	return desc
}

func (b bookingItem) FilterValue() string {
	return strings.ToLower(b.booking.Code + " " + b.booking.MovieTitle)
}

func buildMovieItems(movies []model.Movie) []list.Item {
	items := make([]list.Item, 0, len(movies))
	for _, movie := range movies {
		items = append(items, movieItem{movie: movie})
	}
	return items
}

func buildScreeningItems(screenings []model.ScreeningSummary) []list.Item {
	items := make([]list.Item, 0, len(screenings))
	for _, screening := range screenings {
		items = append(items, screeningItem{screening: screening})
	}
	return items
}

func buildBookingItems(bookings []model.Reservation) []list.Item {
	items := make([]list.Item, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, bookingItem{booking: b})
	}
	return items
}
