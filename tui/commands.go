package tui

import (
	"context"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"cinema-booking-cli/booking"
	"cinema-booking-cli/model"
	"cinema-booking-cli/store"
)

const requestTimeout = 30 * time.Second

func (m appModel) fetchMoviesCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		if cached, fresh, err := store.LoadMovieCache(); err == nil && fresh && len(cached) > 0 {
			return moviesMsg{movies: cached}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		movies, err := client.ListMovies(ctx)
		if err != nil {
			return moviesMsg{err: err}
		}
		if err := store.SaveMovieCache(movies); err != nil {
			log.Printf("tui: save movie cache: %v", err)
		}
		return moviesMsg{movies: movies}
	}
}

func (m appModel) fetchScreeningsCmd(movieID model.ID) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		if cached, fresh, err := store.LoadScreeningCache(movieID); err == nil && fresh && len(cached) > 0 {
			return screeningsMsg{screenings: upcoming(cached, time.Now())}
		}
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		screenings, err := client.ListScreenings(ctx, movieID)
		if err != nil {
			return screeningsMsg{err: err}
		}
		if err := store.SaveScreeningCache(movieID, screenings); err != nil {
			log.Printf("tui: save screening cache: %v", err)
		}
		return screeningsMsg{screenings: screenings}
	}
}

// upcoming drops cached screenings that started since they were cached.
func upcoming(screenings []model.ScreeningSummary, now time.Time) []model.ScreeningSummary {
	out := make([]model.ScreeningSummary, 0, len(screenings))
	for _, s := range screenings {
		if s.StartTime.IsZero() || s.StartTime.After(now) {
			out = append(out, s)
		}
	}
	return out
}

func (m appModel) openSeatsCmd(ctrl *booking.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return seatsMsg{err: ctrl.Open(ctx)}
	}
}

func (m appModel) reloadSeatsCmd(ctrl *booking.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return seatsMsg{err: ctrl.Reload(ctx)}
	}
}

func (m appModel) resumeCmd(ctrl *booking.Controller, pending booking.Pending) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		lost, err := ctrl.Resume(ctx, pending)
		return seatsMsg{err: err, resumed: true, lost: lost}
	}
}

func (m appModel) submitCmd(ctrl *booking.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := ctrl.Submit(ctx)
		return bookedMsg{result: result, err: err}
	}
}

func (m appModel) loginCmd(username, password string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		tokens, err := client.Login(ctx, username, password)
		if err != nil {
			return loggedInMsg{err: err}
		}
		if err := store.SaveSession(tokens); err != nil {
			log.Printf("tui: save session: %v", err)
		}
		return loggedInMsg{tokens: tokens}
	}
}

func (m appModel) fetchBookingsCmd() tea.Cmd {
	client, sess := m.client, m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		bookings, err := client.MyBookings(ctx, sess)
		return bookingsMsg{bookings: bookings, err: err}
	}
}

func (m appModel) cancelCmd(id model.ID) tea.Cmd {
	client, sess := m.client, m.sess
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		reservation, err := client.CancelBooking(ctx, sess, id)
		return cancelledMsg{booking: reservation, err: err}
	}
}

// payCmd simulates the payment provider round trip.
func payCmd(delay time.Duration) tea.Cmd {
	if delay <= 0 {
		return func() tea.Msg { return paidMsg{} }
	}
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return paidMsg{}
	})
}
