package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"cinema-booking-cli/model"
	"cinema-booking-cli/session"
)

func screeningPath(id model.ID, suffix string) string {
	return fmt.Sprintf("/screenings/%s/%s", url.PathEscape(id.String()), suffix)
}

// GetScreening fetches one screening record.
func (c *Client) GetScreening(ctx context.Context, sess *session.Session, id model.ID) (model.Screening, error) {
	if id.IsZero() {
		return model.Screening{}, errors.New("screening id is required")
	}
	var screening model.Screening
	if err := c.getJSON(ctx, sess, screeningPath(id, ""), &screening); err != nil {
		return model.Screening{}, err
	}
	return screening, nil
}

// GetAvailableSeats fetches the seat availability snapshot of a screening.
func (c *Client) GetAvailableSeats(ctx context.Context, sess *session.Session, id model.ID) ([]model.Seat, error) {
	if id.IsZero() {
		return nil, errors.New("screening id is required")
	}
	var seats []model.Seat
	if err := c.getJSON(ctx, sess, screeningPath(id, "available-seats/"), &seats); err != nil {
		return nil, err
	}
	return seats, nil
}

type bookSeatsRequest struct {
	SeatIDs []model.ID `json:"seat_ids"`
}

// BookSeats reserves all given seats or none of them. It is never retried.
func (c *Client) BookSeats(ctx context.Context, sess *session.Session, screeningID model.ID, seatIDs []model.ID) ([]model.Reservation, error) {
	if screeningID.IsZero() {
		return nil, errors.New("screening id is required")
	}
	if len(seatIDs) == 0 {
		return nil, errors.New("seat ids are required")
	}
	var reservations []model.Reservation
	if err := c.postJSON(ctx, sess, screeningPath(screeningID, "book-seats/"), bookSeatsRequest{SeatIDs: seatIDs}, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

// ListMovies returns the movies currently in the catalogue.
func (c *Client) ListMovies(ctx context.Context) ([]model.Movie, error) {
	var movies []model.Movie
	if err := c.getJSON(ctx, nil, "/movies/", &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// GetMovie fetches a single movie.
func (c *Client) GetMovie(ctx context.Context, id model.ID) (model.Movie, error) {
	if id.IsZero() {
		return model.Movie{}, errors.New("movie id is required")
	}
	var movie model.Movie
	if err := c.getJSON(ctx, nil, fmt.Sprintf("/movies/%s/", url.PathEscape(id.String())), &movie); err != nil {
		return model.Movie{}, err
	}
	return movie, nil
}

// ListScreenings returns upcoming screenings of a movie.
func (c *Client) ListScreenings(ctx context.Context, movieID model.ID) ([]model.ScreeningSummary, error) {
	if movieID.IsZero() {
		return nil, errors.New("movie id is required")
	}
	query := url.Values{}
	query.Set("movie", movieID.String())
	query.Set("future_only", "true")

	var screenings []model.ScreeningSummary
	if err := c.getJSON(ctx, nil, "/screenings/?"+query.Encode(), &screenings); err != nil {
		return nil, err
	}
	return screenings, nil
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, username string, password string) (model.TokenPair, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.TokenPair{}, errors.New("username and password are required")
	}
	var tokens model.TokenPair
	body := map[string]string{"username": username, "password": password}
	if err := c.postJSON(ctx, nil, "/auth/login/", body, &tokens); err != nil {
		return model.TokenPair{}, err
	}
	if tokens.Access == "" {
		return model.TokenPair{}, errors.New("login response carried no access token")
	}
	return tokens, nil
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context, sess *session.Session) (model.User, error) {
	var user model.User
	if err := c.getJSON(ctx, sess, "/auth/me/", &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// MyBookings lists the signed-in user's bookings, newest first.
func (c *Client) MyBookings(ctx context.Context, sess *session.Session) (model.MyBookings, error) {
	var out model.MyBookings
	if err := c.getJSON(ctx, sess, "/bookings/my-bookings/", &out); err != nil {
		return model.MyBookings{}, err
	}
	return out, nil
}

// GetBooking fetches one booking with its ticket details.
func (c *Client) GetBooking(ctx context.Context, sess *session.Session, id model.ID) (model.Reservation, error) {
	if id.IsZero() {
		return model.Reservation{}, errors.New("booking id is required")
	}
	var booking model.Reservation
	if err := c.getJSON(ctx, sess, fmt.Sprintf("/bookings/%s/", url.PathEscape(id.String())), &booking); err != nil {
		return model.Reservation{}, err
	}
	return booking, nil
}

type cancelResponse struct {
	Status  string             `json:"status"`
	Message string             `json:"message"`
	Booking *model.Reservation `json:"booking"`
}

// CancelBooking cancels a booking and returns its updated record when the
// API sends one.
func (c *Client) CancelBooking(ctx context.Context, sess *session.Session, id model.ID) (model.Reservation, error) {
	if id.IsZero() {
		return model.Reservation{}, errors.New("booking id is required")
	}
	var out cancelResponse
	if err := c.postJSON(ctx, sess, fmt.Sprintf("/bookings/%s/cancel/", url.PathEscape(id.String())), struct{}{}, &out); err != nil {
		return model.Reservation{}, err
	}
	if out.Booking == nil {
		return model.Reservation{ID: id, Status: model.StatusCancelled}, nil
	}
	return *out.Booking, nil
}
