package model

import (
	"encoding/json"
	"strings"
	"time"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusUsed      BookingStatus = "used"
)

// Active reports whether the booking still holds its seat.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Reservation is one server-confirmed seat booking.
type Reservation struct {
	ID          ID            `json:"id"`
	Code        string        `json:"booking_code"`
	SeatID      ID            `json:"seat"`
	ScreeningID ID            `json:"screening"`
	Row         int           `json:"row"`
	Number      int           `json:"number"`
	SeatType    SeatType      `json:"seat_type"`
	Price       float64       `json:"price"`
	Status      BookingStatus `json:"status"`
	CanCancel   bool          `json:"can_cancel"`
	MovieTitle  string        `json:"movie_title"`
	HallName    string        `json:"hall_name"`
	StartTime   time.Time     `json:"start_time"`
	CreatedAt   time.Time     `json:"created_at"`
}

type reservationWire struct {
	ID            ID            `json:"id"`
	Code          string        `json:"booking_code"`
	Seat          ID            `json:"seat"`
	SeatID        ID            `json:"seat_id"`
	Screening     ID            `json:"screening"`
	Row           int           `json:"row"`
	Number        int           `json:"number"`
	SeatType      string        `json:"seat_type"`
	Price         float64       `json:"price"`
	Status        BookingStatus `json:"status"`
	CanCancel     bool          `json:"can_cancel"`
	MovieTitle    string        `json:"movie_title"`
	HallName      string        `json:"hall_name"`
	StartTime     time.Time     `json:"start_time"`
	ScreeningTime time.Time     `json:"screening_time"`
	CreatedAt     time.Time     `json:"created_at"`
	SeatDetails   *struct {
		ID     ID     `json:"id"`
		Row    int    `json:"row"`
		Number int    `json:"number"`
		Type   string `json:"type"`
	} `json:"seat_details"`
	ScreeningDetails *struct {
		ID         ID        `json:"id"`
		StartTime  time.Time `json:"start_time"`
		MovieTitle string    `json:"movie_title"`
		HallName   string    `json:"hall_name"`
	} `json:"screening_details"`
	MovieDetails *struct {
		Title string `json:"title"`
	} `json:"movie_details"`
	HallDetails *struct {
		Name string `json:"name"`
	} `json:"hall_details"`
}

// UnmarshalJSON folds the optional nested detail objects into flat fields.
func (r *Reservation) UnmarshalJSON(data []byte) error {
	var w reservationWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Reservation{
		ID:          w.ID,
		Code:        strings.TrimSpace(w.Code),
		SeatID:      w.Seat,
		ScreeningID: w.Screening,
		Row:         w.Row,
		Number:      w.Number,
		SeatType:    ParseSeatType(w.SeatType),
		Price:       w.Price,
		Status:      w.Status,
		CanCancel:   w.CanCancel,
		MovieTitle:  strings.TrimSpace(w.MovieTitle),
		HallName:    strings.TrimSpace(w.HallName),
		StartTime:   w.StartTime,
		CreatedAt:   w.CreatedAt,
	}
	if r.SeatID.IsZero() {
		r.SeatID = w.SeatID
	}
	if r.StartTime.IsZero() {
		r.StartTime = w.ScreeningTime
	}
	if d := w.SeatDetails; d != nil {
		if r.SeatID.IsZero() {
			r.SeatID = d.ID
		}
		if r.Row == 0 {
			r.Row = d.Row
		}
		if r.Number == 0 {
			r.Number = d.Number
		}
		if w.SeatType == "" {
			r.SeatType = ParseSeatType(d.Type)
		}
	}
	if d := w.ScreeningDetails; d != nil {
		if r.ScreeningID.IsZero() {
			r.ScreeningID = d.ID
		}
		if r.StartTime.IsZero() {
			r.StartTime = d.StartTime
		}
		if r.MovieTitle == "" {
			r.MovieTitle = strings.TrimSpace(d.MovieTitle)
		}
		if r.HallName == "" {
			r.HallName = strings.TrimSpace(d.HallName)
		}
	}
	if w.MovieDetails != nil && r.MovieTitle == "" {
		r.MovieTitle = strings.TrimSpace(w.MovieDetails.Title)
	}
	if w.HallDetails != nil && r.HallName == "" {
		r.HallName = strings.TrimSpace(w.HallDetails.Name)
	}
	if r.Status == "" {
		r.Status = StatusConfirmed
	}
	return nil
}

type MyBookings struct {
	Total    int           `json:"total"`
	Active   int           `json:"active"`
	Bookings []Reservation `json:"bookings"`
}
