package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type SeatType string

const (
	SeatStandard SeatType = "standard"
	SeatVIP      SeatType = "vip"
)

func (t *SeatType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = ParseSeatType(s)
	return nil
}

// ParseSeatType maps any unknown tier to standard.
func ParseSeatType(s string) SeatType {
	if strings.EqualFold(strings.TrimSpace(s), string(SeatVIP)) {
		return SeatVIP
	}
	return SeatStandard
}

// Screening is a scheduled showing. HallName is empty when the API omits it,
// MovieDuration is 0 when unknown.
type Screening struct {
	ID            ID        `json:"id"`
	MovieTitle    string    `json:"movie_title"`
	MovieDuration int       `json:"movie_duration"`
	HallName      string    `json:"hall_name"`
	StartTime     time.Time `json:"start_time"`
	PriceStandard float64   `json:"price_standard"`
	PriceVIP      float64   `json:"price_vip"`
}

type screeningWire struct {
	ID            ID        `json:"id"`
	MovieTitle    string    `json:"movie_title"`
	MovieDuration int       `json:"movie_duration"`
	HallName      string    `json:"hall_name"`
	StartTime     time.Time `json:"start_time"`
	PriceStandard float64   `json:"price_standard"`
	PriceVIP      float64   `json:"price_vip"`
	MovieDetails  *struct {
		Title    string `json:"title"`
		Duration int    `json:"duration"`
	} `json:"movie_details"`
	HallDetails *struct {
		Name string `json:"name"`
	} `json:"hall_details"`
}

// UnmarshalJSON accepts both the flat list shape and the nested detail shape.
func (s *Screening) UnmarshalJSON(data []byte) error {
	var w screeningWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*s = Screening{
		ID:            w.ID,
		MovieTitle:    strings.TrimSpace(w.MovieTitle),
		MovieDuration: w.MovieDuration,
		HallName:      strings.TrimSpace(w.HallName),
		StartTime:     w.StartTime,
		PriceStandard: w.PriceStandard,
		PriceVIP:      w.PriceVIP,
	}
	if w.MovieDetails != nil {
		if s.MovieTitle == "" {
			s.MovieTitle = strings.TrimSpace(w.MovieDetails.Title)
		}
		if s.MovieDuration == 0 {
			s.MovieDuration = w.MovieDetails.Duration
		}
	}
	if w.HallDetails != nil && s.HallName == "" {
		s.HallName = strings.TrimSpace(w.HallDetails.Name)
	}
	return nil
}

// PriceFor returns the screening price of a tier.
func (s Screening) PriceFor(t SeatType) float64 {
	if t == SeatVIP {
		return s.PriceVIP
	}
	return s.PriceStandard
}

// Hall returns the hall name and whether the API sent one.
func (s Screening) Hall() (string, bool) {
	return s.HallName, s.HallName != ""
}

type Seat struct {
	ID        ID       `json:"seat_id"`
	Row       int      `json:"row"`
	Number    int      `json:"number"`
	Type      SeatType `json:"seat_type"`
	Price     float64  `json:"price"`
	Available bool     `json:"is_available"`
}

func (s Seat) Label() string {
	return fmt.Sprintf("Row %d Seat %d", s.Row, s.Number)
}
