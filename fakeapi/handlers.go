package fakeapi

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"cinema-booking-cli/model"
)

func (s *Server) listMovies(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.movies)
}

func (s *Server) getMovie(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.movieLocked(model.ID(c.Param("id")))
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
	}
	return c.JSON(http.StatusOK, m)
}

func (s *Server) listScreenings(c echo.Context) error {
	movieID := model.ID(strings.TrimSpace(c.QueryParam("movie")))
	futureOnly := c.QueryParam("future_only") == "true"

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := []model.ScreeningSummary{}
	for _, id := range s.order {
		sc := s.screenings[id]
		if !movieID.IsZero() && sc.movieID != movieID {
			continue
		}
		if futureOnly && !sc.start.After(now) {
			continue
		}
		full := s.screeningLocked(sc)
		out = append(out, model.ScreeningSummary{
			ID:            full.ID,
			MovieTitle:    full.MovieTitle,
			HallName:      full.HallName,
			StartTime:     full.StartTime,
			PriceStandard: full.PriceStandard,
			PriceVIP:      full.PriceVIP,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getScreening(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.screenings[model.ID(c.Param("id"))]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
	}
	return c.JSON(http.StatusOK, s.screeningLocked(sc))
}

func (s *Server) availableSeats(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.screenings[model.ID(c.Param("id"))]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
	}
	return c.JSON(http.StatusOK, s.seatsLocked(sc))
}

func (s *Server) bookSeats(c echo.Context) error {
	u := c.Get(userKey).(*user)
	var req struct {
		SeatIDs []model.ID `json:"seat_ids"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(req.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"seat_ids": []string{"This list may not be empty."}})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.screenings[model.ID(c.Param("id"))]
	if !ok {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
	}
	if !sc.start.After(s.now()) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "This screening has already started."})
	}

	created, err := s.reserveLocked(u.id, sc, req.SeatIDs)
	if err != nil {
		var conflict *seatConflict
		if errors.As(err, &conflict) {
			return c.JSON(http.StatusBadRequest, echo.Map{"seat_ids": conflict.messages})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	out := make([]model.Reservation, 0, len(created))
	for _, b := range created {
		out = append(out, s.reservationLocked(b))
	}
	return c.JSON(http.StatusCreated, out)
}

func (s *Server) myBookings(c echo.Context) error {
	u := c.Get(userKey).(*user)

	s.mu.Lock()
	defer s.mu.Unlock()
	var mine []*booking
	for _, b := range s.bookings {
		if b.userID == u.id {
			mine = append(mine, b)
		}
	}
	sort.Slice(mine, func(i, j int) bool {
		if !mine[i].createdAt.Equal(mine[j].createdAt) {
			return mine[i].createdAt.After(mine[j].createdAt)
		}
		return idLess(mine[j].id, mine[i].id)
	})

	out := model.MyBookings{Bookings: []model.Reservation{}}
	for _, b := range mine {
		out.Bookings = append(out.Bookings, s.reservationLocked(b))
		if b.status.Active() {
			out.Active++
		}
	}
	out.Total = len(out.Bookings)
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getBooking(c echo.Context) error {
	u := c.Get(userKey).(*user)

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[model.ID(c.Param("id"))]
	if !ok || (b.userID != u.id && !u.admin) {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
	}
	return c.JSON(http.StatusOK, s.reservationLocked(b))
}

func (s *Server) cancelBooking(c echo.Context) error {
	u := c.Get(userKey).(*user)

	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[model.ID(c.Param("id"))]
	if !ok || (b.userID != u.id && !u.admin) {
		return c.JSON(http.StatusNotFound, echo.Map{"detail": "Not found."})
	}
	if reason := s.cancelBlockedLocked(b); reason != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status":  "error",
			"message": echo.Map{"non_field_errors": []string{reason}},
		})
	}
	b.status = model.StatusCancelled
	return c.JSON(http.StatusOK, echo.Map{
		"status":  "success",
		"message": "Booking cancelled.",
		"booking": s.reservationLocked(b),
	})
}

type seatConflict struct {
	messages []string
}

func (e *seatConflict) Error() string {
	return strings.Join(e.messages, "; ")
}

// reserveLocked books every seat or none.
func (s *Server) reserveLocked(userID model.ID, sc *screening, seatIDs []model.ID) ([]*booking, error) {
	h := s.halls[sc.hallID]
	taken := s.takenLocked(sc.id)

	seen := make(map[model.ID]bool, len(seatIDs))
	var seats []model.Seat
	var problems []string
	for _, id := range seatIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		seat, ok := findSeat(h, id)
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("Seat %s does not exist in this hall.", id))
		case taken[id]:
			problems = append(problems, fmt.Sprintf("Row %d seat %d is no longer available.", seat.Row, seat.Number))
		default:
			seats = append(seats, seat)
		}
	}
	if len(problems) > 0 {
		return nil, &seatConflict{messages: problems}
	}

	now := s.now()
	created := make([]*booking, 0, len(seats))
	for _, seat := range seats {
		b := &booking{
			id:          s.newID(),
			code:        s.bookingCodeLocked(),
			userID:      userID,
			screeningID: sc.id,
			seatID:      seat.ID,
			price:       priceFor(sc, seat.Type),
			status:      model.StatusConfirmed,
			createdAt:   now,
		}
		s.bookings[b.id] = b
		created = append(created, b)
	}
	return created, nil
}

func (s *Server) cancelBlockedLocked(b *booking) string {
	switch b.status {
	case model.StatusCancelled:
		return "Booking is already cancelled."
	case model.StatusUsed:
		return "A used booking cannot be cancelled."
	}
	sc := s.screenings[b.screeningID]
	if sc != nil && sc.start.Sub(s.now()) < cancelCutoff {
		return "Bookings can only be cancelled up to 30 minutes before the screening."
	}
	return ""
}

func (s *Server) bookingCodeLocked() string {
	for {
		hash := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:10]
		code := "BK" + s.now().Format("060102") + hash
		unique := true
		for _, b := range s.bookings {
			if b.code == code {
				unique = false
				break
			}
		}
		if unique {
			return code
		}
	}
}

func (s *Server) takenLocked(screeningID model.ID) map[model.ID]bool {
	taken := map[model.ID]bool{}
	for _, b := range s.bookings {
		if b.screeningID == screeningID && b.status.Active() {
			taken[b.seatID] = true
		}
	}
	return taken
}

func (s *Server) seatsLocked(sc *screening) []model.Seat {
	h := s.halls[sc.hallID]
	taken := s.takenLocked(sc.id)
	out := make([]model.Seat, 0, len(h.seats))
	for _, seat := range h.seats {
		seat.Price = priceFor(sc, seat.Type)
		seat.Available = !taken[seat.ID]
		out = append(out, seat)
	}
	return out
}

func (s *Server) screeningLocked(sc *screening) model.Screening {
	out := model.Screening{
		ID:            sc.id,
		StartTime:     sc.start,
		PriceStandard: sc.priceStandard,
		PriceVIP:      sc.priceVIP,
	}
	if m, ok := s.movieLocked(sc.movieID); ok {
		out.MovieTitle = m.Title
		out.MovieDuration = m.Duration
	}
	if h, ok := s.halls[sc.hallID]; ok {
		out.HallName = h.name
	}
	return out
}

func (s *Server) reservationLocked(b *booking) model.Reservation {
	out := model.Reservation{
		ID:          b.id,
		Code:        b.code,
		SeatID:      b.seatID,
		ScreeningID: b.screeningID,
		Price:       b.price,
		Status:      b.status,
		CreatedAt:   b.createdAt,
	}
	if sc, ok := s.screenings[b.screeningID]; ok {
		full := s.screeningLocked(sc)
		out.MovieTitle = full.MovieTitle
		out.HallName = full.HallName
		out.StartTime = full.StartTime
		if seat, ok := findSeat(s.halls[sc.hallID], b.seatID); ok {
			out.Row = seat.Row
			out.Number = seat.Number
			out.SeatType = seat.Type
		}
	}
	out.CanCancel = s.cancelBlockedLocked(b) == ""
	return out
}

func (s *Server) movieLocked(id model.ID) (model.Movie, bool) {
	for _, m := range s.movies {
		if m.ID == id {
			return m, true
		}
	}
	return model.Movie{}, false
}

func findSeat(h *hall, id model.ID) (model.Seat, bool) {
	if h == nil {
		return model.Seat{}, false
	}
	for _, seat := range h.seats {
		if seat.ID == id {
			return seat, true
		}
	}
	return model.Seat{}, false
}

func priceFor(sc *screening, t model.SeatType) float64 {
	if t == model.SeatVIP {
		return sc.priceVIP
	}
	return sc.priceStandard
}

func idLess(a, b model.ID) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
