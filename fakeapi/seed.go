package fakeapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cinema-booking-cli/model"
)

// Seeded demo accounts.
const (
	DemoUser      = "demo"
	DemoPassword  = "demo1234"
	AdminUser     = "admin"
	AdminPassword = "admin1234"
)

func (s *Server) seed() error {
	if _, err := s.addUserLocked(DemoUser, DemoPassword, false); err != nil {
		return err
	}
	if _, err := s.addUserLocked(AdminUser, AdminPassword, true); err != nil {
		return err
	}

	small := s.addHallLocked("Hall 1", 5, 8, 5)
	large := s.addHallLocked("Hall 2", 7, 10, 6, 7)

	arrival := s.addMovieLocked(model.Movie{Title: "Arrival", Duration: 116, Genre: "Sci-Fi", Country: "USA"})
	heat := s.addMovieLocked(model.Movie{Title: "Heat", Duration: 170, Genre: "Crime", Country: "USA"})
	spirited := s.addMovieLocked(model.Movie{Title: "Spirited Away", Duration: 125, Genre: "Animation", Country: "Japan"})

	base := s.now().Truncate(time.Hour).Add(3 * time.Hour)
	s.addScreeningLocked(arrival, small, base, 250, 350)
	s.addScreeningLocked(arrival, large, base.Add(24*time.Hour), 300, 450)
	s.addScreeningLocked(heat, large, base.Add(2*time.Hour), 300, 450)
	s.addScreeningLocked(spirited, small, base.Add(26*time.Hour), 200, 300)
	return nil
}

// AddUser registers an account.
func (s *Server) AddUser(username, password string, admin bool) (model.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, password, admin)
}

func (s *Server) addUserLocked(username, password string, admin bool) (model.ID, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", errors.New("username and password are required")
	}
	if _, exists := s.byName[strings.ToLower(username)]; exists {
		return "", fmt.Errorf("user %q already exists", username)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	u := &user{
		id:           s.newID(),
		username:     username,
		email:        strings.ToLower(username) + "@example.com",
		passwordHash: string(hash),
		admin:        admin,
	}
	s.users[u.id] = u
	s.byName[strings.ToLower(username)] = u
	return u.id, nil
}

// AddMovie adds a movie to the catalogue.
func (s *Server) AddMovie(m model.Movie) model.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMovieLocked(m)
}

func (s *Server) addMovieLocked(m model.Movie) model.ID {
	m.ID = s.newID()
	s.movies = append(s.movies, m)
	return m.ID
}

// AddHall adds a hall of rows x perRow seats. Rows listed in vipRows hold
// VIP seats.
func (s *Server) AddHall(name string, rows, perRow int, vipRows ...int) model.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addHallLocked(name, rows, perRow, vipRows...)
}

func (s *Server) addHallLocked(name string, rows, perRow int, vipRows ...int) model.ID {
	vip := make(map[int]bool, len(vipRows))
	for _, r := range vipRows {
		vip[r] = true
	}
	h := &hall{id: s.newID(), name: name}
	for row := 1; row <= rows; row++ {
		for number := 1; number <= perRow; number++ {
			seatType := model.SeatStandard
			if vip[row] {
				seatType = model.SeatVIP
			}
			h.seats = append(h.seats, model.Seat{
				ID:     s.newID(),
				Row:    row,
				Number: number,
				Type:   seatType,
			})
		}
	}
	s.halls[h.id] = h
	return h.id
}

// AddScreening schedules a movie in a hall.
func (s *Server) AddScreening(movieID, hallID model.ID, start time.Time, priceStandard, priceVIP float64) (model.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.movieLocked(movieID); !ok {
		return "", fmt.Errorf("movie %s not found", movieID)
	}
	if _, ok := s.halls[hallID]; !ok {
		return "", fmt.Errorf("hall %s not found", hallID)
	}
	return s.addScreeningLocked(movieID, hallID, start, priceStandard, priceVIP), nil
}

func (s *Server) addScreeningLocked(movieID, hallID model.ID, start time.Time, priceStandard, priceVIP float64) model.ID {
	sc := &screening{
		id:            s.newID(),
		movieID:       movieID,
		hallID:        hallID,
		start:         start,
		priceStandard: priceStandard,
		priceVIP:      priceVIP,
	}
	s.screenings[sc.id] = sc
	s.order = append(s.order, sc.id)
	return sc.id
}

// Seats returns the seats of a screening's hall in row order.
func (s *Server) Seats(screeningID model.ID) []model.Seat {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.screenings[screeningID]
	if !ok {
		return nil
	}
	return s.seatsLocked(sc)
}

// Screenings returns every screening id in creation order.
func (s *Server) Screenings() []model.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ID(nil), s.order...)
}

// TakeSeat books a seat at the box office, outside any user account.
func (s *Server) TakeSeat(screeningID, seatID model.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.screenings[screeningID]
	if !ok {
		return fmt.Errorf("screening %s not found", screeningID)
	}
	_, err := s.reserveLocked("", sc, []model.ID{seatID})
	return err
}
