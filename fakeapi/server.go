// Package fakeapi is an in-memory implementation of the cinema REST API the
// client consumes. It backs the integration tests and the fake-api command.
package fakeapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"cinema-booking-cli/model"
)

const (
	defaultAccessTTL = 15 * time.Minute
	cancelCutoff     = 30 * time.Minute
	bcryptCost       = 4
)

type user struct {
	id           model.ID
	username     string
	email        string
	passwordHash string
	admin        bool
}

type hall struct {
	id    model.ID
	name  string
	seats []model.Seat
}

type screening struct {
	id            model.ID
	movieID       model.ID
	hallID        model.ID
	start         time.Time
	priceStandard float64
	priceVIP      float64
}

type booking struct {
	id          model.ID
	code        string
	userID      model.ID
	screeningID model.ID
	seatID      model.ID
	price       float64
	status      model.BookingStatus
	createdAt   time.Time
}

// Server holds all fake state behind one mutex.
type Server struct {
	e *echo.Echo

	mu         sync.Mutex
	secret     []byte
	accessTTL  time.Duration
	now        func() time.Time
	nextID     int
	users      map[model.ID]*user
	byName     map[string]*user
	refresh    map[string]model.ID
	movies     []model.Movie
	halls      map[model.ID]*hall
	screenings map[model.ID]*screening
	order      []model.ID
	bookings   map[model.ID]*booking
	skipSeed   bool
}

type Option func(*Server)

// WithClock replaces time.Now, used to age tokens and screenings in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = ttl
	}
}

// WithoutSeed starts with no movies, halls or users.
func WithoutSeed() Option {
	return func(s *Server) {
		s.skipSeed = true
	}
}

func New(secret string, opts ...Option) (*Server, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	s := &Server{
		secret:     []byte(secret),
		accessTTL:  defaultAccessTTL,
		now:        time.Now,
		users:      map[model.ID]*user{},
		byName:     map[string]*user{},
		refresh:    map[string]model.ID{},
		halls:      map[model.ID]*hall{},
		screenings: map[model.ID]*screening{},
		bookings:   map[model.ID]*booking{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.skipSeed {
		if err := s.seed(); err != nil {
			return nil, err
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	s.routes(e)
	s.e = e
	return s, nil
}

// Handler exposes the API for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	err := s.e.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *Server) routes(e *echo.Echo) {
	api := e.Group("/api")

	api.POST("/auth/login/", s.login)
	api.POST("/auth/refresh/", s.refreshAccess)
	api.GET("/auth/me/", s.me, s.requireUser)

	api.GET("/movies/", s.listMovies)
	api.GET("/movies/:id/", s.getMovie)

	api.GET("/screenings/", s.listScreenings)
	api.GET("/screenings/:id/", s.getScreening)
	api.GET("/screenings/:id/available-seats/", s.availableSeats)
	api.POST("/screenings/:id/book-seats/", s.bookSeats, s.requireUser)

	api.GET("/bookings/my-bookings/", s.myBookings, s.requireUser)
	api.GET("/bookings/:id/", s.getBooking, s.requireUser)
	api.POST("/bookings/:id/cancel/", s.cancelBooking, s.requireUser)
}

func (s *Server) newID() model.ID {
	s.nextID++
	return model.ID(strconv.Itoa(s.nextID))
}
