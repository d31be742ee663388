package booking

import (
	"context"
	"log"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"cinema-booking-cli/model"
	"cinema-booking-cli/service"
	"cinema-booking-cli/session"
)

// API is the subset of the backend the booking core talks to.
type API interface {
	GetScreening(ctx context.Context, sess *session.Session, id model.ID) (model.Screening, error)
	GetAvailableSeats(ctx context.Context, sess *session.Session, id model.ID) ([]model.Seat, error)
	BookSeats(ctx context.Context, sess *session.Session, screeningID model.ID, seatIDs []model.ID) ([]model.Reservation, error)
}

// Snapshot is a read-only copy of server state for one screening. It is
// replaced wholesale on refetch.
type Snapshot struct {
	Screening model.Screening
	Seats     []model.Seat
}

// Seat returns the seat with the given id.
func (s Snapshot) Seat(id model.ID) (model.Seat, bool) {
	for _, seat := range s.Seats {
		if seat.ID == id {
			return seat, true
		}
	}
	return model.Seat{}, false
}

// Available reports whether the seat exists and was free at fetch time.
func (s Snapshot) Available(id model.ID) bool {
	seat, ok := s.Seat(id)
	return ok && seat.Available
}

// FreeCount returns how many seats were free at fetch time.
func (s Snapshot) FreeCount() int {
	n := 0
	for _, seat := range s.Seats {
		if seat.Available {
			n++
		}
	}
	return n
}

type Loader struct {
	api API
}

func NewLoader(api API) *Loader {
	return &Loader{api: api}
}

// ValidScreeningID rejects empty ids and the placeholder values a broken
// link produces.
func ValidScreeningID(id model.ID) bool {
	switch strings.ToLower(strings.TrimSpace(id.String())) {
	case "", "0", "undefined", "null", "nan":
		return false
	}
	return true
}

// Load fetches the screening record and its seats concurrently.
func (l *Loader) Load(ctx context.Context, sess *session.Session, screeningID model.ID) (Snapshot, error) {
	const op = "load screening"
	if !ValidScreeningID(screeningID) {
		return Snapshot{}, newError(InvalidInput, op, "Invalid screening id.", ErrInvalidScreening)
	}

	var (
		screening model.Screening
		seats     []model.Seat
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := l.api.GetScreening(gctx, sess, screeningID)
		if err != nil {
			return err
		}
		screening = s
		return nil
	})
	g.Go(func() error {
		s, err := l.api.GetAvailableSeats(gctx, sess, screeningID)
		if err != nil {
			return err
		}
		seats = s
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Printf("booking: load screening %s: %v", screeningID, err)
		return Snapshot{}, classifyLoad(op, err)
	}

	return Snapshot{Screening: screening, Seats: normalizeSeats(screening, seats)}, nil
}

func classifyLoad(op string, err error) error {
	if service.IsNotFound(err) {
		return newError(NotFound, op, "Screening not found.", err)
	}
	return newError(Transient, op, "Could not load the screening. Check your connection and try again.", err)
}

// normalizeSeats fills missing prices from the screening tiers and orders
// seats by row then number.
func normalizeSeats(screening model.Screening, seats []model.Seat) []model.Seat {
	out := make([]model.Seat, 0, len(seats))
	for _, seat := range seats {
		if seat.ID.IsZero() {
			continue
		}
		if seat.Price <= 0 {
			seat.Price = screening.PriceFor(seat.Type)
		}
		out = append(out, seat)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Number < out[j].Number
	})
	return out
}
