package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"cinema-booking-cli/model"
	"cinema-booking-cli/service"
	"cinema-booking-cli/session"
)

const conflictFallback = "Some of the selected seats are no longer available."

// Result is a successful submission: one reservation per requested seat, in
// request order.
type Result struct {
	Reservations []model.Reservation
	Screening    model.Screening
	Total        float64
}

// Codes returns the reservation codes in request order.
func (r Result) Codes() []string {
	out := make([]string, 0, len(r.Reservations))
	for _, res := range r.Reservations {
		out = append(out, res.Code)
	}
	return out
}

type Submitter struct {
	api API
	now func() time.Time
}

func NewSubmitter(api API) *Submitter {
	return &Submitter{api: api, now: time.Now}
}

// Submit books all seats or none. Precondition failures never reach the
// network.
func (s *Submitter) Submit(ctx context.Context, sess *session.Session, screeningID model.ID, seatIDs []model.ID) (Result, error) {
	const op = "book seats"
	if !ValidScreeningID(screeningID) {
		return Result{}, newError(InvalidInput, op, "Invalid screening id.", ErrInvalidScreening)
	}
	if len(seatIDs) == 0 {
		return Result{}, newError(InvalidInput, op, "Select at least one seat.", ErrEmptySelection)
	}
	if !sess.Valid(s.now()) {
		return Result{}, newError(AuthRequired, op, "Sign in to book seats.", ErrNoSession)
	}

	reservations, err := s.api.BookSeats(ctx, sess, screeningID, seatIDs)
	if err != nil {
		log.Printf("booking: submit screening %s seats %v: %v", screeningID, model.IDs(seatIDs), err)
		return Result{}, classifySubmit(op, err)
	}

	ordered, err := matchReservations(seatIDs, reservations)
	if err != nil {
		return Result{}, newError(Transient, op, "Unexpected response from the server. Try again.", err)
	}
	return Result{Reservations: ordered}, nil
}

func classifySubmit(op string, err error) error {
	switch code := service.StatusCode(err); {
	case code == http.StatusBadRequest || code == http.StatusConflict:
		return newError(SeatConflict, op, conflictMessage(apiBody(err)), err)
	case code == http.StatusUnauthorized:
		return newError(AuthRequired, op, "Your session has expired. Sign in again.", errors.Join(ErrSessionExpired, err))
	case code == http.StatusNotFound:
		return newError(NotFound, op, "Screening not found.", err)
	default:
		return newError(Transient, op, "Booking failed. Check your connection and try again.", err)
	}
}

func apiBody(err error) string {
	var apiErr *service.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Body
	}
	return ""
}

// matchReservations maps the response back onto the requested seat order.
func matchReservations(seatIDs []model.ID, reservations []model.Reservation) ([]model.Reservation, error) {
	bySeat := make(map[model.ID]model.Reservation, len(reservations))
	for _, res := range reservations {
		bySeat[res.SeatID] = res
	}
	out := make([]model.Reservation, 0, len(seatIDs))
	for i, id := range seatIDs {
		res, ok := bySeat[id]
		if !ok {
			// Older backends omit the seat link; fall back to position.
			if len(reservations) != len(seatIDs) || !reservations[i].SeatID.IsZero() {
				return nil, fmt.Errorf("no reservation for seat %s", id)
			}
			res = reservations[i]
			res.SeatID = id
		}
		out = append(out, res)
	}
	return out, nil
}

// conflictMessage turns either a {error}/{detail}/{message} body or a field
// error map into one readable line.
func conflictMessage(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return conflictFallback
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(body), &fields); err != nil {
		var list []any
		if json.Unmarshal([]byte(body), &list) == nil {
			if msg := joinMessages(flatten(list)); msg != "" {
				return msg
			}
		}
		return conflictFallback
	}
	for _, key := range []string{"error", "detail", "message"} {
		if msg := joinMessages(flatten(fields[key])); msg != "" {
			return msg
		}
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var parts []string
	for _, key := range keys {
		parts = append(parts, flatten(fields[key])...)
	}
	if msg := joinMessages(parts); msg != "" {
		return msg
	}
	return conflictFallback
}

func flatten(v any) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []any:
		var out []string
		for _, item := range val {
			out = append(out, flatten(item)...)
		}
		return out
	case map[string]any:
		keys := make([]string, 0, len(val))
		for key := range val {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var out []string
		for _, key := range keys {
			out = append(out, flatten(val[key])...)
		}
		return out
	case nil:
		return nil
	default:
		return []string{fmt.Sprint(val)}
	}
}

func joinMessages(parts []string) string {
	clean := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	return strings.Join(clean, "; ")
}
