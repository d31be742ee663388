package booking

import (
	"sort"

	"golang.org/x/exp/maps"

	"cinema-booking-cli/model"
)

type State int

const (
	Empty State = iota
	Selecting
	Submitting
	Submitted
	// Refreshing blocks toggles between a conflict and the arrival of the
	// fresh snapshot.
	Refreshing
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Selecting:
		return "selecting"
	case Submitting:
		return "submitting"
	case Submitted:
		return "submitted"
	case Refreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Selection is the user's set of picked seats, bounded by the last fetched
// snapshot. Not safe for concurrent use.
type Selection struct {
	snapshot Snapshot
	picked   map[model.ID]struct{}
	state    State
}

func NewSelection(snapshot Snapshot) *Selection {
	return &Selection{
		snapshot: snapshot,
		picked:   make(map[model.ID]struct{}),
	}
}

func (s *Selection) State() State {
	return s.state
}

func (s *Selection) Snapshot() Snapshot {
	return s.snapshot
}

// Editable reports whether toggles are currently accepted.
func (s *Selection) Editable() bool {
	return s.state == Empty || s.state == Selecting
}

// Toggle adds or removes a seat and reports whether the set changed. Seats
// that were not available in the snapshot are refused.
func (s *Selection) Toggle(id model.ID) bool {
	if !s.Editable() {
		return false
	}
	if _, ok := s.picked[id]; ok {
		delete(s.picked, id)
		s.settle()
		return true
	}
	if !s.snapshot.Available(id) {
		return false
	}
	s.picked[id] = struct{}{}
	s.settle()
	return true
}

// Total sums the snapshot price of every picked seat.
func (s *Selection) Total() float64 {
	var total float64
	for _, seat := range s.snapshot.Seats {
		if _, ok := s.picked[seat.ID]; ok {
			total += seat.Price
		}
	}
	return total
}

func (s *Selection) Len() int {
	return len(s.picked)
}

func (s *Selection) IsSelected(id model.ID) bool {
	_, ok := s.picked[id]
	return ok
}

// Selected returns the picked ids in snapshot order (row, then number).
func (s *Selection) Selected() []model.ID {
	out := make([]model.ID, 0, len(s.picked))
	for _, seat := range s.snapshot.Seats {
		if _, ok := s.picked[seat.ID]; ok {
			out = append(out, seat.ID)
		}
	}
	return out
}

// SelectedSeats returns the picked seats in snapshot order.
func (s *Selection) SelectedSeats() []model.Seat {
	out := make([]model.Seat, 0, len(s.picked))
	for _, seat := range s.snapshot.Seats {
		if _, ok := s.picked[seat.ID]; ok {
			out = append(out, seat)
		}
	}
	return out
}

func (s *Selection) Clear() {
	maps.Clear(s.picked)
	s.state = Empty
}

// Freeze makes the set read-only for the duration of a submission.
func (s *Selection) Freeze() error {
	if s.state == Empty || len(s.picked) == 0 {
		return ErrEmptySelection
	}
	if s.state != Selecting {
		return errNotEditable
	}
	s.state = Submitting
	return nil
}

// Release ends a failed submission and keeps the set.
func (s *Selection) Release() {
	if s.state != Submitting {
		return
	}
	s.settle()
}

// Complete ends a successful submission.
func (s *Selection) Complete() {
	maps.Clear(s.picked)
	s.state = Submitted
}

// BeginRefresh drops the set and blocks toggles until Replace.
func (s *Selection) BeginRefresh() {
	maps.Clear(s.picked)
	s.state = Refreshing
}

// Replace installs a fresh snapshot and clears the set.
func (s *Selection) Replace(snapshot Snapshot) {
	s.snapshot = snapshot
	maps.Clear(s.picked)
	s.state = Empty
}

// Rows groups the snapshot by row, rows ascending.
func (s *Selection) Rows() []Row {
	return GroupRows(s.snapshot.Seats)
}

type Row struct {
	Number int
	Seats  []model.Seat
}

func GroupRows(seats []model.Seat) []Row {
	groups := make(map[int][]model.Seat)
	for _, seat := range seats {
		groups[seat.Row] = append(groups[seat.Row], seat)
	}
	keys := maps.Keys(groups)
	sort.Ints(keys)

	rows := make([]Row, 0, len(keys))
	for _, key := range keys {
		rowSeats := groups[key]
		sort.SliceStable(rowSeats, func(i, j int) bool {
			return rowSeats[i].Number < rowSeats[j].Number
		})
		rows = append(rows, Row{Number: key, Seats: rowSeats})
	}
	return rows
}

func (s *Selection) settle() {
	if len(s.picked) == 0 {
		s.state = Empty
		return
	}
	s.state = Selecting
}
