package booking

import (
	"context"
	"errors"
	"log"

	"cinema-booking-cli/model"
	"cinema-booking-cli/session"
)

// Pending is the selection saved across a sign-in detour.
type Pending struct {
	ScreeningID model.ID   `json:"screening_id"`
	SeatIDs     []model.ID `json:"selected_seat_ids"`
	Total       float64    `json:"total"`
}

// PendingStore persists the single resumption slot.
type PendingStore interface {
	SavePending(p Pending) error
}

// Controller drives one seat-selection page: load, toggle, submit, and
// recover from conflicts or missing sessions.
type Controller struct {
	loader      *Loader
	submitter   *Submitter
	pending     PendingStore
	sess        *session.Session
	screeningID model.ID
	sel         *Selection
}

func NewController(api API, sess *session.Session, screeningID model.ID, pending PendingStore) *Controller {
	return &Controller{
		loader:      NewLoader(api),
		submitter:   NewSubmitter(api),
		pending:     pending,
		sess:        sess,
		screeningID: screeningID,
	}
}

func (c *Controller) ScreeningID() model.ID {
	return c.screeningID
}

// SetSession swaps the session, typically after sign-in.
func (c *Controller) SetSession(sess *session.Session) {
	c.sess = sess
}

func (c *Controller) Session() *session.Session {
	return c.sess
}

// Open loads the snapshot and starts with an empty selection.
func (c *Controller) Open(ctx context.Context) error {
	snapshot, err := c.loader.Load(ctx, c.sess, c.screeningID)
	if err != nil {
		return err
	}
	if c.sel == nil {
		c.sel = NewSelection(snapshot)
		return nil
	}
	c.sel.Replace(snapshot)
	return nil
}

// Reload refetches the snapshot. The selection is dropped as the snapshot
// it was checked against is gone.
func (c *Controller) Reload(ctx context.Context) error {
	if c.sel != nil && c.sel.State() == Submitting {
		return newError(InvalidInput, "reload screening", "A booking is in progress.", errNotEditable)
	}
	return c.Open(ctx)
}

func (c *Controller) Loaded() bool {
	return c.sel != nil
}

func (c *Controller) Selection() *Selection {
	return c.sel
}

func (c *Controller) Snapshot() Snapshot {
	if c.sel == nil {
		return Snapshot{}
	}
	return c.sel.Snapshot()
}

func (c *Controller) State() State {
	if c.sel == nil {
		return Empty
	}
	return c.sel.State()
}

func (c *Controller) Toggle(id model.ID) bool {
	if c.sel == nil {
		return false
	}
	return c.sel.Toggle(id)
}

func (c *Controller) Total() float64 {
	if c.sel == nil {
		return 0
	}
	return c.sel.Total()
}

// Submit books the current selection. On a conflict the snapshot is
// refetched before toggles are accepted again; on a missing session the
// selection is written to the pending store.
func (c *Controller) Submit(ctx context.Context) (Result, error) {
	const op = "book seats"
	if c.sel == nil {
		return Result{}, newError(InvalidInput, op, "The seat map is not loaded yet.", ErrInvalidScreening)
	}
	if err := c.sel.Freeze(); err != nil {
		if errors.Is(err, ErrEmptySelection) {
			return Result{}, newError(InvalidInput, op, "Select at least one seat.", err)
		}
		return Result{}, newError(InvalidInput, op, "The seat map is busy. Try again in a moment.", err)
	}

	seatIDs := c.sel.Selected()
	total := c.sel.Total()
	screening := c.sel.Snapshot().Screening

	result, err := c.submitter.Submit(ctx, c.sess, c.screeningID, seatIDs)
	switch KindOf(err) {
	case KindUnknown:
		if err != nil {
			c.sel.Release()
			return Result{}, err
		}
		c.sel.Complete()
		result.Screening = screening
		result.Total = total
		return result, nil
	case SeatConflict:
		c.sel.BeginRefresh()
		snapshot, loadErr := c.loader.Load(ctx, c.sess, c.screeningID)
		if loadErr != nil {
			return Result{}, errors.Join(err, loadErr)
		}
		c.sel.Replace(snapshot)
		return Result{}, err
	case AuthRequired:
		if c.pending != nil {
			p := Pending{ScreeningID: c.screeningID, SeatIDs: seatIDs, Total: total}
			if saveErr := c.pending.SavePending(p); saveErr != nil {
				log.Printf("booking: save pending selection: %v", saveErr)
			}
		}
		c.sel.Release()
		return Result{}, err
	default:
		c.sel.Release()
		return Result{}, err
	}
}

// Resume reopens the pending screening and reselects the saved seats that
// are still free. It returns the ids that could not be reselected.
func (c *Controller) Resume(ctx context.Context, p Pending) ([]model.ID, error) {
	if !ValidScreeningID(p.ScreeningID) {
		return nil, newError(InvalidInput, "resume booking", "The saved booking is not valid.", ErrInvalidScreening)
	}
	c.screeningID = p.ScreeningID
	if err := c.Open(ctx); err != nil {
		return nil, err
	}
	var lost []model.ID
	for _, id := range p.SeatIDs {
		if c.sel.IsSelected(id) {
			continue
		}
		if !c.sel.Toggle(id) {
			lost = append(lost, id)
		}
	}
	return lost, nil
}
