package tui

import (
	"bytes"
	"context"
	"log"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"cinema-booking-cli/booking"
	"cinema-booking-cli/fakeapi"
	"cinema-booking-cli/model"
	"cinema-booking-cli/service"
	"cinema-booking-cli/session"
	"cinema-booking-cli/store"
)

type testItem struct {
	value string
}

func (t testItem) Title() string       { return t.value }
func (t testItem) Description() string { return "" }
func (t testItem) FilterValue() string { return strings.ToLower(t.value) }

func newFilterModel(items []list.Item) *appModel {
	model := New(Options{}).(appModel)
	model.state = stateSelectMovie
	model.movieList = newList("Select Movie")
	model.movieList.SetItems(items)
	return &model
}

func TestHandleFilterInput_AppendsRunes(t *testing.T) {
	m := newFilterModel([]list.Item{
		testItem{value: "Arrival"},
		testItem{value: "Heat"},
	})

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")}) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.movieList.FilterValue(); got != "a" {
		t.Fatalf("expected filter value to be %q, got %q", "a", got)
	}

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")}) {
		t.Fatal("expected filter input to be handled")
	}
	if got := m.movieList.FilterValue(); got != "ar" {
		t.Fatalf("expected filter value to be %q, got %q", "ar", got)
	}
}

func TestHandleFilterInput_Backspace(t *testing.T) {
	m := newFilterModel([]list.Item{
		testItem{value: "Arrival"},
		testItem{value: "Heat"},
	})

	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("h")})
	_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})

	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeyBackspace}) {
		t.Fatal("expected backspace to be handled")
	}
	if got := m.movieList.FilterValue(); got != "h" {
		t.Fatalf("expected filter value to be %q, got %q", "h", got)
	}
}

func TestHandleFilterInput_Space(t *testing.T) {
	m := newFilterModel([]list.Item{
		testItem{value: "Spirited Away"},
	})

	for _, r := range "spirited" {
		_ = m.handleFilterInput(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if !m.handleFilterInput(tea.KeyMsg{Type: tea.KeySpace}) {
		t.Fatal("expected space to be handled")
	}
	if got := m.movieList.FilterValue(); got != "spirited " {
		t.Fatalf("expected filter value to be %q, got %q", "spirited ", got)
	}
}

func TestHandleFilterInput_IgnoredOnSeatMap(t *testing.T) {
	m := New(Options{}).(appModel)
	m.state = stateSeatMap
	if m.handleFilterInput(tea.KeyMsg{Type: tea.KeySpace}) {
		t.Fatal("expected space to reach the seat map")
	}
}

func TestMoveCursorClampsToRow(t *testing.T) {
	rows := []booking.Row{
		{Number: 1, Seats: []model.Seat{{ID: "1"}, {ID: "2"}, {ID: "3"}}},
		{Number: 2, Seats: []model.Seat{{ID: "4"}}},
	}
	r, c := moveCursor(rows, 0, 2, 1, 0)
	if r != 1 || c != 0 {
		t.Fatalf("expected (1,0), got (%d,%d)", r, c)
	}
	r, c = moveCursor(rows, 1, 0, 1, 5)
	if r != 1 || c != 0 {
		t.Fatalf("expected (1,0), got (%d,%d)", r, c)
	}
	r, c = moveCursor(rows, 0, 0, 0, -1)
	if r != 0 || c != 0 {
		t.Fatalf("expected (0,0), got (%d,%d)", r, c)
	}
}

func TestFirstFreeSeatSkipsTaken(t *testing.T) {
	rows := []booking.Row{
		{Number: 1, Seats: []model.Seat{{ID: "1"}, {ID: "2"}}},
		{Number: 2, Seats: []model.Seat{{ID: "3"}, {ID: "4", Available: true}}},
	}
	r, c := firstFreeSeat(rows)
	if r != 1 || c != 1 {
		t.Fatalf("expected (1,1), got (%d,%d)", r, c)
	}
}

func TestPadCellCenters(t *testing.T) {
	if got := padCell("7", 3); got != " 7 " {
		t.Fatalf("expected %q, got %q", " 7 ", got)
	}
	if got := padCell("", 2); got != "  " {
		t.Fatalf("expected blanks, got %q", got)
	}
}

func setTestConfigDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", dir+"/config")
	t.Setenv("XDG_CACHE_HOME", dir+"/cache")
}

func startBackend(t *testing.T) (*fakeapi.Server, *service.Client) {
	t.Helper()
	setTestConfigDir(t)
	server, err := fakeapi.New("test-secret")
	if err != nil {
		t.Fatalf("new fake api: %v", err)
	}
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return server, service.NewClient(ts.URL+"/api", ts.Client(), service.WithMaxAttempts(1))
}

func signIn(t *testing.T, client *service.Client) *session.Session {
	t.Helper()
	tokens, err := client.Login(context.Background(), fakeapi.DemoUser, fakeapi.DemoPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return session.New(tokens)
}

// runCmd executes a command, giving up on the ones that only wait, such as
// cursor blinks and spinner ticks.
func runCmd(cmd tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		return nil
	}
}

// drive feeds the app's own messages back into Update until no command is
// left.
func drive(t *testing.T, m appModel, cmd tea.Cmd) appModel {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := runCmd(next).(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case moviesMsg, screeningsMsg, seatsMsg, bookedMsg, loggedInMsg, paidMsg, bookingsMsg, cancelledMsg, errMsg:
			updated, c := m.Update(msg)
			m = updated.(appModel)
			queue = append(queue, c)
		}
	}
	return m
}

func press(t *testing.T, m appModel, key tea.KeyMsg) appModel {
	t.Helper()
	updated, cmd := m.Update(key)
	return drive(t, updated.(appModel), cmd)
}

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keySpace = tea.KeyMsg{Type: tea.KeySpace}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func typeText(t *testing.T, m appModel, text string) appModel {
	t.Helper()
	return press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func openSeatMap(t *testing.T, client *service.Client, sess *session.Session) appModel {
	t.Helper()
	m := New(Options{Client: client, Session: sess}).(appModel)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = drive(t, updated.(appModel), m.Init())
	if m.state != stateSelectMovie {
		t.Fatalf("expected movie list, got state %d err=%v", m.state, m.err)
	}
	m = press(t, m, keyEnter)
	if m.state != stateSelectScreening {
		t.Fatalf("expected screening list, got state %d err=%v", m.state, m.err)
	}
	m = press(t, m, keyEnter)
	if m.state != stateSeatMap {
		t.Fatalf("expected seat map, got state %d err=%v", m.state, m.err)
	}
	return m
}

func TestBrowseSelectAndBook(t *testing.T) {
	_, client := startBackend(t)
	m := openSeatMap(t, client, signIn(t, client))

	m = press(t, m, keySpace)
	if m.ctrl.Selection().Len() != 1 {
		t.Fatalf("expected one selected seat, got %d", m.ctrl.Selection().Len())
	}
	if view := m.View(); !strings.Contains(view, "Total: 250.00") {
		t.Fatalf("expected total in view, got:\n%s", view)
	}

	recent, err := store.LoadRecentScreenings()
	if err != nil || len(recent) != 1 {
		t.Fatalf("expected the screening in history, got %+v err=%v", recent, err)
	}

	m = press(t, m, keyEnter)
	if m.state != statePayment {
		t.Fatalf("expected payment, got state %d notice=%q", m.state, m.notice)
	}
	if len(m.result.Reservations) != 1 || m.result.Total != 250 {
		t.Fatalf("unexpected result: %+v", m.result)
	}

	m = press(t, m, keyEnter)
	if m.state != stateTicket {
		t.Fatalf("expected ticket, got state %d", m.state)
	}
	if view := m.View(); !strings.Contains(view, m.result.Reservations[0].Code) {
		t.Fatalf("expected booking code in ticket view, got:\n%s", view)
	}
}

func TestToggleTwiceClearsSelection(t *testing.T) {
	_, client := startBackend(t)
	m := openSeatMap(t, client, signIn(t, client))

	m = press(t, m, keySpace)
	m = press(t, m, keySpace)
	if m.ctrl.Selection().Len() != 0 || m.ctrl.Total() != 0 {
		t.Fatalf("expected empty selection, got %d seats total %.2f", m.ctrl.Selection().Len(), m.ctrl.Total())
	}

	m = press(t, m, keyEnter)
	if m.state != stateSeatMap || m.notice == "" {
		t.Fatalf("expected to stay on the seat map with a notice, got state %d notice=%q", m.state, m.notice)
	}
}

func TestGuestIsSentToLoginAndSelectionResumes(t *testing.T) {
	_, client := startBackend(t)
	m := openSeatMap(t, client, session.Anonymous())

	m = press(t, m, keySpace)
	m = press(t, m, keyEnter)
	if m.state != stateLogin {
		t.Fatalf("expected login, got state %d notice=%q", m.state, m.notice)
	}
	if _, ok, err := store.PeekPending(); err != nil || !ok {
		t.Fatalf("expected a pending selection, ok=%v err=%v", ok, err)
	}

	m = typeText(t, m, fakeapi.DemoUser)
	m = press(t, m, keyTab)
	m = typeText(t, m, fakeapi.DemoPassword)
	m = press(t, m, keyEnter)

	if m.state != stateSeatMap {
		t.Fatalf("expected seat map after sign in, got state %d notice=%q err=%v", m.state, m.notice, m.err)
	}
	if m.ctrl.Selection().Len() != 1 {
		t.Fatalf("expected the selection to be restored, got %d", m.ctrl.Selection().Len())
	}
	if _, ok, _ := store.PeekPending(); ok {
		t.Fatal("expected the pending slot to be consumed")
	}
	if tokens, ok, _ := store.LoadSession(); !ok || tokens.Access == "" {
		t.Fatal("expected the session to be saved")
	}

	m = press(t, m, keyEnter)
	if m.state != statePayment {
		t.Fatalf("expected payment, got state %d notice=%q", m.state, m.notice)
	}
}

func TestWrongPasswordStaysOnLogin(t *testing.T) {
	_, client := startBackend(t)
	m := openSeatMap(t, client, session.Anonymous())
	m = press(t, m, keySpace)
	m = press(t, m, keyEnter)

	m = typeText(t, m, fakeapi.DemoUser)
	m = press(t, m, keyTab)
	m = typeText(t, m, "nope")
	m = press(t, m, keyEnter)
	if m.state != stateLogin || m.notice != "Wrong username or password." {
		t.Fatalf("expected login with an error, got state %d notice=%q", m.state, m.notice)
	}

	m = press(t, m, keyEsc)
	if m.state != stateSeatMap {
		t.Fatalf("expected esc to return to the seat map, got state %d", m.state)
	}
}

func TestConflictRefreshesSeatMap(t *testing.T) {
	server, client := startBackend(t)
	m := openSeatMap(t, client, signIn(t, client))

	m = press(t, m, keySpace)
	picked := m.ctrl.Selection().Selected()[0]
	if err := server.TakeSeat(m.ctrl.ScreeningID(), picked); err != nil {
		t.Fatalf("take seat: %v", err)
	}

	m = press(t, m, keyEnter)
	if m.state != stateSeatMap {
		t.Fatalf("expected seat map, got state %d", m.state)
	}
	if m.notice == "" {
		t.Fatal("expected a conflict notice")
	}
	if m.ctrl.Selection().Len() != 0 {
		t.Fatalf("expected the selection to be cleared, got %d", m.ctrl.Selection().Len())
	}
	if m.ctrl.Snapshot().Available(picked) {
		t.Fatal("expected the taken seat to be unavailable after refresh")
	}
}

func TestUnknownScreeningShowsError(t *testing.T) {
	_, client := startBackend(t)
	m := New(Options{Client: client, ScreeningID: "99999"}).(appModel)
	m = drive(t, m, m.Init())
	if m.state != stateError {
		t.Fatalf("expected error state, got %d", m.state)
	}
	if view := m.View(); !strings.Contains(view, "Screening not found.") {
		t.Fatalf("expected not found message, got:\n%s", view)
	}

	m = press(t, m, keyEsc)
	if m.state != stateSelectMovie {
		t.Fatalf("expected movie list after esc, got %d", m.state)
	}
}

func TestBookingsListAndCancel(t *testing.T) {
	_, client := startBackend(t)
	m := openSeatMap(t, client, signIn(t, client))
	m = press(t, m, keySpace)
	m = press(t, m, keyEnter)
	m = press(t, m, keyEnter)
	if m.state != stateTicket {
		t.Fatalf("expected ticket, got state %d", m.state)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlB})
	if m.state != stateBookings {
		t.Fatalf("expected bookings, got state %d err=%v", m.state, m.err)
	}
	if n := len(m.bookingList.Items()); n != 1 {
		t.Fatalf("expected one booking, got %d", n)
	}

	m = typeText(t, m, "x")
	if m.state != stateBookings {
		t.Fatalf("expected bookings after cancel, got state %d err=%v", m.state, m.err)
	}
	item := m.bookingList.Items()[0].(bookingItem)
	if item.booking.Status != model.StatusCancelled {
		t.Fatalf("expected cancelled booking, got %s", item.booking.Status)
	}
	if !strings.Contains(m.notice, "cancelled") {
		t.Fatalf("expected cancel notice, got %q", m.notice)
	}
}

func TestBookingsRequireLogin(t *testing.T) {
	_, client := startBackend(t)
	m := New(Options{Client: client}).(appModel)
	m = drive(t, m, m.Init())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlB})
	if m.state != stateLogin || m.afterLogin != stateLoadingBookings {
		t.Fatalf("expected login before bookings, got state %d", m.state)
	}
}

func TestViewWhileSeatsLoad(t *testing.T) {
	server, client := startBackend(t)
	m := New(Options{Client: client, ScreeningID: server.Screenings()[0]}).(appModel)

	done := make(chan tea.Msg, 1)
	go func() { done <- m.openSeatsCmd(m.ctrl)() }()
	var msg tea.Msg
	for msg == nil {
		if view := m.View(); !strings.Contains(view, "Loading seat map") {
			t.Fatalf("expected loading view, got:\n%s", view)
		}
		select {
		case msg = <-done:
		default:
		}
	}

	updated, _ := m.Update(msg)
	m = updated.(appModel)
	if m.state != stateSeatMap {
		t.Fatalf("expected seat map, got state %d err=%v", m.state, m.err)
	}
	if view := m.View(); !strings.Contains(view, "Hall: Hall 1") {
		t.Fatalf("expected the hall in the header, got:\n%s", view)
	}
}

func TestSeatMapOpensWhenHistoryCannotBeSaved(t *testing.T) {
	server, client := startBackend(t)
	blocked := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocked, nil, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	t.Setenv("XDG_CONFIG_HOME", blocked)
	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	m := New(Options{Client: client, ScreeningID: server.Screenings()[0]}).(appModel)
	m = drive(t, m, m.Init())
	if m.state != stateSeatMap {
		t.Fatalf("expected seat map, got state %d err=%v", m.state, m.err)
	}
	if !strings.Contains(logs.String(), "tui: remember screening") {
		t.Fatalf("expected the history error to be logged, got %q", logs.String())
	}
}
