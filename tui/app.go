package tui

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cinema-booking-cli/booking"
	"cinema-booking-cli/model"
	"cinema-booking-cli/service"
	"cinema-booking-cli/session"
	"cinema-booking-cli/store"
	"cinema-booking-cli/ticket"
)

type appState int

const (
	stateLoadingMovies appState = iota
	stateSelectMovie
	stateLoadingScreenings
	stateSelectScreening
	stateLoadingSeats
	stateSeatMap
	stateSubmitting
	stateLogin
	stateLoggingIn
	statePayment
	stateProcessingPayment
	stateTicket
	stateLoadingBookings
	stateBookings
	stateError
)

// Options configure the program.
type Options struct {
	Client       *service.Client
	Session      *session.Session
	ScreeningID  model.ID
	PaymentDelay time.Duration
}

type appModel struct {
	client       *service.Client
	sess         *session.Session
	paymentDelay time.Duration

	state     appState
	lastState appState
	err       error
	notice    string

	width  int
	height int

	movie         model.Movie
	movieList     list.Model
	screeningList list.Model
	bookingList   list.Model

	// ctrl is owned by the running command while loading or submitting;
	// Update and View leave it alone until the result message arrives.
	ctrl      *booking.Controller
	cursorRow int
	cursorCol int

	result    booking.Result
	tickets   []model.Reservation
	ticketIdx int
	ticketRet appState

	username   textinput.Model
	password   textinput.Model
	loginFocus int
	afterLogin appState

	spinner spinner.Model

	startScreening model.ID
}

type errMsg struct {
	err            error
	returnState    appState
	returnStateSet bool
}

type moviesMsg struct {
	movies []model.Movie
	err    error
}

type screeningsMsg struct {
	screenings []model.ScreeningSummary
	err        error
}

type seatsMsg struct {
	err     error
	resumed bool
	lost    []model.ID
}

type bookedMsg struct {
	result booking.Result
	err    error
}

type loggedInMsg struct {
	tokens model.TokenPair
	err    error
}

type paidMsg struct{}

type bookingsMsg struct {
	bookings model.MyBookings
	err      error
}

type cancelledMsg struct {
	booking model.Reservation
	err     error
}

func New(opts Options) tea.Model {
	client := opts.Client
	if client == nil {
		client = service.NewClient("http://127.0.0.1:8000/api", nil)
	}
	sess := opts.Session
	if sess == nil {
		sess = session.Anonymous()
	}
	m := appModel{
		client:         client,
		sess:           sess,
		paymentDelay:   opts.PaymentDelay,
		state:          stateLoadingMovies,
		startScreening: opts.ScreeningID,
	}

	m.movieList = newList("Select Movie")
	m.screeningList = newList("Select Screening")
	m.bookingList = newList("My Bookings")
	m.bookingList.SetFilteringEnabled(false)

	m.username = textinput.New()
	m.username.Placeholder = "username"
	m.username.CharLimit = 150
	m.password = textinput.New()
	m.password.Placeholder = "password"
	m.password.EchoMode = textinput.EchoPassword
	m.password.EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	m.spinner = sp

	if !opts.ScreeningID.IsZero() {
		m.state = stateLoadingSeats
		m.ctrl = m.newController(opts.ScreeningID)
	}
	return m
}

func (m appModel) Init() tea.Cmd {
	if m.state == stateLoadingSeats {
		return tea.Batch(m.openSeatsCmd(m.ctrl), m.spinner.Tick)
	}
	return tea.Batch(m.fetchMoviesCmd(), m.spinner.Tick)
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeLists()
		return m, nil

	case tea.KeyMsg:
		if m.state == stateLogin {
			return m.updateLogin(msg)
		}
		if m.handleFilterInput(msg) {
			return m, nil
		}
		next, cmd, handled := m.handleKey(msg)
		if handled {
			return next, cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.isLoadingState() {
			return m, cmd
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		if msg.returnStateSet {
			m.lastState = msg.returnState
		} else {
			m.lastState = recoverStateFrom(m.state)
		}
		m.state = stateError
		return m, nil

	case moviesMsg:
		if msg.err != nil {
			return m, errCmd(msg.err)
		}
		m.movieList.SetItems(buildMovieItems(msg.movies))
		m.state = stateSelectMovie
		return m, nil

	case screeningsMsg:
		if msg.err != nil {
			return m, errWithStateCmd(msg.err, stateSelectMovie)
		}
		if len(msg.screenings) == 0 {
			return m, errWithStateCmd(fmt.Errorf("no upcoming screenings for %s", m.movie.Title), stateSelectMovie)
		}
		m.screeningList.Title = "Screenings • " + m.movie.Title
		m.screeningList.SetItems(buildScreeningItems(msg.screenings))
		m.state = stateSelectScreening
		return m, nil

	case seatsMsg:
		return m.onSeats(msg)

	case bookedMsg:
		return m.onBooked(msg)

	case loggedInMsg:
		return m.onLoggedIn(msg)

	case paidMsg:
		if m.state != stateProcessingPayment {
			return m, nil
		}
		m.tickets = m.result.Reservations
		m.ticketIdx = 0
		m.ticketRet = stateLoadingMovies
		m.state = stateTicket
		return m, nil

	case bookingsMsg:
		if msg.err != nil {
			if service.IsUnauthorized(msg.err) {
				return m.requireLogin(stateLoadingBookings, "Your session has expired. Sign in again.")
			}
			return m, errWithStateCmd(msg.err, stateSelectMovie)
		}
		m.bookingList.Title = fmt.Sprintf("My Bookings • %d total • %d active", msg.bookings.Total, msg.bookings.Active)
		m.bookingList.SetItems(buildBookingItems(msg.bookings.Bookings))
		m.state = stateBookings
		return m, nil

	case cancelledMsg:
		if msg.err != nil {
			m.notice = cancelFailure(msg.err)
			m.state = stateBookings
			return m, nil
		}
		label := msg.booking.Code
		if label == "" {
			label = msg.booking.ID.String()
		}
		m.notice = fmt.Sprintf("Booking %s cancelled.", label)
		m.state = stateLoadingBookings
		return m, tea.Batch(m.fetchBookingsCmd(), m.spinner.Tick)
	}

	var cmd tea.Cmd
	switch m.state {
	case stateSelectMovie:
		m.movieList, cmd = m.movieList.Update(msg)
	case stateSelectScreening:
		m.screeningList, cmd = m.screeningList.Update(msg)
	case stateBookings:
		m.bookingList, cmd = m.bookingList.Update(msg)
	case stateLogin:
		var userCmd, passCmd tea.Cmd
		m.username, userCmd = m.username.Update(msg)
		m.password, passCmd = m.password.Update(msg)
		cmd = tea.Batch(userCmd, passCmd)
	}
	return m, cmd
}

func (m appModel) onSeats(msg seatsMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		switch booking.KindOf(msg.err) {
		case booking.NotFound, booking.InvalidInput:
			return m, errWithStateCmd(errors.New(booking.UserMessage(msg.err)), stateLoadingMovies)
		}
		return m, errWithStateCmd(errors.New(booking.UserMessage(msg.err)), backFromSeats(m))
	}
	if err := store.RememberScreening(m.ctrl.Snapshot().Screening); err != nil {
		log.Printf("tui: remember screening: %v", err)
	}
	m.cursorRow, m.cursorCol = firstFreeSeat(m.ctrl.Selection().Rows())
	m.state = stateSeatMap
	if msg.resumed {
		m.notice = "Your selection was restored. Press enter to book."
		if len(msg.lost) > 0 {
			m.notice = fmt.Sprintf("%d of your seats were taken meanwhile. Pick again and press enter.", len(msg.lost))
		}
	}
	return m, nil
}

func (m appModel) onBooked(msg bookedMsg) (tea.Model, tea.Cmd) {
	if msg.err == nil {
		m.result = msg.result
		m.notice = ""
		m.state = statePayment
		return m, nil
	}
	m.notice = booking.UserMessage(msg.err)
	switch booking.KindOf(msg.err) {
	case booking.AuthRequired:
		return m.requireLogin(stateSeatMap, m.notice)
	case booking.SeatConflict:
		if m.ctrl.State() == booking.Refreshing {
			m.notice += " Press r to reload the seat map."
		} else {
			m.cursorRow, m.cursorCol = clampCursor(m.ctrl.Selection().Rows(), m.cursorRow, m.cursorCol)
		}
		m.state = stateSeatMap
	case booking.NotFound:
		return m, errWithStateCmd(errors.New(m.notice), stateLoadingMovies)
	default:
		m.state = stateSeatMap
	}
	return m, nil
}

func (m appModel) onLoggedIn(msg loggedInMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.state = stateLogin
		if service.IsUnauthorized(msg.err) {
			m.notice = "Wrong username or password."
		} else {
			m.notice = "Sign in failed: " + msg.err.Error()
		}
		return m, nil
	}
	m.sess = session.New(msg.tokens)
	m.password.SetValue("")
	m.notice = ""

	if m.afterLogin == stateLoadingBookings {
		m.state = stateLoadingBookings
		return m, tea.Batch(m.fetchBookingsCmd(), m.spinner.Tick)
	}

	pending, ok, err := store.TakePending()
	if err != nil || !ok {
		if m.ctrl == nil {
			m.state = stateLoadingMovies
			return m, tea.Batch(m.fetchMoviesCmd(), m.spinner.Tick)
		}
		m.ctrl.SetSession(m.sess)
		m.state = stateSeatMap
		return m, nil
	}
	if m.ctrl == nil {
		m.ctrl = m.newController(pending.ScreeningID)
	}
	m.ctrl.SetSession(m.sess)
	m.state = stateLoadingSeats
	return m, tea.Batch(m.resumeCmd(m.ctrl, pending), m.spinner.Tick)
}

func (m appModel) requireLogin(after appState, notice string) (tea.Model, tea.Cmd) {
	m.afterLogin = after
	m.notice = notice
	m.loginFocus = 0
	m.state = stateLogin
	m.password.Blur()
	cmd := m.username.Focus()
	return m, cmd
}

func (m appModel) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.notice = ""
		if m.afterLogin == stateSeatMap && m.ctrl != nil && m.ctrl.Loaded() {
			m.state = stateSeatMap
			return m, nil
		}
		m.state = stateSelectMovie
		return m, nil
	case "tab", "shift+tab", "up", "down":
		cmd := m.focusLogin(1 - m.loginFocus)
		return m, cmd
	case "enter":
		if m.loginFocus == 0 {
			cmd := m.focusLogin(1)
			return m, cmd
		}
		username := strings.TrimSpace(m.username.Value())
		if username == "" || m.password.Value() == "" {
			m.notice = "Enter your username and password."
			return m, nil
		}
		m.state = stateLoggingIn
		return m, tea.Batch(m.loginCmd(username, m.password.Value()), m.spinner.Tick)
	}

	var cmd tea.Cmd
	if m.loginFocus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *appModel) focusLogin(field int) tea.Cmd {
	m.loginFocus = field
	if field == 0 {
		m.password.Blur()
		return m.username.Focus()
	}
	m.username.Blur()
	return m.password.Focus()
}

func (m appModel) View() string {
	header := m.headerView()
	notice := ""
	if m.notice != "" {
		notice = "\n" + noticeStyle.Render(m.notice)
	}
	switch m.state {
	case stateLoadingMovies, stateLoadingScreenings, stateLoadingSeats, stateSubmitting, stateLoggingIn, stateProcessingPayment, stateLoadingBookings:
		return header + notice + "\n\n" + m.loadingView()
	case stateSelectMovie:
		return header + notice + "\n\n" + m.movieList.View()
	case stateSelectScreening:
		return header + notice + "\n\n" + m.screeningList.View()
	case stateSeatMap:
		return header + notice + "\n\n" + m.renderSeatMap()
	case stateLogin:
		return header + notice + "\n\n" + m.loginView()
	case statePayment:
		return header + notice + "\n\n" + m.paymentView()
	case stateTicket:
		return header + notice + "\n\n" + m.ticketView()
	case stateBookings:
		return header + notice + "\n\n" + m.bookingList.View()
	case stateError:
		return header + "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Render(m.err.Error()) + "\n\n" + hint("Press esc to go back or ctrl+c to quit.")
	default:
		return header
	}
}

var noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

func (m appModel) headerView() string {
	title := lipgloss.NewStyle().Bold(true).Render("Cinema Booking")
	sub := []string{}
	if m.sess.Authenticated() {
		sub = append(sub, "Signed in")
	} else {
		sub = append(sub, "Guest")
	}
	if m.movie.Title != "" && m.state != stateBookings {
		sub = append(sub, "Movie: "+m.movie.Title)
	}
	// the controller may belong to a running command in any other state
	if (m.state == stateSeatMap || m.state == statePayment) && m.ctrl != nil && m.ctrl.Loaded() {
		sc := m.ctrl.Snapshot().Screening
		if hall, ok := sc.Hall(); ok {
			sub = append(sub, "Hall: "+hall)
		}
		if !sc.StartTime.IsZero() {
			sub = append(sub, "Starts: "+ticket.FormatTime(sc.StartTime))
		}
	}
	meta := hint(strings.Join(sub, " • "))

	hints := "ctrl+c quit • esc back • type to filter • ctrl+b my bookings"
	switch m.state {
	case stateSeatMap:
		hints = "ctrl+c quit • esc back • arrows move • space select • enter book • r reload • ctrl+b my bookings"
	case stateLogin:
		hints = "ctrl+c quit • esc cancel • tab switch field • enter sign in"
	case statePayment:
		hints = "ctrl+c quit • enter pay"
	case stateTicket:
		hints = "ctrl+c quit • left/right switch ticket • enter done"
	case stateBookings:
		hints = "ctrl+c quit • esc back • enter show ticket • x cancel booking • r reload"
	}
	filterLine := ""
	if listPtr := m.activeList(); listPtr != nil {
		if filter := listPtr.FilterValue(); filter != "" {
			filterLine = "\n" + hint(fmt.Sprintf("Filter: %s", filter))
		}
	}
	return title + "\n" + meta + filterLine + "\n" + hint(hints)
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit, true
	case "q":
		return m, tea.Quit, true
	case "esc":
		if listPtr := m.activeList(); listPtr != nil {
			if listPtr.SettingFilter() || listPtr.IsFiltered() {
				listPtr.ResetFilter()
				return m, nil, true
			}
		}
		next, cmd := m.goBack()
		return next, cmd, true
	case "ctrl+b":
		if m.isLoadingState() {
			return m, nil, true
		}
		m.notice = ""
		return m.openBookings()
	}

	switch m.state {
	case stateSeatMap:
		return m.handleSeatMapKey(msg)
	case statePayment:
		if msg.Type == tea.KeyEnter {
			m.state = stateProcessingPayment
			return m, tea.Batch(payCmd(m.paymentDelay), m.spinner.Tick), true
		}
	case stateTicket:
		switch msg.String() {
		case "left", "h":
			if m.ticketIdx > 0 {
				m.ticketIdx--
			}
			return m, nil, true
		case "right", "l":
			if m.ticketIdx < len(m.tickets)-1 {
				m.ticketIdx++
			}
			return m, nil, true
		case "enter":
			return m.leaveTicket()
		}
	case stateBookings:
		switch msg.String() {
		case "x":
			item, ok := m.bookingList.SelectedItem().(bookingItem)
			if !ok {
				return m, nil, true
			}
			if !item.booking.CanCancel {
				m.notice = fmt.Sprintf("Booking %s can no longer be cancelled.", item.booking.Code)
				return m, nil, true
			}
			m.state = stateLoadingBookings
			return m, tea.Batch(m.cancelCmd(item.booking.ID), m.spinner.Tick), true
		case "r":
			m.state = stateLoadingBookings
			return m, tea.Batch(m.fetchBookingsCmd(), m.spinner.Tick), true
		case "enter":
			item, ok := m.bookingList.SelectedItem().(bookingItem)
			if !ok {
				return m, nil, true
			}
			m.tickets = []model.Reservation{item.booking}
			m.ticketIdx = 0
			m.ticketRet = stateBookings
			m.state = stateTicket
			return m, nil, true
		}
	}

	if msg.Type == tea.KeyEnter {
		switch m.state {
		case stateSelectMovie:
			item, ok := m.movieList.SelectedItem().(movieItem)
			if !ok {
				return m, nil, true
			}
			m.movie = item.movie
			m.notice = ""
			m.state = stateLoadingScreenings
			return m, tea.Batch(m.fetchScreeningsCmd(m.movie.ID), m.spinner.Tick), true
		case stateSelectScreening:
			item, ok := m.screeningList.SelectedItem().(screeningItem)
			if !ok {
				return m, nil, true
			}
			m.notice = ""
			m.ctrl = m.newController(item.screening.ID)
			m.state = stateLoadingSeats
			return m, tea.Batch(m.openSeatsCmd(m.ctrl), m.spinner.Tick), true
		}
	}
	return m, nil, false
}

func (m appModel) handleSeatMapKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	rows := m.ctrl.Selection().Rows()
	switch msg.String() {
	case "up", "k":
		m.cursorRow, m.cursorCol = moveCursor(rows, m.cursorRow, m.cursorCol, -1, 0)
	case "down", "j":
		m.cursorRow, m.cursorCol = moveCursor(rows, m.cursorRow, m.cursorCol, 1, 0)
	case "left", "h":
		m.cursorRow, m.cursorCol = moveCursor(rows, m.cursorRow, m.cursorCol, 0, -1)
	case "right", "l":
		m.cursorRow, m.cursorCol = moveCursor(rows, m.cursorRow, m.cursorCol, 0, 1)
	case " ", "space":
		seat, ok := seatAt(rows, m.cursorRow, m.cursorCol)
		if !ok {
			return m, nil, true
		}
		m.notice = ""
		if !m.ctrl.Toggle(seat.ID) {
			switch {
			case m.ctrl.State() == booking.Refreshing:
				m.notice = "The seat map is out of date. Press r to reload."
			case !seat.Available:
				m.notice = seat.Label() + " is taken."
			}
		}
	case "enter":
		if m.ctrl.Selection().Len() == 0 {
			m.notice = "Select at least one seat."
			return m, nil, true
		}
		m.notice = ""
		m.state = stateSubmitting
		return m, tea.Batch(m.submitCmd(m.ctrl), m.spinner.Tick), true
	case "r":
		m.notice = ""
		m.state = stateLoadingSeats
		return m, tea.Batch(m.reloadSeatsCmd(m.ctrl), m.spinner.Tick), true
	default:
		return m, nil, false
	}
	return m, nil, true
}

func (m appModel) openBookings() (tea.Model, tea.Cmd, bool) {
	if !m.sess.Valid(time.Now()) {
		next, cmd := m.requireLogin(stateLoadingBookings, "Sign in to see your bookings.")
		return next, cmd, true
	}
	m.state = stateLoadingBookings
	return m, tea.Batch(m.fetchBookingsCmd(), m.spinner.Tick), true
}

func (m appModel) leaveTicket() (tea.Model, tea.Cmd, bool) {
	m.tickets = nil
	if m.ticketRet == stateBookings {
		m.state = stateLoadingBookings
		return m, tea.Batch(m.fetchBookingsCmd(), m.spinner.Tick), true
	}
	m.ctrl = nil
	m.result = booking.Result{}
	m.state = stateLoadingMovies
	return m, tea.Batch(m.fetchMoviesCmd(), m.spinner.Tick), true
}

func (m appModel) goBack() (tea.Model, tea.Cmd) {
	m.notice = ""
	switch m.state {
	case stateSelectScreening:
		m.state = stateSelectMovie
	case stateSeatMap:
		m.ctrl = nil
		if len(m.screeningList.Items()) == 0 {
			m.state = stateLoadingMovies
			return m, tea.Batch(m.fetchMoviesCmd(), m.spinner.Tick)
		}
		m.state = stateSelectScreening
	case stateTicket:
		next, cmd, _ := m.leaveTicket()
		return next, cmd
	case stateBookings:
		if len(m.movieList.Items()) == 0 {
			m.state = stateLoadingMovies
			return m, tea.Batch(m.fetchMoviesCmd(), m.spinner.Tick)
		}
		m.state = stateSelectMovie
	case stateError:
		if m.lastState == stateLoadingMovies {
			m.state = stateLoadingMovies
			return m, tea.Batch(m.fetchMoviesCmd(), m.spinner.Tick)
		}
		m.state = m.lastState
	default:
		return m, nil
	}
	return m, nil
}

func (m *appModel) handleFilterInput(msg tea.KeyMsg) bool {
	listPtr := m.activeList()
	if listPtr == nil {
		return false
	}
	if !listPtr.FilteringEnabled() {
		return false
	}
	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return false
		}
		m.appendFilter(listPtr, string(msg.Runes))
		return true
	case tea.KeySpace:
		m.appendFilter(listPtr, " ")
		return true
	case tea.KeyBackspace, tea.KeyDelete:
		if listPtr.FilterValue() == "" {
			return false
		}
		m.popFilter(listPtr)
		return true
	default:
		return false
	}
}

func (m *appModel) appendFilter(listPtr *list.Model, value string) {
	if value == "" {
		return
	}
	listPtr.SetFilterText(listPtr.FilterValue() + value)
}

func (m *appModel) popFilter(listPtr *list.Model) {
	value := trimLastRune(listPtr.FilterValue())
	if value == "" {
		listPtr.ResetFilter()
		return
	}
	listPtr.SetFilterText(value)
}

func trimLastRune(value string) string {
	runes := []rune(value)
	if len(runes) <= 1 {
		return ""
	}
	return string(runes[:len(runes)-1])
}

func (m *appModel) activeList() *list.Model {
	switch m.state {
	case stateSelectMovie:
		return &m.movieList
	case stateSelectScreening:
		return &m.screeningList
	case stateBookings:
		return &m.bookingList
	default:
		return nil
	}
}

func (m appModel) isLoadingState() bool {
	switch m.state {
	case stateLoadingMovies, stateLoadingScreenings, stateLoadingSeats, stateSubmitting,
		stateLoggingIn, stateProcessingPayment, stateLoadingBookings:
		return true
	}
	return false
}

func (m appModel) loadingView() string {
	title := "Loading"
	switch m.state {
	case stateLoadingMovies:
		title = "Loading movies"
	case stateLoadingScreenings:
		title = "Loading screenings"
	case stateLoadingSeats:
		title = "Loading seat map"
	case stateSubmitting:
		title = "Booking seats"
	case stateLoggingIn:
		title = "Signing in"
	case stateProcessingPayment:
		title = "Processing payment"
	case stateLoadingBookings:
		title = "Loading your bookings"
	}
	return fmt.Sprintf("%s %s\n\n%s", m.spinner.View(), title, hint("Please wait..."))
}

func (m *appModel) resizeLists() {
	if m.width == 0 || m.height == 0 {
		return
	}
	h := m.height - 7
	if h < 6 {
		h = 6
	}
	m.movieList.SetSize(m.width, h)
	m.screeningList.SetSize(m.width, h)
	m.bookingList.SetSize(m.width, h)
}

func (m appModel) newController(screeningID model.ID) *booking.Controller {
	return booking.NewController(m.client, m.sess, screeningID, store.PendingSlot{})
}

func newList(title string) list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = title
	l.Filter = caseInsensitiveFilter
	l.SetFilteringEnabled(true)
	l.SetShowFilter(true)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	return l
}

func hint(text string) string {
	return lipgloss.NewStyle().Faint(true).Render(text)
}

func errCmd(err error) tea.Cmd {
	return func() tea.Msg {
		return errMsg{err: err}
	}
}

func errWithStateCmd(err error, returnState appState) tea.Cmd {
	return func() tea.Msg {
		return errMsg{
			err:            err,
			returnState:    returnState,
			returnStateSet: true,
		}
	}
}

func recoverStateFrom(state appState) appState {
	switch state {
	case stateLoadingMovies:
		return stateLoadingMovies
	case stateLoadingScreenings:
		return stateSelectMovie
	case stateLoadingSeats:
		return stateSelectScreening
	case stateLoadingBookings:
		return stateSelectMovie
	case stateError:
		return stateSelectMovie
	default:
		return state
	}
}

func backFromSeats(m appModel) appState {
	if len(m.screeningList.Items()) == 0 {
		return stateLoadingMovies
	}
	return stateSelectScreening
}

func cancelFailure(err error) string {
	switch {
	case service.IsConflict(err):
		return "This booking can no longer be cancelled."
	case service.IsNotFound(err):
		return "Booking not found."
	case service.IsUnauthorized(err):
		return "Your session has expired. Sign in again."
	}
	return "Cancel failed: " + err.Error()
}

func caseInsensitiveFilter(term string, targets []string) []list.Rank {
	term = strings.ToLower(term)
	lower := make([]string, len(targets))
	for i, t := range targets {
		lower[i] = strings.ToLower(t)
	}
	return list.DefaultFilter(term, lower)
}
