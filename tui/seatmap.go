package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"cinema-booking-cli/booking"
	"cinema-booking-cli/model"
	"cinema-booking-cli/ticket"
)

const seatCellWidth = 3

var (
	seatStyleAvailable = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	seatStyleVIP       = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	seatStyleTaken     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	seatStyleSelected  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("3")).Bold(true)
	seatStyleCursor    = lipgloss.NewStyle().Reverse(true)
	seatStyleScreen    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func (m appModel) renderSeatMap() string {
	if m.ctrl == nil || !m.ctrl.Loaded() {
		return "No seat map data."
	}
	sel := m.ctrl.Selection()
	rows := sel.Rows()
	if len(rows) == 0 {
		return "No seat map data."
	}

	maxSeats := 0
	for _, row := range rows {
		maxSeats = max(maxSeats, len(row.Seats))
	}
	rowWidth := len(strconv.Itoa(rows[len(rows)-1].Number))
	mapWidth := maxSeats * seatCellWidth

	var b strings.Builder
	screen := screenBarBlock(mapWidth, "SCREEN")
	indent := strings.Repeat(" ", rowWidth+1)
	b.WriteString(indent + seatStyleScreen.Render(screen.top) + "\n")
	b.WriteString(indent + seatStyleScreen.Render(screen.mid) + "\n")
	b.WriteString(indent + seatStyleScreen.Render(screen.bot) + "\n\n")

	for r, row := range rows {
		b.WriteString(fmt.Sprintf("%*d ", rowWidth, row.Number))
		for c, seat := range row.Seats {
			cell := padCell(seatToken(seat, sel.IsSelected(seat.ID)), seatCellWidth)
			style := seatStyle(seat, sel.IsSelected(seat.ID))
			if r == m.cursorRow && c == m.cursorCol {
				style = style.Inherit(seatStyleCursor)
			}
			b.WriteString(style.Render(cell))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(seatLegend())
	b.WriteString("\n\n")

	if seat, ok := seatAt(rows, m.cursorRow, m.cursorCol); ok {
		status := "free"
		if !seat.Available {
			status = "taken"
		}
		b.WriteString(fmt.Sprintf("%s • %s • %s\n", seat.Label(), ticket.FormatPrice(seat.Price), status))
	}
	b.WriteString(m.selectionSummary(sel))
	return b.String()
}

func (m appModel) selectionSummary(sel *booking.Selection) string {
	picked := sel.SelectedSeats()
	if len(picked) == 0 {
		return hint(fmt.Sprintf("%d seats free • nothing selected", sel.Snapshot().FreeCount()))
	}
	labels := make([]string, 0, len(picked))
	for _, seat := range picked {
		labels = append(labels, seat.Label())
	}
	return fmt.Sprintf("Selected: %s\nTotal: %s", strings.Join(labels, ", "), ticket.FormatPrice(sel.Total()))
}

func seatToken(seat model.Seat, selected bool) string {
	switch {
	case selected:
		return "■"
	case !seat.Available:
		return "x"
	default:
		return strconv.Itoa(seat.Number)
	}
}

func seatStyle(seat model.Seat, selected bool) lipgloss.Style {
	switch {
	case selected:
		return seatStyleSelected
	case !seat.Available:
		return seatStyleTaken
	case seat.Type == model.SeatVIP:
		return seatStyleVIP
	default:
		return seatStyleAvailable
	}
}

func seatLegend() string {
	return strings.Join([]string{
		seatStyleAvailable.Render("12") + " standard",
		seatStyleVIP.Render("12") + " vip",
		seatStyleTaken.Render("x") + " taken",
		seatStyleSelected.Render("■") + " selected",
	}, "   ")
}

func seatAt(rows []booking.Row, r, c int) (model.Seat, bool) {
	if r < 0 || r >= len(rows) {
		return model.Seat{}, false
	}
	if c < 0 || c >= len(rows[r].Seats) {
		return model.Seat{}, false
	}
	return rows[r].Seats[c], true
}

// moveCursor steps through the grid, keeping the column within the target
// row when rows have different lengths.
func moveCursor(rows []booking.Row, r, c, dr, dc int) (int, int) {
	if len(rows) == 0 {
		return 0, 0
	}
	r = min(max(r+dr, 0), len(rows)-1)
	c = c + dc
	return clampCursor(rows, r, c)
}

func clampCursor(rows []booking.Row, r, c int) (int, int) {
	if len(rows) == 0 {
		return 0, 0
	}
	r = min(max(r, 0), len(rows)-1)
	n := len(rows[r].Seats)
	if n == 0 {
		return r, 0
	}
	return r, min(max(c, 0), n-1)
}

func firstFreeSeat(rows []booking.Row) (int, int) {
	for r, row := range rows {
		for c, seat := range row.Seats {
			if seat.Available {
				return r, c
			}
		}
	}
	return 0, 0
}

func padCell(text string, width int) string {
	if width <= 0 {
		return ""
	}
	n := lipgloss.Width(text)
	if text == "" {
		return strings.Repeat(" ", width)
	}
	if n >= width {
		return text
	}
	padding := width - n
	left := padding / 2
	right := padding - left
	return strings.Repeat(" ", left) + text + strings.Repeat(" ", right)
}

type screenBlock struct {
	top string
	mid string
	bot string
}

func screenBarBlock(width int, label string) screenBlock {
	if width < len(label)+4 {
		width = len(label) + 4
	}
	if width < 10 {
		width = 10
	}

	border := "╭" + strings.Repeat("─", width-2) + "╮"
	bottom := "╰" + strings.Repeat("─", width-2) + "╯"

	labelText := " " + label + " "
	padding := width - len(labelText) - 2
	left := padding / 2
	right := padding - left
	mid := "│" + strings.Repeat(" ", left) + labelText + strings.Repeat(" ", right) + "│"
	return screenBlock{top: border, mid: mid, bot: bottom}
}

var panelStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 1)

func (m appModel) paymentView() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Payment") + "\n\n")
	sc := m.result.Screening
	if sc.MovieTitle != "" {
		b.WriteString(sc.MovieTitle + "\n")
	}
	if !sc.StartTime.IsZero() {
		b.WriteString(ticket.FormatTime(sc.StartTime) + "\n")
	}
	b.WriteString("\n")
	for _, r := range m.result.Reservations {
		b.WriteString(fmt.Sprintf("%s  %s  %s\n", r.Code, ticket.SeatLabel(r), ticket.FormatPrice(r.Price)))
	}
	b.WriteString("\nTotal: " + lipgloss.NewStyle().Bold(true).Render(ticket.FormatPrice(m.result.Total)))
	return panelStyle.Render(b.String())
}

func (m appModel) ticketView() string {
	if len(m.tickets) == 0 {
		return "No tickets."
	}
	idx := min(max(m.ticketIdx, 0), len(m.tickets)-1)
	r := m.tickets[idx]
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Ticket %d of %d", idx+1, len(m.tickets))) + "\n\n")
	b.WriteString("Code:   " + r.Code + "\n")
	if r.MovieTitle != "" {
		b.WriteString("Movie:  " + r.MovieTitle + "\n")
	}
	if r.HallName != "" {
		b.WriteString("Hall:   " + r.HallName + "\n")
	}
	b.WriteString("Seat:   " + ticket.SeatLabel(r) + "\n")
	b.WriteString("Start:  " + ticket.FormatTime(r.StartTime) + "\n")
	b.WriteString("Price:  " + ticket.FormatPrice(r.Price) + "\n")
	b.WriteString("Status: " + ticket.StatusLabel(r.Status) + "\n")
	if payload, err := ticket.Payload(r); err == nil {
		b.WriteString("\n" + hint("QR payload") + "\n" + payload)
	}
	return panelStyle.Render(b.String())
}

func (m appModel) loginView() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Sign in") + "\n\n")
	b.WriteString("Username\n" + m.username.View() + "\n\n")
	b.WriteString("Password\n" + m.password.View())
	return panelStyle.Render(b.String())
}
