// Package ticket builds what the client shows for a confirmed booking: the
// QR payload and the booking tables.
package ticket

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"cinema-booking-cli/model"
)

const timeLayout = "02 Jan 2006 15:04"

// QRData is the value a QR renderer encodes for the ticket.
type QRData struct {
	Code  string `json:"code"`
	Movie string `json:"movie"`
	Hall  string `json:"hall"`
	Row   int    `json:"row"`
	Seat  int    `json:"seat"`
	Time  string `json:"time"`
}

func NewQRData(r model.Reservation) QRData {
	data := QRData{
		Code:  r.Code,
		Movie: r.MovieTitle,
		Hall:  r.HallName,
		Row:   r.Row,
		Seat:  r.Number,
	}
	if !r.StartTime.IsZero() {
		data.Time = r.StartTime.UTC().Format(time.RFC3339)
	}
	return data
}

// Payload returns the JSON string encoded into the ticket QR code.
func Payload(r model.Reservation) (string, error) {
	if strings.TrimSpace(r.Code) == "" {
		return "", fmt.Errorf("booking %s has no code", r.ID)
	}
	payload, err := json.Marshal(NewQRData(r))
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func StatusLabel(status model.BookingStatus) string {
	switch status {
	case model.StatusPending:
		return "Pending"
	case model.StatusConfirmed:
		return "Confirmed"
	case model.StatusCancelled:
		return "Cancelled"
	case model.StatusUsed:
		return "Used"
	default:
		if status == "" {
			return "Unknown"
		}
		return strings.ToUpper(string(status[:1])) + string(status[1:])
	}
}

func SeatLabel(r model.Reservation) string {
	label := fmt.Sprintf("Row %d, Seat %d", r.Row, r.Number)
	if r.SeatType == model.SeatVIP {
		label += " (VIP)"
	}
	return label
}

func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func FormatPrice(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// RenderBookings writes the bookings as a table, one row per seat.
func RenderBookings(w io.Writer, bookings []model.Reservation) {
	rowConfigAutoMerge := table.RowConfig{AutoMerge: true}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Code", "Movie", "Hall", "Time", "Seat", "Price", "Status"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, AutoMerge: true, WidthMax: 24},
		{Number: 4, AutoMerge: true},
		{Number: 5, AutoMerge: true},
		{Number: 7, Align: text.AlignRight},
	})
	t.Style().Options.SeparateRows = true

	var total float64
	for _, b := range bookings {
		hall := b.HallName
		if hall == "" {
			hall = "-"
		}
		t.AppendRow(table.Row{
			b.ID.String(),
			b.Code,
			b.MovieTitle,
			hall,
			FormatTime(b.StartTime),
			SeatLabel(b),
			FormatPrice(b.Price),
			StatusLabel(b.Status),
		}, rowConfigAutoMerge)
		if b.Status.Active() {
			total += b.Price
		}
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "Active total", FormatPrice(total), ""})
	t.Render()
}

// RenderTicket writes a single booking with its QR payload.
func RenderTicket(w io.Writer, r model.Reservation) error {
	payload, err := Payload(r)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Ticket " + r.Code)
	t.AppendRows([]table.Row{
		{"Movie", r.MovieTitle},
		{"Hall", r.HallName},
		{"Time", FormatTime(r.StartTime)},
		{"Seat", SeatLabel(r)},
		{"Price", FormatPrice(r.Price)},
		{"Status", StatusLabel(r.Status)},
		{"QR", payload},
	})
	t.Render()
	return nil
}
