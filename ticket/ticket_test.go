package ticket

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cinema-booking-cli/model"
)

func sampleReservation() model.Reservation {
	return model.Reservation{
		ID:         "10",
		Code:       "BK2603011a2b3c4d5e",
		Row:        3,
		Number:     7,
		SeatType:   model.SeatVIP,
		Price:      350,
		Status:     model.StatusConfirmed,
		MovieTitle: "Arrival",
		HallName:   "Hall 1",
		StartTime:  time.Date(2026, 3, 1, 19, 30, 0, 0, time.UTC),
	}
}

func TestPayload_Fields(t *testing.T) {
	payload, err := Payload(sampleReservation())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if data["code"] != "BK2603011a2b3c4d5e" || data["movie"] != "Arrival" || data["hall"] != "Hall 1" {
		t.Fatalf("unexpected payload: %s", payload)
	}
	if data["row"] != float64(3) || data["seat"] != float64(7) {
		t.Fatalf("unexpected seat in payload: %s", payload)
	}
	if data["time"] != "2026-03-01T19:30:00Z" {
		t.Fatalf("unexpected time: %v", data["time"])
	}
}

func TestPayload_RequiresCode(t *testing.T) {
	r := sampleReservation()
	r.Code = " "
	if _, err := Payload(r); err == nil {
		t.Fatal("expected error for missing code")
	}
}

func TestStatusLabel(t *testing.T) {
	if StatusLabel(model.StatusCancelled) != "Cancelled" {
		t.Fatalf("unexpected label: %s", StatusLabel(model.StatusCancelled))
	}
	if StatusLabel("refunded") != "Refunded" {
		t.Fatalf("unexpected label: %s", StatusLabel("refunded"))
	}
	if StatusLabel("") != "Unknown" {
		t.Fatalf("unexpected label: %s", StatusLabel(""))
	}
}

func TestRenderBookings_TotalsActiveOnly(t *testing.T) {
	active := sampleReservation()
	cancelled := sampleReservation()
	cancelled.ID = "11"
	cancelled.Code = "BK2603019999999999"
	cancelled.Status = model.StatusCancelled

	var buf bytes.Buffer
	RenderBookings(&buf, []model.Reservation{active, cancelled})
	out := buf.String()
	for _, want := range []string{"BK2603011a2b3c4d5e", "BK2603019999999999", "Row 3, Seat 7 (VIP)", "Cancelled", "350.00"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "700.00") {
		t.Fatalf("expected cancelled booking to be excluded from total, got:\n%s", out)
	}
}

func TestRenderTicket_IncludesPayload(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderTicket(&buf, sampleReservation()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !strings.Contains(buf.String(), `"code":"BK2603011a2b3c4d5e"`) {
		t.Fatalf("expected qr payload in output, got:\n%s", buf.String())
	}
}
