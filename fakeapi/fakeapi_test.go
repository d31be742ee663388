package fakeapi_test

import (
	"context"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"cinema-booking-cli/booking"
	"cinema-booking-cli/fakeapi"
	"cinema-booking-cli/model"
	"cinema-booking-cli/service"
	"cinema-booking-cli/session"
)

var codePattern = regexp.MustCompile(`^BK\d{6}[0-9A-F]{10}$`)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func startServer(t *testing.T, opts ...fakeapi.Option) (*fakeapi.Server, *service.Client) {
	t.Helper()
	server, err := fakeapi.New("test-secret", opts...)
	if err != nil {
		t.Fatalf("new fake api: %v", err)
	}
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return server, service.NewClient(ts.URL+"/api", ts.Client(), service.WithMaxAttempts(1))
}

func login(t *testing.T, client *service.Client) *session.Session {
	t.Helper()
	tokens, err := client.Login(context.Background(), fakeapi.DemoUser, fakeapi.DemoPassword)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return session.New(tokens)
}

func firstScreening(t *testing.T, server *fakeapi.Server) model.ID {
	t.Helper()
	ids := server.Screenings()
	if len(ids) == 0 {
		t.Fatal("expected seeded screenings")
	}
	return ids[0]
}

func TestLoginAndMe(t *testing.T) {
	_, client := startServer(t)
	sess := login(t, client)

	user, err := client.Me(context.Background(), sess)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if user.Username != fakeapi.DemoUser || user.IsAdmin() {
		t.Fatalf("unexpected user: %+v", user)
	}
	if _, ok := session.Expiry(sess.AccessToken()); !ok {
		t.Fatal("expected access token to carry an exp claim")
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	_, client := startServer(t)
	_, err := client.Login(context.Background(), fakeapi.DemoUser, "wrong")
	if !service.IsUnauthorized(err) {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestExpiredAccessIsRefreshed(t *testing.T) {
	clk := &clock{now: time.Now()}
	_, client := startServer(t, fakeapi.WithClock(clk.Now), fakeapi.WithAccessTTL(time.Minute))
	sess := login(t, client)
	stale := sess.AccessToken()

	clk.Advance(2 * time.Minute)
	if _, err := client.MyBookings(context.Background(), sess); err != nil {
		t.Fatalf("expected refresh to recover, got %v", err)
	}
	if sess.AccessToken() == stale {
		t.Fatal("expected a new access token")
	}
}

func TestRevokedRefreshIsUnauthorized(t *testing.T) {
	clk := &clock{now: time.Now()}
	server, client := startServer(t, fakeapi.WithClock(clk.Now), fakeapi.WithAccessTTL(time.Minute))
	sess := login(t, client)

	clk.Advance(2 * time.Minute)
	server.RevokeRefresh()
	_, err := client.MyBookings(context.Background(), sess)
	if !service.IsUnauthorized(err) {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestListingEndpoints(t *testing.T) {
	_, client := startServer(t)
	ctx := context.Background()

	movies, err := client.ListMovies(ctx)
	if err != nil || len(movies) == 0 {
		t.Fatalf("expected movies, got %d err=%v", len(movies), err)
	}
	movie, err := client.GetMovie(ctx, movies[0].ID)
	if err != nil || movie.Title != movies[0].Title {
		t.Fatalf("unexpected movie: %+v err=%v", movie, err)
	}
	screenings, err := client.ListScreenings(ctx, movies[0].ID)
	if err != nil || len(screenings) == 0 {
		t.Fatalf("expected screenings, got %d err=%v", len(screenings), err)
	}
	for _, sc := range screenings {
		if sc.MovieTitle != movie.Title {
			t.Fatalf("expected only %s screenings, got %+v", movie.Title, sc)
		}
	}
	if _, err := client.GetMovie(ctx, "99999"); !service.IsNotFound(err) {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestBookingFlow(t *testing.T) {
	server, client := startServer(t)
	ctx := context.Background()
	screeningID := firstScreening(t, server)

	c := booking.NewController(client, login(t, client), screeningID, nil)
	if err := c.Open(ctx); err != nil {
		t.Fatalf("open: %v", err)
	}
	seats := c.Snapshot().Seats
	if len(seats) < 2 || c.Snapshot().Screening.HallName == "" {
		t.Fatalf("unexpected snapshot: %+v", c.Snapshot().Screening)
	}
	c.Toggle(seats[0].ID)
	c.Toggle(seats[1].ID)
	want := seats[0].Price + seats[1].Price

	result, err := c.Submit(ctx)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(result.Reservations) != 2 || result.Total != want {
		t.Fatalf("unexpected result: %+v", result)
	}
	for _, res := range result.Reservations {
		if !codePattern.MatchString(res.Code) {
			t.Fatalf("unexpected booking code %q", res.Code)
		}
		if res.MovieTitle == "" || !res.CanCancel {
			t.Fatalf("unexpected reservation: %+v", res)
		}
	}

	for _, seat := range server.Seats(screeningID)[:2] {
		if seat.Available {
			t.Fatalf("expected seat %s to be taken", seat.ID)
		}
	}

	mine, err := client.MyBookings(ctx, c.Session())
	if err != nil {
		t.Fatalf("my bookings: %v", err)
	}
	if mine.Total != 2 || mine.Active != 2 {
		t.Fatalf("unexpected bookings: %+v", mine)
	}
}

func TestBookingConflictRefreshesSnapshot(t *testing.T) {
	server, client := startServer(t)
	ctx := context.Background()
	screeningID := firstScreening(t, server)

	c := booking.NewController(client, login(t, client), screeningID, nil)
	if err := c.Open(ctx); err != nil {
		t.Fatalf("open: %v", err)
	}
	contested := c.Snapshot().Seats[0]
	c.Toggle(contested.ID)
	c.Toggle(c.Snapshot().Seats[1].ID)

	if err := server.TakeSeat(screeningID, contested.ID); err != nil {
		t.Fatalf("take seat: %v", err)
	}

	_, err := c.Submit(ctx)
	if booking.KindOf(err) != booking.SeatConflict {
		t.Fatalf("expected seat conflict, got %v", err)
	}
	if !strings.Contains(booking.UserMessage(err), "no longer available") {
		t.Fatalf("unexpected message: %q", booking.UserMessage(err))
	}
	if c.Selection().Len() != 0 {
		t.Fatalf("expected empty selection, got %d", c.Selection().Len())
	}
	if c.Snapshot().Available(contested.ID) {
		t.Fatal("expected refreshed snapshot to show the seat as taken")
	}
	for _, seat := range server.Seats(screeningID)[1:2] {
		if !seat.Available {
			t.Fatal("expected the other seat to stay free after the rejected booking")
		}
	}
}

func TestBookingWithoutTokenIsUnauthorized(t *testing.T) {
	server, client := startServer(t)
	_, err := client.BookSeats(context.Background(), session.Anonymous(), firstScreening(t, server), []model.ID{"1"})
	if !service.IsUnauthorized(err) {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestCancelRules(t *testing.T) {
	clk := &clock{now: time.Now()}
	server, client := startServer(t, fakeapi.WithClock(clk.Now), fakeapi.WithAccessTTL(24*time.Hour))
	ctx := context.Background()
	sess := login(t, client)
	screeningID := firstScreening(t, server)
	seats := server.Seats(screeningID)

	booked, err := client.BookSeats(ctx, sess, screeningID, []model.ID{seats[0].ID, seats[1].ID})
	if err != nil {
		t.Fatalf("book: %v", err)
	}

	cancelled, err := client.CancelBooking(ctx, sess, booked[0].ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != model.StatusCancelled || cancelled.CanCancel {
		t.Fatalf("unexpected cancelled booking: %+v", cancelled)
	}
	if _, err := client.CancelBooking(ctx, sess, booked[0].ID); !service.IsConflict(err) {
		t.Fatalf("expected 400 on second cancel, got %v", err)
	}

	start := server.Seats(screeningID)
	if !start[0].Available {
		t.Fatal("expected cancelled seat to be free again")
	}

	// the first seeded screening starts three hours after the seed clock
	clk.Advance(2*time.Hour + 45*time.Minute)
	if _, err := client.CancelBooking(ctx, sess, booked[1].ID); !service.IsConflict(err) {
		t.Fatalf("expected 400 inside the cutoff, got %v", err)
	}

	got, err := client.GetBooking(ctx, sess, booked[1].ID)
	if err != nil {
		t.Fatalf("get booking: %v", err)
	}
	if got.Status != model.StatusConfirmed || got.CanCancel {
		t.Fatalf("unexpected booking: %+v", got)
	}
}

func TestOtherUsersBookingIsHidden(t *testing.T) {
	server, client := startServer(t)
	ctx := context.Background()
	if _, err := server.AddUser("other", "other1234", false); err != nil {
		t.Fatalf("add user: %v", err)
	}
	screeningID := firstScreening(t, server)

	booked, err := client.BookSeats(ctx, login(t, client), screeningID, []model.ID{server.Seats(screeningID)[0].ID})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	tokens, err := client.Login(ctx, "other", "other1234")
	if err != nil {
		t.Fatalf("login other: %v", err)
	}
	if _, err := client.GetBooking(ctx, session.New(tokens), booked[0].ID); !service.IsNotFound(err) {
		t.Fatalf("expected 404, got %v", err)
	}
}
