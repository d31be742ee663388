package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"cinema-booking-cli/booking"
	"cinema-booking-cli/model"
	"cinema-booking-cli/service"
	"cinema-booking-cli/store"
	"cinema-booking-cli/ticket"
)

func newBookCmd() *cobra.Command {
	var screeningID string
	var seatIDs []string
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book seats of a screening without the seat map",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 2*a.cfg.HTTPTimeout)
			defer cancel()

			c := booking.NewController(a.client, a.sess, model.ID(screeningID), store.PendingSlot{})
			if err := c.Open(ctx); err != nil {
				return errors.New(booking.UserMessage(err))
			}
			for _, raw := range seatIDs {
				id := model.ID(strings.TrimSpace(raw))
				if c.Selection().IsSelected(id) {
					continue
				}
				if !c.Toggle(id) {
					return fmt.Errorf("seat %s is not available", id)
				}
			}
			return submitAndPrint(ctx, cmd.OutOrStdout(), c)
		}),
	}
	cmd.Flags().StringVarP(&screeningID, "screening", "s", "", "screening id")
	cmd.Flags().StringSliceVar(&seatIDs, "seat", nil, "seat id, repeat or comma-separate for several")
	_ = cmd.MarkFlagRequired("screening")
	_ = cmd.MarkFlagRequired("seat")
	return cmd
}

func newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Book the selection saved when sign-in was required",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if _, ok, err := store.PeekPending(); err != nil || !ok {
				if err != nil {
					_, _, _ = store.TakePending()
					return fmt.Errorf("pending booking is unreadable and was discarded: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to resume.")
				return nil
			}
			if !a.sess.Valid(time.Now()) {
				return errNotSignedIn
			}
			pending, ok, err := store.TakePending()
			if err != nil || !ok {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*a.cfg.HTTPTimeout)
			defer cancel()
			c := booking.NewController(a.client, a.sess, pending.ScreeningID, store.PendingSlot{})
			lost, err := c.Resume(ctx, pending)
			if err != nil {
				return errors.New(booking.UserMessage(err))
			}
			if len(lost) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%d seat(s) were taken meanwhile: %s\n", len(lost), strings.Join(model.IDs(lost), ", "))
			}
			if c.Selection().Len() == 0 {
				return errors.New("none of the saved seats are still available")
			}
			return submitAndPrint(ctx, cmd.OutOrStdout(), c)
		}),
	}
}

func submitAndPrint(ctx context.Context, w io.Writer, c *booking.Controller) error {
	result, err := c.Submit(ctx)
	if err != nil {
		if booking.KindOf(err) == booking.AuthRequired {
			return fmt.Errorf("%s Run `cinema login`, then `cinema resume`", booking.UserMessage(err))
		}
		return errors.New(booking.UserMessage(err))
	}
	fmt.Fprintf(w, "Booked %d seat(s) for %s.\n", len(result.Reservations), result.Screening.MovieTitle)
	fmt.Fprintf(w, "Codes: %s\n", strings.Join(result.Codes(), ", "))
	ticket.RenderBookings(w, result.Reservations)
	return nil
}

func newBookingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bookings",
		Short: "List your bookings",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if !a.sess.Authenticated() {
				return errNotSignedIn
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.HTTPTimeout)
			defer cancel()
			mine, err := a.client.MyBookings(ctx, a.sess)
			if err != nil {
				return err
			}
			if len(mine.Bookings) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No bookings yet.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d bookings, %d active\n", mine.Total, mine.Active)
			ticket.RenderBookings(cmd.OutOrStdout(), mine.Bookings)
			return nil
		}),
	}
}

func newTicketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ticket BOOKING_ID",
		Short: "Show a booking as a ticket with its QR payload",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if !a.sess.Authenticated() {
				return errNotSignedIn
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.HTTPTimeout)
			defer cancel()
			r, err := a.client.GetBooking(ctx, a.sess, model.ID(args[0]))
			if err != nil {
				if service.IsNotFound(err) {
					return fmt.Errorf("booking %s not found", args[0])
				}
				return err
			}
			return ticket.RenderTicket(cmd.OutOrStdout(), r)
		}),
	}
}

func newCancelCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "cancel BOOKING_ID",
		Short: "Cancel a booking",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if !a.sess.Authenticated() {
				return errNotSignedIn
			}
			if !yes {
				prompt := promptui.Prompt{
					Label:     fmt.Sprintf("Cancel booking %s", args[0]),
					IsConfirm: true,
				}
				if _, err := prompt.Run(); err != nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Kept.")
					return nil
				}
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.HTTPTimeout)
			defer cancel()
			r, err := a.client.CancelBooking(ctx, a.sess, model.ID(args[0]))
			if err != nil {
				switch {
				case service.IsNotFound(err):
					return fmt.Errorf("booking %s not found", args[0])
				case service.IsConflict(err):
					return fmt.Errorf("booking %s can no longer be cancelled", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Booking %s is %s.\n", args[0], strings.ToLower(ticket.StatusLabel(r.Status)))
			return nil
		}),
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
