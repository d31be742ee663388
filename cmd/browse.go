package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/exp/maps"

	"cinema-booking-cli/model"
	"cinema-booking-cli/service"
	"cinema-booking-cli/store"
	"cinema-booking-cli/ticket"
)

func newMoviesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "movies",
		Short: "List the movies on show",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.HTTPTimeout)
			defer cancel()
			movies, err := a.client.ListMovies(ctx)
			if err != nil {
				return err
			}
			_ = store.SaveMovieCache(movies)

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "Title", "Genre", "Duration", "Country"})
			t.SetColumnConfigs([]table.ColumnConfig{
				{Number: 2, WidthMax: 30},
			})
			for _, m := range movies {
				t.AppendRow(table.Row{m.ID, m.Title, m.Genre, fmt.Sprintf("%d min", m.Duration), m.Country})
			}
			t.Render()
			return nil
		}),
	}
}

func newScreeningsCmd() *cobra.Command {
	var movieID string
	cmd := &cobra.Command{
		Use:   "screenings",
		Short: "List upcoming screenings of a movie",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.HTTPTimeout)
			defer cancel()

			id := model.ID(movieID)
			if id.IsZero() {
				movies, err := a.client.ListMovies(ctx)
				if err != nil {
					return err
				}
				if id, err = promptSelectMovie(movies); err != nil {
					return err
				}
			}
			movie, err := a.client.GetMovie(ctx, id)
			if err != nil {
				if service.IsNotFound(err) {
					return fmt.Errorf("movie %s not found", id)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Screenings of %s\n", movie.Title)
			screenings, err := a.client.ListScreenings(ctx, id)
			if err != nil {
				return err
			}
			_ = store.SaveScreeningCache(id, screenings)
			renderScreenings(cmd.OutOrStdout(), screenings)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&movieID, "movie", "m", "", "movie id (prompted when empty)")
	return cmd
}

func promptSelectMovie(movies []model.Movie) (model.ID, error) {
	movieIDByTitle := make(map[string]model.ID)
	for _, m := range movies {
		movieIDByTitle[m.Title] = m.ID
	}
	titles := maps.Keys(movieIDByTitle)
	sort.Strings(titles)

	selectMovie := promptui.Select{
		Label: "Select Movie",
		Items: titles,
		Size:  10,
	}
	_, title, err := selectMovie.Run()
	if err != nil {
		return "", err
	}
	id, ok := movieIDByTitle[title]
	if !ok {
		return "", errors.New("invalid movie")
	}
	return id, nil
}

func renderScreenings(w io.Writer, screenings []model.ScreeningSummary) {
	rowConfigAutoMerge := table.RowConfig{AutoMerge: true}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"ID", "Movie", "Hall", "Starts", "Standard", "VIP"}, rowConfigAutoMerge)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, AutoMerge: true, WidthMax: 24},
	})
	for _, s := range screenings {
		t.AppendRow(table.Row{
			s.ID,
			s.MovieTitle,
			s.HallName,
			ticket.FormatTime(s.StartTime),
			ticket.FormatPrice(s.PriceStandard),
			ticket.FormatPrice(s.PriceVIP),
		}, rowConfigAutoMerge)
	}
	t.Render()
}

func newRecentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "List recently opened screenings",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			recent, err := store.LoadRecentScreenings()
			if err != nil {
				return err
			}
			if len(recent) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No screenings opened yet.")
				return nil
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"ID", "Movie", "Hall", "Starts"})
			for _, r := range recent {
				t.AppendRow(table.Row{r.ScreeningID, r.MovieTitle, r.HallName, ticket.FormatTime(r.StartTime)})
			}
			t.Render()
			return nil
		}),
	}
}

func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached listings",
	}
	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop cached movies and screenings",
		Args:  cobra.NoArgs,
		RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
			if err := store.ClearCache(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
			return nil
		}),
	})
	return cacheCmd
}
