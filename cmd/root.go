package cmd

import (
	"fmt"
	"io"
	"log"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"cinema-booking-cli/config"
	"cinema-booking-cli/model"
	"cinema-booking-cli/service"
	"cinema-booking-cli/session"
	"cinema-booking-cli/store"
	"cinema-booking-cli/tui"
)

const appName = "cinema"

// app carries what every command needs once the config is loaded.
type app struct {
	cfg     config.Config
	client  *service.Client
	sess    *session.Session
	logFile io.Closer
}

// loadConfig prefers the --env-file given on the command line over ./.env.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	if path, _ := cmd.Flags().GetString("env-file"); path != "" {
		return config.LoadFile(path)
	}
	return config.Load(), nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}
	if cfg.Debug {
		f, err := tea.LogToFile(cfg.LogFile, appName)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
	} else {
		log.SetOutput(cmd.ErrOrStderr())
	}
	for _, w := range cfg.Warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}

	a.client = service.NewClient(cfg.APIURL, &http.Client{Timeout: cfg.HTTPTimeout},
		service.WithMaxAttempts(cfg.MaxAttempts),
		service.WithTokenSaver(saveTokens),
	)

	tokens, ok, err := store.LoadSession()
	if err != nil {
		log.Printf("cmd: load session: %v", err)
	}
	if ok {
		a.sess = session.New(tokens)
	} else {
		a.sess = session.Anonymous()
	}
	if cfg.Debug {
		log.Printf("cmd: api=%s signed_in=%t", cfg.APIURL, a.sess.Authenticated())
	}
	return a, nil
}

func (a *app) Close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

func saveTokens(tokens model.TokenPair) {
	if err := store.SaveSession(tokens); err != nil {
		log.Printf("cmd: save refreshed session: %v", err)
	}
}

// withApp wraps a command body with config loading and log cleanup.
func withApp(run func(cmd *cobra.Command, args []string, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd, args, a)
	}
}

// runTUI starts the interactive client. The terminal belongs to bubbletea,
// so logs only go to the debug file.
func runTUI(screening *string) func(*cobra.Command, []string) error {
	return withApp(func(cmd *cobra.Command, args []string, a *app) error {
		if !a.cfg.Debug {
			log.SetOutput(io.Discard)
		}
		m := tui.New(tui.Options{
			Client:       a.client,
			Session:      a.sess,
			ScreeningID:  model.ID(*screening),
			PaymentDelay: a.cfg.PaymentDelay,
		})
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	})
}

func newTUICmd() *cobra.Command {
	var screening string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive booking client",
		Args:  cobra.NoArgs,
		RunE:  runTUI(&screening),
	}
	cmd.Flags().StringVar(&screening, "screening", "", "open the seat map of this screening directly")
	return cmd
}

// NewRootCmd builds the command tree. Without a subcommand it starts the
// interactive booking client.
func NewRootCmd(version, commit string) *cobra.Command {
	var screening string
	rootCmd := &cobra.Command{
		Use:           appName,
		Short:         "Cinema seat booking from the terminal",
		Long:          `Browse screenings, pick seats on a live seat map and book them, all from the terminal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          runTUI(&screening),
	}
	rootCmd.Flags().StringVar(&screening, "screening", "", "open the seat map of this screening directly")
	rootCmd.PersistentFlags().String("env-file", "", "read settings from this env file instead of ./.env")

	rootCmd.AddCommand(
		newTUICmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newMoviesCmd(),
		newScreeningsCmd(),
		newRecentCmd(),
		newBookCmd(),
		newResumeCmd(),
		newBookingsCmd(),
		newTicketCmd(),
		newCancelCmd(),
		newCacheCmd(),
		newFakeAPICmd(),
		newVersionCmd(version, commit),
	)
	return rootCmd
}

func newVersionCmd(version, commit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s", appName, version)
			if commit != "none" && commit != "" {
				fmt.Fprintf(out, " (%s)", commit)
			}
			fmt.Fprintln(out)
		},
	}
}

// Execute runs the CLI with os.Args.
func Execute(version, commit string) error {
	return NewRootCmd(version, commit).Execute()
}
