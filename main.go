package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/bassamadnan/mailpull/batch"
	"github.com/bassamadnan/mailpull/config"
	"github.com/bassamadnan/mailpull/gmail"
	"github.com/bassamadnan/mailpull/ingest"
	"github.com/bassamadnan/mailpull/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

const (
	defaultConfigPath = "mailpull.json"
	envFile           = ".env"
	eventBuffer       = 64
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err, os.Stdout, os.Stderr))
}

// exitCode reports err and maps it to the process status. An interrupted
// run is not a failure.
func exitCode(err error, stdout, stderr io.Writer) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(stdout, "Interrupted")
		return 0
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mailpull",
		Short:         "Pull a Gmail mailbox into plain-text batch files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newFetchCmd(), newViewCmd())
	return rootCmd
}

func newFetchCmd() *cobra.Command {
	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch every message page by page and write one batch file per page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd)
		},
	}
	fetchCmd.Flags().String("config", defaultConfigPath, "Settings file, created with defaults when missing")
	fetchCmd.Flags().Int("page-size", 0, "Messages listed per page (1-500)")
	fetchCmd.Flags().Int("limit", 0, "Stop after this many messages, 0 for no limit")
	fetchCmd.Flags().String("out", "", "Directory for batch files")
	fetchCmd.Flags().Bool("tui", false, "Show a live progress view")
	fetchCmd.Flags().Bool("debug", false, "Enable debug logging")
	return fetchCmd
}

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view FILE",
		Short: "Browse the records of a batch file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readBatchFile(args[0])
			if err != nil {
				return err
			}
			return tui.NewBrowser(records, filepath.Base(args[0])).Run()
		},
	}
}

func readBatchFile(path string) ([]gmail.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	records, err := batch.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}

// loadSettings layers the settings file, the environment and the command
// line flags, in that order.
func loadSettings(cmd *cobra.Command) (config.Settings, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")

	m, err := config.NewManager(path)
	if err != nil {
		return config.Settings{}, err
	}
	if err := m.ApplyEnv(envFile); err != nil {
		return config.Settings{}, err
	}
	m.Update(func(s *config.Settings) {
		if flags.Changed("page-size") {
			s.PageSize, _ = flags.GetInt("page-size")
		}
		if flags.Changed("limit") {
			s.TotalLimit, _ = flags.GetInt("limit")
		}
		if flags.Changed("out") {
			s.OutputDir, _ = flags.GetString("out")
		}
	})

	s := m.Get()
	if err := s.Validate(); err != nil {
		return config.Settings{}, err
	}
	return s, nil
}

// newLogger writes to stderr, or to the log file while the progress view
// owns the terminal.
func newLogger(s config.Settings, toFile, debug bool) (*log.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closeFn := func() {}
	if toFile {
		f, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0660)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { f.Close() }
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "mailpull",
	})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger, closeFn, nil
}

func runFetch(cmd *cobra.Command) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	useTUI, _ := cmd.Flags().GetBool("tui")
	debug, _ := cmd.Flags().GetBool("debug")

	logger, closeLog, err := newLogger(s, useTUI, debug)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	client, err := gmail.NewClient(ctx, gmail.AuthOptions{
		CredentialsFile: s.CredentialsFile,
		TokenFile:       s.TokenFile,
		User:            s.User,
		Prompt:          cmd.InOrStdin(),
		Out:             cmd.OutOrStdout(),
	}, logger)
	if err != nil {
		return err
	}
	pager, err := gmail.NewPager(client, s.PageSize, s.TotalLimit)
	if err != nil {
		return err
	}
	runner := &ingest.Runner{
		Pages:    pager,
		Messages: client,
		Writer:   batch.NewWriter(s.OutputDir, logger),
		Logger:   logger,
	}

	var sum ingest.Summary
	if useTUI {
		sum, err = runWithProgress(ctx, runner)
	} else {
		sum, err = runner.Run(ctx)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Fetched %d messages into %d files in %s\n", sum.Messages, len(sum.Files), s.OutputDir)
	return nil
}

// runWithProgress runs the fetch in its own goroutine while the progress
// view follows its events. Quitting the view cancels the fetch.
func runWithProgress(ctx context.Context, runner *ingest.Runner) (ingest.Summary, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan ingest.Event, eventBuffer)
	done := make(chan tui.Result, 1)
	runner.OnEvent = func(ev ingest.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}
	go func() {
		sum, err := runner.Run(ctx)
		close(events)
		done <- tui.Result{Summary: sum, Err: err}
	}()

	// Signals already cancel ctx; the view quits once the fetch returns.
	p := tea.NewProgram(tui.NewProgress(events, done, cancel), tea.WithoutSignalHandler())
	final, err := p.Run()
	if err != nil {
		return ingest.Summary{}, fmt.Errorf("progress view: %w", err)
	}
	progress, ok := final.(tui.Progress)
	if !ok {
		return ingest.Summary{}, errors.New("progress view: unexpected model")
	}
	res, ok := progress.Result()
	if !ok {
		return ingest.Summary{}, errors.New("progress view stopped before the fetch returned")
	}
	return res.Summary, res.Err
}
