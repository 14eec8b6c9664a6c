package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vogtb/gridcalc/internal/engine"
	"github.com/vogtb/gridcalc/internal/store"
	"github.com/vogtb/gridcalc/internal/tools"
	"github.com/vogtb/gridcalc/internal/tui"
	"github.com/vogtb/gridcalc/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "gridcalc [file]",
	Short: "Terminal grid calculator",
	Long: `A grid of labelled cells holding arithmetic expressions, one-unknown
equations and directives. Cells A..K are summed into Z.

With no argument the grid is backed by .func.toml beside the executable.
A path ending in .toml is used as the section file instead; any other path
is a flat grid file that F5 saves to.

Directives:
  fc.<section>  import a section
  cst.<key>     insert a constant
  s:<expr>      evaluate with qalc
  rate          insert an exchange rate
  new | clone | delete | clear | rename <name>

Set DEBUG to write a trace to debug.log.`,
	Args:          cobra.MaximumNArgs(1),
	Version:       version.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.SetVersionTemplate("gridcalc {{.Version}}\n")
}

func run(cmd *cobra.Command, args []string) error {
	logger, closeLog, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	storePath, err := store.DefaultPath()
	if err != nil {
		return err
	}
	gridPath := ""
	if len(args) == 1 {
		if strings.EqualFold(filepath.Ext(args[0]), ".toml") {
			storePath = args[0]
		} else {
			gridPath = args[0]
		}
	}

	st, err := store.Open(storePath, store.Options{Logger: logger})
	var cfgErr *store.ConfigError
	if errors.As(err, &cfgErr) {
		logger.Printf("main: %v", cfgErr)
		waitForKey(cfgErr.Remediation())
		closeLog()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	theme := st.Theme()
	layout, err := engine.LayoutFor(theme.Cells)
	if err != nil {
		logger.Printf("main: %v, using %s", err, engine.Layout14)
		layout = engine.Layout14
	}
	if theme.Precision >= 0 {
		layout.Precision = theme.Precision
	}
	st.SetLabels(layout.Labels())

	cfg := engine.SessionConfig{Store: st, Logger: logger}
	if gridPath != "" {
		file := &store.SnapshotFile{Path: gridPath, Labels: layout.Labels()}
		cells, remarks, err := file.Read()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return err
		}
		cfg.File, cfg.Cells, cfg.Remarks = file, cells, remarks
	}

	e := engine.New(layout, engine.WithConstants(st.Constants()), engine.WithLogger(logger))
	session := engine.NewSession(e, cfg)
	runner := tools.NewRunner(tools.DefaultDir(), logger)
	model := tui.New(session, runner, tui.Options{Theme: theme, Version: version.String(), Logger: logger})

	logger.Printf("main: starting %s with %s, store %s", version.String(), layout, storePath)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	return nil
}

// newLogger traces to debug.log when DEBUG is set and discards otherwise
func newLogger() (*log.Logger, func(), error) {
	if os.Getenv("DEBUG") == "" {
		return log.New(io.Discard, "", 0), func() {}, nil
	}
	f, err := tea.LogToFile("debug.log", "gridcalc")
	if err != nil {
		return nil, nil, fmt.Errorf("open debug log: %w", err)
	}
	return log.Default(), func() { f.Close() }, nil
}

// notice shows a message until any key is pressed
type notice struct {
	text string
}

func (n notice) Init() tea.Cmd {
	return nil
}

func (n notice) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		return n, tea.Quit
	}
	return n, nil
}

func (n notice) View() string {
	return n.text + "\n- Press any key to exit...\n"
}

func waitForKey(text string) {
	if _, err := tea.NewProgram(notice{text: text}).Run(); err != nil {
		fmt.Fprint(os.Stderr, text)
	}
}
