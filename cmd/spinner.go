package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

type collectDoneMsg struct {
	err error
}

type collectSpinnerModel struct {
	spinner spinner.Model
	label   string
	collect tea.Cmd
	err     error
	done    bool
}

func newCollectSpinnerModel(label string, collect tea.Cmd) collectSpinnerModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("69"))),
	)
	return collectSpinnerModel{
		spinner: s,
		label:   label,
		collect: collect,
	}
}

func (m collectSpinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.collect)
}

func (m collectSpinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case collectDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m collectSpinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.label)
}

func runCollectSpinner(ctx context.Context, output io.Writer, label string, collect func(context.Context) error) error {
	collectCmd := func() tea.Msg {
		return collectDoneMsg{err: collect(ctx)}
	}

	p := tea.NewProgram(
		newCollectSpinnerModel(label, collectCmd),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(collectSpinnerModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}
	return result.err
}

// collect runs fn behind a spinner on stderr when stderr is a terminal.
// Log lines emitted meanwhile are held back and printed once the spinner
// is gone.
func collect(ctx context.Context, label string, fn func(context.Context) error) error {
	if flagVerbose || !term.IsTerminal(int(os.Stderr.Fd())) {
		return fn(ctx)
	}

	var held bytes.Buffer
	logger.SetOutput(&held)
	defer func() {
		logger.SetOutput(os.Stderr)
		_, _ = io.Copy(os.Stderr, &held)
	}()

	return runCollectSpinner(ctx, os.Stderr, label, fn)
}
