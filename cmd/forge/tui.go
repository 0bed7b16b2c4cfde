package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/forgewasm/wasm-forge/builder"
	"github.com/forgewasm/wasm-forge/crate"
	"github.com/forgewasm/wasm-forge/watch"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	stepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// stepLine formats a pipeline step announcement for the plain build output.
func stepLine(styled bool, s builder.Step, crateName string) string {
	line := "-> " + stepDescription(s, crateName)
	if styled {
		return stepStyle.Render(line)
	}
	return line
}

// successLine formats the final confirmation naming the artifact path.
func successLine(styled bool, result *builder.Result) string {
	line := formatResult(result)
	if styled {
		return okStyle.Render(line)
	}
	return line
}

type watchState int

const (
	stateWaiting watchState = iota
	stateBuilding
	stateOK
	stateFailed
)

type watchModel struct {
	crateName string
	spinner   spinner.Model
	state     watchState
	step      builder.Step
	result    string
	errText   string
	toolTail  string
	builds    int
}

type buildStartMsg struct{}

type stepStartMsg struct {
	step builder.Step
}

type buildDoneMsg struct {
	result *builder.Result
	err    error
	stderr string
}

func newWatchModel(crateName string) *watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = stepStyle
	return &watchModel{crateName: crateName, spinner: sp}
}

func (m *watchModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case buildStartMsg:
		m.state = stateBuilding
		m.step = ""
		m.errText = ""
		m.toolTail = ""
		return m, m.spinner.Tick

	case stepStartMsg:
		m.state = stateBuilding
		m.step = msg.step

	case buildDoneMsg:
		m.builds++
		if msg.err != nil {
			m.state = stateFailed
			m.errText = msg.err.Error()
			m.toolTail = tail(msg.stderr, 12)
		} else {
			m.state = stateOK
			m.result = formatResult(msg.result)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *watchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("forge watch"))
	b.WriteString(" ")
	b.WriteString(m.crateName)
	b.WriteString("\n\n")

	switch m.state {
	case stateWaiting:
		b.WriteString("Waiting for changes...\n")

	case stateBuilding:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		if m.step != "" {
			b.WriteString(stepDescription(m.step, m.crateName))
		} else {
			b.WriteString("Building")
		}
		b.WriteString("\n")

	case stateOK:
		b.WriteString(okStyle.Render(m.result))
		b.WriteString("\n")

	case stateFailed:
		b.WriteString(errorStyle.Render("Build failed: " + m.errText))
		b.WriteString("\n")
		if m.toolTail != "" {
			b.WriteString(helpStyle.Render(m.toolTail))
			b.WriteString("\n")
		}
	}

	if m.builds > 0 {
		fmt.Fprintf(&b, "\n%s\n", helpStyle.Render(fmt.Sprintf("%d build(s) • watching for changes • q quit", m.builds)))
	} else {
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("watching for changes • q quit"))
		b.WriteString("\n")
	}

	return b.String()
}

// tail returns the last n lines of s.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// runWatchTUI drives watch mode under a bubbletea program. Tool output is
// captured per build so it never interleaves with the rendered view; the
// stderr tail is shown when a build fails.
func runWatchTUI(ctx context.Context, w *watch.Watcher, b *builder.Builder, cr *crate.Crate) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newWatchModel(cr.Name))

	rebuild := func(ctx context.Context) error {
		var errBuf bytes.Buffer
		b.Stdout = io.Discard
		b.Stderr = &errBuf
		b.OnEvent = func(e builder.Event) {
			if !e.Done {
				p.Send(stepStartMsg{step: e.Step})
			}
		}

		p.Send(buildStartMsg{})
		result, err := b.Run(ctx)
		p.Send(buildDoneMsg{result: result, err: err, stderr: errBuf.String()})
		return err
	}

	watchDone := make(chan error, 1)
	go func() {
		rebuild(ctx)
		watchDone <- w.Run(ctx, rebuild)
	}()

	_, err := p.Run()
	cancel()

	select {
	case <-watchDone:
	case <-time.After(2 * time.Second):
	}

	return err
}
