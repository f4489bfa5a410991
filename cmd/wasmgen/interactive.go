package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/wasm-fuzzgen"
	"github.com/wippyai/wasm-fuzzgen/config"
	"github.com/wippyai/wasm-fuzzgen/verify"
	"github.com/wippyai/wasm-fuzzgen/wat"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateFunctions modelState = iota
	stateSource
	stateSeed
	stateResult
)

// headerLines is the space View reserves above and below the viewport.
const headerLines = 5

type browserModel struct {
	err      error
	res      *fuzzgen.Result
	eng      *verify.Engine
	vcfg     *verify.Config
	cfg      config.Config
	title    string
	result   string
	view     viewport.Model
	seed     textinput.Model
	selected int
	width    int
	height   int
	state    modelState
}

type generatedMsg struct {
	err error
	res *fuzzgen.Result
}

type runResultMsg struct {
	err    error
	result string
}

func newBrowserModel(cfg config.Config, vcfg *verify.Config) *browserModel {
	seed := textinput.New()
	seed.Prompt = "seed: "
	seed.Placeholder = strconv.FormatInt(cfg.Seed, 10)
	seed.CharLimit = 20
	seed.Width = 24

	return &browserModel{
		cfg:    cfg,
		vcfg:   vcfg,
		seed:   seed,
		view:   viewport.New(80, 20),
		width:  80,
		height: 24,
		state:  stateFunctions,
	}
}

func (m *browserModel) Init() tea.Cmd {
	return m.generate
}

func (m *browserModel) generate() tea.Msg {
	res, err := fuzzgen.Generate(m.cfg)
	return generatedMsg{res: res, err: err}
}

func (m *browserModel) runExport() tea.Msg {
	ctx := context.Background()
	if m.eng == nil {
		m.eng = verify.NewEngine(ctx, m.vcfg)
	}
	out, err := m.eng.Run(ctx, m.res.Wasm, m.res.Module.ExportName)
	if err != nil {
		return runResultMsg{err: err}
	}
	return runResultMsg{result: out.String()}
}

func (m *browserModel) close() {
	if m.eng != nil {
		m.eng.Close(context.Background())
	}
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-headerLines, 1)
		return m, nil

	case tea.KeyMsg:
		if m.state == stateSeed {
			return m.updateSeed(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.close()
			return m, tea.Quit

		case "up", "k":
			if m.state == stateFunctions && m.selected > 0 {
				m.selected--
				return m, nil
			}

		case "down", "j":
			if m.state == stateFunctions && m.res != nil && m.selected < len(m.res.Module.Functions)-1 {
				m.selected++
				return m, nil
			}

		case "enter":
			switch m.state {
			case stateFunctions:
				if m.res != nil {
					fn := m.res.Module.Functions[m.selected]
					m.show(fmt.Sprintf("func %d", fn.Index), wat.FormatFunction(fn))
				}
				return m, nil
			case stateResult:
				m.state = stateFunctions
				m.result, m.err = "", nil
				return m, nil
			}

		case "w":
			if m.res != nil {
				m.show("module", m.res.WAT)
			}
			return m, nil

		case "g":
			if m.res != nil {
				m.show("call graph", m.res.DOT)
			}
			return m, nil

		case "r":
			if m.res != nil && m.state != stateResult {
				return m, m.runExport
			}

		case "n":
			m.cfg.Seed++
			m.reset()
			return m, m.generate

		case "s":
			m.state = stateSeed
			m.seed.SetValue("")
			m.seed.Focus()
			return m, textinput.Blink

		case "esc":
			if m.state != stateFunctions {
				m.state = stateFunctions
				m.result, m.err = "", nil
			}
			return m, nil
		}

	case generatedMsg:
		m.res, m.err = msg.res, msg.err
		m.selected = 0
		return m, nil

	case runResultMsg:
		m.result, m.err = msg.result, msg.err
		m.state = stateResult
		return m, nil
	}

	if m.state == stateSource {
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *browserModel) updateSeed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.close()
		return m, tea.Quit
	case "esc":
		m.seed.Blur()
		m.state = stateFunctions
		return m, nil
	case "enter":
		seed, err := strconv.ParseInt(strings.TrimSpace(m.seed.Value()), 10, 64)
		m.seed.Blur()
		m.state = stateFunctions
		if err != nil {
			m.err = fmt.Errorf("invalid seed %q", m.seed.Value())
			return m, nil
		}
		m.cfg.Seed = seed
		m.seed.Placeholder = strconv.FormatInt(seed, 10)
		m.reset()
		return m, m.generate
	}

	var cmd tea.Cmd
	m.seed, cmd = m.seed.Update(msg)
	return m, cmd
}

func (m *browserModel) show(title, content string) {
	m.title = title
	m.view.SetContent(content)
	m.view.GotoTop()
	m.state = stateSource
}

func (m *browserModel) reset() {
	m.res, m.err = nil, nil
	m.result = ""
	m.state = stateFunctions
}

func (m *browserModel) View() string {
	if m.err != nil && m.state != stateResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress n for the next seed, s to enter one, q to quit.", m.err))
	}
	if m.res == nil {
		return "Generating module..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("WASM Generator"))
	fmt.Fprintf(&b, " seed %d, %d functions, export %q = func %d\n\n",
		m.res.Module.Seed, len(m.res.Module.Functions), m.res.Module.ExportName, m.res.Module.Export)

	switch m.state {
	case stateFunctions:
		b.WriteString(m.functionList())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter body • w module • g graph • r run • n next seed • s seed • q quit"))

	case stateSource:
		b.WriteString(funcStyle.Render(m.title))
		b.WriteString("\n")
		b.WriteString(m.view.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(fmt.Sprintf("%3.f%% • ↑/↓ scroll • esc back • q quit", m.view.ScrollPercent()*100)))

	case stateSeed:
		b.WriteString(m.seed.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter generate • esc back"))

	case stateResult:
		fmt.Fprintf(&b, "Result of %s:\n\n", funcStyle.Render(m.res.Module.ExportName))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

// functionList renders the window of functions around the selection that
// fits the terminal.
func (m *browserModel) functionList() string {
	fns := m.res.Module.Functions
	rows := max(m.height-headerLines, 1)
	start := 0
	if m.selected >= rows {
		start = m.selected - rows + 1
	}
	end := min(start+rows, len(fns))

	var b strings.Builder
	for i := start; i < end; i++ {
		fn := fns[i]
		line := fmt.Sprintf("func %-4d %s  calls %v", fn.Index,
			typeStyle.Render(fn.Signature.String()), m.res.Module.Graph.Callees(fn.Index))
		if fn.Index == m.res.Module.Export {
			line += " " + resultStyle.Render("(export)")
		}
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func runInteractive(cfg config.Config, vcfg *verify.Config) error {
	p := tea.NewProgram(newBrowserModel(cfg, vcfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
