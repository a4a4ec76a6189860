// Package tui is a terminal view that steps a track through the detector
// live, one propagation step per animation tick.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/trackprop/internal/config"
	"github.com/san-kum/trackprop/internal/propagator"
	"github.com/san-kum/trackprop/internal/stepper"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type phase int

const (
	phaseRunning phase = iota
	phaseDone
	phaseFailed
)

type model struct {
	cfg *config.Config

	rk        *stepper.RK
	nav       *propagator.SequenceNavigator
	st        *stepper.State
	heartbeat bool
	phase     phase
	err       error

	trail   []r3.Vec
	history []float64
	hits    []uint
	planesX []float64

	paused bool
	speed  int

	width  int
	height int
}

func newModel(cfg *config.Config) (*model, error) {
	field, err := cfg.FieldProvider()
	if err != nil {
		return nil, err
	}
	m := &model{
		cfg:    cfg,
		rk:     stepper.NewRK(field, cfg.StepperConfig()),
		speed:  1,
		width:  80,
		height: 24,
	}
	for _, s := range cfg.Surfaces() {
		m.planesX = append(m.planesX, s.Transform().Translation.X)
	}
	m.restart()
	return m, nil
}

func (m *model) restart() {
	m.st = stepper.NewState(m.cfg.InitTrack())
	m.nav = propagator.NewSequenceNavigator(m.cfg.Surfaces()...)
	m.heartbeat = m.nav.Init(m.st)
	m.phase = phaseRunning
	m.err = nil
	m.trail = []r3.Vec{m.st.Track.Pos}
	m.history = nil
	m.hits = nil
	m.paused = false
	if !m.heartbeat {
		m.phase = phaseFailed
		m.err = propagator.ErrStalled
	}
}

func (m model) Init() tea.Cmd { return tick() }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
		case "r":
			m.restart()
		case "+", "=":
			if m.speed < 16 {
				m.speed *= 2
			}
		case "-", "_":
			if m.speed > 1 {
				m.speed /= 2
			}
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.phase == phaseRunning && !m.paused {
			for i := 0; i < m.speed && m.phase == phaseRunning; i++ {
				m.step()
			}
		}
		return m, tick()
	}
	return m, nil
}

// step performs one stepper/navigator round, the same loop the propagator
// runs, unrolled so the view can redraw between steps.
func (m *model) step() {
	if !m.heartbeat {
		if m.nav.Exhausted() {
			m.phase = phaseDone
		} else {
			m.phase = phaseFailed
			m.err = propagator.ErrStalled
		}
		return
	}
	if err := m.rk.Step(m.st); err != nil {
		m.phase = phaseFailed
		m.err = err
		return
	}
	m.heartbeat = m.nav.Update(m.st)

	m.trail = append(m.trail, m.st.Track.Pos)
	if len(m.trail) > 2000 {
		m.trail = m.trail[1:]
	}
	m.history = append(m.history, math.Abs(m.st.StepSize))
	if len(m.history) > 60 {
		m.history = m.history[1:]
	}
	if surf := m.nav.CurrentSurface(); surf != nil {
		m.hits = append(m.hits, surf.ID())
	}
}

func (m model) View() string {
	cw := m.width - 6
	ch := m.height - 9
	if cw < 50 {
		cw = 50
	}
	if ch < 10 {
		ch = 10
	}

	canvas := make([][]rune, ch)
	for i := range canvas {
		canvas[i] = make([]rune, cw)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}
	m.draw(canvas, cw, ch)

	var b strings.Builder

	icon, text := green.Render("●"), green.Render("running")
	switch {
	case m.phase == phaseDone:
		icon, text = cyan.Render("●"), cyan.Render("finished")
	case m.phase == phaseFailed:
		icon, text = red.Render("✗"), red.Render(m.err.Error())
	case m.paused:
		icon, text = yellow.Render("○"), yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n\n",
		icon, cyan.Render("trackprop"), text))

	for _, row := range canvas {
		b.WriteString("   " + string(row) + "\n")
	}

	pos := m.st.Track.Pos
	b.WriteString(fmt.Sprintf("\n   %s%s  %s%s  %s%s  %s%d/%d\n",
		dim.Render("s="), white.Render(fmt.Sprintf("%.3f", m.st.PathLength)),
		dim.Render("h="), white.Render(fmt.Sprintf("%.2e", m.st.StepSize)),
		dim.Render("pos="), white.Render(fmt.Sprintf("(%.2f %.2f %.2f)", pos.X, pos.Y, pos.Z)),
		dim.Render("hits="), len(m.hits), len(m.planesX)))

	if len(m.history) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s\n",
			dim.Render("h"), cyan.Render(sparkline(m.history, 24))))
	}

	b.WriteString("\n" + dim.Render("   space pause  ±speed  r restart  q quit") + "\n")
	return b.String()
}

// draw renders the x/y projection: planes as vertical bars, the trail, the
// current track position.
func (m model) draw(canvas [][]rune, w, h int) {
	xMin, xMax := m.bounds()
	yHalf := (xMax - xMin) * float64(h) / float64(w)
	scaleX := func(x float64) int { return int((x - xMin) / (xMax - xMin) * float64(w-1)) }
	scaleY := func(y float64) int { return h/2 - int(y/yHalf*float64(h/2-1)) }

	for _, px := range m.planesX {
		cx := scaleX(px)
		for y := 1; y < h-1; y++ {
			set(canvas, cx, y, '│', w, h)
		}
	}
	for _, p := range m.trail {
		set(canvas, scaleX(p.X), scaleY(p.Y), '·', w, h)
	}
	cur := m.st.Track.Pos
	set(canvas, scaleX(cur.X), scaleY(cur.Y), '⬤', w, h)
}

func (m model) bounds() (xMin, xMax float64) {
	xMin, xMax = 0, 1
	for _, px := range m.planesX {
		if px > xMax {
			xMax = px
		}
		if px < xMin {
			xMin = px
		}
	}
	for _, p := range m.trail {
		if p.X > xMax {
			xMax = p.X
		}
		if p.X < xMin {
			xMin = p.X
		}
	}
	pad := (xMax - xMin) * 0.05
	return xMin - pad, xMax + pad
}

func set(canvas [][]rune, x, y int, c rune, w, h int) {
	if x >= 0 && x < w && y >= 0 && y < h {
		canvas[y][x] = c
	}
}

func sparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		idx := int((data[i*step] - minVal) / rang * 7)
		if idx > 7 {
			idx = 7
		}
		if idx < 0 {
			idx = 0
		}
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

// Run starts the live view.
func Run(cfg *config.Config) error {
	m, err := newModel(cfg)
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
