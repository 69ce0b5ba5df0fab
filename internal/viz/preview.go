package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/patrickmn/go-cache"

	"github.com/san-kum/dragonzoom/internal/camera"
)

const (
	historyCapacity = 240
	frameTTL        = time.Minute
)

type TickMsg time.Time

type PreviewOptions struct {
	// Cols and Rows size the canvas in terminal cells.
	Cols, Rows int
	FPS        int
	// Speed is animation seconds per wall-clock second.
	Speed float64
	Theme string
}

func DefaultPreviewOptions() PreviewOptions {
	return PreviewOptions{Cols: 80, Rows: 24, FPS: 30, Speed: 1, Theme: ThemeVermilion.Name}
}

// PreviewModel plays the zoom in the terminal. The active camera functions
// drive the view; f switches to the raw functions for comparison.
type PreviewModel struct {
	cam      *camera.Camera
	canvas   *Canvas
	fps      int
	speed    float64
	t        float64
	running  bool
	raw      bool
	theme    Theme
	showHelp bool
	history  []float64
	segments int
	// frames holds drawn canvases keyed by camera mode and time, so a
	// looping animation replays without re-walking the curve.
	frames *cache.Cache
}

type cachedFrame struct {
	cells    []rune
	segments int
}

func frameKey(raw bool, t float64) string {
	return fmt.Sprintf("%t:%x", raw, math.Float64bits(t))
}

func NewPreviewModel(cam *camera.Camera, opts PreviewOptions) PreviewModel {
	def := DefaultPreviewOptions()
	if opts.Cols <= 0 || opts.Rows <= 0 {
		opts.Cols, opts.Rows = def.Cols, def.Rows
	}
	if opts.FPS <= 0 {
		opts.FPS = def.FPS
	}
	if opts.Speed <= 0 {
		opts.Speed = def.Speed
	}

	m := PreviewModel{
		cam:     cam,
		canvas:  NewCanvas(opts.Cols, opts.Rows),
		fps:     opts.FPS,
		speed:   opts.Speed,
		running: true,
		theme:   GetTheme(opts.Theme),
		history: make([]float64, 0, historyCapacity),
		frames:  cache.New(frameTTL, 2*frameTTL),
	}
	m.draw()
	return m
}

func (m PreviewModel) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m PreviewModel) Init() tea.Cmd {
	return m.tick()
}

func (m PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "f":
			m.raw = !m.raw
			m.draw()
		case "r":
			m.t = 0
			m.history = m.history[:0]
			m.draw()
		case "left", "h":
			m.seek(-1)
		case "right", "l":
			m.seek(1)
		case "+", "=":
			m.speed *= 2
		case "-", "_":
			m.speed /= 2
		case "t":
			m.cycleTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance(m.speed / float64(m.fps))
		}
		return m, m.tick()
	}
	return m, nil
}

// advance moves the clock by dt seconds, looping at the end of the animation.
func (m *PreviewModel) advance(dt float64) {
	m.t += dt
	if m.t > m.cam.Settings().Duration {
		m.t = 0
		m.history = m.history[:0]
	}
	m.draw()
}

func (m *PreviewModel) seek(dir float64) {
	m.t = math.Max(0, math.Min(m.cam.Settings().Duration, m.t+dir))
	m.draw()
}

func (m *PreviewModel) cycleTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == m.theme.Name {
			m.theme = GetTheme(names[(i+1)%len(names)])
			return
		}
	}
}

// view returns the transform used for the current frame, rescaled so the
// camera's screen fits the canvas.
func (m *PreviewModel) view() camera.View {
	var v camera.View
	if m.raw {
		v = camera.View{Scale: m.cam.RawScale(m.t), Translate: m.cam.RawTranslate(m.t)}
	} else {
		v = m.cam.Apply(m.t)
	}
	s := m.cam.Settings()
	cw, ch := m.canvas.Dots()
	v.Scale *= math.Max(s.ScreenWidth/float64(cw), s.ScreenHeight/float64(ch))
	return v
}

func (m *PreviewModel) draw() {
	v := m.view()
	key := frameKey(m.raw, m.t)
	if f, ok := m.frames.Get(key); ok {
		cf := f.(cachedFrame)
		m.canvas.Restore(cf.cells)
		m.segments = cf.segments
	} else {
		m.canvas.Clear()
		sink := NewCanvasSink(m.canvas, v)
		m.cam.Store().EmitPolyline(camera.WarpTime(m.t), sink)
		m.segments = sink.Segments()
		m.frames.Set(key, cachedFrame{cells: m.canvas.Snapshot(), segments: m.segments}, cache.DefaultExpiration)
	}

	m.history = append(m.history, math.Log10(v.Scale))
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func (m PreviewModel) Time() float64 { return m.t }
func (m PreviewModel) Running() bool { return m.running }
func (m PreviewModel) Raw() bool { return m.raw }
func (m PreviewModel) Speed() float64 { return m.speed }
func (m PreviewModel) ThemeName() string { return m.theme.Name }
func (m PreviewModel) Canvas() *Canvas { return m.canvas }

// CachedFrames is the number of drawn frames held for replay.
func (m PreviewModel) CachedFrames() int { return m.frames.ItemCount() }

func (m PreviewModel) View() string {
	curve := lipgloss.NewStyle().Foreground(m.theme.Curve).Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Foreground(m.theme.Accent).Render("DRAGON ZOOM") + "\n")
	if m.running {
		s.WriteString(statusRunning.Render("PLAYING"))
	} else {
		s.WriteString(statusPaused.Render("PAUSED"))
	}
	s.WriteString(fmt.Sprintf("  x%g\n\n", m.speed))

	duration := m.cam.Settings().Duration
	tau := camera.WarpTime(m.t)
	mode := fmt.Sprintf("%s/%s", m.cam.ScaleKind(), m.cam.TranslateKind())
	if m.raw {
		mode = "raw/raw"
	}
	rows := [][2]string{
		{"Time", fmt.Sprintf("%.2fs / %.0fs", m.t, duration)},
		{"Tau", fmt.Sprintf("%.1f", tau)},
		{"Scale", fmt.Sprintf("%.4g", m.cam.Scale(m.t))},
		{"Raw scale", fmt.Sprintf("%.4g", m.cam.RawScale(m.t))},
		{"Vertices", fmt.Sprintf("%d", int(tau)+1)},
		{"Segments", fmt.Sprintf("%d", m.segments)},
		{"Camera", mode},
	}
	for _, r := range rows {
		s.WriteString(labelStyle.Render(r[0]) + valueStyle.Render(r[1]) + "\n")
	}
	s.WriteString("\n" + ProgressBar(m.t/duration, 30) + "\n")

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("log10 scale"))
		s.WriteString("\n" + chart + "\n")
	}

	if m.showHelp {
		s.WriteString(helpStyle.Render("SP  pause/resume\nf   raw/fitted camera\nr   restart\n←→  seek 1s\n+-  speed\nt   theme\nq   quit"))
	} else {
		s.WriteString(helpStyle.Render("SP:Pause F:Raw R:Restart Q:Quit ?:Help"))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, curve, panelStyle.Render(s.String()))
}
