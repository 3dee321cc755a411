package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/koki-develop/vidsheet/internal/session"
)

var ErrCanceled = errors.New("operation canceled by user")

var _ session.Selector = (*Picker)(nil)

// Picker asks its questions with full-screen bubbletea programs.
type Picker struct {
	opts []tea.ProgramOption
}

func NewPicker(opts ...tea.ProgramOption) *Picker {
	return &Picker{opts: opts}
}

func (p *Picker) ChooseVideo(ctx context.Context, videos []session.VideoFile) (int, error) {
	m, err := p.run(ctx, newVideoModel(videos))
	if err != nil {
		return 0, err
	}
	vm := m.(*videoModel)
	if vm.choice == 0 {
		return 0, ErrCanceled
	}
	return vm.choice, nil
}

func (p *Picker) ChooseInterval(ctx context.Context, def float64) (float64, error) {
	m, err := p.run(ctx, newIntervalModel(def))
	if err != nil {
		return 0, err
	}
	im := m.(*intervalModel)
	if !im.done {
		return 0, ErrCanceled
	}
	return im.value, nil
}

func (p *Picker) run(ctx context.Context, m tea.Model) (tea.Model, error) {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, p.opts...)
	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return final, nil
}

var _ list.DefaultItem = videoItem{}

type videoItem struct {
	position int
	video    session.VideoFile
}

func (i videoItem) Title() string       { return fmt.Sprintf("%d. %s", i.position, i.video.Name) }
func (i videoItem) Description() string { return i.video.Path }
func (i videoItem) FilterValue() string { return i.video.Name }

var _ tea.Model = &videoModel{}

type videoModel struct {
	list  list.Model
	count int
	// choice is 1-based; 0 means nothing was chosen.
	choice int
}

func newVideoModel(videos []session.VideoFile) *videoModel {
	items := make([]list.Item, len(videos))
	for i, v := range videos {
		items[i] = videoItem{position: i + 1, video: v}
	}

	l := list.New(items, list.NewDefaultDelegate(), 60, 20)
	l.Title = "Select a video"
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)

	return &videoModel{list: l, count: len(videos)}
}

func (m *videoModel) Init() tea.Cmd {
	return nil
}

func (m *videoModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.choice = m.list.Index() + 1
			return m, tea.Quit
		case tea.KeyRunes:
			// typing a list number picks it directly while it is unambiguous
			if n, err := strconv.Atoi(string(msg.Runes)); err == nil && m.count < 10 && n >= 1 && n <= m.count {
				m.choice = n
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *videoModel) View() string {
	return m.list.View()
}

var _ tea.Model = &intervalModel{}

type intervalModel struct {
	input textinput.Model
	def   float64
	value float64
	err   string
	done  bool
}

func newIntervalModel(def float64) *intervalModel {
	ti := textinput.New()
	ti.Prompt = "Interval in seconds: "
	ti.Placeholder = strconv.FormatFloat(def, 'f', -1, 64)
	ti.CharLimit = 16
	ti.Focus()

	return &intervalModel{input: ti, def: def}
}

func (m *intervalModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *intervalModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			raw := strings.TrimSpace(m.input.Value())
			if raw == "" {
				m.value, m.done = m.def, true
				return m, tea.Quit
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				m.err = fmt.Sprintf("%q is not a number", raw)
				return m, nil
			}
			m.value, m.done = v, true
			return m, tea.Quit
		}
	}

	m.err = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *intervalModel) View() string {
	b := new(strings.Builder)
	b.WriteString(m.input.View())
	b.WriteString("\n")
	if m.err != "" {
		b.WriteString(color.New(color.BgRed, color.FgWhite).Sprintf(" %s ", m.err))
		b.WriteString("\n")
	}
	b.WriteString(color.New(color.Faint).Sprintf("Enter to accept (empty keeps %s), Esc to cancel", m.input.Placeholder))
	b.WriteString("\n")
	return b.String()
}
