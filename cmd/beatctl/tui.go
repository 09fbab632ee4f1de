package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/cockroachdb/errors"

	apiconnect "github.com/beatdeck/beatdeck/internal/api/connect"
	"github.com/beatdeck/beatdeck/internal/app/input"
)

const (
	seekStep   = 5 * time.Second
	volumeStep = 0.05
	statusTTL  = 3 * time.Second
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#FFFFFF"})
	artistStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#AAAAAA"})
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E8A33D"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#E05252"))
	frameStyle  = lipgloss.NewStyle().Padding(1, 2)
)

type keyMap struct {
	Toggle  key.Binding
	Next    key.Binding
	Back    key.Binding
	Forward key.Binding
	Rewind  key.Binding
	VolUp   key.Binding
	VolDown key.Binding
	Shuffle key.Binding
	Repeat  key.Binding
	Play    key.Binding
	License key.Binding
	Search  key.Binding
	Blur    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		Next:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
		Back:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "back")),
		Forward: key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "+5s")),
		Rewind:  key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "-5s")),
		VolUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "vol up")),
		VolDown: key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "vol down")),
		Shuffle: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
		Repeat:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		Play:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "play row")),
		License: key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "licenses")),
		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Blur:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave search")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Next, k.Back, k.Rewind, k.Forward, k.Shuffle, k.Repeat, k.Search, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Next, k.Back, k.Play},
		{k.Rewind, k.Forward, k.VolUp, k.VolDown},
		{k.Shuffle, k.Repeat, k.License, k.Search, k.Blur, k.Quit},
	}
}

// Messages
type (
	snapshotMsg apiconnect.SnapshotView
	queueMsg    []apiconnect.TrackView
	resultMsg   struct {
		res apiconnect.Result
		err error
	}
	licenseMsg struct {
		opts apiconnect.LicenseOptionsView
		err  error
	}
	watchEndedMsg struct{ err error }
)

// queueItem is a queue row. index is the position in the full queue.
type queueItem struct {
	track apiconnect.TrackView
	index int
}

func (i queueItem) FilterValue() string { return i.track.Title }
func (i queueItem) Title() string       { return i.track.Title }
func (i queueItem) Description() string {
	parts := []string{i.track.Artist}
	if i.track.Genre != "" {
		parts = append(parts, i.track.Genre)
	}
	if i.track.BPM > 0 {
		parts = append(parts, fmt.Sprintf("%d BPM", i.track.BPM))
	}
	parts = append(parts, fmt.Sprintf("$%.2f", i.track.Price))
	return strings.Join(parts, " · ")
}

// model is the bubbletea model of the full-screen player.
type model struct {
	ctx        context.Context
	player     player
	dispatcher *input.Dispatcher
	snapshots  <-chan apiconnect.SnapshotView

	snap     apiconnect.SnapshotView
	tracks   []apiconnect.TrackView
	queue    list.Model
	search   textinput.Model
	progress progress.Model
	help     help.Model
	keys     keyMap

	pending  []tea.Cmd // commands queued by the input dispatcher
	status   string
	statusAt time.Time
	isError  bool
	license  string
	width    int
}

func newModel(ctx context.Context, p player, snapshots <-chan apiconnect.SnapshotView) *model {
	search := textinput.New()
	search.Placeholder = "search beats"
	search.Prompt = "/ "
	search.CharLimit = 64

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(accentStyle.GetForeground())
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(accentStyle.GetForeground())

	queue := list.New(nil, delegate, 60, 14)
	queue.Title = "Beats"
	queue.SetShowStatusBar(false)
	queue.SetFilteringEnabled(false)
	queue.SetShowHelp(false)
	queue.DisableQuitKeybindings()

	m := &model{
		ctx:       ctx,
		player:    p,
		snapshots: snapshots,
		queue:     queue,
		search:    search,
		progress:  progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:      help.New(),
		keys:      defaultKeyMap(),
		width:     80,
	}
	m.dispatcher = input.NewDispatcher(input.ToggleFunc(func(ctx context.Context) error {
		m.pending = append(m.pending, m.call(m.player.ToggleCurrent))
		return nil
	}))
	return m
}

func runTUI(ctx context.Context, p player) error {
	snapshots := make(chan apiconnect.SnapshotView, 1)
	m := newModel(ctx, p, snapshots)

	prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	go func() {
		err := p.Watch(ctx, func(s apiconnect.SnapshotView) {
			// Keep only the newest snapshot.
			select {
			case <-snapshots:
			default:
			}
			snapshots <- s
		})
		prog.Send(watchEndedMsg{err: err})
	}()

	_, err := prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.loadQueue(), m.waitForSnapshot())
}

func (m *model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-m.snapshots:
			return snapshotMsg(s)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *model) loadQueue() tea.Cmd {
	return func() tea.Msg {
		tracks, err := m.player.Queue(m.ctx)
		if err != nil {
			return resultMsg{err: err}
		}
		return queueMsg(tracks)
	}
}

// call runs a playback command off the UI goroutine.
func (m *model) call(fn func(context.Context) (apiconnect.Result, error)) tea.Cmd {
	return func() tea.Msg {
		res, err := fn(m.ctx)
		return resultMsg{res: res, err: err}
	}
}

// focus reports what currently holds keyboard focus.
func (m *model) focus() input.Focus {
	if m.search.Focused() {
		return input.FocusTextInput
	}
	if len(m.queue.Items()) > 0 {
		return input.FocusButton
	}
	return input.FocusNone
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.queue.SetSize(msg.Width-4, max(msg.Height-14, 4))
		m.progress.Width = max(msg.Width-20, 10)
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		prev := m.snap.QueueLength
		m.snap = apiconnect.SnapshotView(msg)
		cmds := []tea.Cmd{m.waitForSnapshot()}
		if m.snap.QueueLength != prev {
			cmds = append(cmds, m.loadQueue())
		}
		return m, tea.Batch(cmds...)

	case queueMsg:
		m.tracks = msg
		return m, m.applySearch()

	case resultMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		m.snap = msg.res.Snapshot
		if msg.res.Dropped != "" {
			m.setStatus("ignored: "+msg.res.Dropped, false)
		}
		return m, nil

	case licenseMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
			return m, nil
		}
		m.license = formatLicense(msg.opts)
		return m, nil

	case watchEndedMsg:
		if msg.err != nil {
			m.setStatus("watch ended: "+msg.err.Error(), true)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// The play/pause shortcut works everywhere except in the search field.
	if m.dispatcher.Dispatch(m.ctx, input.KeyEvent{Key: msg.String(), Focus: m.focus()}) {
		cmds := m.pending
		m.pending = nil
		return m, tea.Batch(cmds...)
	}

	if m.search.Focused() {
		switch {
		case key.Matches(msg, m.keys.Blur), key.Matches(msg, m.keys.Play):
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, tea.Batch(cmd, m.applySearch())
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		return m, m.call(m.player.SkipNext)
	case key.Matches(msg, m.keys.Back):
		return m, m.call(m.player.SkipBack)
	case key.Matches(msg, m.keys.Forward):
		return m, m.seekBy(seekStep)
	case key.Matches(msg, m.keys.Rewind):
		return m, m.seekBy(-seekStep)
	case key.Matches(msg, m.keys.VolUp):
		return m, m.volumeBy(volumeStep)
	case key.Matches(msg, m.keys.VolDown):
		return m, m.volumeBy(-volumeStep)
	case key.Matches(msg, m.keys.Shuffle):
		return m, m.call(m.player.ToggleShuffle)
	case key.Matches(msg, m.keys.Repeat):
		return m, m.call(m.player.ToggleRepeat)
	case key.Matches(msg, m.keys.Play):
		if item, ok := m.queue.SelectedItem().(queueItem); ok {
			index := item.index
			return m, m.call(func(ctx context.Context) (apiconnect.Result, error) {
				return m.player.PlayIndex(ctx, index)
			})
		}
		return m, nil
	case key.Matches(msg, m.keys.License):
		return m, m.licenseFor(m.selectedID())
	case key.Matches(msg, m.keys.Search):
		m.license = ""
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Blur):
		m.license = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.queue, cmd = m.queue.Update(msg)
	return m, cmd
}

func (m *model) seekBy(d time.Duration) tea.Cmd {
	target := m.snap.Elapsed() + d
	if target < 0 {
		target = 0
	}
	return m.call(func(ctx context.Context) (apiconnect.Result, error) {
		return m.player.Seek(ctx, target)
	})
}

func (m *model) volumeBy(delta float64) tea.Cmd {
	v := min(max(m.snap.Volume+delta, 0), 1)
	return m.call(func(ctx context.Context) (apiconnect.Result, error) {
		return m.player.SetVolume(ctx, v)
	})
}

func (m *model) licenseFor(id string) tea.Cmd {
	return func() tea.Msg {
		opts, err := m.player.LicenseOptions(m.ctx, id)
		return licenseMsg{opts: opts, err: err}
	}
}

func (m *model) selectedID() string {
	if item, ok := m.queue.SelectedItem().(queueItem); ok {
		return item.track.ID
	}
	return ""
}

// applySearch shows the queue rows whose title, artist or genre contain the
// search text.
func (m *model) applySearch() tea.Cmd {
	needle := strings.ToLower(strings.TrimSpace(m.search.Value()))
	items := make([]list.Item, 0, len(m.tracks))
	for i, t := range m.tracks {
		if needle != "" && !matches(t, needle) {
			continue
		}
		items = append(items, queueItem{track: t, index: i})
	}
	return m.queue.SetItems(items)
}

func matches(t apiconnect.TrackView, needle string) bool {
	for _, field := range []string{t.Title, t.Artist, t.Genre, t.Mood} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (m *model) setStatus(s string, isError bool) {
	m.status = s
	m.isError = isError
	m.statusAt = time.Now()
}

func (m *model) View() string {
	var b strings.Builder

	if t := m.snap.Track; t != nil {
		b.WriteString(titleStyle.Render(t.Title))
		b.WriteString("  ")
		b.WriteString(artistStyle.Render(t.Artist))
	} else {
		b.WriteString(dimStyle.Render("Nothing playing. Pick a beat and press enter."))
	}
	b.WriteString("\n\n")

	b.WriteString(m.progress.ViewAs(m.snap.Progress()))
	b.WriteString(fmt.Sprintf("  %s / %s\n", formatClock(m.snap.Elapsed()), formatClock(m.snap.Total())))
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	if m.license != "" {
		b.WriteString(m.license)
	} else {
		b.WriteString(m.queue.View())
	}
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("\n")

	if m.status != "" && time.Since(m.statusAt) < statusTTL {
		style := dimStyle
		if m.isError {
			style = errorStyle
		}
		b.WriteString(style.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return frameStyle.Render(b.String())
}

func (m *model) statusLine() string {
	state := m.snap.State
	if state == "" {
		state = "connecting"
	}
	parts := []string{
		accentStyle.Render(state),
		fmt.Sprintf("vol %d%%", int(m.snap.Volume*100+0.5)),
		"shuffle " + onOff(m.snap.Shuffle),
		"repeat " + m.snap.Repeat,
	}
	if m.snap.SkipCooldown || m.snap.ShuffleCooldown {
		parts = append(parts, dimStyle.Render("cooling down"))
	}
	return strings.Join(parts, dimStyle.Render("  ·  "))
}

func formatLicense(opts apiconnect.LicenseOptionsView) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("License options"))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  from $%.2f  (esc to close)", opts.StartingPrice)))
	b.WriteString("\n\n")
	for _, o := range opts.Offers {
		price := fmt.Sprintf("$%.2f", o.Price)
		if o.Negotiated {
			price = "negotiable"
		}
		b.WriteString(fmt.Sprintf("  %-22s %-12s %s\n", o.Tier, price, dimStyle.Render(o.Terms)))
	}
	return b.String()
}
