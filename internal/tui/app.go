package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/jellyshelf/internal/cache"
	"github.com/mmcdole/jellyshelf/internal/domain"
	"github.com/mmcdole/jellyshelf/internal/tui/components"
	"github.com/mmcdole/jellyshelf/internal/tui/styles"
)

// ChromeHeight is the footer below the list
const ChromeHeight = 1

// Deps are the collaborators the browser needs
type Deps struct {
	Manager  *cache.Manager
	Metadata domain.MetadataRepository
	Changes  <-chan domain.ChangeEvent
	Options  domain.ViewOptions

	// ChildrenURL builds the listing URL of a folder's children
	ChildrenURL func(parentID string) string

	// BypassCache makes every load fetch from the server
	BypassCache bool

	Logger *slog.Logger
}

// frame is one level of navigation history
type frame struct {
	url    string
	title  string
	cursor int
}

// Model is the Bubble Tea model of the listing browser
type Model struct {
	deps Deps
	keys KeyMap

	Column *components.ListColumn
	stack  []frame

	// key of the listing on screen, for matching change notifications
	key        domain.CacheKey
	refreshing bool

	Width  int
	Height int
	Ready  bool

	StatusMsg    string
	StatusIsErr  bool
	ShowHelp     bool
	SpinnerFrame int
}

// NewModel creates a browser rooted at rootURL
func NewModel(deps Deps, rootURL, rootTitle string) Model {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	col := components.NewListColumn(rootTitle)
	col.SetLoading(true)
	return Model{
		deps:   deps,
		keys:   Keys,
		Column: col,
		stack:  []frame{{url: rootURL, title: rootTitle, cursor: -1}},
	}
}

// Init loads the root listing and starts listening for change notifications
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.load(loadRequest{UseCache: true, StartRefresh: true, Cursor: -1}),
		WaitForChangeCmd(m.deps.Changes),
		TickCmd(100*time.Millisecond),
	)
}

func (m Model) current() frame {
	return m.stack[len(m.stack)-1]
}

// load issues req for the current frame
func (m Model) load(req loadRequest) tea.Cmd {
	cur := m.current()
	req.URL = cur.url
	req.Title = cur.title
	if m.deps.BypassCache {
		req.UseCache = false
	}
	return LoadListingCmd(m.deps.Manager, m.deps.Options, req)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.Column.SetSize(m.Width, m.Height-ChromeHeight)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		m.Column.SetSpinnerFrame(m.SpinnerFrame)
		return m, TickCmd(100 * time.Millisecond)

	case ListingLoadedMsg:
		return m.handleListingLoaded(msg)

	case RefreshDoneMsg:
		if msg.URL == m.current().url {
			m.refreshing = false
		}
		if msg.Err != nil && !errors.Is(msg.Err, domain.ErrServerOffline) {
			return m.setStatus("Refresh failed: "+msg.Err.Error(), true)
		}
		return m, nil

	case ContentChangedMsg:
		cmds := []tea.Cmd{WaitForChangeCmd(m.deps.Changes)}
		if msg.Event.Key == m.key {
			// Re-read from the store; the listing was just re-validated
			cmds = append(cmds, m.load(loadRequest{UseCache: true, Cursor: -1}))
		}
		return m, tea.Batch(cmds...)

	case MutationDoneMsg:
		if msg.Err != nil {
			return m.setStatus(fmt.Sprintf("Failed to update %s: %v", msg.Item.Name, msg.Err), true)
		}
		m.StatusMsg = fmt.Sprintf("%s %s", msg.Item.Name, msg.Action)
		m.StatusIsErr = false

		// Ancestors show aggregate watch counts; reload them on the way back
		var parents []string
		for _, f := range m.stack[:len(m.stack)-1] {
			parents = append(parents, f.url)
		}
		return m, tea.Batch(
			ClearStatusCmd(statusDuration),
			m.load(loadRequest{UseCache: true, Force: true, Cursor: -1}),
			MarkStaleCmd(m.deps.Manager, m.deps.Logger, parents),
		)

	case StatusMsg:
		return m.setStatus(msg.Message, msg.IsError)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

func (m Model) handleListingLoaded(msg ListingLoadedMsg) (tea.Model, tea.Cmd) {
	// Drop results for listings we navigated away from
	if msg.Req.URL != m.current().url {
		return m, nil
	}

	if msg.Err != nil {
		m.Column.SetLoading(false)
		m.deps.Logger.Error("failed to load listing", "url", msg.Req.URL, "error", msg.Err)
		return m.setStatus("Unable to load "+msg.Req.Title+": "+msg.Err.Error(), true)
	}

	m.key = msg.Result.Key
	m.Column.SetItems(msg.Result.Items)
	if msg.Req.Cursor >= 0 {
		m.Column.SetSelectedIndex(msg.Req.Cursor)
	}

	if msg.Result.Refresh != nil && msg.Req.StartRefresh {
		// Items are on screen; check them against the server
		m.refreshing = true
		return m, StartRefreshCmd(msg.Result.Refresh)
	}
	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.ShowHelp {
		m.ShowHelp = false
		return m, nil
	}

	// Filter input captures everything while typing
	if m.Column.IsFilterTyping() {
		return m, m.Column.Update(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.ShowHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.Column.ToggleFilter()
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.Column.SetLoading(true)
		return m, m.load(loadRequest{UseCache: true, Force: true, Cursor: -1})

	case key.Matches(msg, m.keys.Enter):
		return m.drillIn()

	case key.Matches(msg, m.keys.Back):
		return m.back()

	case key.Matches(msg, m.keys.MarkWatched):
		return m.mutate(ActionMarkWatched)

	case key.Matches(msg, m.keys.MarkUnwatched):
		return m.mutate(ActionMarkUnwatched)

	case key.Matches(msg, m.keys.ToggleFavorite):
		item := m.Column.SelectedItem()
		if item != nil && item.Favorite {
			return m.mutate(ActionUnfavorite)
		}
		return m.mutate(ActionFavorite)
	}

	return m, m.Column.Update(msg)
}

func (m Model) drillIn() (tea.Model, tea.Cmd) {
	item := m.Column.SelectedItem()
	if item == nil || !item.IsFolder || m.deps.ChildrenURL == nil {
		return m, nil
	}

	m.stack[len(m.stack)-1].cursor = m.Column.SelectedIndex()
	m.stack = append(m.stack, frame{url: m.deps.ChildrenURL(item.ID), title: item.Name, cursor: -1})
	m.Column = m.newColumn(item.Name)
	m.key = ""
	m.refreshing = false
	return m, m.load(loadRequest{UseCache: true, StartRefresh: true, Cursor: -1})
}

func (m Model) back() (tea.Model, tea.Cmd) {
	if m.Column.IsFiltering() {
		m.Column.ClearFilter()
		return m, nil
	}
	if len(m.stack) <= 1 {
		return m, nil
	}

	m.stack = m.stack[:len(m.stack)-1]
	cur := m.current()
	m.Column = m.newColumn(cur.title)
	m.key = ""
	m.refreshing = false
	return m, m.load(loadRequest{UseCache: true, StartRefresh: true, Cursor: cur.cursor})
}

func (m Model) mutate(action MutationAction) (tea.Model, tea.Cmd) {
	item := m.Column.SelectedItem()
	if item == nil || m.deps.Metadata == nil {
		return m, nil
	}
	return m, MutateCmd(m.deps.Metadata, action, *item)
}

func (m Model) newColumn(title string) *components.ListColumn {
	col := components.NewListColumn(title)
	col.SetSize(m.Width, m.Height-ChromeHeight)
	col.SetLoading(true)
	return col
}

func (m Model) setStatus(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.StatusMsg = text
	m.StatusIsErr = isErr
	return m, ClearStatusCmd(statusDuration)
}

// View renders the browser
func (m Model) View() string {
	if !m.Ready {
		return "Loading..."
	}
	if m.ShowHelp {
		return m.renderHelp()
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.Column.View(), m.renderFooter())
}

func (m Model) renderFooter() string {
	titles := make([]string, len(m.stack))
	for i, f := range m.stack {
		titles[i] = f.title
	}
	left := styles.DimStyle.Render(strings.Join(titles, " › "))

	var right []string
	if m.refreshing {
		right = append(right, styles.BadgeStyle.Render("syncing"))
	}
	switch {
	case m.StatusMsg != "" && m.StatusIsErr:
		right = append(right, styles.ErrorStyle.Render(m.StatusMsg))
	case m.StatusMsg != "":
		right = append(right, styles.SuccessStyle.Render(m.StatusMsg))
	default:
		right = append(right, styles.DimStyle.Render("? help"))
	}
	rightStr := strings.Join(right, " ")

	gap := m.Width - lipgloss.Width(left) - lipgloss.Width(rightStr)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + rightStr
}

func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, binding := range m.keys.Bindings() {
		h := binding.Help()
		b.WriteString(styles.HelpKeyStyle.Render(fmt.Sprintf("%-10s", h.Key)))
		b.WriteString(styles.HelpDescStyle.Render(h.Desc))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("press any key to close"))
	return b.String()
}
