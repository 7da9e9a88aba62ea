package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/jellyshelf/internal/domain"
	"github.com/mmcdole/jellyshelf/internal/search"
	"github.com/mmcdole/jellyshelf/internal/tui/styles"
)

// Spinner frames for loading animation
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Layout constants for list columns
const (
	// Border adds 1 char on each side (left+right for width, top+bottom for height)
	BorderWidth  = 2
	BorderHeight = 2

	// Scroll indicators ("↑ more" and "↓ more") each take 1 line
	ScrollIndicatorLines = 2
)

// ListColumn is a scrollable, filterable list of display items
type ListColumn struct {
	items []domain.DisplayItem

	// Selection
	cursor     int
	offset     int
	maxVisible int

	// Dimensions
	width  int
	height int

	title string

	loading      bool
	spinnerFrame int

	// Filter state
	filterActive bool
	filterInput  textinput.Model
	filterQuery  string
	filtered     []search.Match // nil when no query
}

// NewListColumn creates an empty list column with the given title
func NewListColumn(title string) *ListColumn {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.Prompt = "/ "
	ti.PromptStyle = styles.FilterPromptStyle
	ti.TextStyle = styles.FilterStyle

	return &ListColumn{
		title:       title,
		filterInput: ti,
	}
}

func (c *ListColumn) Title() string { return c.title }

func (c *ListColumn) SetTitle(title string) { c.title = title }

func (c *ListColumn) SetLoading(loading bool) { c.loading = loading }

func (c *ListColumn) IsLoading() bool { return c.loading }

func (c *ListColumn) SetSpinnerFrame(frame int) { c.spinnerFrame = frame }

// Items returns the unfiltered items
func (c *ListColumn) Items() []domain.DisplayItem { return c.items }

// SetItems replaces the list contents. The selection stays on the same
// item id when it is still present, so a background update does not move
// the cursor under the user. An active filter is re-applied.
func (c *ListColumn) SetItems(items []domain.DisplayItem) {
	selectedID := ""
	if sel := c.SelectedItem(); sel != nil {
		selectedID = sel.ID
	}

	c.loading = false
	c.items = items
	if c.filterActive {
		c.applyFilter()
	}

	c.cursor = 0
	if selectedID != "" {
		for i := 0; i < c.ItemCount(); i++ {
			if c.items[c.mapIndex(i)].ID == selectedID {
				c.cursor = i
				break
			}
		}
	}
	c.offset = 0
	c.ensureVisible()
}

// SelectedItem returns the item under the cursor, or nil
func (c *ListColumn) SelectedItem() *domain.DisplayItem {
	if c.cursor < 0 || c.cursor >= c.ItemCount() {
		return nil
	}
	return &c.items[c.mapIndex(c.cursor)]
}

func (c *ListColumn) SelectedIndex() int { return c.cursor }

func (c *ListColumn) SetSelectedIndex(idx int) {
	last := c.ItemCount() - 1
	if last < 0 {
		c.cursor = 0
		return
	}
	c.cursor = max(0, min(idx, last))
	c.ensureVisible()
}

// ItemCount returns the number of visible (filtered) items
func (c *ListColumn) ItemCount() int {
	if c.filtered != nil {
		return len(c.filtered)
	}
	return len(c.items)
}

func (c *ListColumn) SetSize(width, height int) {
	c.width = width
	c.height = height
	c.recalcMaxVisible()
	c.ensureVisible()
}

// ToggleFilter activates the filter input
func (c *ListColumn) ToggleFilter() {
	c.filterActive = true
	c.filterInput.Focus()
	c.recalcMaxVisible()
}

// IsFiltering returns true if filter mode is active
func (c *ListColumn) IsFiltering() bool { return c.filterActive }

// IsFilterTyping returns true if filter is active AND input is focused
func (c *ListColumn) IsFilterTyping() bool {
	return c.filterActive && c.filterInput.Focused()
}

// ClearFilter deactivates the filter and shows all items
func (c *ListColumn) ClearFilter() {
	c.filterActive = false
	c.filterQuery = ""
	c.filtered = nil
	c.filterInput.SetValue("")
	c.filterInput.Blur()
	c.recalcMaxVisible()
}

// Update handles navigation and filter keys
func (c *ListColumn) Update(msg tea.Msg) tea.Cmd {
	// Typing into the filter
	if c.IsFilterTyping() {
		if km, ok := msg.(tea.KeyMsg); ok {
			switch km.String() {
			case "esc":
				c.ClearFilter()
				return nil
			case "enter":
				// Accept filter, blur input to allow navigation
				c.filterInput.Blur()
				return nil
			case "backspace":
				if c.filterInput.Value() == "" {
					c.ClearFilter()
					return nil
				}
			}
		}
		var cmd tea.Cmd
		c.filterInput, cmd = c.filterInput.Update(msg)
		c.applyFilter()
		c.cursor = 0
		c.offset = 0
		return cmd
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	if c.filterActive {
		switch km.String() {
		case "esc":
			c.ClearFilter()
			return nil
		case "/":
			c.filterInput.Focus()
			return nil
		}
	}

	count := c.ItemCount()
	if count == 0 {
		return nil
	}
	switch km.String() {
	case "j", "down":
		if c.cursor < count-1 {
			c.cursor++
		}
	case "k", "up":
		if c.cursor > 0 {
			c.cursor--
		}
	case "g", "home":
		c.cursor = 0
	case "G", "end":
		c.cursor = count - 1
	case "ctrl+d", "pgdown":
		c.cursor = min(c.cursor+max(c.maxVisible/2, 1), count-1)
	case "ctrl+u", "pgup":
		c.cursor = max(c.cursor-max(c.maxVisible/2, 1), 0)
	}
	c.ensureVisible()
	return nil
}

func (c *ListColumn) View() string {
	style := styles.ActiveBorder
	frameW, frameH := style.GetFrameSize()
	return style.
		Width(max(c.width-frameW, 0)).
		Height(max(c.height-frameH, 0)).
		Render(c.renderContent())
}

func (c *ListColumn) applyFilter() {
	c.filterQuery = c.filterInput.Value()
	if strings.TrimSpace(c.filterQuery) == "" {
		c.filtered = nil
		return
	}
	c.filtered = search.Filter(search.Titles(c.items), c.filterQuery)
	if c.filtered == nil {
		c.filtered = []search.Match{}
	}
}

func (c *ListColumn) mapIndex(i int) int {
	if c.filtered != nil && i < len(c.filtered) {
		return c.filtered[i].Index
	}
	return i
}

func (c *ListColumn) matchedIndexes(i int) []int {
	if c.filtered != nil && i < len(c.filtered) {
		return c.filtered[i].MatchedIndexes
	}
	return nil
}

func (c *ListColumn) recalcMaxVisible() {
	// Interior height minus title line and scroll indicators
	c.maxVisible = c.height - BorderHeight - ScrollIndicatorLines - 1
	if c.filterActive {
		c.maxVisible--
	}
	if c.maxVisible < 1 {
		c.maxVisible = 1
	}
}

func (c *ListColumn) ensureVisible() {
	if c.maxVisible <= 0 {
		return
	}
	if c.cursor < c.offset {
		c.offset = c.cursor
	}
	if c.cursor >= c.offset+c.maxVisible {
		c.offset = c.cursor - c.maxVisible + 1
	}
}

// Rendering

func (c *ListColumn) renderContent() string {
	itemWidth := max(c.width-BorderWidth, 10)
	titleLine := styles.AccentStyle.Render(styles.Truncate(c.title, itemWidth))

	if c.loading {
		spinner := spinnerFrames[c.spinnerFrame%len(spinnerFrames)]
		return titleLine + "\n \n" + styles.DimStyle.Render(spinner+" Loading...") + "\n "
	}

	count := c.ItemCount()
	if count == 0 {
		empty := "No items"
		if c.filterActive && c.filterQuery != "" {
			empty = "No matches"
		}
		content := titleLine + "\n \n" + styles.DimStyle.Render(empty) + "\n "
		if c.filterActive {
			content += "\n" + c.renderFilterBar()
		}
		return content
	}

	end := min(c.offset+c.maxVisible, count)
	lines := make([]string, 0, end-c.offset)
	for i := c.offset; i < end; i++ {
		lines = append(lines, c.renderItem(c.items[c.mapIndex(i)], c.matchedIndexes(i), i == c.cursor, itemWidth))
	}

	// Always reserve the indicator lines to prevent layout shifts
	header := " "
	if c.offset > 0 {
		header = styles.DimStyle.Render("↑ more")
	}
	footer := " "
	if end < count {
		footer = styles.DimStyle.Render("↓ more")
	}

	content := titleLine + "\n" + header + "\n" + strings.Join(lines, "\n") + "\n" + footer
	if c.filterActive {
		content += "\n" + c.renderFilterBar()
	}
	return content
}

func (c *ListColumn) renderItem(item domain.DisplayItem, matched []int, selected bool, width int) string {
	indicator, indicatorFg := watchIndicator(item.WatchStatus())
	parts := []styles.RowPart{{Text: indicator, Foreground: &indicatorFg}}

	if item.Favorite {
		fav := styles.Red
		parts = append(parts, styles.RowPart{Text: " " + styles.FavoriteChar, Foreground: &fav})
	}

	suffix := ""
	if desc := item.GetDescription(); desc != "" && !strings.Contains(item.Name, desc) {
		suffix = "  " + desc
	}

	// width - indicator(1) - space(1) - margins(2) - favorite(2)
	avail := max(width-6-len([]rune(suffix)), 5)
	title := styles.Truncate(item.Name, avail)
	parts = append(parts, styles.RowPart{Text: " "})
	parts = append(parts, highlight(title, matched)...)
	if suffix != "" {
		dim := styles.DimGray
		parts = append(parts, styles.RowPart{Text: suffix, Foreground: &dim})
	}
	return styles.RenderListRow(parts, selected, width)
}

// highlight splits title into parts with matched rune positions emphasised
func highlight(title string, matched []int) []styles.RowPart {
	if len(matched) == 0 {
		return []styles.RowPart{{Text: title}}
	}
	set := make(map[int]bool, len(matched))
	for _, i := range matched {
		set[i] = true
	}

	accent := styles.JellyfinBlue
	var parts []styles.RowPart
	var run []rune
	runMatched := false
	flush := func() {
		if len(run) == 0 {
			return
		}
		part := styles.RowPart{Text: string(run)}
		if runMatched {
			part.Foreground = &accent
			part.Bold = true
		}
		parts = append(parts, part)
		run = run[:0]
	}
	for i, r := range []rune(title) {
		if set[i] != runMatched {
			flush()
			runMatched = set[i]
		}
		run = append(run, r)
	}
	flush()
	return parts
}

func watchIndicator(status domain.WatchStatus) (string, lipgloss.Color) {
	switch status {
	case domain.WatchStatusWatched:
		return styles.PlayedChar, styles.Green
	case domain.WatchStatusInProgress:
		return styles.InProgressChar, styles.JellyfinPurple
	default:
		return styles.UnplayedChar, styles.JellyfinPurple
	}
}

func (c *ListColumn) renderFilterBar() string {
	bar := c.filterInput.View()
	if c.filterQuery != "" {
		bar += styles.DimStyle.Render(fmt.Sprintf(" [%d/%d]", c.ItemCount(), len(c.items)))
	}
	return bar
}
