package main

import (
	"slices"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	noResults      = "No results"
	recentMarker   = "[gray]recent[-]"
	pickerMaxItems = 6
)

// fuzzyMatch performs fuzzy matching and returns match status and positions.
// It matches characters from search in order within text (case-insensitive).
// Positions are rune indices into text.
func fuzzyMatch(search, text string) (bool, []int) {
	want := []rune(strings.ToLower(search))
	var positions []int
	next := 0
	for i, r := range []rune(strings.ToLower(text)) {
		if next < len(want) && r == want[next] {
			positions = append(positions, i)
			next++
		}
	}
	return next == len(want), positions
}

// isPrefixMatch reports whether text starts with search, ignoring case.
func isPrefixMatch(search, text string) bool {
	return strings.HasPrefix(strings.ToLower(text), strings.ToLower(search))
}

// formatTableNameWithColor formats the table name with tview color codes highlighting for matches.
// Matched positions are highlighted in bold dark green.
func formatTableNameWithColor(table string, positions []int) string {
	if len(positions) == 0 {
		return tview.Escape(table)
	}
	var result, run strings.Builder
	for i, r := range []rune(table) {
		if !slices.Contains(positions, i) {
			run.WriteRune(r)
			continue
		}
		// plain runs are escaped whole so a bracketed name is not read as a tag
		result.WriteString(tview.Escape(run.String()))
		run.Reset()
		result.WriteString("[darkgreen::b]" + tview.Escape(string(r)) + "[-::-]")
	}
	result.WriteString(tview.Escape(run.String()))
	return result.String()
}

// cleanTableNames removes newlines and whitespace from table names
func cleanTableNames(tables []string) []string {
	cleaned := make([]string, 0, len(tables))
	for _, table := range tables {
		name := strings.TrimSpace(strings.ReplaceAll(table, "\n", ""))
		if name != "" {
			cleaned = append(cleaned, name)
		}
	}
	return cleaned
}

// orderByRecent moves the recently opened tables to the front, most recent first.
// Recent entries that are no longer in tables are ignored.
func orderByRecent(tables, recent []string) (ordered []string, recentCount int) {
	ordered = make([]string, 0, len(tables))
	for _, name := range recent {
		if slices.Contains(tables, name) && !slices.Contains(ordered, name) {
			ordered = append(ordered, name)
		}
	}
	recentCount = len(ordered)
	for _, name := range tables {
		if !slices.Contains(ordered[:recentCount], name) {
			ordered = append(ordered, name)
		}
	}
	return ordered, recentCount
}

// recentTablesFor returns the recent table names recorded for one database.
func recentTablesFor(settings *Settings, dbName string) []string {
	if settings == nil {
		return nil
	}
	prefix := dbName + "/"
	var out []string
	for _, entry := range settings.RecentTables {
		if name, ok := strings.CutPrefix(entry, prefix); ok {
			out = append(out, name)
		}
	}
	return out
}

// FuzzySelector is the table picker: a search field over a short dropdown of
// matching table names.
type FuzzySelector struct {
	*tview.Box
	items         []string
	recent        int // items[:recent] were opened recently
	searchText    string
	placeholder   string
	selectedIndex int
	dropdownList  *tview.List
	maxVisible    int
	inputField    *tview.InputField
	innerFlex     *tview.Flex
	dropdownFlex  *tview.Flex

	onSelect func(tableName string)
	onClose  func()
}

// NewFuzzySelector creates a picker over tables with the recent ones listed first.
func NewFuzzySelector(tables, recent []string, onSelect func(string), onClose func()) *FuzzySelector {
	items, recentCount := orderByRecent(cleanTableNames(tables), recent)
	fs := &FuzzySelector{
		Box:         tview.NewBox(),
		items:       items,
		recent:      recentCount,
		placeholder: "Search...",
		maxVisible:  pickerMaxItems,
		onSelect:    onSelect,
		onClose:     onClose,
	}

	// the input field has to exist before the first draw so focus can land on it
	filtered, positions, _ := fs.calculateFiltered("")
	fs.buildInnerLayout(filtered, positions)
	return fs
}

// SetPlaceholder sets the hint shown while the search field is empty.
func (fs *FuzzySelector) SetPlaceholder(text string) *FuzzySelector {
	fs.placeholder = text
	if fs.inputField != nil {
		fs.inputField.SetPlaceholder(text)
	}
	return fs
}

// calculateFiltered filters the items by search. Prefix matches come first and
// keep their order; the remaining fuzzy matches follow in item order. The third
// result is the number of prefix matches.
func (fs *FuzzySelector) calculateFiltered(search string) ([]string, map[int][]int, int) {
	positions := make(map[int][]int)
	if search == "" {
		return fs.items, positions, 0
	}

	var prefix, fuzzy []string
	var prefixPos, fuzzyPos [][]int
	for _, item := range fs.items {
		ok, pos := fuzzyMatch(search, item)
		if !ok {
			continue
		}
		if isPrefixMatch(search, item) {
			prefix = append(prefix, item)
			prefixPos = append(prefixPos, pos)
		} else {
			fuzzy = append(fuzzy, item)
			fuzzyPos = append(fuzzyPos, pos)
		}
	}

	filtered := append(prefix, fuzzy...)
	for i, pos := range append(prefixPos, fuzzyPos...) {
		positions[i] = pos
	}
	return filtered, positions, len(prefix)
}

// Draw implements tview.Primitive and renders the fuzzy selector.
func (fs *FuzzySelector) Draw(screen tcell.Screen) {
	fs.Box.DrawForSubclass(screen, fs)

	filtered, positions, _ := fs.calculateFiltered(fs.searchText)
	fs.updateDropdownList(filtered, positions)

	x, y, width, height := fs.GetInnerRect()
	fs.innerFlex.SetRect(x, y, width, height)
	fs.innerFlex.Draw(screen)
}

// InputHandler forwards keystrokes to the search field.
func (fs *FuzzySelector) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return fs.WrapInputHandler(func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		if handler := fs.inputField.InputHandler(); handler != nil {
			handler(event, setFocus)
		}
	})
}

// MouseHandler highlights the hovered table and opens the clicked one.
func (fs *FuzzySelector) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
	return fs.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (bool, tview.Primitive) {
		mouseX, mouseY := event.Position()
		if fs.dropdownList.InRect(mouseX, mouseY) {
			filtered, _, _ := fs.calculateFiltered(fs.searchText)
			_, listY, _, _ := fs.dropdownList.GetInnerRect()
			// the list scrolls the current item into view, so rows are offset by it
			offset, _ := fs.dropdownList.GetOffset()
			itemIndex := offset + mouseY - listY
			if itemIndex < 0 || itemIndex >= len(filtered) {
				return false, nil
			}
			switch action {
			case tview.MouseMove:
				fs.dropdownList.SetCurrentItem(itemIndex)
				fs.selectedIndex = itemIndex
				return true, nil
			case tview.MouseLeftClick:
				fs.selectItem(filtered[itemIndex])
				return true, nil
			}
		}

		if handler := fs.innerFlex.MouseHandler(); handler != nil {
			if consumed, p := handler(action, event, setFocus); consumed {
				return true, p
			}
		}
		return false, nil
	})
}

// Focus is called when this primitive receives focus.
func (fs *FuzzySelector) Focus(delegate func(p tview.Primitive)) {
	delegate(fs.inputField)
}

// HasFocus returns whether or not this primitive has focus.
func (fs *FuzzySelector) HasFocus() bool {
	return fs.inputField.HasFocus()
}

func (fs *FuzzySelector) selectItem(name string) {
	fs.clearSearchText()
	if fs.onSelect != nil {
		fs.onSelect(name)
	}
}

func (fs *FuzzySelector) listHeight(n int) int {
	return min(max(n, 1), fs.maxVisible)
}

// buildInnerLayout builds the internal flex layout with input field and dropdown.
func (fs *FuzzySelector) buildInnerLayout(filtered []string, positions map[int][]int) {
	inputField := fs.createInputField()
	fs.createDropdownListWithData(filtered, positions)

	fs.dropdownFlex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(inputField, 1, 0, true).
		AddItem(fs.dropdownList, fs.listHeight(len(filtered)), 0, false)

	fs.innerFlex = tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(fs.dropdownFlex, 0, 1, true)
}

// updateDropdownList swaps the dropdown for one built from the new matches.
// The search field keeps focus; arrow keys move the highlight from there.
func (fs *FuzzySelector) updateDropdownList(filtered []string, positions map[int][]int) {
	fs.dropdownFlex.RemoveItem(fs.dropdownList)
	fs.createDropdownListWithData(filtered, positions)
	fs.dropdownFlex.AddItem(fs.dropdownList, fs.listHeight(len(filtered)), 0, false)
}

// createInputField creates the search field and its key handling.
func (fs *FuzzySelector) createInputField() *tview.InputField {
	inputField := tview.NewInputField().
		SetLabel("").
		SetText(fs.searchText).
		SetPlaceholder(fs.placeholder).
		SetFieldWidth(0)
	fs.inputField = inputField

	inputField.SetChangedFunc(func(text string) {
		fs.searchText = text
		fs.selectedIndex = 0
	})

	inputField.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		filtered, _, _ := fs.calculateFiltered(fs.searchText)

		switch event.Key() {
		case tcell.KeyEscape:
			fs.clearSearchText()
			if fs.onClose != nil {
				fs.onClose()
			}
			return nil
		case tcell.KeyDown, tcell.KeyTab:
			if len(filtered) > 0 {
				fs.selectedIndex = min(fs.selectedIndex+1, len(filtered)-1)
				fs.dropdownList.SetCurrentItem(fs.selectedIndex)
			}
			return nil
		case tcell.KeyUp, tcell.KeyBacktab:
			if len(filtered) > 0 {
				fs.selectedIndex = max(fs.selectedIndex-1, 0)
				fs.dropdownList.SetCurrentItem(fs.selectedIndex)
			}
			return nil
		case tcell.KeyEnter:
			if fs.selectedIndex >= 0 && fs.selectedIndex < len(filtered) {
				fs.selectItem(filtered[fs.selectedIndex])
			}
			return nil
		}
		return event
	})

	return inputField
}

// clearSearchText clears the search text and updates the input field.
func (fs *FuzzySelector) clearSearchText() {
	fs.searchText = ""
	fs.inputField.SetText("")
	fs.selectedIndex = 0
}

// createDropdownListWithData fills a fresh dropdown with the matches.
func (fs *FuzzySelector) createDropdownListWithData(filtered []string, positions map[int][]int) {
	fs.dropdownList = tview.NewList().
		SetWrapAround(true).
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	if len(filtered) == 0 {
		fs.dropdownList.AddItem(noResults, "", 0, nil)
		return
	}
	for i, name := range filtered {
		text := formatTableNameWithColor(name, positions[i])
		if fs.searchText == "" && i < fs.recent {
			text += " " + recentMarker
		}
		fs.dropdownList.AddItem(text, "", 0, func() {
			fs.selectItem(name)
		})
	}
	if fs.selectedIndex >= 0 && fs.selectedIndex < len(filtered) {
		fs.dropdownList.SetCurrentItem(fs.selectedIndex)
	}
}
