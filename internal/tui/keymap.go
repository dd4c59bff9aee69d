package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// KeyConfig holds user overrides for the configurable bindings. Blank fields keep defaults.
type KeyConfig struct {
	Search    string
	AddColumn string
	Rename    string
	MoveGroup string
	Detail    string
	Yank      string
	SelectAll string
}

// keyMap represents key map data used by this package.
type keyMap struct {
	quit        key.Binding
	reload      key.Binding
	toggleHelp  key.Binding
	moveLeft    key.Binding
	moveRight   key.Binding
	moveUp      key.Binding
	moveDown    key.Binding
	pageUp      key.Binding
	pageDown    key.Binding
	edit        key.Binding
	search      key.Binding
	nextTab     key.Binding
	prevTab     key.Binding
	sort        key.Binding
	addColumn   key.Binding
	rename      key.Binding
	renameGroup key.Binding
	moveGroup   key.Binding
	widen       key.Binding
	narrow      key.Binding
	detail      key.Binding
	yank        key.Binding
	selectRow   key.Binding
	selectAll   key.Binding
}

// newKeyMap constructs key map.
func newKeyMap() keyMap {
	return keyMap{
		quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		reload:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "reload")),
		toggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:    key.NewBinding(key.WithKeys("h", "left", "shift+tab"), key.WithHelp("h/←", "cell left")),
		moveRight:   key.NewBinding(key.WithKeys("l", "right", "tab"), key.WithHelp("l/→", "cell right")),
		moveUp:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "row up")),
		moveDown:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "row down")),
		pageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
		pageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
		edit:        key.NewBinding(key.WithKeys("enter", "e"), key.WithHelp("enter", "edit cell")),
		search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		nextTab:     key.NewBinding(key.WithKeys("t", "]"), key.WithHelp("t", "next tab")),
		prevTab:     key.NewBinding(key.WithKeys("T", "shift+t", "["), key.WithHelp("T", "prev tab")),
		sort:        key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort column")),
		addColumn:   key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "add column")),
		rename:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rename column")),
		renameGroup: key.NewBinding(key.WithKeys("R", "shift+r"), key.WithHelp("R", "rename group")),
		moveGroup:   key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move column to group")),
		widen:       key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "widen column")),
		narrow:      key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "narrow column")),
		detail:      key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "record detail")),
		yank:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy cell")),
		selectRow:   key.NewBinding(key.WithKeys("space"), key.WithHelp("space", "select row")),
		selectAll:   key.NewBinding(key.WithKeys("A", "shift+a"), key.WithHelp("A", "select all")),
	}
}

// applyConfig replaces configurable bindings with user overrides.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.search, cfg.Search, "/", "search")
	configureBinding(&k.addColumn, cfg.AddColumn, "+", "add column")
	configureBinding(&k.rename, cfg.Rename, "r", "rename column")
	configureBinding(&k.moveGroup, cfg.MoveGroup, "m", "move column to group")
	configureBinding(&k.detail, cfg.Detail, "i", "record detail")
	configureBinding(&k.yank, cfg.Yank, "y", "copy cell")
	configureBinding(&k.selectAll, cfg.SelectAll, "A", "select all")
}

// configureBinding rebinds b to raw, or to fallback when raw is blank.
func configureBinding(b *key.Binding, raw, fallback, desc string) {
	keys, help := parseBindingKeys(raw, fallback)
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys turns a configured key into matcher keys and a help label.
func parseBindingKeys(raw, fallback string) ([]string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = fallback
	}
	if strings.EqualFold(raw, "space") {
		return []string{" ", "space"}, "space"
	}
	if utf8.RuneCountInString(raw) == 1 {
		r, _ := utf8.DecodeRuneInString(raw)
		if unicode.IsUpper(r) {
			return []string{raw, "shift+" + string(unicode.ToLower(r))}, raw
		}
		return []string{raw}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// ShortHelp handles short help.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.edit, k.search, k.nextTab, k.sort, k.addColumn, k.rename, k.detail, k.toggleHelp, k.quit,
	}
}

// FullHelp handles full help.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown, k.pageUp, k.pageDown},
		{k.edit, k.search, k.nextTab, k.prevTab, k.sort, k.yank, k.detail},
		{k.addColumn, k.rename, k.renameGroup, k.moveGroup, k.widen, k.narrow},
		{k.selectRow, k.selectAll, k.reload, k.toggleHelp, k.quit},
	}
}
