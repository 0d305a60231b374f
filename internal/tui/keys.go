package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the ticketing TUI. Section keys are
// only read while no text input has focus.
type KeyMap struct {
	Up   key.Binding
	Down key.Binding
	Left key.Binding
	// Right moves from the order list to its tickets.
	Right key.Binding

	NextSection key.Binding
	PrevSection key.Binding
	Offers      key.Binding
	Orders      key.Binding
	Auth        key.Binding
	Gate        key.Binding
	Admin       key.Binding

	Select  key.Binding
	Edit    key.Binding
	Blur    key.Binding
	Confirm key.Binding
	Cancel  key.Binding

	// Storefront.
	Search    key.Binding
	Seats     key.Binding
	MaxPrice  key.Binding
	Sort      key.Binding
	QtyUp     key.Binding
	QtyDown   key.Binding
	ClearForm key.Binding

	// Auth.
	ToggleMode key.Binding
	SignOut    key.Binding
	Purge      key.Binding
	Reload     key.Binding

	// Tickets and gate.
	CopyKey key.Binding
	Verify  key.Binding
	Consume key.Binding

	// Admin.
	NewOffer    key.Binding
	DeleteOffer key.Binding
	Refresh     key.Binding
	Toggle      key.Binding

	Quit      key.Binding
	ForceQuit key.Binding
}

var DefaultKeyMap = KeyMap{
	Up:    key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
	Down:  key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
	Left:  key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "orders")),
	Right: key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "tickets")),

	NextSection: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next section")),
	PrevSection: key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("S-tab", "prev section")),
	Offers:      key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "offers")),
	Orders:      key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "orders")),
	Auth:        key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "account")),
	Gate:        key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "gate")),
	Admin:       key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "admin")),

	Select:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Edit:    key.NewBinding(key.WithKeys("i", "e"), key.WithHelp("i", "edit")),
	Blur:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "leave input")),
	Confirm: key.NewBinding(key.WithKeys("y", "enter"), key.WithHelp("y", "confirm")),
	Cancel:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),

	Search:    key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	Seats:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "seats")),
	MaxPrice:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "max price")),
	Sort:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort")),
	QtyUp:     key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "qty")),
	QtyDown:   key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "qty")),
	ClearForm: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("C-l", "clear")),

	ToggleMode: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("C-t", "login/register")),
	SignOut:    key.NewBinding(key.WithKeys("X"), key.WithHelp("X", "sign out")),
	Purge:      key.NewBinding(key.WithKeys("P"), key.WithHelp("P", "purge token")),
	Reload:     key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reload session")),

	CopyKey: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy key")),
	Verify:  key.NewBinding(key.WithKeys("v"), key.WithHelp("v", "verify")),
	Consume: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "consume")),

	NewOffer:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new offer")),
	DeleteOffer: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Toggle:      key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "toggle")),

	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),
}
