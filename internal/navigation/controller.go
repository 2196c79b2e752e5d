package navigation

import "fmt"

// Key names as delivered by the UI layer.
const (
	KeyArrowDown = "ArrowDown"
	KeyArrowUp   = "ArrowUp"
	KeyEnter     = "Enter"
	KeyEscape    = "Escape"
)

// Idle is the cursor value while focus sits on the search input rather than
// on a result.
const Idle = -1

// Item is one navigable entry of the rendered result or suggestion list.
type Item struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Announcer receives screen-reader announcements. Fire-and-forget.
type Announcer interface {
	Announce(message string)
}

// Controller tracks a cursor over the currently rendered items. Arrow keys
// wrap at both ends, Enter activates the focused item, Escape returns focus
// to the input. Replacing the item list always resets to Idle.
type Controller struct {
	items     []Item
	cursor    int
	announcer Announcer
	onActive  func(item Item, index int)
	onCancel  func()
}

// NewController wires the collaborators. onActivate runs when an item is
// chosen; onCancel when navigation is dismissed. Either may be nil.
func NewController(announcer Announcer, onActivate func(Item, int), onCancel func()) *Controller {
	return &Controller{
		cursor:    Idle,
		announcer: announcer,
		onActive:  onActivate,
		onCancel:  onCancel,
	}
}

// SetItems replaces the navigable list, resetting the cursor to Idle.
func (c *Controller) SetItems(items []Item) {
	c.items = items
	c.cursor = Idle
}

// Cursor returns the current index, or Idle.
func (c *Controller) Cursor() int {
	return c.cursor
}

// Len returns the number of navigable items.
func (c *Controller) Len() int {
	return len(c.items)
}

// HandleKey dispatches one key press. It reports whether the key was
// consumed; unknown keys fall through to the input.
func (c *Controller) HandleKey(key string) bool {
	switch key {
	case KeyArrowDown:
		c.move(1)
	case KeyArrowUp:
		c.move(-1)
	case KeyEnter:
		return c.Activate()
	case KeyEscape:
		c.Cancel()
	default:
		return false
	}
	return true
}

// move shifts the cursor by direction with wraparound. No-op without items.
func (c *Controller) move(direction int) {
	if len(c.items) == 0 {
		return
	}
	next := c.cursor + direction
	if next < 0 {
		next = len(c.items) - 1
	} else if next >= len(c.items) {
		next = 0
	}
	c.focus(next)
}

func (c *Controller) focus(index int) {
	c.cursor = index
	if c.announcer != nil {
		c.announcer.Announce(fmt.Sprintf("Result %d of %d: %s", index+1, len(c.items), c.items[index].Label))
	}
}

// Activate selects the focused item. Returns false while Idle.
func (c *Controller) Activate() bool {
	if c.cursor < 0 || c.cursor >= len(c.items) {
		return false
	}
	if c.onActive != nil {
		c.onActive(c.items[c.cursor], c.cursor)
	}
	return true
}

// Cancel returns to Idle and notifies the clear/cancel collaborator.
func (c *Controller) Cancel() {
	c.cursor = Idle
	if c.onCancel != nil {
		c.onCancel()
	}
}
