package search

// Key is a navigation key understood by Cursor.
type Key int

const (
	KeyDown Key = iota
	KeyUp
	KeyEnter
	KeyEscape
)

// Action is what the dialog should do after a key press.
type Action int

const (
	// None: only the highlighted row may have moved.
	None Action = iota
	// Select: open the result at the cursor.
	Select
	// Close: dismiss the dialog without a selection.
	Close
)

// Cursor tracks the highlighted row over a result list of length n.
// Movement clamps at both ends; there is no wraparound.
type Cursor struct {
	index int
	n     int
}

// Reset points the cursor at the first of n results. Call it after every re-query.
func (c *Cursor) Reset(n int) {
	c.index = 0
	c.n = max(n, 0)
}

// Index returns the highlighted row.
func (c *Cursor) Index() int { return c.index }

// Handle applies a key and returns the resulting action and the row it refers to.
func (c *Cursor) Handle(k Key) (Action, int) {
	switch k {
	case KeyDown:
		if c.n > 0 {
			c.index = min(c.index+1, c.n-1)
		}
	case KeyUp:
		c.index = max(c.index-1, 0)
	case KeyEnter:
		if c.index < c.n {
			return Select, c.index
		}
	case KeyEscape:
		return Close, c.index
	}
	return None, c.index
}
