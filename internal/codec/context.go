package codec

// Context is the parsing context threaded through every decode call of one
// stream. It caches per-column state built on first use.
type Context struct {
	states []any
}

// NewContext returns a context sized for columns columns.
func NewContext(columns int) *Context {
	return &Context{states: make([]any, columns)}
}

// State returns the state of column index, building it with init on first use.
func (c *Context) State(index int, init func() any) any {
	if index >= len(c.states) {
		grown := make([]any, index+1)
		copy(grown, c.states)
		c.states = grown
	}

	if c.states[index] == nil {
		c.states[index] = init()
	}

	return c.states[index]
}
