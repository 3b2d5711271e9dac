package quill

// maxCallDepth bounds recursion; exceeding it is fatal.
const maxCallDepth = 256

type frame struct {
	function string
	returnPC int
	locals   map[string]string
}

// callStack holds return addresses, active function names and the local
// variables of each call.
type callStack struct {
	frames []*frame
}

func (c *callStack) push(function string, returnPC int) *frame {
	f := &frame{function: function, returnPC: returnPC, locals: make(map[string]string)}
	c.frames = append(c.frames, f)
	return f
}

func (c *callStack) pop() (*frame, bool) {
	if len(c.frames) == 0 {
		return nil, false
	}
	f := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	return f, true
}

func (c *callStack) top() *frame {
	if len(c.frames) == 0 {
		return nil
	}
	return c.frames[len(c.frames)-1]
}

func (c *callStack) depth() int {
	return len(c.frames)
}

// scopes returns the active function names, outermost first.
func (c *callStack) scopes() []string {
	names := make([]string, len(c.frames))
	for i, f := range c.frames {
		names[i] = f.function
	}
	return names
}

func (c *callStack) reset() {
	c.frames = c.frames[:0]
}
