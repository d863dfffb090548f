package renderer

// Command is one unit of deferred GPU work. Commands execute exactly
// once on the render thread unless the queue drops them at capacity.
type Command interface {
	// Execute performs the work against the backend. Errors are logged
	// with the command's name; the queue keeps draining.
	Execute(backend Backend) error
	// Name identifies the command in logs and profiling output.
	Name() string
	// Cost is a relative estimate used for per-frame budgeting.
	Cost() uint32
}

// FuncCommand adapts a closure into a Command.
type FuncCommand struct {
	name string
	cost uint32
	fn   func(Backend) error
}

func NewFuncCommand(name string, cost uint32, fn func(Backend) error) *FuncCommand {
	if cost == 0 {
		cost = 1
	}
	return &FuncCommand{name: name, cost: cost, fn: fn}
}

func (c *FuncCommand) Execute(backend Backend) error {
	if c.fn == nil {
		return nil
	}
	return c.fn(backend)
}

func (c *FuncCommand) Name() string { return c.name }
func (c *FuncCommand) Cost() uint32 { return c.cost }
