package bot

import "context"

// HandlerFunc is one step's user-supplied logic. It reads the resolved input
// data from the invocation, performs side effects (send or edit a message,
// create callback tokens) and returns any failure to the dispatcher.
type HandlerFunc func(ctx context.Context, inv *Invocation) error

// Step is one unit of conversation logic, addressable by its ID within the
// owning command's ordered step list.
type Step struct {
	// ID is the step's logical name, unique within one command.
	ID string
	// Translate overrides the command-level translation setting when non-nil.
	Translate *bool
	Handle    HandlerFunc
}

// Command is a named, ordered sequence of steps. Commands are plain values;
// concrete behavior lives in the step handlers.
type Command struct {
	// Name is the command name without the leading slash, e.g. "poll".
	Name        string
	Description string
	// Hidden excludes the command from help and from setMyCommands.
	Hidden bool
	// NoTranslate disables the per-update locale scope for all steps unless a
	// step sets Translate itself.
	NoTranslate bool
	Steps       []Step
}

// CommandString returns the command including the leading slash.
func (c *Command) CommandString() string { return "/" + c.Name }

// stepIndex resolves a step's ordinal position by its logical name.
func (c *Command) stepIndex(name string) int {
	for i := range c.Steps {
		if c.Steps[i].ID == name {
			return i
		}
	}
	return -1
}

// translates reports whether the step at idx runs under a locale scope.
func (c *Command) translates(idx int) bool {
	if t := c.Steps[idx].Translate; t != nil {
		return *t
	}
	return !c.NoTranslate
}

// NoTranslation is a convenience for Step.Translate.
func NoTranslation() *bool {
	f := false
	return &f
}
