package domain

// Command is one subprocess invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env holds "KEY=VALUE" pairs added to the filtered host environment.
	Env []string
}

// Argv returns the full argument vector.
func (c *Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}
