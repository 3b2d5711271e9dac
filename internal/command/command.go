// Package command runs host command lines such as "teleport 3 4". Scripts
// reach it through the interpreter's command bridge.
package command

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"chosenoffset.com/emberfall/internal/logging"
)

// Context is one parsed command line
type Context struct {
	Name string   // Lower case command name
	Args []string // Whitespace separated arguments
	Rest string   // Everything after the command name, spacing preserved
}

// Int parses argument i as an integer
func (c *Context) Int(i int) (int, error) {
	n, err := strconv.Atoi(c.Args[i])
	if err != nil {
		return 0, fmt.Errorf("%s: argument %d must be an integer, got %q", c.Name, i+1, c.Args[i])
	}
	return n, nil
}

// Handler executes a command and returns its output
type Handler func(c *Context) (string, error)

type entry struct {
	usage   string
	minArgs int
	handler Handler
}

// Registry maps command names to handlers
type Registry struct {
	commands map[string]entry
	log      *zap.Logger
}

// NewRegistry creates an empty registry with the built in "help" command
func NewRegistry(log *zap.Logger) *Registry {
	r := &Registry{
		commands: make(map[string]entry),
		log:      logging.OrNop(log).Named("command"),
	}
	r.Register("help", "help", 0, func(*Context) (string, error) {
		return strings.Join(r.Usages(), "\n"), nil
	})
	return r
}

// Register adds or replaces a command. minArgs is checked before the
// handler runs.
func (r *Registry) Register(name, usage string, minArgs int, h Handler) {
	r.commands[strings.ToLower(name)] = entry{usage: usage, minArgs: minArgs, handler: h}
}

// Has reports whether a command exists
func (r *Registry) Has(name string) bool {
	_, ok := r.commands[strings.ToLower(name)]
	return ok
}

// Usages lists every command's usage line, sorted
func (r *Registry) Usages() []string {
	usages := make([]string, 0, len(r.commands))
	for _, e := range r.commands {
		usages = append(usages, e.usage)
	}
	sort.Strings(usages)
	return usages
}

// Execute parses and runs a command line. On failure the output is the
// error message.
func (r *Registry) Execute(line string) (bool, string) {
	line = strings.TrimSpace(line)
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, "empty command"
	}
	ctx := &Context{
		Name: strings.ToLower(fields[0]),
		Args: fields[1:],
		Rest: strings.TrimSpace(line[len(fields[0]):]),
	}

	e, ok := r.commands[ctx.Name]
	if !ok {
		r.log.Warn("unknown command", zap.String("command", ctx.Name))
		return false, fmt.Sprintf("unknown command: %s", ctx.Name)
	}
	if len(ctx.Args) < e.minArgs {
		return false, "usage: " + e.usage
	}

	out, err := e.handler(ctx)
	if err != nil {
		r.log.Warn("command failed", zap.String("command", ctx.Name), zap.Error(err))
		return false, err.Error()
	}
	r.log.Debug("command executed", zap.String("command", ctx.Name), zap.Strings("args", ctx.Args))
	return true, out
}
