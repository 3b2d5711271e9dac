package quill

import (
	"math"
	"math/rand"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Variables gives builtins read access to the running script's variables.
type Variables interface {
	Lookup(name string) (string, bool)
}

// CommandRunner executes a host command line such as "teleport 3 4".
type CommandRunner interface {
	Execute(command string) (ok bool, output string)
}

// Call carries everything a builtin may use.
type Call struct {
	Vars     Variables
	Args     []string
	Commands CommandRunner
	FileRoot string
	Rand     *rand.Rand
	Log      *zap.Logger // Script output channel, already tagged with script and line
	Exit     func(code int)

	// Eval evaluates an argument as an expression.
	Eval func(expr string) (string, error)
}

// Result is what a builtin returns. Outputs are written back to script
// variables by the interpreter.
type Result struct {
	Outputs map[string]string
	Err     *Error
	Halt    bool // Stop the script after this line
}

// Builtin is a native command callable from scripts.
type Builtin func(c *Call) Result

// builtinRegistry maps lower case command names to builtins
var builtinRegistry = map[string]Builtin{}

// RegisterBuiltin registers (or replaces) a builtin command.
func RegisterBuiltin(name string, fn Builtin) {
	builtinRegistry[strings.ToLower(name)] = fn
}

// LookupBuiltin returns the builtin for name or nil.
func LookupBuiltin(name string) Builtin {
	return builtinRegistry[strings.ToLower(name)]
}

// Builtins lists the registered builtin names.
func Builtins() []string {
	names := make([]string, 0, len(builtinRegistry))
	for name := range builtinRegistry {
		names = append(names, name)
	}
	return names
}

func fail(kind ErrorKind, format string, args ...interface{}) Result {
	return Result{Err: Errorf(kind, format, args...)}
}

func output(name, value string) Result {
	return Result{Outputs: map[string]string{name: value}}
}

func done() Result {
	return Result{}
}

// argCount validates the argument count is within [min, max].
func (c *Call) argCount(name string, min, max int) *Error {
	if n := len(c.Args); n < min || n > max {
		if min == max {
			return Errorf(ParameterMismatch, "%s expects %d arguments, got %d", name, min, n)
		}
		return Errorf(ParameterMismatch, "%s expects %d to %d arguments, got %d", name, min, max, n)
	}
	return nil
}

// outName returns the optional output variable at index i, "result" by default.
func (c *Call) outName(i int) (string, *Error) {
	if i >= len(c.Args) || c.Args[i] == "" {
		return "result", nil
	}
	name := c.Args[i]
	if !validName.MatchString(name) {
		return "", Errorf(InvalidName, "invalid output variable %q", name)
	}
	return name, nil
}

// variable reads the variable a mutator builtin operates on.
func (c *Call) variable(i int) (string, string, *Error) {
	name := c.Args[i]
	if !validName.MatchString(name) {
		return "", "", Errorf(InvalidName, "invalid variable name %q", name)
	}
	v, found := c.Vars.Lookup(name)
	if !found {
		return "", "", Errorf(VariableNotFound, "variable %q not found", name)
	}
	return name, v, nil
}

func (c *Call) intArg(i int, what string) (int, *Error) {
	s := strings.TrimSpace(c.Args[i])
	n, err := strconv.Atoi(s)
	if err != nil {
		// Expressions produce floats such as "2" or "2.0".
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, Errorf(TypeError, "%s must be an integer, got %q", what, c.Args[i])
		}
		if f < float64(math.MinInt) || f >= -float64(math.MinInt) {
			return 0, Errorf(ValueError, "%s is out of range: %q", what, c.Args[i])
		}
		n = int(f)
	}
	return n, nil
}

func (c *Call) floatArg(i int, what string) (float64, *Error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(c.Args[i]), 64)
	if err != nil {
		return 0, Errorf(TypeError, "%s must be a number, got %q", what, c.Args[i])
	}
	return f, nil
}

func (c *Call) boolArg(i int) bool {
	b, _ := literalBool(strings.TrimSpace(c.Args[i]))
	return b
}
