package quill

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func init() {
	RegisterBuiltin("randomint", randomInt)
	RegisterBuiltin("randomfloat", randomFloat)
	RegisterBuiltin("execute", execute)
	RegisterBuiltin("teleport", teleport)
	RegisterBuiltin("loadlevel", levelCommand("loadlevel"))
	RegisterBuiltin("unloadlevel", levelCommand("unloadlevel"))
	RegisterBuiltin("readlevel", readLevel)
	RegisterBuiltin("give", give)
	RegisterBuiltin("notif", notif)
	RegisterBuiltin("readfile", readFile)
	RegisterBuiltin("log", logLine("log"))
	RegisterBuiltin("warn", logLine("warn"))
	RegisterBuiltin("error", logLine("error"))
}

// randomint min, max[, out]
func randomInt(c *Call) Result {
	if err := c.argCount("randomint", 2, 3); err != nil {
		return Result{Err: err}
	}
	lo, err := c.intArg(0, "min")
	if err != nil {
		return Result{Err: err}
	}
	hi, err := c.intArg(1, "max")
	if err != nil {
		return Result{Err: err}
	}
	out, err := c.outName(2)
	if err != nil {
		return Result{Err: err}
	}
	if lo > hi {
		return fail(ValueError, "min %d is greater than max %d", lo, hi)
	}
	span := hi - lo + 1
	if span <= 0 {
		return fail(ValueError, "range %d to %d is too wide", lo, hi)
	}
	return output(out, strconv.Itoa(lo+c.Rand.Intn(span)))
}

// randomfloat min, max[, out]
func randomFloat(c *Call) Result {
	if err := c.argCount("randomfloat", 2, 3); err != nil {
		return Result{Err: err}
	}
	lo, err := c.floatArg(0, "min")
	if err != nil {
		return Result{Err: err}
	}
	hi, err := c.floatArg(1, "max")
	if err != nil {
		return Result{Err: err}
	}
	out, err := c.outName(2)
	if err != nil {
		return Result{Err: err}
	}
	if lo > hi {
		return fail(ValueError, "min %v is greater than max %v", lo, hi)
	}
	return output(out, formatNumber(lo+c.Rand.Float64()*(hi-lo)))
}

// run sends a command line to the host.
func (c *Call) run(command string) (string, *Error) {
	if c.Commands == nil {
		return "", Errorf(CommandError, "no command system attached")
	}
	ok, out := c.Commands.Execute(command)
	if !ok {
		return "", Errorf(CommandError, "%s", out)
	}
	return out, nil
}

// execute command[, out]
func execute(c *Call) Result {
	if err := c.argCount("execute", 1, 2); err != nil {
		return Result{Err: err}
	}
	out, err := c.outName(1)
	if err != nil {
		return Result{Err: err}
	}
	text, err := c.run(c.Args[0])
	if err != nil {
		return Result{Err: err}
	}
	return output(out, text)
}

// teleport x, y
func teleport(c *Call) Result {
	if err := c.argCount("teleport", 2, 2); err != nil {
		return Result{Err: err}
	}
	x, y, err := c.gridPos(0, 1)
	if err != nil {
		return Result{Err: err}
	}
	if _, err := c.run(fmt.Sprintf("teleport %d %d", x, y)); err != nil {
		return Result{Err: err}
	}
	return done()
}

func levelCommand(command string) Builtin {
	return func(c *Call) Result {
		if err := c.argCount(command, 1, 1); err != nil {
			return Result{Err: err}
		}
		if c.Args[0] == "" {
			return fail(ValueError, "%s needs a level name", command)
		}
		if _, err := c.run(command + " " + c.Args[0]); err != nil {
			return Result{Err: err}
		}
		return done()
	}
}

// readlevel name[, out]
func readLevel(c *Call) Result {
	if err := c.argCount("readlevel", 1, 2); err != nil {
		return Result{Err: err}
	}
	out, err := c.outName(1)
	if err != nil {
		return Result{Err: err}
	}
	text, err := c.run("readlevel " + c.Args[0])
	if err != nil {
		return Result{Err: err}
	}
	return output(out, text)
}

// give item[, count]
func give(c *Call) Result {
	if err := c.argCount("give", 1, 2); err != nil {
		return Result{Err: err}
	}
	count := 1
	if len(c.Args) == 2 {
		n, err := c.intArg(1, "count")
		if err != nil {
			return Result{Err: err}
		}
		if n < 1 {
			return fail(ValueError, "count must be positive, got %d", n)
		}
		count = n
	}
	if _, err := c.run(fmt.Sprintf("give %s %d", c.Args[0], count)); err != nil {
		return Result{Err: err}
	}
	return done()
}

// notif text
func notif(c *Call) Result {
	if len(c.Args) == 0 {
		return fail(ParameterMismatch, "notif expects a message")
	}
	if _, err := c.run("notif " + strings.Join(c.Args, ", ")); err != nil {
		return Result{Err: err}
	}
	return done()
}

// readfile path[, out]. Paths resolve under the file root.
func readFile(c *Call) Result {
	if err := c.argCount("readfile", 1, 2); err != nil {
		return Result{Err: err}
	}
	out, err := c.outName(1)
	if err != nil {
		return Result{Err: err}
	}
	path, err := resolvePath(c.FileRoot, c.Args[0])
	if err != nil {
		return Result{Err: err}
	}
	data, rerr := os.ReadFile(path)
	switch {
	case rerr == nil:
		return output(out, string(data))
	case os.IsNotExist(rerr):
		return fail(FileNotFound, "%s not found", c.Args[0])
	case os.IsPermission(rerr):
		return fail(AccessDenied, "%s: permission denied", c.Args[0])
	default:
		return fail(IOError, "failed to read %s: %v", c.Args[0], rerr)
	}
}

func resolvePath(root, path string) (string, *Error) {
	if root == "" {
		return "", Errorf(AccessDenied, "file access is disabled")
	}
	if path == "" || filepath.IsAbs(path) {
		return "", Errorf(AccessDenied, "%q is outside the file root", path)
	}
	full := filepath.Join(root, path)
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", Errorf(AccessDenied, "%q is outside the file root", path)
	}
	return full, nil
}

// log expr / warn expr / error expr[, exit]
func logLine(level string) Builtin {
	return func(c *Call) Result {
		maxArgs := 1
		if level == "error" {
			maxArgs = 2
		}
		if err := c.argCount(level, 1, maxArgs); err != nil {
			return Result{Err: err}
		}
		text := c.Args[0]
		if v, err := c.Eval(text); err == nil {
			text = v
		}
		switch level {
		case "log":
			c.Log.Info(text)
		case "warn":
			c.Log.Warn(text)
		default:
			c.Log.Error(text)
			if len(c.Args) == 2 && c.boolArg(1) {
				if c.Exit != nil {
					c.Exit(1)
				}
				return Result{Halt: true}
			}
		}
		return done()
	}
}
