package quill

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"chosenoffset.com/emberfall/internal/logging"
)

// DefaultStepsPerTick is the number of lines one Tick may run before yielding.
const DefaultStepsPerTick = 1000

// maxKeptErrors bounds the error history kept for inspection.
const maxKeptErrors = 256

// Status is the run state of an Interpreter.
type Status int

const (
	Idle Status = iota
	Running
	Sleeping
	Finished
	Halted
	Aborted
)

var statusNames = [...]string{"idle", "running", "sleeping", "finished", "halted", "aborted"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Done reports whether the run is over.
func (s Status) Done() bool {
	return s == Finished || s == Halted || s == Aborted
}

var keywords = map[string]bool{
	"if": true, "endif": true,
	"while": true, "endwhile": true, "breakwhile": true, "continuewhile": true,
	"func": true, "endfunc": true, "return": true, "call": true,
	"only": true, "endonly": true,
	"sleep": true, "wait": true,
	"num": true, "str": true,
}

func isKeyword(name string) bool {
	return keywords[strings.ToLower(name)]
}

// Options configures an Interpreter.
type Options struct {
	StepsPerTick int           // Lines per Tick, DefaultStepsPerTick when <= 0
	FileRoot     string        // Root directory for readfile, empty disables it
	Commands     CommandRunner // Host command bridge
	Exit         func(code int)
	Seed         int64 // Random seed, time based when 0
}

// Interpreter runs one Quill script at a time. Each concurrently running
// script needs its own Interpreter; nothing is shared between instances.
// It is not safe for concurrent use.
type Interpreter struct {
	opts Options
	log  *zap.Logger
	eval *evaluator
	rng  *rand.Rand

	name    string
	lines   []Line
	jumps   *jumpTable
	calls   callStack
	syms    *symbols
	only    map[int]int
	pc      int
	status  Status
	wakeAt  time.Time
	now     time.Time
	halt    bool
	pending []*Error
	errs    []*Error
}

// New creates an idle interpreter. Close releases its expression state.
func New(opts Options, log *zap.Logger) *Interpreter {
	if opts.StepsPerTick <= 0 {
		opts.StepsPerTick = DefaultStepsPerTick
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	in := &Interpreter{
		opts: opts,
		log:  logging.OrNop(log).Named("quill"),
		eval: newEvaluator(),
		rng:  rand.New(rand.NewSource(seed)),
		only: make(map[int]int),
	}
	in.syms = newSymbols(&in.calls)
	return in
}

// Close releases the embedded expression evaluator.
func (in *Interpreter) Close() {
	in.eval.close()
}

// LoadFile reads a script from disk and starts it with RunScript.
func (in *Interpreter) LoadFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "Failed to read script %s", path)
	}
	return in.RunScript(filepath.Base(path), src)
}

// RunScript resets all script state, tokenizes src and resolves its blocks.
// Execution happens in Tick. A malformed block structure is returned as a
// fatal BlockMismatch *Error and the interpreter is left Halted.
func (in *Interpreter) RunScript(name string, src []byte) error {
	in.reset(name)

	lines, err := ParseScript(src)
	if err != nil {
		in.status = Halted
		return errors.Wrapf(err, "Failed to parse script %s", name)
	}
	jumps, serr := resolveBlocks(lines)
	if serr != nil {
		in.status = Halted
		in.pending = append(in.pending, serr)
		in.flush()
		return serr
	}

	in.lines = lines
	in.jumps = jumps
	in.status = Running
	in.log.Debug("script started",
		zap.String("script", name),
		zap.Int("lines", len(lines)),
		zap.Int("functions", len(jumps.functions)))
	return nil
}

func (in *Interpreter) reset(name string) {
	in.name = name
	in.lines = nil
	in.jumps = nil
	in.calls.reset()
	in.syms.globals = make(map[string]string)
	in.only = make(map[int]int)
	in.pc = 0
	in.status = Idle
	in.wakeAt = time.Time{}
	in.halt = false
	in.pending = nil
	in.errs = nil
}

// SetExternals replaces the read-only engine symbols. Hosts call it once per
// tick before Tick.
func (in *Interpreter) SetExternals(symbols map[string]string) {
	ext := make(map[string]string, len(symbols))
	for k, v := range symbols {
		ext[k] = v
	}
	in.syms.externals = ext
}

// Abort stops the script before its next line.
func (in *Interpreter) Abort() {
	if in.status == Running || in.status == Sleeping {
		in.status = Aborted
		in.log.Info("script aborted", zap.String("script", in.name), zap.Int("line", in.lineNum()))
	}
}

// Tick runs lines until the script finishes, halts, suspends or uses up
// its step budget. now drives sleep and wait.
func (in *Interpreter) Tick(ctx context.Context, now time.Time) Status {
	in.now = now
	switch in.status {
	case Sleeping:
		if now.Before(in.wakeAt) {
			return in.status
		}
		in.status = Running
	case Running:
	default:
		return in.status
	}

	for steps := 0; in.status == Running && steps < in.opts.StepsPerTick; steps++ {
		if err := ctx.Err(); err != nil {
			in.Abort()
			break
		}
		if in.pc < 0 || in.pc >= len(in.lines) {
			in.finish()
			break
		}
		in.step()
		if in.flush() || in.halt {
			in.status = Halted
			in.log.Info("script halted", zap.String("script", in.name), zap.Int("line", in.lineNum()))
		}
	}
	return in.status
}

func (in *Interpreter) finish() {
	in.status = Finished
	in.log.Debug("script finished", zap.String("script", in.name))
}

// step executes the line at pc and moves pc to the next line to run.
func (in *Interpreter) step() {
	line := in.lines[in.pc]
	if line.Noop() {
		in.pc++
		return
	}
	defer func() {
		if r := recover(); r != nil {
			err := Errorf(RuntimeError, "%s: %v", line.Keyword, r)
			err.Fatal = true
			in.report(err)
			in.pc++
		}
	}()
	in.pc = in.dispatch(line)
}

func (in *Interpreter) dispatch(line Line) int {
	pc := in.pc
	next := pc + 1
	jt := in.jumps

	switch line.Keyword {
	case "if", "while":
		_, rest := splitLabel(line.Args)
		if !in.condition(rest) {
			return jt.closer[pc] + 1
		}
		return next
	case "endif", "endonly":
		return next
	case "endwhile":
		return jt.opener[pc]
	case "breakwhile":
		return jt.closer[jt.loop[pc]] + 1
	case "continuewhile":
		return jt.loop[pc]
	case "func":
		return jt.closer[pc] + 1
	case "endfunc":
		if f, ok := in.calls.pop(); ok {
			return f.returnPC
		}
		return next
	case "return":
		return in.doReturn(line)
	case "only":
		return in.doOnly(line)
	case "sleep":
		return in.doSleep(line)
	case "wait":
		return in.doWait(line)
	case "num", "str":
		in.declare(line)
		return next
	case "call":
		return in.doCall(line)
	}

	if fn := LookupBuiltin(line.Keyword); fn != nil {
		in.runBuiltin(line, fn)
		return next
	}
	if fn, ok := jt.functions[line.Keyword]; ok {
		return in.invoke(fn, in.expandAll(line.Args))
	}
	in.report(Errorf(UnknownCommand, "unknown command %q", line.Keyword))
	return next
}

// condition evaluates the (already label-stripped) arguments of if, while
// and wait. Evaluation failures count as false.
func (in *Interpreter) condition(args []string) bool {
	if len(args) == 0 {
		in.report(Errorf(ParameterMismatch, "missing condition"))
		return false
	}
	expr := in.expandArg(strings.Join(args, ", "))
	b, err := in.eval.truthy(expr, in.syms.scope())
	if err != nil {
		in.report(Errorf(InvalidExpression, "%s: %v", expr, err))
		return false
	}
	return b
}

func (in *Interpreter) doReturn(line Line) int {
	if len(line.Args) > 0 {
		in.syms.globals["_return"] = in.expandArg(strings.Join(line.Args, ", "))
	}
	if target, ok := in.jumps.returns[in.pc]; ok && in.calls.depth() > 0 {
		return target
	}
	// Top level return ends the script.
	return len(in.lines)
}

func (in *Interpreter) doOnly(line Line) int {
	_, rest := splitLabel(line.Args)
	limit := 1
	if len(rest) > 0 && rest[0] != "" {
		v := in.expandArg(rest[0])
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			in.report(Errorf(TypeError, "only limit must be a non-negative integer, got %q", v))
		} else {
			limit = n
		}
	}
	in.only[in.pc]++
	if in.only[in.pc] > limit {
		return in.jumps.closer[in.pc] + 1
	}
	return in.pc + 1
}

func (in *Interpreter) suspend(msArg string) bool {
	v := in.expandArg(msArg)
	ms, err := strconv.ParseFloat(v, 64)
	if err != nil || ms < 0 {
		in.report(Errorf(ValueError, "delay must be a non-negative number of milliseconds, got %q", v))
		return false
	}
	in.wakeAt = in.now.Add(time.Duration(ms * float64(time.Millisecond)))
	in.status = Sleeping
	return true
}

// sleep ms
func (in *Interpreter) doSleep(line Line) int {
	if len(line.Args) != 1 {
		in.report(Errorf(ParameterMismatch, "sleep expects 1 argument, got %d", len(line.Args)))
		return in.pc + 1
	}
	in.suspend(line.Args[0])
	return in.pc + 1
}

// wait expr, ms re-checks expr after each delay until it holds.
func (in *Interpreter) doWait(line Line) int {
	if len(line.Args) != 2 {
		in.report(Errorf(ParameterMismatch, "wait expects 2 arguments, got %d", len(line.Args)))
		return in.pc + 1
	}
	if in.condition(line.Args[:1]) {
		return in.pc + 1
	}
	if !in.suspend(line.Args[1]) {
		return in.pc + 1
	}
	return in.pc
}

// declare handles "num name[, value]" and "str name[, value]".
func (in *Interpreter) declare(line Line) {
	args := line.Args
	if len(args) == 1 {
		if f := strings.Fields(args[0]); len(f) > 1 {
			args = []string{f[0], strings.TrimSpace(strings.TrimPrefix(args[0], f[0]))}
		}
	}
	if len(args) < 1 || len(args) > 2 {
		in.report(Errorf(ParameterMismatch, "%s expects a name and an optional value", line.Keyword))
		return
	}
	name := args[0]
	if err := in.syms.checkName(name); err != nil {
		in.report(err)
		return
	}

	value := ""
	if len(args) == 2 {
		value = in.expandArg(args[1])
	}
	if line.Keyword == "num" {
		if value == "" {
			value = "0"
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			in.report(Errorf(TypeError, "num %s: %q is not a number", name, value))
			return
		}
		value = formatNumber(f)
	}
	in.syms.declare(name, value)
}

// call name[, args...] invokes a function chosen at run time.
func (in *Interpreter) doCall(line Line) int {
	args := in.expandAll(line.Args)
	if len(args) == 0 || args[0] == "" {
		in.report(Errorf(ParameterMismatch, "call expects a function name"))
		return in.pc + 1
	}
	fn, ok := in.jumps.functions[strings.ToLower(args[0])]
	if !ok {
		in.report(Errorf(FunctionNotFound, "function %q not found", args[0]))
		return in.pc + 1
	}
	return in.invoke(fn, args[1:])
}

// invoke binds args to the function's parameters, pushes a frame and jumps
// to the body. "param:value" binds by name, anything else by position.
func (in *Interpreter) invoke(fn *function, args []string) int {
	if in.calls.depth() >= maxCallDepth {
		err := Errorf(RuntimeError, "call stack overflow calling %s", fn.name)
		err.Fatal = true
		in.report(err)
		return in.pc + 1
	}

	bound := make(map[string]string, len(fn.params))
	next := 0
	for _, a := range args {
		if k, v, ok := strings.Cut(a, ":"); ok && fn.hasParam(strings.TrimSpace(k)) {
			k = strings.TrimSpace(k)
			if _, dup := bound[k]; dup {
				in.report(Errorf(ParameterMismatch, "%s: parameter %q bound twice", fn.name, k))
				return in.pc + 1
			}
			bound[k] = strings.TrimSpace(v)
			continue
		}
		for next < len(fn.params) && hasKey(bound, fn.params[next]) {
			next++
		}
		if next >= len(fn.params) {
			in.report(Errorf(ParameterMismatch, "%s takes %d arguments, got %d", fn.name, len(fn.params), len(args)))
			return in.pc + 1
		}
		bound[fn.params[next]] = a
		next++
	}
	for _, p := range fn.params {
		if _, ok := bound[p]; !ok {
			in.report(Errorf(ParameterMismatch, "%s: parameter %q is not bound", fn.name, p))
			return in.pc + 1
		}
	}

	f := in.calls.push(fn.name, in.pc+1)
	for k, v := range bound {
		f.locals[k] = v
	}
	return fn.line + 1
}

func (fn *function) hasParam(name string) bool {
	for _, p := range fn.params {
		if p == name {
			return true
		}
	}
	return false
}

func hasKey(m map[string]string, k string) bool {
	_, ok := m[k]
	return ok
}

func (in *Interpreter) runBuiltin(line Line, fn Builtin) {
	res := fn(&Call{
		Vars:     in.syms,
		Args:     in.expandAll(line.Args),
		Commands: in.opts.Commands,
		FileRoot: in.opts.FileRoot,
		Rand:     in.rng,
		Log:      in.log.With(zap.String("script", in.name), zap.Int("line", line.Num)),
		Exit:     in.opts.Exit,
		Eval:     in.evalLoose,
	})
	if res.Err != nil {
		in.report(res.Err)
	}
	for name, value := range res.Outputs {
		if err := in.syms.checkName(name); err != nil {
			in.report(err)
			continue
		}
		in.syms.assign(name, value)
	}
	if res.Halt {
		in.halt = true
	}
}

// evalLoose evaluates expr and fails on errors and nil results, so callers
// can fall back to the literal text.
func (in *Interpreter) evalLoose(expr string) (string, error) {
	v, err := in.eval.eval(expr, in.syms.scope())
	if err != nil {
		return "", err
	}
	if v.Type() == lua.LTNil {
		return "", fmt.Errorf("%q evaluates to nil", expr)
	}
	return fromLua(v), nil
}

func (in *Interpreter) expandAll(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = in.expandArg(a)
	}
	return out
}

// expandArg substitutes =name references (script variables, then engine
// symbols) and then evaluates every {expr}.
func (in *Interpreter) expandArg(arg string) string {
	s, _ := substituteRefs(arg, in.syms.Variable)
	s, missing := substituteRefs(s, in.syms.External)
	for _, name := range missing {
		in.report(Errorf(VariableNotFound, "variable %q not found", name))
	}
	if !strings.Contains(s, "{") {
		return s
	}

	var b strings.Builder
	var scope map[string]string
	for {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(s[open:], '}')
		if end < 0 {
			break
		}
		b.WriteString(s[:open])
		expr := s[open+1 : open+end]
		if scope == nil {
			scope = in.syms.scope()
		}
		v, err := in.eval.evalString(expr, scope)
		if err != nil {
			in.report(Errorf(InvalidExpression, "{%s}: %v", expr, err))
		}
		b.WriteString(v)
		s = s[open+end+1:]
	}
	b.WriteString(s)
	return b.String()
}

func (in *Interpreter) lineNum() int {
	if in.pc >= 0 && in.pc < len(in.lines) {
		return in.lines[in.pc].Num
	}
	return 0
}

func (in *Interpreter) report(err *Error) {
	if err.Line == 0 {
		err.Line = in.lineNum()
	}
	in.pending = append(in.pending, err)
}

// flush logs the errors of the last line and reports whether one was fatal.
func (in *Interpreter) flush() bool {
	fatal := false
	for _, err := range in.pending {
		fields := []zap.Field{
			zap.String("script", in.name),
			zap.Int("line", err.Line),
			zap.Stringer("kind", err.Kind),
		}
		if err.Fatal {
			fatal = true
			in.log.Error(err.Message, fields...)
		} else {
			in.log.Warn(err.Message, fields...)
		}
		in.errs = append(in.errs, err)
	}
	if n := len(in.errs); n > maxKeptErrors {
		in.errs = append(in.errs[:0], in.errs[n-maxKeptErrors:]...)
	}
	in.pending = in.pending[:0]
	return fatal
}

// Name returns the running script's name.
func (in *Interpreter) Name() string {
	return in.name
}

// Status returns the run state.
func (in *Interpreter) Status() Status {
	return in.status
}

// WakeAt returns when a sleeping script resumes.
func (in *Interpreter) WakeAt() time.Time {
	return in.wakeAt
}

// Global returns a global variable.
func (in *Interpreter) Global(name string) (string, bool) {
	v, ok := in.syms.globals[name]
	return v, ok
}

// Errors returns the errors reported so far in this run, oldest first.
func (in *Interpreter) Errors() []*Error {
	return append([]*Error(nil), in.errs...)
}

// Snapshot is a copy of the interpreter state for inspection.
type Snapshot struct {
	Script  string            `json:"script"`
	Status  string            `json:"status"`
	Line    int               `json:"line"`
	Globals map[string]string `json:"globals"`
	Scopes  []string          `json:"scopes"`
	Errors  []*Error          `json:"errors"`
}

// Snapshot copies the current state.
func (in *Interpreter) Snapshot() Snapshot {
	globals := make(map[string]string, len(in.syms.globals))
	for k, v := range in.syms.globals {
		globals[k] = v
	}
	return Snapshot{
		Script:  in.name,
		Status:  in.status.String(),
		Line:    in.lineNum(),
		Globals: globals,
		Scopes:  in.calls.scopes(),
		Errors:  in.Errors(),
	}
}
