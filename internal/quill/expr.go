package quill

import (
	"context"
	"strconv"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// exprTimeout bounds a single {expr} evaluation.
const exprTimeout = 50 * time.Millisecond

// evaluator runs {expr} bodies in a sandboxed Lua state. Only the base and
// math libraries are loaded; script variables are exposed through a fresh
// environment table per evaluation.
type evaluator struct {
	L *lua.LState
}

func newEvaluator() *evaluator {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenMath(L)
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require", "print"} {
		L.SetGlobal(name, lua.LNil)
	}
	return &evaluator{L: L}
}

func (e *evaluator) close() {
	e.L.Close()
}

// eval evaluates src with the given variables in scope and returns the Lua
// result value.
func (e *evaluator) eval(src string, vars map[string]string) (lua.LValue, error) {
	L := e.L
	fn, err := L.LoadString("return " + translateOperators(src))
	if err != nil {
		return lua.LNil, err
	}

	env := L.NewTable()
	for name, value := range vars {
		env.RawSetString(name, toLua(value))
	}
	meta := L.NewTable()
	meta.RawSetString("__index", L.G.Global)
	L.SetMetatable(env, meta)
	fn.Env = env

	ctx, cancel := context.WithTimeout(context.Background(), exprTimeout)
	defer cancel()
	L.SetContext(ctx)
	defer L.RemoveContext()

	top := L.GetTop()
	L.Push(fn)
	if err := L.PCall(0, 1, nil); err != nil {
		L.SetTop(top)
		return lua.LNil, err
	}
	ret := L.Get(-1)
	L.SetTop(top)
	return ret, nil
}

// evalString evaluates src and stringifies the result.
func (e *evaluator) evalString(src string, vars map[string]string) (string, error) {
	v, err := e.eval(src, vars)
	if err != nil {
		return "", err
	}
	return fromLua(v), nil
}

// truthy evaluates a condition. Literal true/false and numbers are decided
// without Lua; zero and the empty string are false.
func (e *evaluator) truthy(src string, vars map[string]string) (bool, error) {
	s := strings.TrimSpace(src)
	if b, ok := literalBool(s); ok {
		return b, nil
	}
	v, err := e.eval(s, vars)
	if err != nil {
		return false, err
	}
	switch lv := v.(type) {
	case lua.LNumber:
		return lv != 0, nil
	case lua.LString:
		return lv != "", nil
	default:
		return lua.LVAsBool(v), nil
	}
}

func literalBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false", "":
		return false, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f != 0, true
	}
	return false, false
}

// toLua converts a script value. Booleans written by comparisons and
// builtins go back in as Lua booleans so that negation works.
func toLua(value string) lua.LValue {
	switch value {
	case "true":
		return lua.LTrue
	case "false":
		return lua.LFalse
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return lua.LNumber(f)
	}
	return lua.LString(value)
}

func fromLua(v lua.LValue) string {
	switch lv := v.(type) {
	case lua.LNumber:
		return formatNumber(float64(lv))
	case lua.LBool:
		return strconv.FormatBool(bool(lv))
	case *lua.LNilType:
		return ""
	default:
		return v.String()
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// translateOperators rewrites C style operators into Lua outside of quotes.
func translateOperators(src string) string {
	var b strings.Builder
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			b.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}
		var next byte
		if i+1 < len(src) {
			next = src[i+1]
		}
		switch {
		case c == '"' || c == '\'':
			quote = c
			b.WriteByte(c)
		case c == '!' && next == '=':
			b.WriteString("~=")
			i++
		case c == '!':
			b.WriteString(" not ")
		case c == '&' && next == '&':
			b.WriteString(" and ")
			i++
		case c == '|' && next == '|':
			b.WriteString(" or ")
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
