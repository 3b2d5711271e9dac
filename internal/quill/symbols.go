package quill

import (
	"regexp"
	"strings"
)

var validName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// symbols resolves names across the three variable tiers: locals of the
// current call, script globals and read-only external symbols.
type symbols struct {
	globals   map[string]string
	externals map[string]string
	calls     *callStack
}

func newSymbols(calls *callStack) *symbols {
	return &symbols{
		globals:   make(map[string]string),
		externals: make(map[string]string),
		calls:     calls,
	}
}

func (s *symbols) locals() map[string]string {
	if f := s.calls.top(); f != nil {
		return f.locals
	}
	return nil
}

// Variable looks a script variable up, locals first.
func (s *symbols) Variable(name string) (string, bool) {
	if v, ok := s.locals()[name]; ok {
		return v, true
	}
	v, ok := s.globals[name]
	return v, ok
}

// External looks an engine provided symbol up.
func (s *symbols) External(name string) (string, bool) {
	v, ok := s.externals[name]
	return v, ok
}

// Lookup resolves a name in every tier.
func (s *symbols) Lookup(name string) (string, bool) {
	if v, ok := s.Variable(name); ok {
		return v, true
	}
	return s.External(name)
}

// declare writes a variable in the current scope: globals at top level,
// locals inside a function.
func (s *symbols) declare(name, value string) {
	if l := s.locals(); l != nil {
		l[name] = value
		return
	}
	s.globals[name] = value
}

// assign writes a builtin output: an existing local wins, then an existing
// global, otherwise the current scope.
func (s *symbols) assign(name, value string) {
	if l := s.locals(); l != nil {
		if _, ok := l[name]; ok {
			l[name] = value
			return
		}
	}
	if _, ok := s.globals[name]; ok {
		s.globals[name] = value
		return
	}
	s.declare(name, value)
}

// checkName validates a name scripts may write to.
func (s *symbols) checkName(name string) *Error {
	if !validName.MatchString(name) {
		return Errorf(InvalidName, "invalid variable name %q", name)
	}
	if _, ok := s.externals[name]; ok {
		return Errorf(InvalidName, "%q is a read-only engine symbol", name)
	}
	return nil
}

// scope flattens every visible name for expression evaluation.
func (s *symbols) scope() map[string]string {
	vars := make(map[string]string, len(s.externals)+len(s.globals)+len(s.locals()))
	for k, v := range s.externals {
		vars[k] = v
	}
	for k, v := range s.globals {
		vars[k] = v
	}
	for k, v := range s.locals() {
		vars[k] = v
	}
	return vars
}

// substituteRefs replaces "=name" references using resolve. Unresolved
// references are kept and returned. An '=' that follows another operator
// character (==, <=, >=, !=, ~=) is not a reference.
func substituteRefs(arg string, resolve func(string) (string, bool)) (string, []string) {
	if !strings.Contains(arg, "=") {
		return arg, nil
	}
	var b strings.Builder
	var missing []string
	for i := 0; i < len(arg); i++ {
		c := arg[i]
		if c != '=' || (i > 0 && strings.IndexByte("=<>!~", arg[i-1]) >= 0) {
			b.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(arg) && isNameByte(arg[j], j == i+1) {
			j++
		}
		if j == i+1 {
			b.WriteByte(c)
			continue
		}
		name := arg[i+1 : j]
		if v, ok := resolve(name); ok {
			b.WriteString(v)
		} else {
			b.WriteString(arg[i:j])
			missing = append(missing, name)
		}
		i = j - 1
	}
	return b.String(), missing
}

func isNameByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}
