package quill

import "strings"

// blockKind pairs an opening keyword with its terminator.
type blockKind struct {
	open, close string
}

var blockKinds = []blockKind{
	{"if", "endif"},
	{"while", "endwhile"},
	{"func", "endfunc"},
	{"only", "endonly"},
}

type openBlock struct {
	line  int // 0-based index into the script
	label string
}

// function is a user defined function registered by the pre-pass.
type function struct {
	name   string
	line   int // index of the func line
	params []string
}

// jumpTable maps control-flow lines to their targets, all 0-based indexes.
type jumpTable struct {
	closer    map[int]int // opener -> matching terminator
	opener    map[int]int // terminator -> matching opener
	loop      map[int]int // breakwhile/continuewhile -> enclosing while
	returns   map[int]int // return -> enclosing endfunc, absent at top level
	functions map[string]*function
}

// resolveBlocks matches every opener to its terminator with one stack per
// block kind. A terminator may name a label; it must then close the
// innermost open block of its kind carrying that label. Anything left
// unmatched is a BlockMismatch.
func resolveBlocks(lines []Line) (*jumpTable, *Error) {
	jt := &jumpTable{
		closer:    make(map[int]int),
		opener:    make(map[int]int),
		loop:      make(map[int]int),
		returns:   make(map[int]int),
		functions: make(map[string]*function),
	}
	stacks := make(map[string][]openBlock, len(blockKinds))
	openers := make(map[string]string, len(blockKinds))
	closers := make(map[string]string, len(blockKinds))
	for _, k := range blockKinds {
		openers[k.open] = k.open
		closers[k.close] = k.open
	}
	returnOwner := make(map[int]int) // return line -> enclosing func line

	mismatch := func(l Line, format string, args ...interface{}) *Error {
		err := Errorf(BlockMismatch, format, args...)
		err.Line = l.Num
		return err
	}

	for i, l := range lines {
		kw := l.Keyword
		label, _ := splitLabel(l.Args)

		if kind, ok := openers[kw]; ok {
			stacks[kind] = append(stacks[kind], openBlock{line: i, label: label})
			if kind == "func" {
				fn, err := parseFuncHeader(i, l.Args)
				if err != nil {
					err.Line, err.Fatal = l.Num, true
					return nil, err
				}
				if _, dup := jt.functions[fn.name]; dup {
					return nil, mismatch(l, "function %q defined twice", fn.name)
				}
				jt.functions[fn.name] = fn
			}
			continue
		}

		if kind, ok := closers[kw]; ok {
			stack := stacks[kind]
			if len(stack) == 0 {
				return nil, mismatch(l, "%s without %s", kw, kind)
			}
			top := stack[len(stack)-1]
			if label != "" && top.label != label {
				return nil, mismatch(l, "%s %s does not match %s %s on line %d",
					kw, label, kind, labelOrNone(top.label), lines[top.line].Num)
			}
			stacks[kind] = stack[:len(stack)-1]
			jt.closer[top.line] = i
			jt.opener[i] = top.line
			if kind == "func" {
				for r, owner := range returnOwner {
					if owner == top.line {
						jt.returns[r] = i
					}
				}
			}
			continue
		}

		switch kw {
		case "breakwhile", "continuewhile":
			target, ok := findLoop(stacks["while"], label)
			if !ok {
				return nil, mismatch(l, "%s %s outside of a matching while", kw, label)
			}
			jt.loop[i] = target
		case "return":
			if funcs := stacks["func"]; len(funcs) > 0 {
				returnOwner[i] = funcs[len(funcs)-1].line
			}
		}
	}

	for _, k := range blockKinds {
		if stack := stacks[k.open]; len(stack) > 0 {
			top := stack[len(stack)-1]
			return nil, mismatch(lines[top.line], "%s %s has no matching %s",
				k.open, labelOrNone(top.label), k.close)
		}
	}
	return jt, nil
}

func findLoop(stack []openBlock, label string) (int, bool) {
	for i := len(stack) - 1; i >= 0; i-- {
		if label == "" || stack[i].label == label {
			return stack[i].line, true
		}
	}
	return 0, false
}

func labelOrNone(label string) string {
	if label == "" {
		return "(unlabeled)"
	}
	return label
}

// parseFuncHeader reads "func name, p1, p2". "func name p1 p2" is accepted too.
func parseFuncHeader(line int, args []string) (*function, *Error) {
	var fields []string
	for _, a := range args {
		fields = append(fields, strings.Fields(a)...)
	}
	if len(fields) == 0 {
		return nil, Errorf(BlockMismatch, "func without a name")
	}
	fn := &function{name: strings.ToLower(fields[0]), line: line}
	seen := make(map[string]bool)
	for _, p := range fields[1:] {
		if !validName.MatchString(p) {
			return nil, Errorf(InvalidName, "invalid parameter name %q", p)
		}
		if seen[p] {
			return nil, Errorf(InvalidName, "duplicate parameter %q", p)
		}
		seen[p] = true
		fn.params = append(fn.params, p)
	}
	if !validName.MatchString(fn.name) {
		return nil, Errorf(InvalidName, "invalid function name %q", fields[0])
	}
	if isKeyword(fn.name) || LookupBuiltin(fn.name) != nil {
		return nil, Errorf(InvalidName, "function name %q shadows a command", fields[0])
	}
	return fn, nil
}
