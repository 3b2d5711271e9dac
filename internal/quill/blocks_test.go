package quill

import (
	"strings"
	"testing"
)

func mustParse(t *testing.T, src string) []Line {
	t.Helper()
	lines, err := ParseScript([]byte(strings.TrimSpace(src)))
	if err != nil {
		t.Fatal(err)
	}
	return lines
}

func TestResolveBlocksBuildsJumpTable(t *testing.T) {
	lines := mustParse(t, `
func f, a
if {a}
return 1
endif
endfunc
while .outer true
while true
breakwhile .outer
continuewhile
endwhile
endwhile .outer
only 2
endonly
return
`)
	jt, err := resolveBlocks(lines)
	if err != nil {
		t.Fatal(err)
	}

	checks := []struct {
		name      string
		got, want int
	}{
		{"func closer", jt.closer[0], 4},
		{"if closer", jt.closer[1], 3},
		{"endif opener", jt.opener[3], 1},
		{"return target", jt.returns[2], 4},
		{"outer while closer", jt.closer[5], 10},
		{"inner while closer", jt.closer[6], 9},
		{"labeled break", jt.loop[7], 5},
		{"unlabeled continue", jt.loop[8], 6},
		{"only closer", jt.closer[11], 12},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: expected %d, got %d", c.name, c.want, c.got)
		}
	}
	if _, ok := jt.returns[13]; ok {
		t.Error("Top level return must have no target")
	}
	fn := jt.functions["f"]
	if fn == nil || fn.line != 0 || len(fn.params) != 1 || fn.params[0] != "a" {
		t.Errorf("Unexpected function registration %+v", fn)
	}
}

func TestResolveBlocksMismatches(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"missing endwhile", "str a\nwhile true\nstr b", 2},
		{"stray endif", "endif", 1},
		{"label mismatch", "while .a true\nendwhile .b", 2},
		{"break outside loop", "breakwhile", 1},
		{"unknown break label", "while .a true\nbreakwhile .b\nendwhile", 2},
		{"duplicate function", "func f\nendfunc\nfunc F\nendfunc", 3},
		{"func without name", "func\nendfunc", 1},
		{"function shadows builtin", "func log\nendfunc", 1},
		{"missing endonly", "only 1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolveBlocks(mustParse(t, tt.src))
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !err.Fatal {
				t.Errorf("Expected a fatal error, got %v", err)
			}
			if err.Line != tt.line {
				t.Errorf("Expected line %d, got %d (%v)", tt.line, err.Line, err)
			}
		})
	}
}
