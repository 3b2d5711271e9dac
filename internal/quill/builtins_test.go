package quill

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

type fakeCommands struct {
	executed []string
}

func (f *fakeCommands) Execute(command string) (bool, string) {
	f.executed = append(f.executed, command)
	switch {
	case strings.HasPrefix(command, "loadlevel missing"):
		return false, "level missing not found"
	case strings.HasPrefix(command, "readlevel"):
		return true, "name:" + strings.TrimPrefix(command, "readlevel ")
	case strings.HasPrefix(command, "echo "):
		return true, strings.TrimPrefix(command, "echo ")
	}
	return true, ""
}

func runWith(t *testing.T, opts Options, src string) *Interpreter {
	t.Helper()
	in, _ := newTestInterpreter(t, opts)
	if err := in.RunScript("builtins.quill", []byte(src)); err != nil {
		t.Fatalf("RunScript failed: %v", err)
	}
	drive(in, epoch)
	return in
}

func TestListBuiltins(t *testing.T) {
	in := runScript(t, `
str l, a;b;c
getitem =l, 1, second
setitem l, 0, z
insert l, 3, d
remove l, 1
append l, e
contains =l, c, has
contains =l, q, hasnot
length =l, n
getitem =l, 9
getitem =l, x
`)
	expectGlobal(t, in, "second", "b")
	expectGlobal(t, in, "l", "z;c;d;e")
	expectGlobal(t, in, "has", "true")
	expectGlobal(t, in, "hasnot", "false")
	expectGlobal(t, in, "n", "4")

	kinds := errorKinds(in)
	if len(kinds) != 2 || kinds[0] != OutOfBounds || kinds[1] != TypeError {
		t.Errorf("Expected OutOfBounds then TypeError, got %v", kinds)
	}
}

func TestQueryDefaultsToResult(t *testing.T) {
	in := runScript(t, "length a;b;c\n")
	expectGlobal(t, in, "result", "3")
}

func TestMutatorNeedsExistingVariable(t *testing.T) {
	in := runScript(t, "append nothere, x\n")
	if kinds := errorKinds(in); len(kinds) != 1 || kinds[0] != VariableNotFound {
		t.Errorf("Expected VariableNotFound, got %v", kinds)
	}
}

func TestGridBuiltins(t *testing.T) {
	in := runScript(t, `
str g, a;b/c;d
getitem2d =g, 1, 0, v
setitem2d g, 0, 1, X
getitem2d =g, 2, 0
getitem2d =g, 0, 5
`)
	expectGlobal(t, in, "v", "b")
	expectGlobal(t, in, "g", "a;b/X;d")
	kinds := errorKinds(in)
	if len(kinds) != 2 || kinds[0] != OutOfBounds || kinds[1] != OutOfBounds {
		t.Errorf("Expected two OutOfBounds errors, got %v", kinds)
	}
}

func TestDictBuiltins(t *testing.T) {
	in := runScript(t, `
str d, hp:10/mp:5
getvalue =d, mp, m
setvalue d, hp, 7
setvalue d, xp, 1
getvalue =d, zz
`)
	expectGlobal(t, in, "m", "5")
	expectGlobal(t, in, "d", "hp:7/mp:5")
	kinds := errorKinds(in)
	if len(kinds) != 2 || kinds[0] != KeyNotFound || kinds[1] != KeyNotFound {
		t.Errorf("Expected two KeyNotFound errors, got %v", kinds)
	}
}

func TestOutputsPreferExistingScope(t *testing.T) {
	in := runScript(t, `
num total, 0
func count, list
length =list, total
str scratch, x
length =list, scratch
return =scratch
endfunc
count a;b
`)
	expectGlobal(t, in, "total", "2")
	expectGlobal(t, in, "_return", "2")
	if _, ok := in.Global("scratch"); ok {
		t.Error("Output to a local must stay local")
	}
}

func TestRandomBuiltins(t *testing.T) {
	in := runScript(t, `
randomint 1, 6, r
randomfloat 0.5, 0.75, f
randomint 3, 3, same
randomint 6, 1
randomfloat a, 1
`)
	r, _ := in.Global("r")
	if n, err := strconv.Atoi(r); err != nil || n < 1 || n > 6 {
		t.Errorf("randomint out of range: %q", r)
	}
	f, _ := in.Global("f")
	if v, err := strconv.ParseFloat(f, 64); err != nil || v < 0.5 || v > 0.75 {
		t.Errorf("randomfloat out of range: %q", f)
	}
	expectGlobal(t, in, "same", "3")
	kinds := errorKinds(in)
	if len(kinds) != 2 || kinds[0] != ValueError || kinds[1] != TypeError {
		t.Errorf("Expected ValueError then TypeError, got %v", kinds)
	}
}

func TestRandomIntRejectsUnrepresentableRanges(t *testing.T) {
	in := runScript(t, `
randomint -9223372036854775808, 9223372036854775807, wide
randomint 1, 1e30, huge
randomint 1.5, 2, frac
num after, 1
`)
	expectGlobal(t, in, "after", "1")
	if _, ok := in.Global("wide"); ok {
		t.Error("Expected no output for an overflowing range")
	}
	if _, ok := in.Global("huge"); ok {
		t.Error("Expected no output for an out of range bound")
	}
	if in.Status() != Finished {
		t.Errorf("Expected the script to finish, got %v", in.Status())
	}
	kinds := errorKinds(in)
	if len(kinds) != 3 || kinds[0] != ValueError || kinds[1] != ValueError || kinds[2] != TypeError {
		t.Errorf("Expected ValueError, ValueError, TypeError, got %v", kinds)
	}
}

func TestCommandBridges(t *testing.T) {
	cmds := &fakeCommands{}
	in := runWith(t, Options{Commands: cmds}, `
teleport 3, {2 + 2}
give torch, 2
give apple
loadlevel cellar
unloadlevel cellar
notif Hello, traveller
readlevel cellar, info
execute echo hi, out
loadlevel missing
teleport a, 1
`)
	want := []string{
		"teleport 3 4",
		"give torch 2",
		"give apple 1",
		"loadlevel cellar",
		"unloadlevel cellar",
		"notif Hello, traveller",
		"readlevel cellar",
		"echo hi",
		"loadlevel missing",
	}
	if len(cmds.executed) != len(want) {
		t.Fatalf("Expected commands %q, got %q", want, cmds.executed)
	}
	for i := range want {
		if cmds.executed[i] != want[i] {
			t.Errorf("Command %d: expected %q, got %q", i, want[i], cmds.executed[i])
		}
	}
	expectGlobal(t, in, "info", "name:cellar")
	expectGlobal(t, in, "out", "hi")

	errs := in.Errors()
	if len(errs) != 2 {
		t.Fatalf("Expected 2 errors, got %v", errs)
	}
	if errs[0].Kind != CommandError || errs[0].Message != "level missing not found" {
		t.Errorf("Expected the command's own message, got %v", errs[0])
	}
	if errs[1].Kind != TypeError {
		t.Errorf("Expected TypeError, got %v", errs[1])
	}
}

func TestCommandBridgeWithoutRunner(t *testing.T) {
	in := runScript(t, "notif hi\n")
	if kinds := errorKinds(in); len(kinds) != 1 || kinds[0] != CommandError {
		t.Errorf("Expected CommandError, got %v", kinds)
	}
}

func TestReadFile(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("the key is under the mat"), 0o644); err != nil {
		t.Fatal(err)
	}
	in := runWith(t, Options{FileRoot: root}, `
readfile notes.txt, text
readfile nope.txt
readfile ../outside.txt
readfile sub/../../outside.txt
`)
	expectGlobal(t, in, "text", "the key is under the mat")
	want := []ErrorKind{FileNotFound, AccessDenied, AccessDenied}
	got := errorKinds(in)
	if len(got) != len(want) {
		t.Fatalf("Expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Error %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestReadFileDisabledWithoutRoot(t *testing.T) {
	in := runScript(t, "readfile notes.txt\n")
	if kinds := errorKinds(in); len(kinds) != 1 || kinds[0] != AccessDenied {
		t.Errorf("Expected AccessDenied, got %v", kinds)
	}
}

func TestLogBuiltins(t *testing.T) {
	in, logs := newTestInterpreter(t, Options{})
	if err := in.RunScript("log.quill", []byte(`
num x, 4
log x * 2
warn low health
error "it broke"
`)); err != nil {
		t.Fatal(err)
	}
	drive(in, epoch)

	info := logs.FilterLevelExact(zapcore.InfoLevel).FilterMessage("8").All()
	if len(info) != 1 {
		t.Fatalf("Expected the evaluated expression to be logged")
	}
	if fields := info[0].ContextMap(); fields["script"] != "log.quill" || fields["line"] != int64(3) {
		t.Errorf("Unexpected fields %v", fields)
	}
	if logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage("low health").Len() != 1 {
		t.Error("Expected warn to fall back to the literal text")
	}
	if logs.FilterLevelExact(zapcore.ErrorLevel).FilterMessage("it broke").Len() != 1 {
		t.Error("Expected error to log the literal text")
	}
	if in.Status() != Finished {
		t.Errorf("error without exit flag must not halt, got %v", in.Status())
	}
}

func TestErrorWithExitFlag(t *testing.T) {
	code := -1
	in := runWith(t, Options{Exit: func(c int) { code = c }}, "error fatal problem, true\nstr after, ran\n")
	if code != 1 {
		t.Errorf("Expected exit hook with code 1, got %d", code)
	}
	if in.Status() != Halted {
		t.Errorf("Expected halted, got %v", in.Status())
	}
	if _, ok := in.Global("after"); ok {
		t.Error("No line may run after error with exit")
	}
}
