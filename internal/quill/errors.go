package quill

import "fmt"

// ErrorKind classifies script errors.
type ErrorKind int

const (
	ParameterMismatch ErrorKind = iota
	UnknownCommand
	FunctionNotFound
	VariableNotFound
	InvalidName
	InvalidExpression
	BlockMismatch
	OutOfBounds
	KeyNotFound
	IOError
	RuntimeError
	Fatal
	ValueError
	TypeError
	CommandError
	FileNotFound
	AccessDenied
)

var kindNames = map[ErrorKind]string{
	ParameterMismatch: "ParameterMismatch",
	UnknownCommand:    "UnknownCommand",
	FunctionNotFound:  "FunctionNotFound",
	VariableNotFound:  "VariableNotFound",
	InvalidName:       "InvalidName",
	InvalidExpression: "InvalidExpression",
	BlockMismatch:     "BlockMismatch",
	OutOfBounds:       "OutOfBounds",
	KeyNotFound:       "KeyNotFound",
	IOError:           "IOError",
	RuntimeError:      "RuntimeError",
	Fatal:             "Fatal",
	ValueError:        "ValueError",
	TypeError:         "TypeError",
	CommandError:      "CommandError",
	FileNotFound:      "FileNotFound",
	AccessDenied:      "AccessDenied",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// MarshalText renders the kind by name in JSON.
func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// haltsRun reports whether errors of this kind stop the script.
func (k ErrorKind) haltsRun() bool {
	return k == BlockMismatch || k == Fatal
}

// Error is a script error attached to a line (1-based, 0 when unknown).
type Error struct {
	Line    int       `json:"line"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Fatal   bool      `json:"fatal"`
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errorf creates a script error. BlockMismatch and Fatal errors are fatal.
func Errorf(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Fatal: kind.haltsRun()}
}
