package quill

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/pkg/errors"
	"github.com/timtadh/lexmachine"
	"github.com/timtadh/lexmachine/machines"
)

const (
	tokText = iota
	tokString
	tokExpr
	tokComma
)

var argLexer *lexmachine.Lexer

func init() {
	argLexer = lexmachine.NewLexer()
	argLexer.Add([]byte(`["][^"]*["]`), token(tokString))
	argLexer.Add([]byte(`[{][^}]*[}]`), token(tokExpr))
	argLexer.Add([]byte(`,`), token(tokComma))
	argLexer.Add([]byte(`[^,"{]+`), token(tokText))
	// Unterminated quotes and braces are kept as plain text.
	argLexer.Add([]byte(`["{]`), token(tokText))
	if err := argLexer.Compile(); err != nil {
		panic(err)
	}
}

func token(tokenType int) lexmachine.Action {
	return func(s *lexmachine.Scanner, m *machines.Match) (interface{}, error) {
		return s.Token(tokenType, string(m.Bytes), m), nil
	}
}

// Line is one tokenized script line.
type Line struct {
	Num     int      // 1-based line number
	Keyword string   // Lower case command keyword, empty for blank and comment lines
	Args    []string // Raw arguments, substitution happens at execution time
	Raw     string
}

// Noop reports whether the line does nothing (blank or comment).
func (l Line) Noop() bool {
	return l.Keyword == ""
}

// ParseScript splits src into lines and tokenizes each into a keyword and
// comma separated arguments. Commas inside quotes or braces do not split.
func ParseScript(src []byte) ([]Line, error) {
	var lines []Line
	sc := bufio.NewScanner(bytes.NewReader(src))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	for n := 1; sc.Scan(); n++ {
		line, err := parseLine(n, sc.Text())
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "Failed to read script")
	}
	return lines, nil
}

func parseLine(num int, raw string) (Line, error) {
	text := strings.TrimSpace(raw)
	line := Line{Num: num, Raw: raw}
	if text == "" || strings.HasPrefix(text, "//") {
		return line, nil
	}

	keyword, rest := text, ""
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		keyword, rest = text[:i], strings.TrimSpace(text[i+1:])
	}
	line.Keyword = strings.ToLower(keyword)

	args, err := tokenizeArgs([]byte(rest))
	if err != nil {
		return Line{}, errors.Wrapf(err, "Failed to tokenize line %d (%q)", num, text)
	}
	line.Args = args
	return line, nil
}

func tokenizeArgs(text []byte) ([]string, error) {
	if len(bytes.TrimSpace(text)) == 0 {
		return nil, nil
	}
	scanner, err := argLexer.Scanner(text)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to create lexer scanner")
	}

	var args []string
	var current strings.Builder
	for itok, err, eos := scanner.Next(); !eos; itok, err, eos = scanner.Next() {
		if err != nil {
			return nil, errors.Wrapf(err, "Failed to parse token")
		}
		tok := itok.(*lexmachine.Token)
		switch tok.Type {
		case tokComma:
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		case tokString:
			lexeme := string(tok.Lexeme)
			current.WriteString(lexeme[1 : len(lexeme)-1])
		default:
			current.Write(tok.Lexeme)
		}
	}
	return append(args, strings.TrimSpace(current.String())), nil
}

// splitLabel extracts a leading ".label" from args. The label may be its own
// argument or the first word of the first argument.
func splitLabel(args []string) (label string, rest []string) {
	if len(args) == 0 || !strings.HasPrefix(args[0], ".") {
		return "", args
	}
	first := args[0]
	if i := strings.IndexAny(first, " \t"); i >= 0 {
		rest = append([]string{strings.TrimSpace(first[i+1:])}, args[1:]...)
		return strings.ToLower(first[:i]), rest
	}
	return strings.ToLower(first), args[1:]
}
