package quill

import (
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

func init() {
	RegisterBuiltin("roll", roll)
}

// maxDice bounds a single dice term.
const maxDice = 1000

// diceTerm matches dice notation like "3d6", "d20", "4d6kh3", "2d8dl1"
var diceTerm = regexp.MustCompile(`\b(\d*)d(\d+)(kh|kl|dh|dl|k)?(\d*)\b`)

// rollTerm rolls one dice term and returns the kept total and every die.
func rollTerm(rng *rand.Rand, count, sides int, modifier string, n int) (int, []int) {
	rolls := make([]int, count)
	for i := range rolls {
		rolls[i] = rng.Intn(sides) + 1
	}

	kept := rolls
	if modifier != "" && n < count {
		sorted := append([]int(nil), rolls...)
		sort.Ints(sorted)
		switch modifier {
		case "kh", "k":
			kept = sorted[count-n:]
		case "kl":
			kept = sorted[:n]
		case "dh":
			kept = sorted[:count-n]
		case "dl":
			kept = sorted[n:]
		}
	}

	total := 0
	for _, r := range kept {
		total += r
	}
	return total, rolls
}

// expandDice replaces every dice term in expr with its rolled total.
func expandDice(rng *rand.Rand, expr string) (string, []int, *Error) {
	var rolls []int
	var bad *Error
	out := diceTerm.ReplaceAllStringFunc(strings.ToLower(expr), func(term string) string {
		m := diceTerm.FindStringSubmatch(term)
		count := 1
		if m[1] != "" {
			count, _ = strconv.Atoi(m[1])
		}
		sides, _ := strconv.Atoi(m[2])
		n := 0
		if m[4] != "" {
			n, _ = strconv.Atoi(m[4])
		}
		switch {
		case count <= 0 || sides <= 0:
			bad = Errorf(ValueError, "invalid dice %q", term)
		case count > maxDice:
			bad = Errorf(ValueError, "too many dice in %q", term)
		case m[3] != "" && m[4] == "":
			bad = Errorf(ValueError, "%q needs a count after %s", term, m[3])
		}
		if bad != nil {
			return term
		}
		total, r := rollTerm(rng, count, sides, m[3], n)
		rolls = append(rolls, r...)
		return "(" + strconv.Itoa(total) + ")"
	})
	return out, rolls, bad
}

// roll expr[, out[, rolls_out]]. Dice terms are rolled, the rest of the
// expression is integer arithmetic.
func roll(c *Call) Result {
	if err := c.argCount("roll", 1, 3); err != nil {
		return Result{Err: err}
	}
	out, err := c.outName(1)
	if err != nil {
		return Result{Err: err}
	}
	expr, rolls, err := expandDice(c.Rand, c.Args[0])
	if err != nil {
		return Result{Err: err}
	}
	if strings.TrimSpace(expr) == "" {
		return fail(ValueError, "empty dice expression")
	}
	total, eerr := c.Eval(fmt.Sprintf("math.floor(%s)", expr))
	if eerr != nil {
		return fail(InvalidExpression, "bad dice expression %q: %v", c.Args[0], eerr)
	}

	res := output(out, total)
	if len(c.Args) == 3 {
		name, err := c.outName(2)
		if err != nil {
			return Result{Err: err}
		}
		parts := make([]string, len(rolls))
		for i, r := range rolls {
			parts[i] = strconv.Itoa(r)
		}
		res.Outputs[name] = joinList(parts)
	}
	return res
}
