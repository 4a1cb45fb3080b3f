// Package invocation turns free-text call lines such as
//
//	getNextMove([[1, 0], [0, 0]], "")
//
// into structured invocations: a function name plus ordered argument values.
// Lines that are not shaped like a call are skipped, and arguments that are
// not valid JSON are kept as raw text, so a half-typed buffer never fails
// the whole batch.
package invocation

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/rubiojr/callscope/scanner"
)

// callRe matches name(args) on a trimmed line. The argument list runs to
// the last closing paren.
var callRe = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// Invocation is one parsed call line.
type Invocation struct {
	Name string  `json:"name"`
	Args []Value `json:"args"`
}

// String renders the invocation back into call syntax.
func (inv Invocation) String() string {
	var sb strings.Builder
	sb.WriteString(inv.Name)
	sb.WriteByte('(')
	for i, a := range inv.Args {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(Format(a))
	}
	sb.WriteByte(')')
	return sb.String()
}

// Located is an Invocation together with the index of the line it came from.
type Located struct {
	Line int `json:"line"`
	Invocation
}

// Parse parses every line independently and returns the invocations in line
// order. Lines that do not look like a call are dropped, so the result may be
// shorter than lines.
func Parse(lines []string) []Invocation {
	invs := make([]Invocation, 0, len(lines))
	for _, line := range lines {
		if inv, ok := ParseLine(line); ok {
			invs = append(invs, inv)
		}
	}
	return invs
}

// Indexed is like Parse but records the source line index of every result.
func Indexed(lines []string) []Located {
	out := make([]Located, 0, len(lines))
	for i, line := range lines {
		if inv, ok := ParseLine(line); ok {
			out = append(out, Located{Line: i, Invocation: inv})
		}
	}
	return out
}

// ParseLine parses a single call line. ok is false when the line is not
// shaped like name(args).
func ParseLine(line string) (inv Invocation, ok bool) {
	m := callRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Invocation{}, false
	}
	pieces := scanner.SplitArgs(m[2])
	args := make([]Value, 0, len(pieces))
	for _, p := range pieces {
		args = append(args, ParseArg(p))
	}
	return Invocation{Name: m[1], Args: args}, true
}

// ParseArg decodes a single trimmed argument. Text that is not exactly one
// JSON value comes back as RawText.
func ParseArg(text string) Value {
	if !json.Valid([]byte(text)) {
		return RawText(text)
	}
	v, err := decodeValue(text)
	if err != nil {
		return RawText(text)
	}
	return v
}
