package evtext

import (
	"strings"
	"unicode"
)

// Invocation is one parsed command call on a script line.
type Invocation struct {
	Name     string
	ArgStart int
	Args     []string
}

// InvocationAt finds the nearest enclosing command call whose argument
// list is still open at pos, honoring single quote strings and nested
// parentheses. argIndex is the zero based argument the position falls
// in. A call whose list already closed before pos is not a match, so
// outer calls on the same line are found correctly.
func InvocationAt(line string, pos int) (name string, argStart int, argIndex int, ok bool) {
	runes := []rune(line)
	if pos > len(runes) {
		pos = len(runes)
	}

	type openCall struct {
		paren int // index of the opening parenthesis
		comma int // depth-0 commas seen inside this list
	}
	var stack []openCall
	inQuote := false

	for i := 0; i < pos; i++ {
		char := runes[i]

		if char == '\'' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}

		switch char {
		case '(':
			stack = append(stack, openCall{paren: i})
		case ')':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		case ',':
			if len(stack) > 0 {
				stack[len(stack)-1].comma++
			}
		}
	}

	// Walk inward until an open call with a command name in front.
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n := identBefore(runes, top.paren); n != "" {
			return n, top.paren + 1, top.comma, true
		}
	}
	return "", 0, 0, false
}

// ParseInvocation parses a whole line as a single command invocation,
// returning the name and the ordered trimmed argument substrings up to
// the closing parenthesis or end of line.
func ParseInvocation(line string) (Invocation, bool) {
	runes := []rune(line)
	i := 0
	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}

	start := i
	for i < len(runes) && isIdentRune(runes[i]) {
		i++
	}
	if i == start {
		return Invocation{}, false
	}
	name := string(runes[start:i])

	for i < len(runes) && unicode.IsSpace(runes[i]) {
		i++
	}
	if i >= len(runes) || runes[i] != '(' {
		return Invocation{}, false
	}

	argStart := i + 1
	return Invocation{
		Name:     name,
		ArgStart: argStart,
		Args:     ParseArgsFrom(line, argStart),
	}, true
}

// ParseArgsFrom splits the argument list beginning at argStart into
// trimmed substrings. Commas separate arguments only at depth zero
// outside a string; the scan stops at the matching close parenthesis
// or end of line.
func ParseArgsFrom(line string, argStart int) []string {
	runes := []rune(line)
	if argStart > len(runes) {
		return nil
	}

	var args []string
	var current strings.Builder
	depth := 0
	inQuote := false
	sawAny := false

	flush := func() {
		args = append(args, strings.TrimSpace(current.String()))
		current.Reset()
	}

	for i := argStart; i < len(runes); i++ {
		char := runes[i]

		if char == '\'' {
			inQuote = !inQuote
			current.WriteRune(char)
			sawAny = true
			continue
		}
		if inQuote {
			current.WriteRune(char)
			continue
		}

		switch char {
		case '(':
			depth++
			current.WriteRune(char)
		case ')':
			if depth == 0 {
				if sawAny || strings.TrimSpace(current.String()) != "" {
					flush()
				}
				return args
			}
			depth--
			current.WriteRune(char)
		case ',':
			if depth == 0 {
				flush()
				sawAny = true
				continue
			}
			current.WriteRune(char)
		default:
			current.WriteRune(char)
			if !unicode.IsSpace(char) {
				sawAny = true
			}
		}
	}

	if sawAny || strings.TrimSpace(current.String()) != "" {
		flush()
	}
	return args
}

// identBefore extracts the command identifier directly preceding an
// opening parenthesis, or "" when the parenthesis is bare grouping.
func identBefore(runes []rune, paren int) string {
	end := paren
	for end > 0 && unicode.IsSpace(runes[end-1]) {
		end--
	}
	start := end
	for start > 0 && isIdentRune(runes[start-1]) {
		start--
	}
	return string(runes[start:end])
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
