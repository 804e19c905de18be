package decl

import "strings"

// stripComments removes C comments from one physical line. inBlock tells
// whether the line starts inside a /* */ comment; the returned flag tells
// whether it ends inside one. String literals are copied verbatim.
func stripComments(line string, inBlock bool) (string, bool) {
	var b strings.Builder
	inString := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inBlock {
			if c == '*' && i+1 < len(line) && line[i+1] == '/' {
				inBlock = false
				i++
				b.WriteByte(' ')
			}
			continue
		}
		if inString {
			b.WriteByte(c)
			switch c {
			case '\\':
				if i+1 < len(line) {
					i++
					b.WriteByte(line[i])
				}
			case '"':
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			b.WriteByte(c)
		case c == '/' && i+1 < len(line) && line[i+1] == '*':
			inBlock = true
			i++
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return b.String(), false
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), inBlock
}

// matchClose returns the index of the parenthesis closing the one at s[open],
// or -1 when the text ends first.
func matchClose(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits s on commas that are not nested in (), [] or {}.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// normalize collapses whitespace runs to a single space and tightens the
// punctuation of a declaration, so a declaration spread over several lines
// normalizes to the same text as its one-line spelling.
func normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	var b strings.Builder
	b.Grow(len(s))
	var prev byte // last byte written
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' {
			next := byte(0)
			if i+1 < len(s) {
				next = s[i+1]
			}
			if prev == '(' || prev == '[' || next == ')' || next == ']' || next == ',' {
				continue
			}
			b.WriteByte(c)
			prev = c
			continue
		}
		b.WriteByte(c)
		prev = c
		if c == ',' && i+1 < len(s) && s[i+1] != ' ' {
			b.WriteByte(' ')
			prev = ' '
		}
	}
	return b.String()
}

// unwrapParens strips redundant outer parentheses so that "((a, b))" becomes
// "(a, b)". Text that is not parenthesized at all gets one pair added.
func unwrapParens(s string) string {
	s = strings.TrimSpace(s)
	if !isWrapped(s) {
		return "(" + s + ")"
	}
	for {
		inner := strings.TrimSpace(s[1 : len(s)-1])
		if !isWrapped(inner) {
			return s
		}
		s = inner
	}
}

func isWrapped(s string) bool {
	return strings.HasPrefix(s, "(") && matchClose(s, 0) == len(s)-1
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}

// markerCall reports whether code starts with the macro marker followed by an
// opening parenthesis, and returns the index of that parenthesis.
func markerCall(code, marker string) (int, bool) {
	i := 0
	for i < len(code) && (code[i] == ' ' || code[i] == '\t') {
		i++
	}
	if !strings.HasPrefix(code[i:], marker) {
		return 0, false
	}
	i += len(marker)
	if i < len(code) && isIdentChar(code[i]) {
		return 0, false
	}
	for i < len(code) && (code[i] == ' ' || code[i] == '\t' || code[i] == '\r') {
		i++
	}
	if i >= len(code) || code[i] != '(' {
		return 0, false
	}
	return i, true
}

// opensMarker reports whether a physical line starts a marker statement,
// allowing the opening parenthesis to be on a following line.
func opensMarker(code, marker string) bool {
	trimmed := strings.TrimSpace(code)
	if !strings.HasPrefix(trimmed, marker) {
		return false
	}
	rest := trimmed[len(marker):]
	return rest == "" || rest[0] == '(' || rest[0] == ' ' || rest[0] == '\t'
}
