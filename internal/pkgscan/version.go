package pkgscan

import (
	"regexp"
	"strings"
)

var (
	versionStrRe = regexp.MustCompile(`^\s*#\s*define\s+\w*VERSION_STR\s+(.*)$`)
	strMacroRe   = regexp.MustCompile(`STR\(\s*(\w+)\s*\)`)
)

// ParseVersion extracts the version string of an ippversion.h header. The
// VERSION_STR macro is expanded: every STR(MACRO) is replaced by the value
// of MACRO and adjacent C string literals are concatenated. It returns false
// when the header defines no version string.
func ParseVersion(header string) (string, bool) {
	lines := strings.Split(strings.ReplaceAll(header, "\r\n", "\n"), "\n")
	var expr string
	found := false
	for _, l := range lines {
		if m := versionStrRe.FindStringSubmatch(l); m != nil {
			expr, found = strings.TrimSpace(m[1]), true
			break
		}
	}
	if !found {
		return "", false
	}

	values := macroValues(lines)
	expr = strMacroRe.ReplaceAllStringFunc(expr, func(call string) string {
		name := strMacroRe.FindStringSubmatch(call)[1]
		return values[name]
	})
	return concatLiterals(expr), true
}

// macroValues maps object-like macro names to their replacement text.
func macroValues(lines []string) map[string]string {
	values := make(map[string]string)
	for _, l := range lines {
		if i := strings.Index(l, "//"); i >= 0 {
			l = l[:i]
		}
		if i := strings.Index(l, "/*"); i >= 0 {
			l = l[:i]
		}
		fields := strings.Fields(l)
		if len(fields) < 2 || fields[0] != "#define" {
			continue
		}
		if _, seen := values[fields[1]]; !seen {
			values[fields[1]] = strings.Join(fields[2:], " ")
		}
	}
	return values
}

// concatLiterals joins the tokens of expr, unquoting C string literals and
// dropping the whitespace between tokens.
func concatLiterals(expr string) string {
	var b strings.Builder
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		switch {
		case c == '"':
			for i++; i < len(expr) && expr[i] != '"'; i++ {
				if expr[i] == '\\' && i+1 < len(expr) {
					i++
				}
				b.WriteByte(expr[i])
			}
		case c == ' ' || c == '\t':
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
