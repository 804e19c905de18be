package decl

import (
	"fmt"
	"regexp"
	"strings"
)

// Param is one declared parameter.
type Param struct {
	Type string
	Name string
}

// Signature is the immutable model of one exported function.
type Signature struct {
	Name       string
	ReturnType string
	Params     []Param
	Text       string // normalized declaration, the basis for renaming

	// Set by the table builder.
	Header       string // file name of the declaring header
	Domain       string // package domain the header belongs to ("ipps")
	Dispatchable bool
}

// C type words that can never be a parameter name.
var typeWords = map[string]bool{
	"void": true, "char": true, "short": true, "int": true, "long": true,
	"float": true, "double": true, "signed": true, "unsigned": true,
	"const": true, "volatile": true, "struct": true, "union": true, "enum": true,
	"restrict": true,
}

var (
	funcPtrRe   = regexp.MustCompile(`\(\s*\*+\s*(?:const\s+)?([A-Za-z_]\w*)\s*\)`)
	lastIdentRe = regexp.MustCompile(`([A-Za-z_]\w*)$`)
)

// ParseSignature builds the signature model of a declaration. Every
// parameter must be named: the dispatcher forwards arguments by name.
func ParseSignature(d Declaration) (Signature, error) {
	sig := Signature{Name: d.Name, ReturnType: d.ReturnType, Text: d.Text}

	inner := strings.TrimSpace(d.Args[1 : len(d.Args)-1])
	if inner == "" || inner == "void" {
		return sig, nil
	}
	for i, raw := range splitTopLevel(inner) {
		p, err := parseParam(strings.TrimSpace(raw))
		if err != nil {
			return Signature{}, &MalformedError{
				Line: d.Line, Text: d.Text, Reason: fmt.Sprintf("parameter %d of %s: %v", i+1, d.Name, err),
			}
		}
		sig.Params = append(sig.Params, p)
	}
	return sig, nil
}

func parseParam(s string) (Param, error) {
	switch s {
	case "":
		return Param{}, fmt.Errorf("empty parameter")
	case "...":
		return Param{}, fmt.Errorf("variadic parameters cannot be forwarded")
	}

	if m := funcPtrRe.FindStringSubmatchIndex(s); m != nil {
		name := s[m[2]:m[3]]
		typ := strings.TrimSpace(s[:m[2]] + s[m[3]:])
		return Param{Type: typ, Name: name}, nil
	}

	bare := strings.TrimSpace(stripArraySuffix(s))
	m := lastIdentRe.FindStringIndex(bare)
	if m == nil {
		return Param{}, fmt.Errorf("unnamed parameter %q", s)
	}
	name := bare[m[0]:]
	typ := strings.TrimSpace(bare[:m[0]])
	if typ == "" || typeWords[name] {
		return Param{}, fmt.Errorf("unnamed parameter %q", s)
	}
	return Param{Type: typ + strings.TrimSpace(strings.TrimPrefix(s, bare)), Name: name}, nil
}

// stripArraySuffix removes trailing "[...]" declarators.
func stripArraySuffix(s string) string {
	s = strings.TrimSpace(s)
	for strings.HasSuffix(s, "]") {
		open := strings.LastIndexByte(s, '[')
		if open < 0 {
			return s
		}
		s = strings.TrimSpace(s[:open])
	}
	return s
}

// ArgNames returns the parameter names in declaration order.
func (s Signature) ArgNames() []string {
	names := make([]string, len(s.Params))
	for i, p := range s.Params {
		names[i] = p.Name
	}
	return names
}

// CallArgs returns the parenthesized argument list used to forward a call,
// e.g. "(pSrc1, pSrc2, pDst, len)".
func (s Signature) CallArgs() string {
	return "(" + strings.Join(s.ArgNames(), ", ") + ")"
}

// IsVoid reports whether the function returns nothing.
func (s Signature) IsVoid() bool {
	return strings.TrimSpace(s.ReturnType) == "void"
}

// Rename returns the declaration text with every whole-word occurrence of the
// function name replaced by newName. Suffixed or CPU-prefixed copies of the
// name are left alone.
func (s Signature) Rename(newName string) string {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(s.Name) + `\b`)
	return re.ReplaceAllLiteralString(s.Text, newName)
}

// Redeclare returns the declaration of name introduced by macro, keeping the
// signature's parameters.
func (s Signature) Redeclare(macro, name string) string {
	return macro + strings.TrimPrefix(s.Rename(name), Marker)
}

// WithMacro returns the declaration text introduced by macro instead of the
// declaration marker.
func (s Signature) WithMacro(macro string) string {
	return macro + strings.TrimPrefix(s.Text, Marker)
}
