package dispatch

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/ajroetker/ippdispatch/internal/cpu"
)

// Macro used for the dispatcher definition.
const defineMacro = "IPPFUN"

const uninitializedMacro = "UNINITIALIZED_FEATURES"

// EmitFunction renders the dispatcher of p: one declaration per per-CPU
// implementation followed by the definition. The last statement of the
// definition is the fallback, reached only when no check matches.
func EmitFunction(p *Plan) string {
	var buf bytes.Buffer
	sig := p.Signature
	args := sig.CallArgs()

	for _, c := range p.Checks {
		fmt.Fprintf(&buf, "%s\n", sig.Rename(c.Symbol))
	}
	fmt.Fprintf(&buf, "\n%s\n", sig.Redeclare(defineMacro, p.PublicName()))
	fmt.Fprintf(&buf, "{\n")
	fmt.Fprintf(&buf, "    Ipp64u _features = %s();\n", p.Package.FeaturesFunc())

	for _, c := range p.Checks {
		fmt.Fprintf(&buf, "\n    if (%s == (_features & %s))\n", c.Test(), c.Test())
		fmt.Fprintf(&buf, "    {\n")
		forward(&buf, "        ", c.Symbol+args, sig.IsVoid())
		fmt.Fprintf(&buf, "    }\n")
	}

	if p.Mode == Static {
		// No shipped check is satisfied by the uninitialized sentinel.
		fmt.Fprintf(&buf, "\n    if (_features == %s)\n", uninitializedMacro)
		fmt.Fprintf(&buf, "    {\n")
		fmt.Fprintf(&buf, "        (void)%s();\n", p.Package.InitFunc())
		fmt.Fprintf(&buf, "        _features = %s();\n", p.Package.FeaturesFunc())
		fmt.Fprintf(&buf, "        if (_features != %s)\n", uninitializedMacro)
		fmt.Fprintf(&buf, "        {\n")
		forward(&buf, "            ", p.PublicName()+args, sig.IsVoid())
		fmt.Fprintf(&buf, "        }\n")
		fmt.Fprintf(&buf, "    }\n")
	}

	if value, ok := p.Fallback(); ok {
		fmt.Fprintf(&buf, "\n    return %s;\n", value)
	}
	fmt.Fprintf(&buf, "}\n")
	return buf.String()
}

// forward writes a forwarding call. Calls to void functions are followed by a
// bare return so that no later check runs.
func forward(buf *bytes.Buffer, indent, call string, void bool) {
	if void {
		fmt.Fprintf(buf, "%s%s;\n", indent, call)
		fmt.Fprintf(buf, "%sreturn;\n", indent)
		return
	}
	fmt.Fprintf(buf, "%sreturn %s;\n", indent, call)
}

// FileOptions describes a dispatcher source file.
type FileOptions struct {
	Package cpu.PackageType
	Arch    cpu.Arch
	Mode    Mode
}

// File returns the file options matching o.
func (o Options) File() FileOptions {
	return FileOptions{Package: o.Package, Arch: o.Arch, Mode: o.Mode}
}

// EmitFile renders a complete dispatcher source holding every plan, in the
// given order.
func EmitFile(plans []*Plan, opts FileOptions) string {
	var buf bytes.Buffer

	for _, h := range includes(plans, opts.Package) {
		fmt.Fprintf(&buf, "#include <%s>\n", h)
	}
	buf.WriteString(preamble)

	fmt.Fprintf(&buf, "\n%s\n", opts.Arch.Guard())
	defs := featureMacros(plans)
	if opts.Mode == Static {
		defs = append(defs, fmt.Sprintf("#define %s %s", uninitializedMacro, opts.Package.UninitializedExpr()))
	}
	if len(defs) > 0 {
		fmt.Fprintf(&buf, "\n%s\n", strings.Join(defs, "\n"))
	}

	buf.WriteString("\n#ifdef __cplusplus\nextern \"C\" {\n#endif\n")
	for _, p := range plans {
		fmt.Fprintf(&buf, "\n%s", EmitFunction(p))
	}
	buf.WriteString("\n#ifdef __cplusplus\n}\n#endif\n\n#endif\n")
	return buf.String()
}

const preamble = `
#ifndef IPP_CALL
#   define IPP_CALL IPP_STDCALL
#endif

#define IPPFUN(type, name, arg) extern type IPP_CALL name arg

#ifndef NULL
#   ifdef __cplusplus
#       define NULL 0
#   else
#       define NULL ((void*)0)
#   endif
#endif
`

// includes returns the package umbrella header and the standalone headers
// declaring any of the plans' functions.
func includes(plans []*Plan, pkg cpu.PackageType) []string {
	out := []string{pkg.MainHeader()}
	for _, h := range pkg.StandaloneHeaders() {
		if lo.ContainsBy(plans, func(p *Plan) bool { return p.Signature.Header == h }) {
			out = append(out, h)
		}
	}
	return out
}

// featureMacros returns the definitions of the feature macros the plans'
// checks reference, in priority order.
func featureMacros(plans []*Plan) []string {
	used := make(map[string]bool)
	for _, p := range plans {
		for _, c := range p.Checks {
			used[c.Variant.Macro] = true
		}
	}
	var defs []string
	for _, v := range cpu.Priority() {
		if v.Macro != "" && used[v.Macro] {
			defs = append(defs, v.MacroDefinition())
		}
	}
	return defs
}
