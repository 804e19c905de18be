// Package rename emits the header that redirects package functions to
// prefixed symbols, so a custom library can coexist with the stock one.
package rename

import (
	"bytes"
	"errors"
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ajroetker/ippdispatch/internal/cpu"
	"github.com/ajroetker/ippdispatch/internal/decl"
)

// ErrEmptyPrefix is returned when no prefix is configured.
var ErrEmptyPrefix = errors.New("rename: prefix must not be empty")

// ErrUnknownFunction is returned for a function missing from the table.
var ErrUnknownFunction = errors.New("unknown function")

// FileName is the name of the generated header.
const FileName = "rename.h"

// Options configures the renaming header.
type Options struct {
	Package cpu.PackageType
	Prefix  string
	// DefsInclude is the include path of the package definitions header.
	// Empty means Package.DefsHeader().
	DefsInclude string
}

var upper = cases.Upper(language.Und)

// Guard returns the include guard of the renaming header ("IPPCP_RENAME_H").
func Guard(pkg cpu.PackageType) string {
	return upper.String(pkg.Prefix()) + "_RENAME_H"
}

// Header renders the renaming header for functions, in the given order.
// Every function must be present in table.
func Header(table *decl.Table, functions []string, opts Options) (string, error) {
	if opts.Prefix == "" {
		return "", ErrEmptyPrefix
	}
	sigs := make([]decl.Signature, 0, len(functions))
	var missing []error
	for _, name := range functions {
		sig, ok := table.Lookup(name)
		if !ok {
			missing = append(missing, fmt.Errorf("%w: %s", ErrUnknownFunction, name))
			continue
		}
		sigs = append(sigs, sig)
	}
	if err := errors.Join(missing...); err != nil {
		return "", err
	}

	defs := opts.DefsInclude
	if defs == "" {
		defs = opts.Package.DefsHeader()
	}
	guard := Guard(opts.Package)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "#ifndef %s\n#define %s\n\n", guard, guard)
	fmt.Fprintf(&buf, "#include <%s>\n\n", defs)
	buf.WriteString("#ifdef __cplusplus\nextern \"C\" {\n#endif\n")
	for _, sig := range sigs {
		prefixed := opts.Prefix + sig.Name
		fmt.Fprintf(&buf, "\n%s\n#define %s %s\n", sig.Rename(prefixed), sig.Name, prefixed)
	}
	buf.WriteString("\n#ifdef __cplusplus\n}\n#endif\n\n")
	fmt.Fprintf(&buf, "#endif // %s\n", guard)
	return buf.String(), nil
}
