// Copyright 2025 ippdispatch Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cpuhdr generates the per-code-path headers used when the package
// itself is built for one CPU level. Each header maps every public function
// F to the code path symbol <code>_F with a #define.
//
// A deprecated code path has no symbols of its own. Its header maps every
// function to the replacement code path instead and warns at compile time
// unless _NO_IPP_DEPRECATED is defined.
package cpuhdr

import (
	"bytes"
	"fmt"

	"github.com/ajroetker/ippdispatch/internal/cpu"
	"github.com/ajroetker/ippdispatch/internal/decl"
)

const banner = "/* Code generated by ippdispgen. DO NOT EDIT. */\n"

// Options configures header generation.
type Options struct {
	Package cpu.PackageType
	// Deprecations resolves deprecated code paths. Nil uses the built-in table.
	Deprecations *cpu.Deprecations
}

func (o Options) deprecations() *cpu.Deprecations {
	if o.Deprecations == nil {
		return cpu.DefaultDeprecations()
	}
	return o.Deprecations
}

// FileName returns the header name of a code path ("ippcp_l9.h").
func FileName(pkg cpu.PackageType, code string) string {
	return fmt.Sprintf("%s_%s.h", pkg.Prefix(), code)
}

// Generate returns the header of one code path. Every dispatchable function
// of table is defined, in declaration order.
func Generate(table *decl.Table, code string, opts Options) (string, error) {
	resolved, err := opts.deprecations().Resolve(code)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString(banner)
	buf.WriteString("\n")
	if resolved != code {
		buf.WriteString("#if !defined(_NO_IPP_DEPRECATED)\n")
		fmt.Fprintf(&buf, "#pragma message (\"code path %s is deprecated, lower optimizations level %s is used\")\n", code, resolved)
		buf.WriteString("#endif\n")
	}
	for _, sig := range table.Filter(func(s decl.Signature) bool { return s.Dispatchable }) {
		fmt.Fprintf(&buf, "#define %s %s_%s\n", sig.Name, resolved, sig.Name)
	}
	return buf.String(), nil
}

// GenerateAll returns the headers of codes keyed by file name. Nil codes
// selects every known code path.
func GenerateAll(table *decl.Table, codes []string, opts Options) (map[string]string, error) {
	if codes == nil {
		for _, cp := range cpu.CodePaths() {
			codes = append(codes, cp.Code)
		}
	}
	out := make(map[string]string, len(codes))
	for _, code := range codes {
		text, err := Generate(table, code, opts)
		if err != nil {
			return nil, err
		}
		out[FileName(opts.Package, code)] = text
	}
	return out, nil
}
