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

package cpu

import (
	"errors"
	"fmt"

	"github.com/dominikbraun/graph"
)

// CodePath is the optimized build of a CPU level on one architecture. Its Code
// prefixes every symbol of that build: <code>_<function>.
type CodePath struct {
	CPU  CPU
	Arch Arch
	Code string
	// DeprecatedTo is the lower level whose code path replaces this one, or None.
	DeprecatedTo CPU
}

// Deprecated reports whether the code path has been folded into another level.
func (cp CodePath) Deprecated() bool {
	return cp.DeprecatedTo != None
}

var codePaths = []CodePath{
	{CPU: SSE2, Arch: IA32, Code: "w7"},
	{CPU: SSSE3, Arch: IA32, Code: "s8", DeprecatedTo: SSE2},
	{CPU: SSE42, Arch: IA32, Code: "p8"},
	{CPU: AVX, Arch: IA32, Code: "g9", DeprecatedTo: SSE42},
	{CPU: AVX2, Arch: IA32, Code: "h9"},

	{CPU: SSE3, Arch: Intel64, Code: "m7"},
	{CPU: SSSE3, Arch: Intel64, Code: "n8", DeprecatedTo: SSE3},
	{CPU: SSE42, Arch: Intel64, Code: "y8"},
	{CPU: AVX, Arch: Intel64, Code: "e9", DeprecatedTo: SSE42},
	{CPU: AVX2, Arch: Intel64, Code: "l9"},
	{CPU: AVX512BW, Arch: Intel64, Code: "k0"},
	{CPU: AVX512IFMA, Arch: Intel64, Code: "k1"},
}

// CodePaths returns every known code path, 32-bit paths first.
func CodePaths() []CodePath {
	out := make([]CodePath, len(codePaths))
	copy(out, codePaths)
	return out
}

// LookupCode returns the code path with the given code.
func LookupCode(code string) (CodePath, bool) {
	for _, cp := range codePaths {
		if cp.Code == code {
			return cp, true
		}
	}
	return CodePath{}, false
}

func codeFor(c CPU, arch Arch) (CodePath, bool) {
	for _, cp := range codePaths {
		if cp.CPU == c && cp.Arch == arch {
			return cp, true
		}
	}
	return CodePath{}, false
}

// Deprecations resolves deprecated code paths to the code path that actually
// provides their symbols.
type Deprecations struct {
	g graph.Graph[string, string]
}

// NewDeprecations builds the deprecation graph of the given code paths. Every
// edge points from a deprecated code to its replacement on the same
// architecture. A replacement that is missing or that closes a cycle is an error.
func NewDeprecations(paths []CodePath) (*Deprecations, error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for _, cp := range paths {
		if err := g.AddVertex(cp.Code); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
			return nil, fmt.Errorf("add code path %s: %w", cp.Code, err)
		}
	}
	for _, cp := range paths {
		if !cp.Deprecated() {
			continue
		}
		repl, ok := codeFor(cp.DeprecatedTo, cp.Arch)
		if !ok {
			return nil, fmt.Errorf("code path %s: no %s replacement on %s", cp.Code, cp.DeprecatedTo, cp.Arch)
		}
		if err := g.AddEdge(cp.Code, repl.Code); err != nil {
			if errors.Is(err, graph.ErrEdgeCreatesCycle) {
				return nil, fmt.Errorf("code path %s: deprecation to %s creates a cycle", cp.Code, repl.Code)
			}
			return nil, fmt.Errorf("code path %s: %w", cp.Code, err)
		}
	}
	return &Deprecations{g: g}, nil
}

// DefaultDeprecations returns the deprecation graph of the built-in code paths.
func DefaultDeprecations() *Deprecations {
	d, err := NewDeprecations(codePaths)
	if err != nil {
		panic(err)
	}
	return d
}

// Resolve follows the deprecation chain starting at code and returns the code
// that provides the symbols. A code that is not deprecated resolves to itself.
func (d *Deprecations) Resolve(code string) (string, error) {
	adj, err := d.g.AdjacencyMap()
	if err != nil {
		return "", err
	}
	if _, ok := adj[code]; !ok {
		return "", fmt.Errorf("unknown code path: %s", code)
	}
	cur := code
	for {
		next := adj[cur]
		if len(next) == 0 {
			return cur, nil
		}
		for target := range next {
			cur = target
		}
	}
}
