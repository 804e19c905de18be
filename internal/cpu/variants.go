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
	"fmt"
	"strings"
)

// CPU is an instruction-set level the package ships an optimized code path for.
type CPU int

const (
	// None marks the absence of a CPU level (e.g. a code path that is not deprecated).
	None CPU = iota
	SSE2
	SSE3
	SSSE3
	SSE42
	AVX
	AVX2
	AVX512BW
	AVX512IFMA
)

var cpuNames = map[CPU]string{
	SSE2:       "sse2",
	SSE3:       "sse3",
	SSSE3:      "ssse3",
	SSE42:      "sse42",
	AVX:        "avx",
	AVX2:       "avx2",
	AVX512BW:   "avx512bw",
	AVX512IFMA: "avx512ifma",
}

// String returns the command-line spelling of the CPU level ("avx2").
func (c CPU) String() string {
	if name, ok := cpuNames[c]; ok {
		return name
	}
	return "none"
}

// ParseCPU returns the CPU level for the given name.
func ParseCPU(name string) (CPU, error) {
	want := strings.ToLower(strings.TrimSpace(name))
	for c, n := range cpuNames {
		if n == want {
			return c, nil
		}
	}
	return None, fmt.Errorf("unknown CPU: %s (valid: %s)", name, strings.Join(CPUNames(), ", "))
}

// CPUNames returns the names of all CPU levels in priority order.
func CPUNames() []string {
	var names []string
	for _, v := range Priority() {
		names = append(names, v.CPU.String())
	}
	return names
}

// Variant describes how the dispatcher recognizes a CPU level at runtime.
type Variant struct {
	CPU   CPU
	Flags []Feature // ordered as spelled in the feature macro
	Macro string    // feature macro name when more than one flag is tested
}

// Mask returns the feature set that must be enabled to select the variant.
func (v Variant) Mask() FeatureSet {
	return NewFeatureSet(v.Flags...)
}

// FeatureTest returns the C expression naming the variant's feature mask.
func (v Variant) FeatureTest() string {
	if v.Macro != "" {
		return v.Macro
	}
	return v.Flags[0].String()
}

// MacroDefinition returns the #define for the variant's feature macro, or ""
// when the variant tests a single flag. Flags wrap after every four entries.
func (v Variant) MacroDefinition() string {
	if v.Macro == "" {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "#define %s (", v.Macro)
	for i, f := range v.Flags {
		if i > 0 {
			if i%4 == 0 {
				b.WriteString(" | \\\n    ")
			} else {
				b.WriteString(" | ")
			}
		}
		b.WriteString(f.String())
	}
	b.WriteString(")")
	return b.String()
}

// Code returns the code-path suffix of the variant on the given architecture.
func (v Variant) Code(arch Arch) (string, bool) {
	for _, cp := range codePaths {
		if cp.CPU == v.CPU && cp.Arch == arch {
			return cp.Code, true
		}
	}
	return "", false
}

// priority is ordered most specialized first. The first matching check in a
// dispatcher wins, so a variant must never follow one it is more specific than.
var priority = []Variant{
	{
		CPU: AVX512IFMA,
		Flags: []Feature{
			FeatureSHA, FeatureAVX512VBMI, FeatureAVX512VBMI2, FeatureAVX512IFMA,
			FeatureAVX512GFNI, FeatureAVX512VAES, FeatureAVX512VCLMUL,
		},
		Macro: "AVX3I_FEATURES",
	},
	{
		CPU: AVX512BW,
		Flags: []Feature{
			FeatureAVX512F, FeatureAVX512CD, FeatureAVX512VL, FeatureAVX512BW,
			FeatureAVX512DQ,
		},
		Macro: "AVX3X_FEATURES",
	},
	{CPU: AVX2, Flags: []Feature{FeatureAVX2}},
	{CPU: AVX, Flags: []Feature{FeatureAVX}},
	{CPU: SSE42, Flags: []Feature{FeatureSSE42}},
	{CPU: SSSE3, Flags: []Feature{FeatureSSSE3}},
	{CPU: SSE3, Flags: []Feature{FeatureSSE3}},
	{CPU: SSE2, Flags: []Feature{FeatureSSE2}},
}

// Priority returns every variant in dispatch order, most specialized first.
// The returned slice is a copy.
func Priority() []Variant {
	out := make([]Variant, len(priority))
	copy(out, priority)
	return out
}

// VariantOf returns the variant for the CPU level.
func VariantOf(c CPU) (Variant, bool) {
	for _, v := range priority {
		if v.CPU == c {
			return v, true
		}
	}
	return Variant{}, false
}

// Rank returns the position of c in the priority order, or -1.
func Rank(c CPU) int {
	for i, v := range priority {
		if v.CPU == c {
			return i
		}
	}
	return -1
}
