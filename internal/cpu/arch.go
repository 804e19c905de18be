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

// Package cpu describes the instruction-set levels a native package ships
// optimized code for: the CPU variants, their runtime feature tests, the
// per-architecture code paths that name the optimized symbols, and the package
// flavors whose entry points the generated dispatchers call.
package cpu

import (
	"fmt"
	"strings"
)

// Arch is a target architecture of the native package.
type Arch int

const (
	// Intel64 is the 64-bit x86 architecture.
	Intel64 Arch = iota
	// IA32 is the 32-bit x86 architecture.
	IA32
)

// Architectures lists every known architecture.
var Architectures = []Arch{Intel64, IA32}

// String returns the package spelling of the architecture ("intel64", "ia32").
func (a Arch) String() string {
	switch a {
	case Intel64:
		return "intel64"
	case IA32:
		return "ia32"
	default:
		return fmt.Sprintf("Arch(%d)", int(a))
	}
}

// Guard returns the preprocessor condition that opens an architecture-specific
// block of generated code.
func (a Arch) Guard() string {
	switch a {
	case Intel64:
		return "#if defined (_M_AMD64) || defined (__x86_64__)"
	case IA32:
		return "#if defined (_M_IX86) || defined (__i386__)"
	default:
		return "#if 0"
	}
}

// ParseArch returns the architecture for the given name.
func ParseArch(name string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "intel64", "x86_64", "amd64":
		return Intel64, nil
	case "ia32", "x86", "386":
		return IA32, nil
	default:
		return 0, fmt.Errorf("unknown architecture: %s (valid: intel64, ia32)", name)
	}
}
