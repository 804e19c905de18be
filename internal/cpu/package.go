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
	"slices"
	"strings"
)

// PackageType selects the native package flavor: its entry-point names,
// status type, headers and the CPU levels it ships.
type PackageType int

const (
	// IPP is the Integrated Performance Primitives package.
	IPP PackageType = iota
	// IPPCP is the Cryptography Primitives package.
	IPPCP
)

// PackageTypes lists every known package type.
var PackageTypes = []PackageType{IPP, IPPCP}

// String returns the upper-case tag of the package ("IPP", "IPPCP").
func (p PackageType) String() string {
	switch p {
	case IPP:
		return "IPP"
	case IPPCP:
		return "IPPCP"
	default:
		return fmt.Sprintf("PackageType(%d)", int(p))
	}
}

// ParsePackageType returns the package type for the given tag.
func ParsePackageType(name string) (PackageType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ipp":
		return IPP, nil
	case "ippcp":
		return IPPCP, nil
	default:
		return 0, fmt.Errorf("unknown package type: %s (valid: ipp, ippcp)", name)
	}
}

// DisplayName returns the product name of the package.
func (p PackageType) DisplayName() string {
	if p == IPPCP {
		return "Intel(R) Cryptography Primitives Library"
	}
	return "Intel(R) Integrated Performance Primitives"
}

// Prefix returns the lower-case symbol prefix ("ipp", "ippcp").
func (p PackageType) Prefix() string {
	return strings.ToLower(p.String())
}

// MainHeader returns the umbrella header of the package ("ippcp.h").
func (p PackageType) MainHeader() string {
	return p.Prefix() + ".h"
}

// DefsHeader returns the header with the package's type definitions.
func (p PackageType) DefsHeader() string {
	return p.Prefix() + "defs.h"
}

// StandaloneHeaders returns headers that the umbrella header does not include.
// Dispatchers for functions declared there must include them explicitly.
func (p PackageType) StandaloneHeaders() []string {
	if p == IPP {
		return []string{"ippe.h"}
	}
	return nil
}

// StatusType returns the C type of the package status codes.
func (p PackageType) StatusType() string {
	return "IppStatus"
}

// InitFunc returns the library initialization entry point ("ippcpInit").
func (p PackageType) InitFunc() string {
	return p.Prefix() + "Init"
}

// FeaturesFunc returns the enabled-features getter ("ippcpGetEnabledCpuFeatures").
func (p PackageType) FeaturesFunc() string {
	return p.Prefix() + "GetEnabledCpuFeatures"
}

var coreSuffixes = []string{
	"Init",
	"InitCpu",
	"GetEnabledCpuFeatures",
	"SetCpuFeatures",
	"GetCpuFeatures",
	"GetLibVersion",
}

// CoreFunctions returns the package runtime API that selects code paths
// itself ("ippcpInit", "ippcpGetEnabledCpuFeatures", ...). These functions
// have no per-CPU implementations.
func (p PackageType) CoreFunctions() []string {
	names := make([]string, len(coreSuffixes))
	for i, s := range coreSuffixes {
		names[i] = p.Prefix() + s
	}
	return names
}

// IsCore reports whether name belongs to the package runtime API.
func (p PackageType) IsCore(name string) bool {
	return slices.Contains(p.CoreFunctions(), name)
}

// Uninitialized returns the feature mask the getter reports before the
// library has been initialized.
func (p PackageType) Uninitialized() FeatureSet {
	if p == IPP {
		return NewFeatureSet(FeatureMMX, FeatureSSE, FeatureSSE2)
	}
	return 0
}

// UninitializedExpr returns Uninitialized as a C expression.
func (p PackageType) UninitializedExpr() string {
	s := p.Uninitialized()
	if s == 0 {
		return "0"
	}
	return "(" + s.String() + ")"
}

var supportedCPUs = map[PackageType]map[Arch][]CPU{
	IPP: {
		Intel64: {SSE3, SSSE3, SSE42, AVX, AVX2, AVX512BW},
	},
	IPPCP: {
		Intel64: {SSE3, SSE42, AVX2, AVX512BW, AVX512IFMA},
	},
}

// SupportedCPUs returns the CPU levels the package ships dispatchable code for
// on arch, in command-line order (least specialized first).
func SupportedCPUs(p PackageType, arch Arch) []CPU {
	return slices.Clone(supportedCPUs[p][arch])
}

// ErrUnsupportedCPU is returned when a CPU level is not shipped for the
// requested package, architecture and OS.
var ErrUnsupportedCPU = errors.New("unsupported CPU")

// UnsupportedError reports a CPU level that cannot be dispatched to.
type UnsupportedError struct {
	CPU     string
	Package PackageType
	OS      string
	Arch    Arch
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("%s isn't supported for %s %s %s", e.CPU, e.Package.DisplayName(), e.OS, e.Arch)
}

func (e *UnsupportedError) Unwrap() error { return ErrUnsupportedCPU }

// CheckSupported verifies that every CPU in cpus is contained in supported.
func CheckSupported(cpus, supported []CPU, p PackageType, osName string, arch Arch) error {
	for _, c := range cpus {
		if !slices.Contains(supported, c) {
			return &UnsupportedError{CPU: c.String(), Package: p, OS: osName, Arch: arch}
		}
	}
	return nil
}
