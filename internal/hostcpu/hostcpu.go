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

// Package hostcpu reports the features of the machine running the generator
// in the bit layout the emitted dispatchers test. It is diagnostic only: the
// generated code always detects features at run time on the target machine.
package hostcpu

import (
	"fmt"
	"slices"

	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sys/cpu"

	ippcpu "github.com/ajroetker/ippdispatch/internal/cpu"
)

// Detector probes the host CPU.
type Detector interface {
	Features() ippcpu.FeatureSet
}

// CPUIDDetector queries CPUID directly and sees every feature the
// dispatchers test.
type CPUIDDetector struct{}

var cpuidFeatures = map[ippcpu.Feature]cpuid.FeatureID{
	ippcpu.FeatureMMX:          cpuid.MMX,
	ippcpu.FeatureSSE:          cpuid.SSE,
	ippcpu.FeatureSSE2:         cpuid.SSE2,
	ippcpu.FeatureSSE3:         cpuid.SSE3,
	ippcpu.FeatureSSSE3:        cpuid.SSSE3,
	ippcpu.FeatureSSE41:        cpuid.SSE4,
	ippcpu.FeatureSSE42:        cpuid.SSE42,
	ippcpu.FeatureAVX:          cpuid.AVX,
	ippcpu.FeatureAVX2:         cpuid.AVX2,
	ippcpu.FeatureSHA:          cpuid.SHA,
	ippcpu.FeatureAVX512F:      cpuid.AVX512F,
	ippcpu.FeatureAVX512CD:     cpuid.AVX512CD,
	ippcpu.FeatureAVX512VL:     cpuid.AVX512VL,
	ippcpu.FeatureAVX512BW:     cpuid.AVX512BW,
	ippcpu.FeatureAVX512DQ:     cpuid.AVX512DQ,
	ippcpu.FeatureAVX512IFMA:   cpuid.AVX512IFMA,
	ippcpu.FeatureAVX512VBMI:   cpuid.AVX512VBMI,
	ippcpu.FeatureAVX512VBMI2:  cpuid.AVX512VBMI2,
	ippcpu.FeatureAVX512GFNI:   cpuid.GFNI,
	ippcpu.FeatureAVX512VAES:   cpuid.VAES,
	ippcpu.FeatureAVX512VCLMUL: cpuid.VPCLMULQDQ,
}

func (CPUIDDetector) Features() ippcpu.FeatureSet {
	var s ippcpu.FeatureSet
	for f, id := range cpuidFeatures {
		if cpuid.CPU.Supports(id) {
			s = s.With(f)
		}
	}
	return s
}

// SysDetector uses golang.org/x/sys/cpu. It cannot see SHA, so it never
// reports the avx512ifma level.
type SysDetector struct{}

func (SysDetector) Features() ippcpu.FeatureSet {
	x := cpu.X86
	flags := []struct {
		has bool
		f   ippcpu.Feature
	}{
		// SSE2 implies MMX and SSE on every x86 CPU.
		{x.HasSSE2, ippcpu.FeatureMMX},
		{x.HasSSE2, ippcpu.FeatureSSE},
		{x.HasSSE2, ippcpu.FeatureSSE2},
		{x.HasSSE3, ippcpu.FeatureSSE3},
		{x.HasSSSE3, ippcpu.FeatureSSSE3},
		{x.HasSSE41, ippcpu.FeatureSSE41},
		{x.HasSSE42, ippcpu.FeatureSSE42},
		{x.HasAVX, ippcpu.FeatureAVX},
		{x.HasAVX2, ippcpu.FeatureAVX2},
		{x.HasAVX512F, ippcpu.FeatureAVX512F},
		{x.HasAVX512CD, ippcpu.FeatureAVX512CD},
		{x.HasAVX512VL, ippcpu.FeatureAVX512VL},
		{x.HasAVX512BW, ippcpu.FeatureAVX512BW},
		{x.HasAVX512DQ, ippcpu.FeatureAVX512DQ},
		{x.HasAVX512IFMA, ippcpu.FeatureAVX512IFMA},
		{x.HasAVX512VBMI, ippcpu.FeatureAVX512VBMI},
		{x.HasAVX512VBMI2, ippcpu.FeatureAVX512VBMI2},
		{x.HasAVX512GFNI, ippcpu.FeatureAVX512GFNI},
		{x.HasAVX512VAES, ippcpu.FeatureAVX512VAES},
		{x.HasAVX512VPCLMULQDQ, ippcpu.FeatureAVX512VCLMUL},
	}
	var s ippcpu.FeatureSet
	for _, fl := range flags {
		if fl.has {
			s = s.With(fl.f)
		}
	}
	return s
}

// New returns the detector registered under name ("cpuid", "sys").
func New(name string) (Detector, error) {
	switch name {
	case "", "cpuid":
		return CPUIDDetector{}, nil
	case "sys":
		return SysDetector{}, nil
	default:
		return nil, fmt.Errorf("unknown detector: %s (valid: cpuid, sys)", name)
	}
}

// Info identifies the host processor.
type Info struct {
	Vendor string
	Brand  string
	Cores  int
}

func (i Info) String() string {
	return fmt.Sprintf("%s (%s, %d cores)", i.Brand, i.Vendor, i.Cores)
}

// Describe returns the vendor and brand of the host processor.
func Describe() Info {
	return Info{
		Vendor: cpuid.CPU.VendorString,
		Brand:  cpuid.CPU.BrandName,
		Cores:  cpuid.CPU.PhysicalCores,
	}
}

// Best returns the most specialized variant among cpus that a machine with
// features would run, the same choice an emitted dispatcher makes.
func Best(features ippcpu.FeatureSet, cpus []ippcpu.CPU) (ippcpu.Variant, bool) {
	for _, v := range ippcpu.Priority() {
		if slices.Contains(cpus, v.CPU) && features.Contains(v.Mask()) {
			return v, true
		}
	}
	return ippcpu.Variant{}, false
}
