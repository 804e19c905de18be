package cpu

import (
	"math/bits"
	"strings"
)

// Feature is a single CPU feature bit as reported by the package's
// enabled-features getter. The bit positions are local to this generator;
// emitted code only ever refers to features by their C spelling.
type Feature uint64

const (
	FeatureMMX Feature = 1 << iota
	FeatureSSE
	FeatureSSE2
	FeatureSSE3
	FeatureSSSE3
	FeatureSSE41
	FeatureSSE42
	FeatureAVX
	FeatureAVX2
	FeatureSHA
	FeatureAVX512F
	FeatureAVX512CD
	FeatureAVX512VL
	FeatureAVX512BW
	FeatureAVX512DQ
	FeatureAVX512IFMA
	FeatureAVX512VBMI
	FeatureAVX512VBMI2
	FeatureAVX512GFNI
	FeatureAVX512VAES
	FeatureAVX512VCLMUL

	featureEnd
)

var featureNames = map[Feature]string{
	FeatureMMX:          "ippCPUID_MMX",
	FeatureSSE:          "ippCPUID_SSE",
	FeatureSSE2:         "ippCPUID_SSE2",
	FeatureSSE3:         "ippCPUID_SSE3",
	FeatureSSSE3:        "ippCPUID_SSSE3",
	FeatureSSE41:        "ippCPUID_SSE41",
	FeatureSSE42:        "ippCPUID_SSE42",
	FeatureAVX:          "ippCPUID_AVX",
	FeatureAVX2:         "ippCPUID_AVX2",
	FeatureSHA:          "ippCPUID_SHA",
	FeatureAVX512F:      "ippCPUID_AVX512F",
	FeatureAVX512CD:     "ippCPUID_AVX512CD",
	FeatureAVX512VL:     "ippCPUID_AVX512VL",
	FeatureAVX512BW:     "ippCPUID_AVX512BW",
	FeatureAVX512DQ:     "ippCPUID_AVX512DQ",
	FeatureAVX512IFMA:   "ippCPUID_AVX512IFMA",
	FeatureAVX512VBMI:   "ippCPUID_AVX512VBMI",
	FeatureAVX512VBMI2:  "ippCPUID_AVX512VBMI2",
	FeatureAVX512GFNI:   "ippCPUID_AVX512GFNI",
	FeatureAVX512VAES:   "ippCPUID_AVX512VAES",
	FeatureAVX512VCLMUL: "ippCPUID_AVX512VCLMUL",
}

// String returns the C spelling of the feature bit (e.g. "ippCPUID_AVX2").
func (f Feature) String() string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	return "ippCPUID_UNKNOWN"
}

// FeatureSet is a bitmask of features.
type FeatureSet uint64

// NewFeatureSet returns the set containing the given features.
func NewFeatureSet(features ...Feature) FeatureSet {
	var s FeatureSet
	for _, f := range features {
		s |= FeatureSet(f)
	}
	return s
}

// Has reports whether f is in the set.
func (s FeatureSet) Has(f Feature) bool {
	return s&FeatureSet(f) != 0
}

// Contains reports whether every feature of other is also in s. This is the
// check a dispatcher performs: (mask == (_features & mask)).
func (s FeatureSet) Contains(other FeatureSet) bool {
	return s&other == other
}

// With returns s with the given features added.
func (s FeatureSet) With(features ...Feature) FeatureSet {
	return s | NewFeatureSet(features...)
}

// Len returns the number of features in the set.
func (s FeatureSet) Len() int {
	return bits.OnesCount64(uint64(s))
}

// Features returns the features of the set in bit order.
func (s FeatureSet) Features() []Feature {
	var out []Feature
	for f := Feature(1); f < featureEnd; f <<= 1 {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// String renders the set as a C bitwise-or expression.
func (s FeatureSet) String() string {
	if s == 0 {
		return "0"
	}
	var names []string
	for _, f := range s.Features() {
		names = append(names, f.String())
	}
	return strings.Join(names, " | ")
}
