package hostcpu

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/ippdispatch/internal/cpu"
)

type fixed cpu.FeatureSet

func (f fixed) Features() cpu.FeatureSet { return cpu.FeatureSet(f) }

func variantMask(t *testing.T, c cpu.CPU) cpu.FeatureSet {
	t.Helper()
	v, ok := cpu.VariantOf(c)
	require.True(t, ok)
	return v.Mask()
}

func TestBest(t *testing.T) {
	skylake := variantMask(t, cpu.AVX512BW) | variantMask(t, cpu.AVX2) | variantMask(t, cpu.SSE42) | variantMask(t, cpu.SSE3)
	var d Detector = fixed(skylake)

	tests := []struct {
		name string
		cpus []cpu.CPU
		want cpu.CPU
		ok   bool
	}{
		{"most specialized wins", []cpu.CPU{cpu.SSE3, cpu.AVX2, cpu.AVX512BW}, cpu.AVX512BW, true},
		{"selection order is irrelevant", []cpu.CPU{cpu.AVX512BW, cpu.SSE3}, cpu.AVX512BW, true},
		{"unsupported levels are skipped", []cpu.CPU{cpu.AVX512IFMA, cpu.AVX2}, cpu.AVX2, true},
		{"nothing matches", []cpu.CPU{cpu.AVX512IFMA}, cpu.None, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := Best(d.Features(), tt.cpus)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, v.CPU)
		})
	}
}

func TestNew(t *testing.T) {
	d, err := New("")
	require.NoError(t, err)
	assert.IsType(t, CPUIDDetector{}, d)

	d, err = New("sys")
	require.NoError(t, err)
	assert.IsType(t, SysDetector{}, d)

	_, err = New("procfs")
	assert.Error(t, err)
}

func TestSysDetectorHasNoSHA(t *testing.T) {
	assert.False(t, SysDetector{}.Features().Has(cpu.FeatureSHA))
}

func TestDetectorsAgreeOnBaseline(t *testing.T) {
	if runtime.GOARCH != "amd64" {
		t.Skip("x86-64 only")
	}
	for _, d := range []Detector{CPUIDDetector{}, SysDetector{}} {
		assert.True(t, d.Features().Has(cpu.FeatureSSE2), "%T", d)
	}
	assert.NotEmpty(t, Describe().Vendor)
}
