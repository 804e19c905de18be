package platform

import (
	"runtime"
	"strings"
	"testing"

	"github.com/ajroetker/ippdispatch/internal/cpu"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"linux", "Linux", false},
		{"Windows", "Windows", false},
		{"darwin", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err == nil && p.Name() != tt.want {
				t.Errorf("Parse(%q).Name() = %q, want %q", tt.name, p.Name(), tt.want)
			}
		})
	}
}

func TestHost(t *testing.T) {
	p, err := Host()
	switch runtime.GOOS {
	case "linux", "windows":
		if err != nil {
			t.Fatalf("Host() on %s: %v", runtime.GOOS, err)
		}
		if !strings.EqualFold(p.Name(), runtime.GOOS) {
			t.Errorf("Host().Name() = %q on %s", p.Name(), runtime.GOOS)
		}
	default:
		if err == nil {
			t.Errorf("Host() on %s should fail", runtime.GOOS)
		}
	}
}

func TestMainFile(t *testing.T) {
	tests := []struct {
		platform Platform
		pkg      cpu.PackageType
		contains []string
	}{
		{Linux{}, cpu.IPPCP, []string{`#include "ippcp.h"`, "int _init(void)", "    ippcpInit();", "void _fini(void)"}},
		{Windows{}, cpu.IPP, []string{"#include <Windows.h>", `#include "ipp.h"`, "DllMain", "ippInit(); break;"}},
	}
	for _, tt := range tests {
		t.Run(tt.platform.Name(), func(t *testing.T) {
			got := tt.platform.MainFile(tt.pkg)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("MainFile() missing %q:\n%s", want, got)
				}
			}
		})
	}
}

func TestSupportedCPUsIsolated(t *testing.T) {
	a := Linux{}.SupportedCPUs(cpu.IPP, cpu.Intel64)
	a[0] = cpu.AVX512IFMA
	b := Linux{}.SupportedCPUs(cpu.IPP, cpu.Intel64)
	if b[0] != cpu.SSE3 {
		t.Errorf("SupportedCPUs returned a shared slice: %v", b)
	}
}
