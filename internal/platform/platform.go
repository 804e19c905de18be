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

// Package platform isolates the per-OS parts of the generated sources. Each
// supported OS is one Platform value, selected once at startup.
package platform

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/ajroetker/ippdispatch/internal/cpu"
)

// MainFileName is the name of the library entry source.
const MainFileName = "main.c"

// Platform is a host OS the custom library is built for.
type Platform interface {
	// Name returns the OS name as shown to users ("Linux", "Windows").
	Name() string
	// MainFile returns the library entry source that initializes the package
	// when the custom library is loaded.
	MainFile(pkg cpu.PackageType) string
	// SupportedCPUs returns the CPU levels dispatchable on this OS.
	SupportedCPUs(pkg cpu.PackageType, arch cpu.Arch) []cpu.CPU
}

// Linux is the Linux platform.
type Linux struct{}

// Windows is the Windows platform.
type Windows struct{}

var (
	_ Platform = Linux{}
	_ Platform = Windows{}
)

func (Linux) Name() string { return "Linux" }

func (Linux) MainFile(pkg cpu.PackageType) string {
	return fmt.Sprintf(`#include "%s"

int _init(void)
{
    %s();
    return 1;
}

void _fini(void)
{
}
`, pkg.MainHeader(), pkg.InitFunc())
}

func (Linux) SupportedCPUs(pkg cpu.PackageType, arch cpu.Arch) []cpu.CPU {
	return cpu.SupportedCPUs(pkg, arch)
}

func (Windows) Name() string { return "Windows" }

func (Windows) MainFile(pkg cpu.PackageType) string {
	return fmt.Sprintf(`#include <Windows.h>
#include "%s"

int WINAPI DllMain(HINSTANCE hinstDLL, DWORD fdwReason, LPVOID lpvReserved)
{
    switch (fdwReason)
    {
    case DLL_PROCESS_ATTACH:
        %s(); break;
    case DLL_THREAD_ATTACH: break;
    case DLL_THREAD_DETACH: break;
    case DLL_PROCESS_DETACH: break;
    default: break;
    }
    return 1;
    UNREFERENCED_PARAMETER(hinstDLL);
    UNREFERENCED_PARAMETER(lpvReserved);
}
`, pkg.MainHeader(), pkg.InitFunc())
}

func (Windows) SupportedCPUs(pkg cpu.PackageType, arch cpu.Arch) []cpu.CPU {
	return cpu.SupportedCPUs(pkg, arch)
}

// Parse returns the platform for an OS name ("linux", "windows").
func Parse(name string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linux":
		return Linux{}, nil
	case "windows":
		return Windows{}, nil
	default:
		return nil, fmt.Errorf("unsupported OS: %s (valid: linux, windows)", name)
	}
}

// Host returns the platform of the running OS.
func Host() (Platform, error) {
	return Parse(runtime.GOOS)
}
