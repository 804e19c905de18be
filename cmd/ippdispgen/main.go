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

// Command ippdispgen generates the CPU dispatching sources of a custom
// library built from an installed IPP or IPP Cryptography package.
//
// Usage:
//
//	ippdispgen dispatcher -f ippsAESInit -f ippsAESEncryptCBC -d avx2 -d avx512bw
//	ippdispgen rename -f ippsAESInit --prefix my_
//	ippdispgen cpu-headers --codes l9,k1
//	ippdispgen list --domain ippcp
//	ippdispgen detect -d sse42,avx2
package main

import "github.com/ajroetker/ippdispatch/cmd/ippdispgen/cmd"

var version = "dev"

func main() {
	cmd.AppVersion = version
	cmd.Execute()
}
