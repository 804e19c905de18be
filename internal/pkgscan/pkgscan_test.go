package pkgscan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/apex/log/handlers/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajroetker/ippdispatch/internal/cpu"
	"github.com/ajroetker/ippdispatch/internal/decl"
	"github.com/ajroetker/ippdispatch/internal/dispatch"
)

var versionHeader = heredoc.Doc(`
	#if !defined( IPPVERSION_H__ )
	#define IPPVERSION_H__

	#define IPP_VERSION_MAJOR  1
	#define IPP_VERSION_MINOR  1
	#define IPP_VERSION_UPDATE 0

	// Major interface version
	#define IPP_INTERFACE_VERSION_MAJOR 12
	// Minor interface version
	#define IPP_INTERFACE_VERSION_MINOR 1 /* minor */

	#define IPP_VERSION_STR  STR(IPP_VERSION_MAJOR) "." STR(IPP_VERSION_MINOR) "." STR(IPP_VERSION_UPDATE) " (" STR(IPP_INTERFACE_VERSION_MAJOR) "." STR(IPP_INTERFACE_VERSION_MINOR) " )"

	#endif
`)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, text := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644))
	}
}

func TestParseVersion(t *testing.T) {
	v, ok := ParseVersion(versionHeader)
	require.True(t, ok)
	assert.Equal(t, "1.1.0 (12.1 )", v)

	v, ok = ParseVersion(`#define IPP_VERSION_STR "2021.10.0 (r0x1234)"`)
	require.True(t, ok)
	assert.Equal(t, "2021.10.0 (r0x1234)", v)

	_, ok = ParseVersion("#define IPP_VERSION_MAJOR 1\n")
	assert.False(t, ok)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		pkg    cpu.PackageType
		header string
		want   string
		ok     bool
	}{
		{cpu.IPP, "ipps.h", "ipps", true},
		{cpu.IPP, "ippcore.h", "ippcore", true},
		{cpu.IPP, "ippe.h", "ippe", true},
		{cpu.IPP, "ippi_tl.h", "ippi_tl", true},
		{cpu.IPP, "ippcore_tl.h", "ippcore_tl", true},
		{cpu.IPP, "ippversion.h", "", false},
		{cpu.IPPCP, "ippcp.h", "ippcp", true},
		{cpu.IPPCP, "ippcpdefs.h", "ippcp", true},
		{cpu.IPPCP, "ippversion.h", "", false},
	}
	for _, tt := range tests {
		d, ok := Classify(tt.pkg, tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		if ok {
			assert.Equal(t, tt.want, d.Key(), tt.header)
		}
	}
}

func TestScanHeaderDispatchable(t *testing.T) {
	tests := []struct {
		pkg    cpu.PackageType
		header string
		want   bool
	}{
		{cpu.IPP, "ipps.h", true},
		{cpu.IPP, "ippcore.h", false},
		{cpu.IPP, "ippi_tl.h", false},
		{cpu.IPPCP, "ippcp.h", true},
		{cpu.IPPCP, "ippcpdefs.h", false},
	}
	for _, tt := range tests {
		h, _, ok := ScanHeader(tt.pkg, tt.header, "IPPAPI(IppStatus, fn, (int a))")
		require.True(t, ok, tt.header)
		require.Len(t, h.Signatures, 1)
		assert.Equal(t, tt.want, h.Signatures[0].Dispatchable, tt.header)
	}
}

func TestRuntimeAPIIsNotDispatchable(t *testing.T) {
	h, _, ok := ScanHeader(cpu.IPPCP, "ippcp.h", heredoc.Doc(`
		IPPAPI(IppStatus, ippcpInit, (void))
		IPPAPI(Ipp64u, ippcpGetEnabledCpuFeatures, (void))
		IPPAPI(IppStatus, ippcpSetCpuFeatures, (Ipp64u cpuFeatures))
		IPPAPI(const IppLibraryVersion*, ippcpGetLibVersion, (void))
		IPPAPI(IppStatus, ippsAESGetSize, (int* pSize))
	`))
	require.True(t, ok)
	want := map[string]bool{
		"ippcpInit":                  false,
		"ippcpGetEnabledCpuFeatures": false,
		"ippcpSetCpuFeatures":        false,
		"ippcpGetLibVersion":         false,
		"ippsAESGetSize":             true,
	}
	require.Len(t, h.Signatures, len(want))
	for _, sig := range h.Signatures {
		assert.Equal(t, want[sig.Name], sig.Dispatchable, sig.Name)
	}

	table, err := decl.NewTable(h)
	require.NoError(t, err)
	gen := &dispatch.Generator{
		Table:   table,
		Options: dispatch.Options{Package: cpu.IPPCP, Arch: cpu.Intel64, CPUs: []cpu.CPU{cpu.AVX2}, Mode: dispatch.Static},
		Log:     &log.Logger{Handler: memory.New()},
	}
	res, err := gen.Generate([]string{"ippcpInit", "ippcpGetEnabledCpuFeatures", "ippsAESGetSize"})
	require.NoError(t, err)
	require.Len(t, res.Failures, 2)
	for _, f := range res.Failures {
		assert.ErrorIs(t, f, dispatch.ErrNotDispatchable, f.Function)
	}
	require.Len(t, res.Files, 1)
	assert.NotContains(t, res.Files[0].Content, "IPPFUN(IppStatus, ippcpInit")
	assert.Contains(t, res.Files[0].Content, "IPPFUN(IppStatus, ippsAESGetSize")
}

func TestOpenNewLayout(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "include", "ippcp"), map[string]string{
		"ippcp.h": heredoc.Doc(`
			#if !defined( __IPPCP_H__ ) || defined( _OWN_BLDPCS )
			#define __IPPCP_H__
			IPPAPI(IppStatus, ippsAESInit, (const Ipp8u* pKey, int keyLen,
			                                IppsAESSpec* pCtx, int ctxSize))
			IPPAPI(IppStatus, ippsBroken, (Ipp8u*))
			#endif
		`),
		"ippcpdefs.h":  "IPPAPI(IppStatus, ippcpInit, (void))\n",
		"ippversion.h": versionHeader,
		"readme.txt":   "IPPAPI(IppStatus, ippsIgnored, (int a))\n",
	})

	mem := memory.New()
	pkg, err := (&Loader{Log: &log.Logger{Handler: mem, Level: log.DebugLevel}}).Open(root)
	require.NoError(t, err)

	assert.Equal(t, cpu.IPPCP, pkg.Type)
	assert.Equal(t, LayoutNew, pkg.Layout)
	assert.Equal(t, "ippcp/ippcpdefs.h", pkg.DefsInclude())
	assert.Equal(t, "Intel(R) Cryptography Primitives Library Version 1.1.0 (12.1 )", pkg.Name())
	assert.Equal(t, "__IPPCP_H__", pkg.Table.HeaderID("ippcp.h"))

	names := pkg.Table.Names()
	assert.ElementsMatch(t, []string{"ippsAESInit", "ippcpInit"}, names)
	aes, _ := pkg.Table.Lookup("ippsAESInit")
	assert.True(t, aes.Dispatchable)
	assert.Equal(t, "ippcp", aes.Domain)
	initSig, _ := pkg.Table.Lookup("ippcpInit")
	assert.False(t, initSig.Dispatchable)

	require.Len(t, pkg.Skipped, 1)
	assert.ErrorIs(t, pkg.Skipped[0], decl.ErrMalformed)

	var warnings int
	for _, e := range mem.Entries {
		if e.Level == log.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 1, warnings)
}

func TestOpenOldLayout(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, filepath.Join(root, "include"), map[string]string{
		"ipp.h":     "#include \"ipps.h\"\n",
		"ipps.h":    "IPPAPI(IppStatus, ippsAdd_32f, (const Ipp32f* pSrc1, const Ipp32f* pSrc2, Ipp32f* pDst, int len))\n",
		"ippcore.h": "IPPAPI(IppStatus, ippInit, (void))\n",
		"ippe.h":    "IPPAPI(IppStatus, ippeZero_8u, (Ipp8u* pDst, int len))\n",
	})

	pkg, err := (&Loader{Log: &log.Logger{Handler: memory.New()}}).Open(root)
	require.NoError(t, err)
	assert.Equal(t, cpu.IPP, pkg.Type)
	assert.Equal(t, LayoutOld, pkg.Layout)
	assert.Equal(t, "ippdefs.h", pkg.DefsInclude())
	assert.Equal(t, "Intel(R) Integrated Performance Primitives Version None", pkg.Name())
	assert.Equal(t, 3, pkg.Table.Len())
	assert.Equal(t, "ippe", pkg.Domains["ippe.h"].Tag)
	assert.NotContains(t, pkg.Domains, "ipp.h")
}

func TestOpenNotPackage(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.ErrorIs(t, err, ErrNotPackage)
}

func TestDomains(t *testing.T) {
	assert.Len(t, Domains(cpu.IPPCP), 1)
	ipp := Domains(cpu.IPP)
	assert.Len(t, ipp, 12)
	assert.True(t, ipp[len(ipp)-1].Threading)
}
