package decl

import (
	"errors"
	"strings"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSignature(t *testing.T, text string) Signature {
	t.Helper()
	d, _, err := Next([]string{text}, 0)
	require.NoError(t, err)
	sig, err := ParseSignature(d)
	require.NoError(t, err)
	return sig
}

func TestParseSignatureParams(t *testing.T) {
	tests := []struct {
		name string
		decl string
		want []Param
	}{
		{
			name: "pointers",
			decl: addOneLine,
			want: []Param{
				{"const Ipp32f*", "pSrc1"}, {"const Ipp32f*", "pSrc2"}, {"Ipp32f*", "pDst"}, {"int", "len"},
			},
		},
		{
			name: "void list",
			decl: "IPPAPI(const IppLibraryVersion*, ippcpGetLibVersion, (void))",
		},
		{
			name: "empty list",
			decl: "IPPAPI(Ipp64u, ippcpGetCpuFeatures, ())",
		},
		{
			name: "arrays and embedded const",
			decl: "IPPAPI(IppStatus, ippiCopy_8u_P3R, (const Ipp8u* const pSrc[3], int srcStep, Ipp8u* pDst [ 3 ], IppiSize roi))",
			want: []Param{
				{"const Ipp8u* const[3]", "pSrc"}, {"int", "srcStep"}, {"Ipp8u*[3]", "pDst"}, {"IppiSize", "roi"},
			},
		},
		{
			name: "multi-level pointer",
			decl: "IPPAPI(IppStatus, ippsMalloc_ptr, (Ipp8u ** ppBuf, int len))",
			want: []Param{{"Ipp8u **", "ppBuf"}, {"int", "len"}},
		},
		{
			name: "function pointer",
			decl: "IPPAPI(IppStatus, ippsHashMethodSet, (IppStatus (*pHashFn)(const Ipp8u* pMsg, int len), void* pCtx))",
			want: []Param{{"IppStatus (*)(const Ipp8u* pMsg, int len)", "pHashFn"}, {"void*", "pCtx"}},
		},
		{
			name: "struct pointer",
			decl: "IPPAPI(IppStatus, ippsAESInit, (const Ipp8u* pKey, int keyLen, struct _cpAES* pCtx, int ctxSize))",
			want: []Param{{"const Ipp8u*", "pKey"}, {"int", "keyLen"}, {"struct _cpAES*", "pCtx"}, {"int", "ctxSize"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := mustSignature(t, tt.decl)
			if diff := cmp.Diff(tt.want, sig.Params); diff != "" {
				t.Errorf("Params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseSignatureRejects(t *testing.T) {
	tests := []struct {
		name string
		decl string
		msg  string
	}{
		{"unnamed pointer", "IPPAPI(IppStatus, f, (const Ipp8u*, int len))", "unnamed parameter"},
		{"unnamed builtin", "IPPAPI(IppStatus, f, (unsigned int))", "unnamed parameter"},
		{"single type word", "IPPAPI(IppStatus, f, (Ipp8u* p, int))", "unnamed parameter"},
		{"variadic", "IPPAPI(int, f, (const char* fmt, ...))", "variadic"},
		{"empty slot", "IPPAPI(int, f, (int a, , int b))", "empty parameter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _, err := Next([]string{tt.decl}, 0)
			require.NoError(t, err)
			_, err = ParseSignature(d)
			require.Error(t, err)
			var me *MalformedError
			require.True(t, errors.As(err, &me))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestCallArgs(t *testing.T) {
	sig := mustSignature(t, addOneLine)
	assert.Equal(t, "(pSrc1, pSrc2, pDst, len)", sig.CallArgs())
	assert.Equal(t, []string{"pSrc1", "pSrc2", "pDst", "len"}, sig.ArgNames())

	none := mustSignature(t, "IPPAPI(const IppLibraryVersion*, ippsGetLibVersion, (void))")
	assert.Equal(t, "()", none.CallArgs())
}

func TestRenameWholeWord(t *testing.T) {
	sig := mustSignature(t, "IPPAPI(IppStatus, ippsAdd_32f, (const Ipp32f* ippsAdd_32f_I, int len))")
	got := sig.Rename("my_ippsAdd_32f")
	assert.Equal(t, "IPPAPI(IppStatus, my_ippsAdd_32f, (const Ipp32f* ippsAdd_32f_I, int len))", got)
	assert.Equal(t, 1, strings.Count(got, "my_"))

	cpuCopy := Signature{Name: "ippsAdd_32f", Text: "l9_ippsAdd_32f ippsAdd_32f"}
	assert.Equal(t, "l9_ippsAdd_32f px_ippsAdd_32f", cpuCopy.Rename("px_ippsAdd_32f"))
}

func TestWithMacro(t *testing.T) {
	sig := mustSignature(t, addOneLine)
	assert.Equal(t,
		"IPPFUN(IppStatus, ippsAdd_32f, (const Ipp32f* pSrc1, const Ipp32f* pSrc2, Ipp32f* pDst, int len))",
		sig.WithMacro("IPPFUN"))
	assert.False(t, sig.IsVoid())
	assert.True(t, mustSignature(t, "IPPAPI(void, ippsFree, (void* ptr))").IsVoid())
}

func TestParseHeaderAndTable(t *testing.T) {
	ipps := ParseHeader("ipps.h", heredoc.Doc(`
		#if !defined( __IPPS_H__ ) || defined( _OWN_BLDPCS )
		IPPAPI(IppStatus, ippsAdd_32f, (const Ipp32f* pSrc1, const Ipp32f* pSrc2,
		                                Ipp32f* pDst, int len))
		IPPAPI(IppStatus, ippsBad, (Ipp8u*))
		IPPAPI(void, ippsFree, (void* ptr))
		#endif
	`))
	require.Len(t, ipps.Errors, 1)
	assert.ErrorIs(t, ipps.Errors[0], ErrMalformed)
	assert.Contains(t, ipps.Errors[0].Error(), "ipps.h")
	assert.Equal(t, "__IPPS_H__", ipps.ID)

	ippi := ParseHeader("ippi.h", "IPPAPI(IppStatus, ippiSet_8u_C1R, (Ipp8u value, Ipp8u* pDst, int dstStep, IppiSize roiSize))\n"+
		"IPPAPI(void, ippsFree, (void* ptr))\n")

	table, err := NewTable(ipps, ippi)
	require.ErrorIs(t, err, ErrDuplicate)
	require.NotNil(t, table)

	assert.Equal(t, []string{"ippsAdd_32f", "ippsFree", "ippiSet_8u_C1R"}, table.Names())
	assert.Equal(t, 3, table.Len())
	free, ok := table.Lookup("ippsFree")
	require.True(t, ok)
	assert.Equal(t, "ipps.h", free.Header)
	assert.Equal(t, "__IPPS_H__", table.HeaderID("ipps.h"))
	assert.Empty(t, table.HeaderID("ippi.h"))

	_, ok = table.Lookup("ippsBad")
	assert.False(t, ok)

	voids := table.Filter(Signature.IsVoid)
	require.Len(t, voids, 1)
	assert.Equal(t, "ippsFree", voids[0].Name)
}

func TestTableLookupIsolated(t *testing.T) {
	table, err := NewTable(ParseHeader("ipps.h", addOneLine))
	require.NoError(t, err)
	a, _ := table.Lookup("ippsAdd_32f")
	a.Params[0].Name = "changed"
	b, _ := table.Lookup("ippsAdd_32f")
	assert.Equal(t, "pSrc1", b.Params[0].Name)
}
