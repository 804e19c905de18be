package decl

import (
	"errors"
	"strings"
	"testing"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const addOneLine = "IPPAPI(IppStatus, ippsAdd_32f, (const Ipp32f* pSrc1, const Ipp32f* pSrc2, Ipp32f* pDst, int len))"

func lines(text string) []string {
	return strings.Split(text, "\n")
}

func TestNextOneLine(t *testing.T) {
	d, next, err := Next([]string{addOneLine}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, next)
	assert.Equal(t, "IppStatus", d.ReturnType)
	assert.Equal(t, "ippsAdd_32f", d.Name)
	assert.Equal(t, "(const Ipp32f* pSrc1, const Ipp32f* pSrc2, Ipp32f* pDst, int len)", d.Args)
	assert.Equal(t, addOneLine, d.Text)
}

func TestNextMultiLineMatchesOneLine(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "args on next lines",
			text: heredoc.Doc(`
				IPPAPI(IppStatus, ippsAdd_32f, (const Ipp32f* pSrc1,
				                                const Ipp32f* pSrc2,
				                                Ipp32f* pDst, int len))
			`),
		},
		{
			name: "every field on its own line",
			text: heredoc.Doc(`
				IPPAPI(
				    IppStatus,
				    ippsAdd_32f,
				    ( const Ipp32f* pSrc1, const Ipp32f* pSrc2, Ipp32f* pDst, int len )
				)
			`),
		},
		{
			name: "crlf and tabs",
			text: "IPPAPI(IppStatus,\tippsAdd_32f,\r\n\t(const Ipp32f* pSrc1,const Ipp32f* pSrc2,\r\n\tIpp32f* pDst,int len))\r\n",
		},
		{
			name: "marker split from its parenthesis",
			text: "IPPAPI\n(IppStatus, ippsAdd_32f, (const Ipp32f* pSrc1, const Ipp32f* pSrc2, Ipp32f* pDst, int len))",
		},
	}

	want, _, err := Next([]string{addOneLine}, 0)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner(tt.text)
			got, err := s.Scan()
			require.NoError(t, err)
			assert.Equal(t, want.ReturnType, got.ReturnType)
			assert.Equal(t, want.Name, got.Name)
			assert.Equal(t, want.Args, got.Args)
			assert.Equal(t, want.Text, got.Text)
		})
	}
}

func TestNextEnumeratesAndExhausts(t *testing.T) {
	text := heredoc.Doc(`
		#if !defined( __IPPS_H__ ) || defined( _OWN_BLDPCS )
		#define __IPPS_H__

		/* IPPAPI(IppStatus, ippsCommented, (int a)) */
		// IPPAPI(IppStatus, ippsLineCommented, (int a))
		IPPAPI(IppStatus, ippsZero_8u, (Ipp8u* pDst, int len))
		/*
		IPPAPI(IppStatus, ippsInsideBlock, (int a))
		*/
		IPPAPI(void, ippsFree, (void* ptr)) /* trailing
		   IPPAPI(IppStatus, ippsTrailingBlock, (int a))
		*/
		IPPAPI(const IppLibraryVersion*, ippsGetLibVersion, (void))
		#endif
	`)
	ls := lines(text)

	var names []string
	pos := 0
	for {
		d, next, err := Next(ls, pos)
		if errors.Is(err, ErrExhausted) {
			assert.Equal(t, len(ls), next)
			break
		}
		require.NoError(t, err)
		require.Greater(t, next, pos)
		names = append(names, d.Name)
		pos = next
	}
	assert.Equal(t, []string{"ippsZero_8u", "ippsFree", "ippsGetLibVersion"}, names)
	assert.Equal(t, "__IPPS_H__", HeaderID(ls))
}

func TestNextExhaustedOnEmpty(t *testing.T) {
	_, next, err := Next(nil, 0)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 0, next)

	_, _, err = Next([]string{"#define X 1", "int y;"}, 0)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestNextMalformed(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		reason string
		after  []string // names still recovered after the malformed one
	}{
		{
			name:   "unbalanced at end of input",
			text:   "IPPAPI(IppStatus, ippsBroken, (int a,\n int b",
			reason: "end of input",
		},
		{
			name:   "unbalanced before next declaration",
			text:   "IPPAPI(IppStatus, ippsBroken, (int a,\nIPPAPI(IppStatus, ippsOK, (int a))",
			reason: "unbalanced",
			after:  []string{"ippsOK"},
		},
		{
			name:   "too few arguments",
			text:   "IPPAPI(IppStatus, ippsBroken)\nIPPAPI(IppStatus, ippsOK, (int a))",
			reason: "expected 3 macro arguments",
			after:  []string{"ippsOK"},
		},
		{
			name:   "invalid name",
			text:   "IPPAPI(IppStatus, ipps-Broken, (int a))",
			reason: "invalid function name",
		},
		{
			name:   "missing return type",
			text:   "IPPAPI( , ippsBroken, (int a))",
			reason: "missing return type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decls, bad := NewScanner(tt.text).All()
			require.Len(t, bad, 1)
			assert.ErrorIs(t, bad[0], ErrMalformed)
			assert.Contains(t, bad[0].Reason, tt.reason)
			assert.Equal(t, 0, bad[0].Line)

			var names []string
			for _, d := range decls {
				names = append(names, d.Name)
			}
			assert.Equal(t, tt.after, names)
		})
	}
}

func TestNextRedundantParens(t *testing.T) {
	d, _, err := Next([]string{"IPPAPI(int, f, ((int a, int b)))"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "(int a, int b)", d.Args)

	d, _, err = Next([]string{"IPPAPI(int, f, int a)"}, 0)
	require.NoError(t, err)
	assert.Equal(t, "(int a)", d.Args)
}

func TestNextIgnoresSimilarMacros(t *testing.T) {
	_, _, err := Next([]string{"IPPAPIX(int, f, (int a))", "MY_IPPAPI(int, g, (int a))"}, 0)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestStringLiteralIsNotComment(t *testing.T) {
	code, inBlock := stripComments(`IPP_DEPRECATED("use /* other */ api") x // tail`, false)
	assert.False(t, inBlock)
	assert.Equal(t, `IPP_DEPRECATED("use /* other */ api") x `, code)
}

func TestHeaderIDMissing(t *testing.T) {
	assert.Empty(t, HeaderID([]string{"#ifndef FOO_H", "#define FOO_H"}))
	assert.Equal(t, "__IPPCP_H__", HeaderID([]string{"#if !defined(__IPPCP_H__)"}))
}
