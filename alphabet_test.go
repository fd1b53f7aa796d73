package hfstol

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlphabetRoundTrip(t *testing.T) {
	symbols := []string{"@0@", "a", "b", "@_UNKNOWN_SYMBOL_@", "@_IDENTITY_SYMBOL_@", "@P.Num.Sg@"}
	a := NewAlphabet(symbols)

	var buf bytes.Buffer
	_, err := a.WriteTo(&buf)
	require.NoError(t, err)

	got, err := readAlphabet(&buf, len(symbols))
	require.NoError(t, err)
	require.Equal(t, a, got)
}

func TestAlphabetDistinguishedSymbols(t *testing.T) {
	a := NewAlphabet([]string{"@0@", "@_UNKNOWN_SYMBOL_@", "@_IDENTITY_SYMBOL_@", "@_DEFAULT_SYMBOL_@", "x"})
	require.EqualValues(t, 1, a.Unknown())
	require.EqualValues(t, 2, a.Identity())
	require.EqualValues(t, 3, a.Default())
	require.True(t, a.IsEpsilon(0))
	require.False(t, a.IsEpsilon(4))
}

func TestAlphabetFlagRegistry(t *testing.T) {
	a := NewAlphabet([]string{"@0@", "@P.Num.Sg@", "plain"})
	fd, ok := a.IsFlag(1)
	require.True(t, ok)
	require.Equal(t, FlagP, fd.Op)
	_, ok = a.IsFlag(2)
	require.False(t, ok)
}

func TestAlphabetAppendSymbol(t *testing.T) {
	a := NewAlphabet([]string{"@0@", "a"})
	n := a.AppendSymbol("b")
	require.EqualValues(t, 2, n)
	require.Equal(t, "b", a.String(n))
	require.EqualValues(t, 2, a.OriginalSymbolCount())
}

func TestAlphabetCloneIsIndependent(t *testing.T) {
	a := NewAlphabet([]string{"@0@", "a"})
	c := a.Clone()
	c.AppendSymbol("z")
	require.Equal(t, 2, a.Len())
	require.Equal(t, 3, c.Len())
}

func TestIsMeta(t *testing.T) {
	require.True(t, IsMeta("@_UNKNOWN_SYMBOL_@"))
	require.False(t, IsMeta("cat"))
	require.False(t, IsMeta("@"))
}
