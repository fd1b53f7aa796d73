package hfstol

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFlagDiacritic(t *testing.T) {
	cases := []struct {
		in      string
		wantOp  FlagOp
		wantFt  string
		wantVal string
		wantOk  bool
	}{
		{"@P.Num.Sg@", FlagP, "Num", "Sg", true},
		{"@R.Num@", FlagR, "Num", "", true},
		{"@U.Case.Gen@", FlagU, "Case", "Gen", true},
		{"cat", "", "", "", false},
		{"@X.Num@", "", "", "", false},
		{"@P@", "", "", "", false},
	}
	for _, c := range cases {
		fd, ok := ParseFlagDiacritic(c.in)
		require.Equal(t, c.wantOk, ok, c.in)
		if c.wantOk {
			require.Equal(t, c.wantOp, fd.Op, c.in)
			require.Equal(t, c.wantFt, fd.Feature, c.in)
			require.Equal(t, c.wantVal, fd.Value, c.in)
		}
	}
}

func TestFlagStateSetThenRequire(t *testing.T) {
	s := NewFlagState()
	require.True(t, s.Apply(&FlagDiacritic{Op: FlagP, Feature: "Num", Value: "Sg"}))
	require.True(t, s.Apply(&FlagDiacritic{Op: FlagR, Feature: "Num", Value: "Sg"}))
	require.False(t, s.Apply(&FlagDiacritic{Op: FlagR, Feature: "Num", Value: "Pl"}))
}

func TestFlagStateUnifyThenConflict(t *testing.T) {
	s := NewFlagState()
	require.True(t, s.Apply(&FlagDiacritic{Op: FlagU, Feature: "Case", Value: "Gen"}))
	require.True(t, s.Apply(&FlagDiacritic{Op: FlagU, Feature: "Case", Value: "Gen"}))
	require.False(t, s.Apply(&FlagDiacritic{Op: FlagU, Feature: "Case", Value: "Par"}))
}

func TestFlagStateDisallow(t *testing.T) {
	s := NewFlagState()
	require.True(t, s.Apply(&FlagDiacritic{Op: FlagP, Feature: "Num", Value: "Sg"}))
	require.False(t, s.Apply(&FlagDiacritic{Op: FlagD, Feature: "Num", Value: "Sg"}))
	require.True(t, s.Apply(&FlagDiacritic{Op: FlagD, Feature: "Num", Value: "Pl"}))
}

func TestFlagStateClearAndBareRequire(t *testing.T) {
	s := NewFlagState()
	require.False(t, s.Apply(&FlagDiacritic{Op: FlagR, Feature: "Num"}))
	require.True(t, s.Apply(&FlagDiacritic{Op: FlagP, Feature: "Num", Value: "Sg"}))
	require.True(t, s.Apply(&FlagDiacritic{Op: FlagR, Feature: "Num"}))
	require.True(t, s.Apply(&FlagDiacritic{Op: FlagC, Feature: "Num"}))
	require.False(t, s.Apply(&FlagDiacritic{Op: FlagR, Feature: "Num"}))
}

func TestFlagStateCloneIsIndependent(t *testing.T) {
	s := NewFlagState()
	s.Apply(&FlagDiacritic{Op: FlagP, Feature: "Num", Value: "Sg"})
	c := s.Clone()
	c.Apply(&FlagDiacritic{Op: FlagP, Feature: "Num", Value: "Pl"})
	require.True(t, s.Apply(&FlagDiacritic{Op: FlagR, Feature: "Num", Value: "Sg"}))
}
