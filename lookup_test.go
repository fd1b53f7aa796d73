package hfstol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// buildTransducer assembles a Transducer directly from in-memory tables,
// bypassing the binary reader, the way package convert does.
func buildTransducer(symbols []string, numInputSymbols int, tb *Tables) *Transducer {
	h := &Header{
		NumberOfInputSymbols: SymbolNumber(numInputSymbols),
		NumberOfSymbols:      SymbolNumber(len(symbols)),
		Weighted:             tb.Weighted,
	}
	a := NewAlphabet(symbols)
	return NewTransducer(h, a, tb)
}

// Scenario 1 (spec.md §8): a one-state unweighted transducer with self-loop
// transitions a:A and b:B, that single state both start and final.
func TestLookupTrivialUnweightedMap(t *testing.T) {
	symbols := []string{"@0@", "a", "b", "A", "B"}
	tb := NewTables(false, 3,
		[]Index{
			{Input: NoSymbol, Target: 1}, // slot 0: bare final marker
			{Input: 1, Target: TransitionTargetTableStart},
			{Input: 2, Target: TransitionTargetTableStart + 1},
		},
		[]TransitionEntry{
			{Input: 1, Output: 3, Target: 0},
			{Input: 2, Output: 4, Target: 0},
			{Input: NoSymbol, Output: NoSymbol, Target: 0},
		})
	tr := buildTransducer(symbols, 3, tb)

	got := tr.Lookup("ab", 0, 0)
	require.Len(t, got, 1)
	require.Equal(t, "AB", got[0].Output)
	require.Equal(t, Weight(0), got[0].Weight)

	require.Empty(t, tr.Lookup("ac", 0, 0))
}

// Scenario 2 (spec.md §8): a flag diacritic gates acceptance. @P.Num.Sg@
// sets Num=Sg on the way in; @R.Num.Sg@ on the way out requires it. Each
// state reserves a full row (rowWidth slots); slot 0 carries the state's
// epsilon/flag redirect or final marker, slot k carries ordinary symbol k.
func TestLookupFlagGating(t *testing.T) {
	symbols := []string{"@0@", "c", "a", "t", "@P.Num.Sg@", "@R.Num.Sg@", "@R.Num.Pl@"}
	const rowWidth = 4
	const (
		state0 TableIndex = 0 * rowWidth
		state1 TableIndex = 1 * rowWidth
		state2 TableIndex = 2 * rowWidth
		state3 TableIndex = 3 * rowWidth
		state4 TableIndex = 4 * rowWidth
		state5 TableIndex = 5 * rowWidth
	)
	tb := NewTables(false, rowWidth,
		[]Index{
			state0 + 0: {Input: Epsilon, Target: TransitionTargetTableStart + 0},
			state1 + 0: {Input: NoSymbol, Target: NoTableIndex},
			state1 + 1: {Input: 1, Target: TransitionTargetTableStart + 2},
			state2 + 0: {Input: NoSymbol, Target: NoTableIndex},
			state2 + 2: {Input: 2, Target: TransitionTargetTableStart + 4},
			state3 + 0: {Input: NoSymbol, Target: NoTableIndex},
			state3 + 3: {Input: 3, Target: TransitionTargetTableStart + 6},
			state4 + 0: {Input: Epsilon, Target: TransitionTargetTableStart + 8},
			state5 + 0: {Input: NoSymbol, Target: 1},
		},
		[]TransitionEntry{
			// state0's flag run: @P.Num.Sg@ -> state1
			{Input: 4, Output: 4, Target: state1},
			{Input: NoSymbol, Output: NoSymbol, Target: 0},
			// state1's 'c' run -> state2
			{Input: 1, Output: 1, Target: state2},
			{Input: NoSymbol, Output: NoSymbol, Target: 0},
			// state2's 'a' run -> state3
			{Input: 2, Output: 2, Target: state3},
			{Input: NoSymbol, Output: NoSymbol, Target: 0},
			// state3's 't' run -> state4
			{Input: 3, Output: 3, Target: state4},
			{Input: NoSymbol, Output: NoSymbol, Target: 0},
			// state4's flag run: @R.Num.Sg@ -> state5; @R.Num.Pl@ -> state5
			{Input: 5, Output: 5, Target: state5},
			{Input: 6, Output: 6, Target: state5},
			{Input: NoSymbol, Output: NoSymbol, Target: 0},
		})
	tr := buildTransducer(symbols, rowWidth, tb)

	got := tr.Lookup("cat", 0, 0)
	require.Len(t, got, 1)
	require.Equal(t, "cat", got[0].Output)
}

// Scenario 3 (spec.md §8): weighted ranking. Two competing arcs for the
// same input symbol must be returned lightest-first given how they are
// laid out in the transition table.
func TestLookupWeightedRanking(t *testing.T) {
	symbols := []string{"@0@", "a", "x", "y"}
	tb := NewTables(true, 2,
		[]Index{
			0: {Input: NoSymbol, Target: NoTableIndex},
			1: {Input: 1, Target: TransitionTargetTableStart},
		},
		[]TransitionEntry{
			{Input: 1, Output: 2, Target: TransitionTargetTableStart + 3, Weight: 1.0},
			{Input: 1, Output: 3, Target: TransitionTargetTableStart + 3, Weight: 2.5},
			{Input: NoSymbol, Output: NoSymbol, Target: 0},
			{Input: NoSymbol, Output: NoSymbol, Target: 1}, // final sentinel for the target state
		})
	tr := buildTransducer(symbols, 2, tb)

	got := tr.LookupPairs("a", 0, 0)
	require.Len(t, got, 2)
	require.Equal(t, Weight(1.0), got[0].Weight)
	require.Equal(t, Weight(2.5), got[1].Weight)
}

// Scenario 4 (spec.md §8): a one-state machine with an epsilon:epsilon
// self-loop and a final state. lookup("") must return exactly one result,
// not one per trip around the cycle.
func TestLookupEpsilonSelfLoopExactlyOneResult(t *testing.T) {
	symbols := []string{"@0@"}
	tb := NewTables(false, 1,
		[]Index{{Input: Epsilon, Target: TransitionTargetTableStart}},
		[]TransitionEntry{
			{Input: NoSymbol, Output: NoSymbol, Target: 1}, // leading final sentinel
			{Input: Epsilon, Output: Epsilon, Target: 0},   // self-loop
			{Input: NoSymbol, Output: NoSymbol, Target: 0}, // run terminator
		})
	tr := buildTransducer(symbols, 1, tb)

	got := tr.Lookup("", 0, 2*time.Second)
	require.Len(t, got, 1)
	require.Equal(t, "", got[0].Output)
}

// identitySelfLoopTables builds a single final state with a self-loop on
// @_IDENTITY_SYMBOL_@ (symbol 1): the start state itself is final (via the
// bare index-table marker at slot 0) and slot 1 redirects to the identity
// transition back to itself.
func identitySelfLoopTables() *Tables {
	return NewTables(false, 2,
		[]Index{
			{Input: NoSymbol, Target: 1},
			{Input: 1, Target: TransitionTargetTableStart},
		},
		[]TransitionEntry{
			{Input: 1, Output: 1, Target: 0},
			{Input: NoSymbol, Output: NoSymbol, Target: 0},
		})
}

// Scenario 5 (spec.md §8): identity substitution echoes an unknown symbol
// back out verbatim via a self-loop on @_IDENTITY_SYMBOL_@.
func TestLookupIdentityOnUnknownSymbol(t *testing.T) {
	symbols := []string{"@0@", "@_IDENTITY_SYMBOL_@"}
	tr := buildTransducer(symbols, 2, identitySelfLoopTables())

	got := tr.Lookup("zzz", 0, 0)
	require.Len(t, got, 1)
	require.Equal(t, "zzz", got[0].Output)
}

func TestLookupResultCountCutoff(t *testing.T) {
	symbols := []string{"@0@", "@_IDENTITY_SYMBOL_@"}
	tr := buildTransducer(symbols, 2, identitySelfLoopTables())
	got := tr.LookupPairs("zzz", 1, 0)
	require.LessOrEqual(t, len(got), 1)
}
