package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hfst-go/hfstol"
)

// trivialMapGraph builds a:A, b:B as an unweighted BasicGraph: state 0 has
// two ordinary-symbol arcs (nonsimple, two groups) to two separate final
// states (each simple: one group, in fact zero groups — a dead end).
func trivialMapGraph() *BasicGraph {
	symbols := []string{"@0@", "a", "b", "A", "B"}
	return &BasicGraph{
		Symbols: symbols,
		States: []BasicState{
			{Transitions: []BasicTransition{
				{Input: 1, Output: 3, Target: 1},
				{Input: 2, Output: 4, Target: 2},
			}},
			{Final: true},
			{Final: true},
		},
	}
}

func TestConvertTrivialMapRoundTrips(t *testing.T) {
	tr, err := Convert(trivialMapGraph())
	require.NoError(t, err)

	results := tr.Lookup("a", 0, 0)
	require.Len(t, results, 1)
	require.Equal(t, "A", results[0].Output)

	results = tr.Lookup("b", 0, 0)
	require.Len(t, results, 1)
	require.Equal(t, "B", results[0].Output)

	require.Empty(t, tr.Lookup("c", 0, 0))
}

// finalWithEpsilonGraph exercises a state that is both final and carries an
// epsilon arc (spec.md §8 scenario 4): state 0 is final and has an epsilon
// arc to state 1, which consumes "a" to reach a second final state.
func finalWithEpsilonGraph() *BasicGraph {
	symbols := []string{"@0@", "a"}
	return &BasicGraph{
		Symbols: symbols,
		States: []BasicState{
			{Final: true, Transitions: []BasicTransition{
				{Input: hfstol.Epsilon, Output: hfstol.Epsilon, Target: 1},
			}},
			{Transitions: []BasicTransition{
				{Input: 1, Output: 1, Target: 2},
			}},
			{Final: true},
		},
	}
}

func TestConvertFinalStateWithEpsilonArcAcceptsEmptyInput(t *testing.T) {
	tr, err := Convert(finalWithEpsilonGraph())
	require.NoError(t, err)

	results := tr.Lookup("", 0, time.Second)
	require.Len(t, results, 1)
	require.Equal(t, "", results[0].Output)
}

func TestConvertFinalStateWithEpsilonArcAcceptsFollowingInput(t *testing.T) {
	tr, err := Convert(finalWithEpsilonGraph())
	require.NoError(t, err)

	results := tr.Lookup("a", 0, time.Second)
	require.Len(t, results, 1)
	require.Equal(t, "a", results[0].Output)
}

// Layout invariants from spec.md §8, as far as this test checks them:
// every index-table target that is a redirect (Input != NoSymbol) is a
// transition-table address (>= 2^31); for a nonsimple state's row, every
// occupied non-epsilon slot's stored Input equals the slot's own offset
// from the row base (a bare final marker's Input == NoSymbol is the one
// case that legitimately breaks the ">= 2^31" rule on its Target, since it
// stores a weight/marker value rather than an address, not a row
// positioning violation); and every Input/Output == NoSymbol sentinel in
// the transition table has Target 0 (run terminator) or 1 (leading final
// marker).
func TestConvertLayoutInvariants(t *testing.T) {
	g := trivialMapGraph()
	tr, err := Convert(g)
	require.NoError(t, err)

	rowWidth := int(tr.Header.NumberOfInputSymbols)
	for slot, row := range tr.Tables.IndexRows {
		if row.Input == hfstol.Epsilon && row.Target == 0 {
			continue // unset slot, see table.go's zero-value convention
		}
		if row.Input != hfstol.NoSymbol {
			require.GreaterOrEqualf(t, row.Target, hfstol.TransitionTargetTableStart,
				"slot %d: redirect target must address the transition table", slot)
			offsetInRow := hfstol.SymbolNumber(slot % rowWidth)
			if row.Input != hfstol.Epsilon {
				require.Equal(t, offsetInRow, row.Input, "slot %d: input symbol must match its row offset", slot)
			}
		}
	}

	for i := 0; i+1 <= len(tr.Tables.Transition); i++ {
		e := tr.Tables.Transition[i]
		isSentinel := e.Input == hfstol.NoSymbol && e.Output == hfstol.NoSymbol
		if isSentinel && e.Target != 0 && e.Target != 1 {
			t.Fatalf("transition %d: sentinel target must be 0 (terminator) or 1 (leading final marker), got %d", i, e.Target)
		}
	}
}

func TestConvertRejectsEmptyGraph(t *testing.T) {
	_, err := Convert(&BasicGraph{})
	require.Error(t, err)
	var fatal *hfstol.FatalInternalError
	require.ErrorAs(t, err, &fatal)
}

// A weighted graph carries its final and arc weights through conversion.
func TestConvertWeighted(t *testing.T) {
	g := &BasicGraph{
		Weighted: true,
		Symbols:  []string{"@0@", "a", "A"},
		States: []BasicState{
			{Transitions: []BasicTransition{{Input: 1, Output: 2, Target: 1, Weight: 1.5}}},
			{Final: true, FinalWeight: 0.5},
		},
	}
	tr, err := Convert(g)
	require.NoError(t, err)

	results := tr.Lookup("a", 0, 0)
	require.Len(t, results, 1)
	require.Equal(t, "A", results[0].Output)
	require.InDelta(t, 2.0, float64(results[0].Weight), 1e-6)
}
