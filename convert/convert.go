// Package convert packs an in-memory, unpacked transducer graph into the
// two-table optimized-lookup layout package hfstol's loader reads.
package convert

import (
	"math"
	"sort"

	"github.com/hfst-go/hfstol"
)

// BasicTransition is one outgoing arc of a BasicState. Target names another
// state by its index into BasicGraph.States.
type BasicTransition struct {
	Input  hfstol.SymbolNumber
	Output hfstol.SymbolNumber
	Target int
	Weight float32
}

// BasicState is one state of an unpacked transducer graph.
type BasicState struct {
	Transitions []BasicTransition
	Final       bool
	FinalWeight float32
}

// BasicGraph is an unpacked transducer ready for packing: state 0 is always
// the start state, and Symbols lists the shared symbol table in
// symbol-number order (symbol 0 must be the epsilon string, matching
// hfstol.NewAlphabet's contract).
type BasicGraph struct {
	States   []BasicState
	Symbols  []string
	Weighted bool
}

// symbolGroup is a state's transitions sharing one index-table slot:
// epsilon and flag-diacritic arcs always share slot 0 (hfstol/table.go's
// documented convention — see DESIGN.md), every ordinary input symbol gets
// its own slot numbered after itself.
type symbolGroup struct {
	isEpsFlag bool
	symbol    hfstol.SymbolNumber
	trans     []BasicTransition
}

type stateKind int

const (
	simple stateKind = iota
	nonsimple
)

// groupTransitions buckets st's transitions per spec.md §4.6: epsilons
// first, then flags (together, since they share slot 0), then the
// remaining inputs each in their own group, in ascending symbol order.
func groupTransitions(trs []BasicTransition, alphabet *hfstol.Alphabet) []symbolGroup {
	var epsOnly, flagOnly []BasicTransition
	ordinary := make(map[hfstol.SymbolNumber][]BasicTransition)
	for _, tr := range trs {
		switch {
		case tr.Input == hfstol.Epsilon:
			epsOnly = append(epsOnly, tr)
		default:
			if _, ok := alphabet.IsFlag(tr.Input); ok {
				flagOnly = append(flagOnly, tr)
				continue
			}
			ordinary[tr.Input] = append(ordinary[tr.Input], tr)
		}
	}
	var groups []symbolGroup
	if epsFlag := append(epsOnly, flagOnly...); len(epsFlag) > 0 {
		groups = append(groups, symbolGroup{isEpsFlag: true, trans: epsFlag})
	}
	syms := make([]hfstol.SymbolNumber, 0, len(ordinary))
	for s := range ordinary {
		syms = append(syms, s)
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i] < syms[j] })
	for _, s := range syms {
		groups = append(groups, symbolGroup{symbol: s, trans: ordinary[s]})
	}
	return groups
}

// classify implements spec.md §4.6 step 2: a state with at most one group
// needs no index-table row at all (other arcs address it directly by its
// single run's transition-table position); two or more groups make it
// nonsimple and it gets a full row.
func classify(groups []symbolGroup) stateKind {
	if len(groups) <= 1 {
		return simple
	}
	return nonsimple
}

func inputSymbolCount(g *BasicGraph) int {
	max := hfstol.SymbolNumber(0)
	for _, st := range g.States {
		for _, tr := range st.Transitions {
			if tr.Input != hfstol.NoSymbol && tr.Input > max {
				max = tr.Input
			}
		}
	}
	return int(max) + 1
}

func finalMarker(weighted bool, fw float32) hfstol.TableIndex {
	if weighted {
		return math.Float32bits(fw)
	}
	return 1
}

func hasEpsFlagGroup(groups []symbolGroup) bool {
	return len(groups) > 0 && groups[0].isEpsFlag
}

// Convert packs g into a Transducer. State 0 is always given an
// index-table row at table index 0, since the loaded format always begins
// a search there, regardless of how classify would have scored it on its
// own. Every other nonsimple state is packed into its own non-overlapping
// block of the index table, in decreasing group count per spec.md §4.6
// step 3 — this repo allocates one fresh block per state rather than
// hunting for free slots other states' rows left unused, the simplification
// DESIGN.md records for this step.
func Convert(g *BasicGraph) (*hfstol.Transducer, error) {
	if len(g.States) == 0 {
		return nil, &hfstol.FatalInternalError{Reason: "convert: empty graph"}
	}
	alphabet := hfstol.NewAlphabet(g.Symbols)
	rowWidth := inputSymbolCount(g)
	if rowWidth == 0 {
		rowWidth = 1
	}

	groups := make([][]symbolGroup, len(g.States))
	kind := make([]stateKind, len(g.States))
	for i, st := range g.States {
		groups[i] = groupTransitions(st.Transitions, alphabet)
		kind[i] = classify(groups[i])
	}
	kind[0] = nonsimple

	var nonsimpleOrder []int
	for i := 1; i < len(g.States); i++ {
		if kind[i] == nonsimple {
			nonsimpleOrder = append(nonsimpleOrder, i)
		}
	}
	sort.SliceStable(nonsimpleOrder, func(a, b int) bool {
		return len(groups[nonsimpleOrder[a]]) > len(groups[nonsimpleOrder[b]])
	})

	indexRows := make([]hfstol.Index, rowWidth) // state 0's row, forced to base 0
	indexBase := make([]hfstol.TableIndex, len(g.States))
	for _, i := range nonsimpleOrder {
		indexBase[i] = hfstol.TableIndex(len(indexRows))
		indexRows = append(indexRows, make([]hfstol.Index, rowWidth)...)
	}

	// Pass A: compute every state's address (index base, for a nonsimple
	// state, or the direct transition-table address of its lone run) and
	// every group's own run address, purely from each state's own arc
	// counts — no state's address depends on any other state's content, so
	// this can run before any target symbol is actually resolved.
	resolvedAddr := make([]hfstol.TableIndex, len(g.States))
	groupAddr := make([][]hfstol.TableIndex, len(g.States))
	total := 0
	for i, st := range g.States {
		gs := groups[i]
		groupAddr[i] = make([]hfstol.TableIndex, len(gs))
		if kind[i] == nonsimple {
			resolvedAddr[i] = indexBase[i]
			for gi, grp := range gs {
				groupAddr[i][gi] = hfstol.TransitionTargetTableStart + hfstol.TableIndex(total)
				if grp.isEpsFlag && st.Final {
					total++ // leading final sentinel
				}
				total += len(grp.trans) + 1 // +1 run terminator
			}
			continue
		}
		start := hfstol.TransitionTargetTableStart + hfstol.TableIndex(total)
		resolvedAddr[i] = start
		if len(gs) == 1 {
			groupAddr[i][0] = start
			if st.Final {
				total++
			}
			total += len(gs[0].trans) + 1
			continue
		}
		// A dead-end state (no outgoing arcs at all): its run is nothing
		// but an optional final marker and the terminator.
		if st.Final {
			total++
		}
		total++
	}

	// Pass B: emit the actual transition-table entries now that every
	// state's address is known.
	transitions := make([]hfstol.TransitionEntry, total)
	pos := 0
	weightOf := func(w float32) hfstol.Weight {
		if g.Weighted {
			return w
		}
		return 0
	}
	writeSentinel := func() {
		transitions[pos] = hfstol.TransitionEntry{Input: hfstol.NoSymbol, Output: hfstol.NoSymbol, Target: 0}
		pos++
	}
	writeLeading := func(fw float32) {
		transitions[pos] = hfstol.TransitionEntry{
			Input: hfstol.NoSymbol, Output: hfstol.NoSymbol,
			Target: 1, Weight: weightOf(fw),
		}
		pos++
	}
	writeGroup := func(grp symbolGroup) {
		for _, tr := range grp.trans {
			transitions[pos] = hfstol.TransitionEntry{
				Input: tr.Input, Output: tr.Output,
				Target: resolvedAddr[tr.Target], Weight: weightOf(tr.Weight),
			}
			pos++
		}
		writeSentinel()
	}

	for i, st := range g.States {
		gs := groups[i]
		if kind[i] == nonsimple {
			for _, grp := range gs {
				if grp.isEpsFlag && st.Final {
					writeLeading(st.FinalWeight)
				}
				writeGroup(grp)
			}
			continue
		}
		if len(gs) == 1 {
			if st.Final {
				writeLeading(st.FinalWeight)
			}
			writeGroup(gs[0])
			continue
		}
		if st.Final {
			writeLeading(st.FinalWeight)
		}
		writeSentinel()
	}

	// Fill in the index rows belonging to the nonsimple states: slot 0
	// carries the epsilon/flag redirect if the state has one, else (if the
	// state is final) the bare final marker; slot k carries the redirect
	// for ordinary input symbol k.
	fillRow := func(i int) {
		base := indexBase[i]
		for gi, grp := range groups[i] {
			if grp.isEpsFlag {
				indexRows[base+0] = hfstol.Index{Input: hfstol.Epsilon, Target: groupAddr[i][gi]}
				continue
			}
			indexRows[base+hfstol.TableIndex(grp.symbol)] = hfstol.Index{Input: grp.symbol, Target: groupAddr[i][gi]}
		}
		if !hasEpsFlagGroup(groups[i]) && g.States[i].Final {
			indexRows[base+0] = hfstol.Index{Input: hfstol.NoSymbol, Target: finalMarker(g.Weighted, g.States[i].FinalWeight)}
		}
	}
	fillRow(0)
	for _, i := range nonsimpleOrder {
		fillRow(i)
	}

	h := &hfstol.Header{
		NumberOfInputSymbols: hfstol.SymbolNumber(rowWidth),
		NumberOfSymbols:      hfstol.SymbolNumber(len(g.Symbols)),
		Weighted:             g.Weighted,
		NumberOfStates:       uint32(len(g.States)),
		NumberOfTransitions:  uint32(total),

		SizeOfTransitionIndexTable: hfstol.TableIndex(len(indexRows)),
		SizeOfTransitionTable:      hfstol.TableIndex(total),
	}
	tb := hfstol.NewTables(g.Weighted, rowWidth, indexRows, transitions)
	return hfstol.NewTransducer(h, alphabet, tb), nil
}
