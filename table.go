package hfstol

import (
	"encoding/binary"
	"io"
	"math"
)

// Index is one row entry of the transition-index table: (input-symbol,
// target-or-final-weight). If Input is NoSymbol and Target is NoTableIndex
// the slot is empty. If Input is NoSymbol and Target is anything else, the
// entry marks the owning state as final (for a weighted table Target is
// reinterpreted as the bit pattern of a float32 final weight; for an
// unweighted table it holds the literal value 1) rather than naming a
// transition. A slot left at the zero value (Input epsilon, Target 0) is
// also read as empty, since Target 0 addresses no transition-table entry.
// Otherwise Target is a transition-table address (>=
// TransitionTargetTableStart): the index table never carries an output
// symbol or a real next-state directly, it only ever points at the transition table entry (or short
// run of entries) that does.
type Index struct {
	Input  SymbolNumber
	Target TableIndex
}

// TransitionEntry is one row of the transition table: (input, output,
// target[, weight]). A run of transition-table entries belonging to one
// state is terminated by a sentinel entry with Input == Output == NoSymbol
// (Target 0). A final state's run opens with a leading sentinel whose
// Target is 1; for a weighted table that leading sentinel's Weight field
// holds the final weight.
type TransitionEntry struct {
	Input  SymbolNumber
	Output SymbolNumber
	Target TableIndex
	Weight Weight
}

func (t TransitionEntry) isSentinel() bool {
	return t.Input == NoSymbol && t.Output == NoSymbol
}

// Tables is the two-table packed representation described in spec.md §3:
// an index table and a transition table sharing one address space split at
// TransitionTargetTableStart.
//
// Index-table row layout for a "nonsimple" state starting at position s
// (width rowWidth = the alphabet's input-symbol count):
//
//	s+0:            finality marker, OR (if Input == epsilon) the address
//	                of a transition-table run holding every epsilon and
//	                flag-diacritic arc leaving this state, mixed together
//	                and distinguished by their own real input symbol.
//	s+1..s+W-1:     slot s+k is symbol k's arc, if k is an ordinary
//	                (non-flag) input symbol; unused slots are empty.
//
// Flags share slot 0 with epsilon rather than each getting their own slot
// because the number of *possible* flags vastly exceeds the number a given
// state actually branches on; see DESIGN.md for why this table chose that
// layout over giving every flag symbol its own row slot.
type Tables struct {
	Weighted   bool
	IndexRows  []Index
	Transition []TransitionEntry

	rowWidth int
}

func readTables(r io.Reader, h *Header) (*Tables, error) {
	t := &Tables{
		Weighted:  h.Weighted,
		rowWidth:  int(h.NumberOfInputSymbols),
		IndexRows: make([]Index, h.SizeOfTransitionIndexTable),
	}
	if t.rowWidth == 0 {
		t.rowWidth = 1
	}
	idxBuf := make([]byte, 6)
	for i := range t.IndexRows {
		if _, err := io.ReadFull(r, idxBuf); err != nil {
			return nil, &BadTransducerError{Reason: "truncated index table: " + err.Error()}
		}
		t.IndexRows[i] = Index{
			Input:  binary.LittleEndian.Uint16(idxBuf[0:2]),
			Target: binary.LittleEndian.Uint32(idxBuf[2:6]),
		}
	}
	entrySize := h.TransitionSize()
	t.Transition = make([]TransitionEntry, h.SizeOfTransitionTable)
	trBuf := make([]byte, entrySize)
	for i := range t.Transition {
		if _, err := io.ReadFull(r, trBuf); err != nil {
			return nil, &BadTransducerError{Reason: "truncated transition table: " + err.Error()}
		}
		e := TransitionEntry{
			Input:  binary.LittleEndian.Uint16(trBuf[0:2]),
			Output: binary.LittleEndian.Uint16(trBuf[2:4]),
			Target: binary.LittleEndian.Uint32(trBuf[4:8]),
		}
		if h.Weighted {
			e.Weight = math.Float32frombits(binary.LittleEndian.Uint32(trBuf[8:12]))
		}
		t.Transition[i] = e
	}
	return t, nil
}

// NewTables builds a Tables value around already-assembled rows, used by
// package convert and by tests that construct small transducers by hand.
func NewTables(weighted bool, rowWidth int, index []Index, transition []TransitionEntry) *Tables {
	return &Tables{Weighted: weighted, rowWidth: rowWidth, IndexRows: index, Transition: transition}
}

// WriteTo serializes the tables in the on-disk layout readTables expects.
func (t *Tables) WriteTo(w io.Writer) (int64, error) {
	var total int64
	buf6 := make([]byte, 6)
	for _, row := range t.IndexRows {
		binary.LittleEndian.PutUint16(buf6[0:2], row.Input)
		binary.LittleEndian.PutUint32(buf6[2:6], row.Target)
		n, err := w.Write(buf6)
		if err != nil {
			return total, err
		}
		total += int64(n)
	}
	size := 8
	if t.Weighted {
		size = 12
	}
	buf := make([]byte, size)
	for _, e := range t.Transition {
		binary.LittleEndian.PutUint16(buf[0:2], e.Input)
		binary.LittleEndian.PutUint16(buf[2:4], e.Output)
		binary.LittleEndian.PutUint32(buf[4:8], e.Target)
		if t.Weighted {
			binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(e.Weight))
		}
		n, err := w.Write(buf)
		if err != nil {
			return total, err
		}
		total += int64(n)
	}
	return total, nil
}

// isTransitionTableIndex reports whether i addresses the transition table
// rather than the index table.
func isTransitionTableIndex(i TableIndex) bool { return i >= TransitionTargetTableStart }

// Arc is a traversable edge the lookup and pmatch engines consume,
// abstracting over whether it originated from an index-table slot or a
// transition-table row.
type Arc struct {
	Input  SymbolNumber
	Output SymbolNumber
	Target TableIndex
	Weight Weight
}

// leadingFinalSentinel reports whether the transition-table run starting at
// the absolute index start opens with a final-marker sentinel, and if so
// its weight.
func (t *Tables) leadingFinalSentinel(start TableIndex) (bool, Weight) {
	idx := start - TransitionTargetTableStart
	if int(idx) >= len(t.Transition) {
		return false, 0
	}
	e := t.Transition[idx]
	if e.isSentinel() && e.Target == 1 {
		if t.Weighted {
			return true, e.Weight
		}
		return true, 0
	}
	return false, 0
}

// Final reports whether i names a final state and, if so, its final
// weight (0 for an unweighted table).
//
// A state can be final and still have epsilon/flag out-arcs: when an
// index-table row redirects to a transition-table run (row.Input ==
// epsilon), that run may itself open with a final-marker sentinel before
// its epsilon and flag entries, exactly like a transition-table-addressed
// state does. That is the only way a "nonsimple" state reachable purely
// through the index table can be both final and carry epsilon/flag arcs,
// since index-table slot 0 cannot encode both a bare final-weight marker
// and an epsilon redirect at once.
func (t *Tables) Final(i TableIndex) (bool, Weight) {
	if isTransitionTableIndex(i) {
		return t.leadingFinalSentinel(i)
	}
	if int(i) >= len(t.IndexRows) {
		return false, 0
	}
	row := t.IndexRows[i]
	switch row.Input {
	case NoSymbol:
		if row.Target == NoTableIndex {
			return false, 0
		}
		if t.Weighted {
			return true, math.Float32frombits(row.Target)
		}
		return true, 0
	case Epsilon:
		return t.leadingFinalSentinel(row.Target)
	default:
		return false, 0
	}
}

// scanRun walks a transition-table run starting at the absolute table
// index start (>= TransitionTargetTableStart), collecting every entry
// matching pred until the run's terminating sentinel.
func (t *Tables) scanRun(start TableIndex, pred func(TransitionEntry) bool) []Arc {
	var out []Arc
	idx := start - TransitionTargetTableStart
	for int(idx) < len(t.Transition) {
		e := t.Transition[idx]
		if e.isSentinel() {
			break
		}
		if pred(e) {
			out = append(out, Arc{Input: e.Input, Output: e.Output, Target: e.Target, Weight: e.Weight})
		}
		idx++
	}
	return out
}

// stateRunStart returns the absolute transition-table index at which a
// transition-table state's real transitions begin, skipping a leading
// final-marker sentinel if present.
func (t *Tables) stateRunStart(i TableIndex) TableIndex {
	idx := i - TransitionTargetTableStart
	if int(idx) < len(t.Transition) {
		e := t.Transition[idx]
		if e.isSentinel() && e.Target == 1 {
			return i + 1
		}
	}
	return i
}

func isEpsilonEntry(e TransitionEntry) bool { return e.Input == Epsilon && e.Output == Epsilon }

// EpsilonArc returns the epsilon:epsilon arc leaving state i, if any.
func (t *Tables) EpsilonArc(i TableIndex) (Arc, bool) {
	if isTransitionTableIndex(i) {
		arcs := t.scanRun(t.stateRunStart(i), isEpsilonEntry)
		if len(arcs) > 0 {
			return arcs[0], true
		}
		return Arc{}, false
	}
	if int(i) >= len(t.IndexRows) {
		return Arc{}, false
	}
	row := t.IndexRows[i]
	if row.Input != Epsilon {
		return Arc{}, false
	}
	arcs := t.scanRun(t.stateRunStart(row.Target), isEpsilonEntry)
	if len(arcs) > 0 {
		return arcs[0], true
	}
	return Arc{}, false
}

// FlagArcs returns every flag-diacritic-bearing arc leaving state i.
func (t *Tables) FlagArcs(i TableIndex, alphabet *Alphabet) []Arc {
	isFlag := func(e TransitionEntry) bool {
		_, ok := alphabet.IsFlag(e.Input)
		return ok
	}
	if isTransitionTableIndex(i) {
		return t.scanRun(t.stateRunStart(i), isFlag)
	}
	if int(i) >= len(t.IndexRows) {
		return nil
	}
	row := t.IndexRows[i]
	if row.Input != Epsilon {
		return nil
	}
	return t.scanRun(t.stateRunStart(row.Target), isFlag)
}

// NonEpsilonArcs returns every arc leaving state i whose input is sym
// (sym must not be epsilon).
func (t *Tables) NonEpsilonArcs(i TableIndex, sym SymbolNumber) []Arc {
	matches := func(e TransitionEntry) bool { return e.Input == sym }
	if isTransitionTableIndex(i) {
		return t.scanRun(t.stateRunStart(i), matches)
	}
	if int(i) >= len(t.IndexRows) || int(sym) >= t.rowWidth {
		return nil
	}
	slot := i + TableIndex(sym)
	if int(slot) >= len(t.IndexRows) {
		return nil
	}
	row := t.IndexRows[slot]
	if row.Input != sym {
		return nil
	}
	return t.scanRun(row.Target, matches)
}

// DefaultArc returns the arc leaving state i tagged with the alphabet's
// default symbol, if one is present.
func (t *Tables) DefaultArc(i TableIndex, alphabet *Alphabet) (Arc, bool) {
	d := alphabet.Default()
	if d == NoSymbol {
		return Arc{}, false
	}
	arcs := t.NonEpsilonArcs(i, d)
	if len(arcs) == 0 {
		return Arc{}, false
	}
	return arcs[0], true
}
